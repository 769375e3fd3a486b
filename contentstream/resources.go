package contentstream

import (
	"github.com/wudi/pdfcrop/coords"
	"github.com/wudi/pdfcrop/fonts"
)

// Resources resolves the names used by a content stream.
type Resources interface {
	// Font returns nil for unknown names.
	Font(name string) *fonts.Metrics
	XObject(name string) (*XObject, bool)
}

// XObject subtypes the tracer distinguishes.
const (
	SubtypeImage = "Image"
	SubtypeForm  = "Form"
)

// XObject is an external object referenced by Do.
type XObject struct {
	// ID identifies the object across resource dictionaries, e.g. "12 0 R".
	ID      string
	Subtype string

	// Form XObjects only.
	Matrix    coords.Matrix
	Resources Resources // nil: inherit the invoking stream's resources
	Content   func() ([]byte, error)
}

// StaticResources is a map backed Resources.
type StaticResources struct {
	Fonts    map[string]*fonts.Metrics
	XObjects map[string]*XObject
}

func (r *StaticResources) Font(name string) *fonts.Metrics {
	if r == nil {
		return nil
	}
	return r.Fonts[name]
}

func (r *StaticResources) XObject(name string) (*XObject, bool) {
	if r == nil {
		return nil, false
	}
	x, ok := r.XObjects[name]
	return x, ok
}
