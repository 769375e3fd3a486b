package document

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfcrop/contentstream"
	"github.com/wudi/pdfcrop/fonts"
)

// resources resolves content stream names against a /Resources dictionary.
type resources struct {
	doc   *Document
	dict  types.Dict
	fonts map[string]*fonts.Metrics
	xobjs map[string]*contentstream.XObject
}

func newResources(d *Document, dict types.Dict) *resources {
	return &resources{
		doc:   d,
		dict:  dict,
		fonts: make(map[string]*fonts.Metrics),
		xobjs: make(map[string]*contentstream.XObject),
	}
}

func (r *resources) category(name string) types.Dict {
	if r.dict == nil {
		return nil
	}
	return r.doc.dict(r.dict[name])
}

func (r *resources) Font(name string) *fonts.Metrics {
	if m, ok := r.fonts[name]; ok {
		return m
	}
	var m *fonts.Metrics
	if fd := r.category("Font"); fd != nil {
		if o, ok := fd[name]; ok {
			m = r.doc.fontMetrics(o)
		}
	}
	r.fonts[name] = m
	return m
}

func (r *resources) XObject(name string) (*contentstream.XObject, bool) {
	if x, ok := r.xobjs[name]; ok {
		return x, x != nil
	}
	x := r.lookupXObject(name)
	r.xobjs[name] = x
	return x, x != nil
}

func (r *resources) lookupXObject(name string) *contentstream.XObject {
	xd := r.category("XObject")
	if xd == nil {
		return nil
	}
	o, ok := xd[name]
	if !ok {
		return nil
	}
	sd := r.doc.dict(o)
	if sd == nil {
		return nil
	}
	x := &contentstream.XObject{
		ID:      objectID(o, "/"+name),
		Subtype: r.doc.name(sd["Subtype"]),
	}
	if x.Subtype != contentstream.SubtypeForm {
		return x
	}
	x.Matrix = r.doc.matrix(sd["Matrix"])
	if res := r.doc.dict(sd["Resources"]); res != nil {
		x.Resources = newResources(r.doc, res)
	}
	x.Content = func() ([]byte, error) { return r.doc.streamContent(o) }
	return x
}

// images lists the Image XObjects of the dictionary in name order.
func (r *resources) images() []*contentstream.XObject {
	xd := r.category("XObject")
	if xd == nil {
		return nil
	}
	var out []*contentstream.XObject
	for _, name := range sortedKeys(xd) {
		if x, ok := r.XObject(name); ok && x.Subtype == contentstream.SubtypeImage {
			out = append(out, x)
		}
	}
	return out
}
