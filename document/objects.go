package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfcrop/coords"
	"github.com/wudi/pdfcrop/geo"
)

// maxParentDepth bounds /Parent walks on malformed page trees.
const maxParentDepth = 64

// resolve dereferences o, returning nil for dangling references.
func (d *Document) resolve(o types.Object) types.Object {
	if o == nil {
		return nil
	}
	if _, ok := o.(types.IndirectRef); !ok {
		return o
	}
	v, err := d.ctx.Dereference(o)
	if err != nil {
		return nil
	}
	return v
}

func (d *Document) dict(o types.Object) types.Dict {
	switch v := d.resolve(o).(type) {
	case types.Dict:
		return v
	case types.StreamDict:
		return v.Dict
	}
	return nil
}

func (d *Document) array(o types.Object) types.Array {
	a, _ := d.resolve(o).(types.Array)
	return a
}

func (d *Document) name(o types.Object) string {
	switch v := d.resolve(o).(type) {
	case types.Name:
		return string(v)
	case types.StringLiteral:
		return string(v)
	}
	return ""
}

func (d *Document) number(o types.Object) (float64, bool) {
	switch v := d.resolve(o).(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}

func (d *Document) numbers(o types.Object) []float64 {
	arr := d.array(o)
	if arr == nil {
		return nil
	}
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		if v, ok := d.number(item); ok {
			out = append(out, v)
		}
	}
	return out
}

func (d *Document) rect(o types.Object) (geo.Rectangle, bool) {
	v := d.numbers(o)
	if len(v) != 4 {
		return geo.Rectangle{}, false
	}
	return geo.FromArray(v)
}

func (d *Document) matrix(o types.Object) coords.Matrix {
	v := d.numbers(o)
	if len(v) != 6 {
		return coords.Identity()
	}
	return coords.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
}

// streamContent decodes the stream o refers to.
func (d *Document) streamContent(o types.Object) ([]byte, error) {
	obj, err := d.ctx.Dereference(o)
	if err != nil {
		return nil, err
	}
	sd, ok := obj.(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("object is %T, not a stream", obj)
	}
	if sd.Content == nil {
		if err := sd.Decode(); err != nil {
			return nil, fmt.Errorf("decode stream: %w", err)
		}
	}
	return sd.Content, nil
}

// objectID names an indirect object, or returns fallback for direct ones.
func objectID(o types.Object, fallback string) string {
	if ref, ok := o.(types.IndirectRef); ok {
		return fmt.Sprintf("%d %d R", int(ref.ObjectNumber), int(ref.GenerationNumber))
	}
	return fallback
}

// inherited looks key up on dict and then along its /Parent chain.
func (d *Document) inherited(dict types.Dict, key string) types.Object {
	for i := 0; dict != nil && i < maxParentDepth; i++ {
		if v, ok := dict.Find(key); ok && v != nil {
			return v
		}
		parent, _ := dict.Find("Parent")
		dict = d.dict(parent)
	}
	return nil
}
