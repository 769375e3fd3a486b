package document

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfcrop/contentstream"
	"github.com/wudi/pdfcrop/extractor"
	"github.com/wudi/pdfcrop/geo"
	"github.com/wudi/pdfcrop/observability"
	"github.com/wudi/pdfcrop/recovery"
)

// Page is one page of an open Document. Its content is traced on first use.
type Page struct {
	doc  *Document
	num  int
	dict types.Dict
	inh  *model.InheritedPageAttrs

	res    *resources
	trace  *contentstream.Trace
	traced bool
	err    error
}

// Number returns the 1-based page number.
func (p *Page) Number() int { return p.num }

// MediaBox returns the page's media box, inherited through /Parent when the
// page does not define one.
func (p *Page) MediaBox() (geo.Rectangle, error) {
	if r, ok := p.doc.rect(p.doc.inherited(p.dict, "MediaBox")); ok {
		return r, nil
	}
	if p.inh != nil && p.inh.MediaBox != nil {
		mb := p.inh.MediaBox
		return geo.Rectangle{LLX: mb.LL.X, LLY: mb.LL.Y, URX: mb.UR.X, URY: mb.UR.Y}.Normalize(), nil
	}
	return geo.Rectangle{}, fmt.Errorf("page %d: %w", p.num, ErrNoMediaBox)
}

// CropBox returns the page's crop box. ok is false when none is set, in
// which case the media box is returned.
func (p *Page) CropBox() (r geo.Rectangle, ok bool, err error) {
	if r, ok := p.doc.rect(p.doc.inherited(p.dict, "CropBox")); ok {
		return r, true, nil
	}
	r, err = p.MediaBox()
	return r, false, err
}

// SetCropBox sets /CropBox on the page. r must be non-degenerate and lie
// within the media box.
func (p *Page) SetCropBox(r geo.Rectangle) error {
	if !r.Valid() {
		return fmt.Errorf("page %d: degenerate crop box %s", p.num, r)
	}
	media, err := p.MediaBox()
	if err != nil {
		return err
	}
	if !media.Contains(r) {
		return fmt.Errorf("page %d: crop box %s outside media box %s", p.num, r, media)
	}
	p.dict.Update("CropBox", types.NewRectangle(r.LLX, r.LLY, r.URX, r.URY).Array())
	return nil
}

func (p *Page) resources() *resources {
	if p.res == nil {
		p.res = newResources(p.doc, p.doc.dict(p.doc.inherited(p.dict, "Resources")))
	}
	return p.res
}

// content concatenates the page's decoded content streams.
func (p *Page) content() ([]byte, error) {
	contents, ok := p.dict.Find("Contents")
	if !ok || contents == nil {
		return nil, nil
	}
	refs := []types.Object{contents}
	if arr := p.doc.array(contents); arr != nil {
		refs = arr
	}
	var buf bytes.Buffer
	for i, ref := range refs {
		data, err := p.doc.streamContent(ref)
		if err != nil {
			return nil, fmt.Errorf("page %d content stream %d: %w", p.num, i, err)
		}
		buf.Write(data)
		// streams may split at any token boundary
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (p *Page) load() (*contentstream.Trace, error) {
	if p.traced {
		return p.trace, p.err
	}
	p.traced = true

	data, err := p.content()
	if err != nil {
		p.err = err
		return nil, err
	}
	ctx := context.Background()
	tr, err := p.doc.tracer.Trace(ctx, data, p.resources())
	if err != nil {
		p.err = fmt.Errorf("page %d: %w", p.num, err)
		return nil, p.err
	}
	for _, w := range tr.Warnings {
		action := recovery.ActionWarn
		if p.doc.recovery != nil {
			action = p.doc.recovery.OnError(ctx, w, recovery.Location{Page: p.num, Component: "content"})
		}
		switch action {
		case recovery.ActionFail:
			p.err = fmt.Errorf("page %d: %w", p.num, w)
			return nil, p.err
		case recovery.ActionWarn:
			p.doc.log.Warn("content anomaly", observability.Int("page", p.num), observability.Error("error", w))
		}
	}
	p.trace = tr
	return tr, nil
}

// TextBlocks returns one rectangle per text object.
func (p *Page) TextBlocks() ([]geo.Rectangle, error) {
	tr, err := p.load()
	if err != nil {
		return nil, err
	}
	return tr.TextBlocks, nil
}

// Images lists the images of the page: every Image XObject of the page
// resources, placed or not, images placed from forms, and inline images.
func (p *Page) Images() ([]extractor.Image, error) {
	tr, err := p.load()
	if err != nil {
		return nil, err
	}
	var out []extractor.Image
	index := make(map[string]int)
	for _, x := range p.resources().images() {
		index[x.ID] = len(out)
		out = append(out, extractor.Image{ID: x.ID})
	}
	for _, pl := range tr.Images {
		if pl.Inline {
			out = append(out, extractor.Image{ID: pl.ID, Inline: true, Placements: []geo.Rectangle{pl.Rect}})
			continue
		}
		i, ok := index[pl.ID]
		if !ok {
			i = len(out)
			index[pl.ID] = i
			out = append(out, extractor.Image{ID: pl.ID})
		}
		out[i].Placements = append(out[i].Placements, pl.Rect)
	}
	return out, nil
}

// Drawings returns one entry per painted path or shading.
func (p *Page) Drawings() ([]extractor.Drawing, error) {
	tr, err := p.load()
	if err != nil {
		return nil, err
	}
	out := make([]extractor.Drawing, len(tr.Drawings))
	for i, d := range tr.Drawings {
		out[i] = extractor.Drawing{Operator: d.Operator, Rect: d.Rect}
	}
	return out, nil
}

// Annotations lists the page's markup annotations, whatever their flags.
// Links and form widgets are not annotations in this sense.
func (p *Page) Annotations() ([]extractor.Annotation, error) {
	annots, _ := p.dict.Find("Annots")
	arr := p.doc.array(annots)
	var out []extractor.Annotation
	for _, o := range arr {
		ad := p.doc.dict(o)
		if ad == nil {
			continue
		}
		subtype := p.doc.name(ad["Subtype"])
		if subtype == "Link" || subtype == "Widget" {
			continue
		}
		r, ok := p.doc.rect(ad["Rect"])
		if !ok {
			p.doc.log.Debug("annotation without rect", observability.Int("page", p.num), observability.String("subtype", subtype))
			continue
		}
		out = append(out, extractor.Annotation{Subtype: subtype, Rect: r})
	}
	return out, nil
}

func sortedKeys(d types.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
