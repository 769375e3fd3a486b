// Package extractor computes the region of a page that carries visible
// content.
package extractor

import (
	"fmt"

	"github.com/wudi/pdfcrop/geo"
)

// Page is the view of a PDF page the extractor needs. Rectangles are in
// default user space.
type Page interface {
	// TextBlocks returns one rectangle per block of text.
	TextBlocks() ([]geo.Rectangle, error)
	Images() ([]Image, error)
	Drawings() ([]Drawing, error)
	Annotations() ([]Annotation, error)
}

// Image is one image resource. It may be placed several times or not at all.
type Image struct {
	ID         string
	Inline     bool
	Placements []geo.Rectangle
}

// Drawing is one vector graphics primitive. Rect is nil when the primitive
// has no meaningful bounding box.
type Drawing struct {
	Operator string
	Rect     *geo.Rectangle
}

// Annotation is a page annotation with its /Rect.
type Annotation struct {
	Subtype string
	Rect    geo.Rectangle
}

// Kind names the category a content rectangle came from.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindDrawing
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindDrawing:
		return "drawing"
	case KindAnnotation:
		return "annotation"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Item is a content rectangle tagged with its category.
type Item struct {
	Kind Kind
	Rect geo.Rectangle
}

// Collect gathers the rectangles of every content category on p, in the
// order text, images, drawings, annotations. Drawings without a rectangle
// are left out.
func Collect(p Page) ([]Item, error) {
	var items []Item

	blocks, err := p.TextBlocks()
	if err != nil {
		return nil, fmt.Errorf("text blocks: %w", err)
	}
	for _, r := range blocks {
		items = append(items, Item{Kind: KindText, Rect: r})
	}

	images, err := p.Images()
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	for _, img := range images {
		for _, r := range img.Placements {
			items = append(items, Item{Kind: KindImage, Rect: r})
		}
	}

	drawings, err := p.Drawings()
	if err != nil {
		return nil, fmt.Errorf("drawings: %w", err)
	}
	for _, d := range drawings {
		if d.Rect != nil {
			items = append(items, Item{Kind: KindDrawing, Rect: *d.Rect})
		}
	}

	annots, err := p.Annotations()
	if err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}
	for _, a := range annots {
		items = append(items, Item{Kind: KindAnnotation, Rect: a.Rect})
	}
	return items, nil
}

// ContentBBox returns the smallest rectangle enclosing every content
// rectangle of p. ok is false when the page has no content.
func ContentBBox(p Page) (bbox geo.Rectangle, ok bool, err error) {
	items, err := Collect(p)
	if err != nil {
		return geo.Rectangle{}, false, err
	}
	rects := make([]geo.Rectangle, len(items))
	for i, it := range items {
		rects[i] = it.Rect
	}
	bbox, ok = geo.UnionAll(rects)
	return bbox, ok, nil
}
