package geo

import (
	"fmt"
	"math"
)

// Rectangle is an axis-aligned box in PDF user space.
// LLX/LLY is the lower-left corner, URX/URY the upper-right corner.
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// FromArray builds a rectangle from a PDF rectangle array [llx lly urx ury].
// The corners are normalized since writers do not always order them.
func FromArray(v []float64) (Rectangle, bool) {
	if len(v) < 4 {
		return Rectangle{}, false
	}
	return Rectangle{LLX: v[0], LLY: v[1], URX: v[2], URY: v[3]}.Normalize(), true
}

// Width returns URX-LLX. It is negative for inverted rectangles.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns URY-LLY. It is negative for inverted rectangles.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Valid reports whether the rectangle has positive width and height.
func (r Rectangle) Valid() bool {
	if math.IsNaN(r.LLX) || math.IsNaN(r.LLY) || math.IsNaN(r.URX) || math.IsNaN(r.URY) {
		return false
	}
	return r.Width() > 0 && r.Height() > 0
}

// Contains returns true if o lies entirely within r (edges inclusive).
func (r Rectangle) Contains(o Rectangle) bool {
	return o.LLX >= r.LLX && o.LLY >= r.LLY && o.URX <= r.URX && o.URY <= r.URY
}

// Union returns the smallest rectangle containing both r and o.
func (r Rectangle) Union(o Rectangle) Rectangle {
	return Rectangle{
		LLX: math.Min(r.LLX, o.LLX),
		LLY: math.Min(r.LLY, o.LLY),
		URX: math.Max(r.URX, o.URX),
		URY: math.Max(r.URY, o.URY),
	}
}

// UnionAll folds Union over rects. It returns false for an empty slice.
func UnionAll(rects []Rectangle) (Rectangle, bool) {
	if len(rects) == 0 {
		return Rectangle{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out, true
}

// Expand grows r outward by margin on all four sides.
func (r Rectangle) Expand(margin float64) Rectangle {
	return Rectangle{
		LLX: r.LLX - margin,
		LLY: r.LLY - margin,
		URX: r.URX + margin,
		URY: r.URY + margin,
	}
}

// Clamp limits every edge of r to bound. The result may be degenerate when
// r and bound do not overlap; check Valid before using it.
func (r Rectangle) Clamp(bound Rectangle) Rectangle {
	return Rectangle{
		LLX: math.Max(r.LLX, bound.LLX),
		LLY: math.Max(r.LLY, bound.LLY),
		URX: math.Min(r.URX, bound.URX),
		URY: math.Min(r.URY, bound.URY),
	}
}

// Normalize swaps coordinates so that LL is the minimum corner.
func (r Rectangle) Normalize() Rectangle {
	if r.LLX > r.URX {
		r.LLX, r.URX = r.URX, r.LLX
	}
	if r.LLY > r.URY {
		r.LLY, r.URY = r.URY, r.LLY
	}
	return r
}

func (r Rectangle) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.LLX, r.LLY, r.URX, r.URY)
}

// Bounds returns the bounding box of a set of points given as x,y pairs.
func Bounds(xs, ys []float64) (Rectangle, bool) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return Rectangle{}, false
	}
	out := Rectangle{LLX: xs[0], LLY: ys[0], URX: xs[0], URY: ys[0]}
	for i := 1; i < len(xs); i++ {
		out.LLX = math.Min(out.LLX, xs[i])
		out.LLY = math.Min(out.LLY, ys[i])
		out.URX = math.Max(out.URX, xs[i])
		out.URY = math.Max(out.URY, ys[i])
	}
	return out, true
}
