package coords

import "github.com/wudi/pdfcrop/geo"

// Matrix is a PDF transformation matrix [a b c d e f].
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

// Multiply returns m×o: applying the result is applying m, then o.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// TransformRect maps the four corners of r and returns their bounding box.
func (m Matrix) TransformRect(r geo.Rectangle) geo.Rectangle {
	p := [4]Point{
		m.Transform(Point{X: r.LLX, Y: r.LLY}),
		m.Transform(Point{X: r.URX, Y: r.LLY}),
		m.Transform(Point{X: r.LLX, Y: r.URY}),
		m.Transform(Point{X: r.URX, Y: r.URY}),
	}
	out, _ := geo.Bounds(
		[]float64{p[0].X, p[1].X, p[2].X, p[3].X},
		[]float64{p[0].Y, p[1].Y, p[2].Y, p[3].Y},
	)
	return out
}

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

// UnitSquare is the image space every XObject image is painted into.
var UnitSquare = geo.Rectangle{LLX: 0, LLY: 0, URX: 1, URY: 1}
