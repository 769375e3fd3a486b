package contentstream

import (
	"context"
	"fmt"

	"github.com/wudi/pdfcrop/coords"
	"github.com/wudi/pdfcrop/fonts"
	"github.com/wudi/pdfcrop/geo"
)

// DefaultMaxDepth limits Form XObject nesting.
const DefaultMaxDepth = 16

// ImagePlacement is one painting of an image into device space.
type ImagePlacement struct {
	ID     string
	Inline bool
	Rect   geo.Rectangle
}

// Drawing is one painted vector path. Rect is nil when the path had no
// geometry (for example a shading fill without a clip).
type Drawing struct {
	Operator string
	Rect     *geo.Rectangle
}

// Trace is the visible content found in a content stream, in device space.
type Trace struct {
	TextBlocks []geo.Rectangle
	Images     []ImagePlacement
	Drawings   []Drawing
	// Warnings collects tolerated problems: syntax errors, unresolved
	// resources, unreadable forms.
	Warnings []error
}

// Tracer replays content streams and records where content lands.
type Tracer struct {
	proc     Processor
	MaxDepth int
}

func NewTracer() *Tracer {
	t := &Tracer{proc: NewProcessor(), MaxDepth: DefaultMaxDepth}
	t.register()
	return t
}

// Trace executes stream virtually with res and returns its content boxes.
func (t *Tracer) Trace(ctx context.Context, stream []byte, res Resources) (*Trace, error) {
	tr := &Trace{}
	ec := newExecutionContext(res, NewGraphicsState(), tr)
	ec.ctx = ctx
	if err := t.proc.Process(ctx, ec, stream); err != nil {
		return tr, err
	}
	return tr, nil
}

func (t *Tracer) register() {
	handlers := map[string]OperatorFunc{
		// Graphics State
		"q": func(ec *ExecutionContext, _ []Operand) error {
			ec.GraphicsState.Save()
			return nil
		},
		"Q": func(ec *ExecutionContext, _ []Operand) error {
			// unbalanced Q is common in the wild and harmless here
			_ = ec.GraphicsState.Restore()
			return nil
		},
		"cm": func(ec *ExecutionContext, ops []Operand) error {
			if len(ops) == 6 {
				ec.GraphicsState.CTM = operandToMatrix(ops).Multiply(ec.GraphicsState.CTM)
			}
			return nil
		},

		// Text Objects
		"BT": func(ec *ExecutionContext, _ []Operand) error {
			flushTextBlock(ec)
			ec.TextState.InText = true
			ec.TextState.TextMatrix = coords.Identity()
			ec.TextState.TextLineMatrix = coords.Identity()
			return nil
		},
		"ET": func(ec *ExecutionContext, _ []Operand) error {
			flushTextBlock(ec)
			ec.TextState.InText = false
			return nil
		},

		// Text State
		"Tf": setFont,
		"Tc": textParam(func(p *TextParams, v float64) { p.CharSpacing = v }),
		"Tw": textParam(func(p *TextParams, v float64) { p.WordSpacing = v }),
		"Tz": textParam(func(p *TextParams, v float64) { p.HorizScale = v / 100 }),
		"TL": textParam(func(p *TextParams, v float64) { p.Leading = v }),
		"Ts": textParam(func(p *TextParams, v float64) { p.Rise = v }),
		"Tr": textParam(func(p *TextParams, v float64) { p.RenderMode = int(v) }),
		"Td": moveText,
		"TD": moveTextSetLeading,
		"Tm": setTextMatrix,
		"T*": func(ec *ExecutionContext, _ []Operand) error { nextLine(ec); return nil },
		"Tj": showTextOp,
		"TJ": showTextArrayOp,
		"'":  moveShowText,
		"\"": moveSetShowText,

		// Path Construction
		"m":  pathOp(func(p *pathBuilder, m coords.Matrix, v []float64) { p.add(m, v[0], v[1]) }, 2),
		"l":  pathOp(func(p *pathBuilder, m coords.Matrix, v []float64) { p.add(m, v[0], v[1]) }, 2),
		"c":  pathOp(func(p *pathBuilder, m coords.Matrix, v []float64) { p.add(m, v...) }, 6),
		"v":  pathOp(func(p *pathBuilder, m coords.Matrix, v []float64) { p.add(m, v...) }, 4),
		"y":  pathOp(func(p *pathBuilder, m coords.Matrix, v []float64) { p.add(m, v...) }, 4),
		"re": pathOp(addRect, 4),

		// Path Painting
		"n":  func(ec *ExecutionContext, _ []Operand) error { endPath(ec, "", false); return nil },
		"W":  clipOp,
		"W*": clipOp,
		"sh": shadingOp,

		// XObjects
		"Do": t.doXObject,
		"BI": inlineImageOp,
	}
	for _, op := range []string{"S", "s", "f", "F", "f*", "B", "B*", "b", "b*"} {
		op := op
		handlers[op] = func(ec *ExecutionContext, _ []Operand) error {
			endPath(ec, op, true)
			return nil
		}
	}
	for op, h := range handlers {
		t.proc.RegisterHandler(op, h)
	}
}

func operandToMatrix(ops []Operand) coords.Matrix {
	v := operandsToFloats(ops)
	return coords.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
}

func warn(ec *ExecutionContext, format string, args ...any) {
	ec.Trace.Warnings = append(ec.Trace.Warnings, fmt.Errorf(format, args...))
}

// Text

func textParam(set func(p *TextParams, v float64)) OperatorFunc {
	return func(ec *ExecutionContext, ops []Operand) error {
		if len(ops) == 1 {
			set(&ec.GraphicsState.Text, operandToFloat(ops[0]))
		}
		return nil
	}
}

func setFont(ec *ExecutionContext, ops []Operand) error {
	if len(ops) != 2 {
		return nil
	}
	tp := &ec.GraphicsState.Text
	tp.FontSize = operandToFloat(ops[1])
	name, ok := ops[0].(NameOperand)
	if !ok {
		return nil
	}
	if ec.Resources == nil {
		tp.Font = nil
		return nil
	}
	if f := ec.Resources.Font(name.Value); f != nil {
		tp.Font = f
		return nil
	}
	warn(ec, "font %q not found in resources", name.Value)
	tp.Font = nil
	return nil
}

func translateLine(ec *ExecutionContext, tx, ty float64) {
	ts := ec.TextState
	ts.TextLineMatrix = coords.Translate(tx, ty).Multiply(ts.TextLineMatrix)
	ts.TextMatrix = ts.TextLineMatrix
}

func moveText(ec *ExecutionContext, ops []Operand) error {
	if len(ops) == 2 {
		translateLine(ec, operandToFloat(ops[0]), operandToFloat(ops[1]))
	}
	return nil
}

func moveTextSetLeading(ec *ExecutionContext, ops []Operand) error {
	if len(ops) == 2 {
		ec.GraphicsState.Text.Leading = -operandToFloat(ops[1])
		translateLine(ec, operandToFloat(ops[0]), operandToFloat(ops[1]))
	}
	return nil
}

func setTextMatrix(ec *ExecutionContext, ops []Operand) error {
	if len(ops) == 6 {
		ec.TextState.TextLineMatrix = operandToMatrix(ops)
		ec.TextState.TextMatrix = ec.TextState.TextLineMatrix
	}
	return nil
}

func nextLine(ec *ExecutionContext) {
	translateLine(ec, 0, -ec.GraphicsState.Text.Leading)
}

func showTextOp(ec *ExecutionContext, ops []Operand) error {
	if len(ops) == 1 {
		showText(ec, ops)
	}
	return nil
}

func showTextArrayOp(ec *ExecutionContext, ops []Operand) error {
	if len(ops) == 1 {
		if arr, ok := ops[0].(ArrayOperand); ok {
			showText(ec, arr.Values)
		}
	}
	return nil
}

func moveShowText(ec *ExecutionContext, ops []Operand) error {
	nextLine(ec)
	return showTextOp(ec, ops)
}

func moveSetShowText(ec *ExecutionContext, ops []Operand) error {
	if len(ops) != 3 {
		return nil
	}
	ec.GraphicsState.Text.WordSpacing = operandToFloat(ops[0])
	ec.GraphicsState.Text.CharSpacing = operandToFloat(ops[1])
	return moveShowText(ec, ops[2:])
}

// showText lays out strings and kerning numbers along the baseline, records
// the box covering the shown glyphs and advances the text matrix.
func showText(ec *ExecutionContext, items []Operand) {
	gs := ec.GraphicsState
	tp := gs.Text
	font := tp.Font
	if font == nil {
		font = fonts.Default()
	}
	scale := font.GlyphScale()
	fs, th := tp.FontSize, tp.HorizScale

	var x, lo, hi float64
	seen := false
	for _, item := range items {
		switch v := item.(type) {
		case StringOperand:
			for _, g := range font.Decode(v.Value) {
				w := g.Width * scale * fs * th
				start, end := x, x+w
				if start > end {
					start, end = end, start
				}
				if !seen || start < lo {
					lo = start
				}
				if !seen || end > hi {
					hi = end
				}
				seen = true
				x += w + tp.CharSpacing*th
				if g.Space {
					x += tp.WordSpacing * th
				}
			}
		case NumberOperand:
			x -= v.Value / 1000 * fs * th
		}
	}

	if seen {
		asc, desc := font.VerticalExtent()
		box := geo.Rectangle{
			LLX: lo,
			LLY: tp.Rise + desc*scale*fs,
			URX: hi,
			URY: tp.Rise + asc*scale*fs,
		}.Normalize()
		m := ec.TextState.TextMatrix.Multiply(gs.CTM)
		addTextRect(ec, m.TransformRect(box))
	}
	ec.TextState.TextMatrix = coords.Translate(x, 0).Multiply(ec.TextState.TextMatrix)
}

func addTextRect(ec *ExecutionContext, r geo.Rectangle) {
	ts := ec.TextState
	if !ts.InText {
		// text shown outside BT/ET still counts, as its own block
		ec.Trace.TextBlocks = append(ec.Trace.TextBlocks, r)
		return
	}
	if ts.block == nil {
		ts.block = &r
		return
	}
	u := ts.block.Union(r)
	ts.block = &u
}

func flushTextBlock(ec *ExecutionContext) {
	ts := ec.TextState
	if ts.block != nil {
		ec.Trace.TextBlocks = append(ec.Trace.TextBlocks, *ts.block)
		ts.block = nil
	}
}

// Paths

// pathBuilder accumulates path points in device space as they are
// constructed, so later cm operators do not affect them.
type pathBuilder struct {
	xs, ys []float64
	clip   bool
}

func (p *pathBuilder) add(m coords.Matrix, v ...float64) {
	for i := 0; i+1 < len(v); i += 2 {
		pt := m.Transform(coords.Point{X: v[i], Y: v[i+1]})
		p.xs = append(p.xs, pt.X)
		p.ys = append(p.ys, pt.Y)
	}
}

func (p *pathBuilder) bounds() *geo.Rectangle {
	r, ok := geo.Bounds(p.xs, p.ys)
	if !ok {
		return nil
	}
	return &r
}

func (p *pathBuilder) reset() {
	p.xs = p.xs[:0]
	p.ys = p.ys[:0]
	p.clip = false
}

func pathOp(fn func(p *pathBuilder, m coords.Matrix, v []float64), n int) OperatorFunc {
	return func(ec *ExecutionContext, ops []Operand) error {
		if len(ops) != n {
			return nil
		}
		fn(&ec.path, ec.GraphicsState.CTM, operandsToFloats(ops))
		return nil
	}
}

func addRect(p *pathBuilder, m coords.Matrix, v []float64) {
	x, y, w, h := v[0], v[1], v[2], v[3]
	p.add(m, x, y, x+w, y, x+w, y+h, x, y+h)
}

func clipOp(ec *ExecutionContext, _ []Operand) error {
	ec.path.clip = true
	return nil
}

// endPath finishes the current path. Painting operators record a drawing;
// a pending W/W* narrows the clip either way.
func endPath(ec *ExecutionContext, op string, paint bool) {
	r := ec.path.bounds()
	if ec.path.clip && r != nil {
		gs := ec.GraphicsState
		clip := *r
		if gs.Clip != nil {
			clip = gs.Clip.Clamp(clip)
		}
		gs.Clip = &clip
	}
	if paint {
		ec.Trace.Drawings = append(ec.Trace.Drawings, Drawing{Operator: op, Rect: r})
	}
	ec.path.reset()
}

// shadingOp paints a shading over the current clip region.
func shadingOp(ec *ExecutionContext, _ []Operand) error {
	d := Drawing{Operator: "sh"}
	// an empty clip region paints nothing
	if clip := ec.GraphicsState.Clip; clip != nil && clip.Valid() {
		r := *clip
		d.Rect = &r
	}
	ec.Trace.Drawings = append(ec.Trace.Drawings, d)
	return nil
}

// XObjects

func inlineImageOp(ec *ExecutionContext, _ []Operand) error {
	ec.Trace.Images = append(ec.Trace.Images, ImagePlacement{
		ID:     "inline",
		Inline: true,
		Rect:   ec.GraphicsState.CTM.TransformRect(coords.UnitSquare),
	})
	return nil
}

func (t *Tracer) doXObject(ec *ExecutionContext, ops []Operand) error {
	if len(ops) != 1 {
		return nil
	}
	name, ok := ops[0].(NameOperand)
	if !ok {
		return nil
	}
	var xobj *XObject
	if ec.Resources != nil {
		xobj, ok = ec.Resources.XObject(name.Value)
	}
	if !ok || xobj == nil {
		warn(ec, "xobject %q not found in resources", name.Value)
		return nil
	}
	switch xobj.Subtype {
	case SubtypeImage:
		// images are painted into the unit square
		ec.Trace.Images = append(ec.Trace.Images, ImagePlacement{
			ID:   xobj.ID,
			Rect: ec.GraphicsState.CTM.TransformRect(coords.UnitSquare),
		})
	case SubtypeForm:
		return t.runForm(ec, name.Value, xobj)
	}
	return nil
}

func (t *Tracer) runForm(ec *ExecutionContext, name string, xobj *XObject) error {
	if ec.depth >= t.MaxDepth {
		warn(ec, "form %q exceeds nesting limit %d", name, t.MaxDepth)
		return nil
	}
	if xobj.ID != "" && ec.visiting[xobj.ID] {
		warn(ec, "form %q (%s) invokes itself", name, xobj.ID)
		return nil
	}
	if xobj.Content == nil {
		return nil
	}
	content, err := xobj.Content()
	if err != nil {
		warn(ec, "form %q: %v", name, err)
		return nil
	}
	res := xobj.Resources
	if res == nil {
		res = ec.Resources
	}
	child := ec.child(res)
	m := xobj.Matrix
	if m == (coords.Matrix{}) {
		m = coords.Identity()
	}
	child.GraphicsState.CTM = m.Multiply(ec.GraphicsState.CTM)

	if xobj.ID != "" {
		ec.visiting[xobj.ID] = true
		defer delete(ec.visiting, xobj.ID)
	}
	ctx := ec.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return t.proc.Process(ctx, child, content)
}
