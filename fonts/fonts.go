package fonts

import (
	"errors"
	"fmt"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ErrNoProgram is returned for empty font program data.
var ErrNoProgram = errors.New("font program data is empty")

// Program exposes the metrics of an embedded TrueType/OpenType font program
// (FontFile2, or FontFile3 with /Subtype /OpenType). Values are in glyph
// space units (1/1000 em).
type Program struct {
	font    *sfnt.Font
	buf     sfnt.Buffer
	upem    sfnt.Units
	ppem    fixed.Int26_6
	widths  map[sfnt.GlyphIndex]float64
	Ascent  float64
	Descent float64 // negative below the baseline
}

// LoadProgram parses an embedded font program and reads its vertical metrics.
func LoadProgram(data []byte) (*Program, error) {
	if len(data) == 0 {
		return nil, ErrNoProgram
	}
	font, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font program: %w", err)
	}
	unitsPerEm := font.UnitsPerEm()
	if unitsPerEm == 0 {
		return nil, fmt.Errorf("invalid unitsPerEm")
	}
	p := &Program{
		font:   font,
		upem:   unitsPerEm,
		ppem:   fixed.Int26_6(unitsPerEm << 6),
		widths: make(map[sfnt.GlyphIndex]float64),
	}
	metrics, err := font.Metrics(&p.buf, p.ppem, xfont.HintingNone)
	if err == nil {
		p.Ascent = scaleFixed(metrics.Ascent, unitsPerEm)
		// x/image reports descent as a positive distance below the baseline
		p.Descent = -scaleFixed(metrics.Descent, unitsPerEm)
	}
	return p, nil
}

// GlyphWidth returns the advance of a glyph id.
func (p *Program) GlyphWidth(gid int) (float64, bool) {
	if gid < 0 || gid >= p.font.NumGlyphs() {
		return 0, false
	}
	idx := sfnt.GlyphIndex(gid)
	if w, ok := p.widths[idx]; ok {
		return w, true
	}
	adv, err := p.font.GlyphAdvance(&p.buf, idx, p.ppem, xfont.HintingNone)
	if err != nil {
		return 0, false
	}
	w := scaleFixed(adv, p.upem)
	p.widths[idx] = w
	return w, true
}

// RuneWidth maps r through the program's cmap and returns the glyph advance.
func (p *Program) RuneWidth(r rune) (float64, bool) {
	idx, err := p.font.GlyphIndex(&p.buf, r)
	if err != nil || idx == 0 {
		return 0, false
	}
	return p.GlyphWidth(int(idx))
}

func scaleFixed(val fixed.Int26_6, unitsPerEm sfnt.Units) float64 {
	return float64(val) * 1000.0 / (64.0 * float64(unitsPerEm))
}
