package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleFontWidths(t *testing.T) {
	m := &Metrics{FirstChar: 65, Widths: []float64{600, 700}, MissingWidth: 250}
	glyphs := m.Decode([]byte("AB C"))
	require.Len(t, glyphs, 4)
	assert.Equal(t, 600.0, glyphs[0].Width)
	assert.Equal(t, 700.0, glyphs[1].Width)
	assert.Equal(t, 250.0, glyphs[2].Width)
	assert.True(t, glyphs[2].Space)
	assert.Equal(t, 250.0, glyphs[3].Width)
}

func TestStandardFontFallback(t *testing.T) {
	m := &Metrics{BaseFont: "Helvetica-Bold"}
	assert.Equal(t, 667.0, m.Width('A'))
	assert.Equal(t, 278.0, m.Width(' '))

	m = &Metrics{BaseFont: "ABCDEF+Times-Roman"}
	assert.Equal(t, 722.0, m.Width('A'))

	m = &Metrics{BaseFont: "Courier"}
	assert.Equal(t, 600.0, m.Width('i'))
	assert.Equal(t, 600.0, m.Width(200))
}

func TestUnknownFontDefaults(t *testing.T) {
	m := Default()
	assert.Equal(t, float64(DefaultGlyphWidth), m.Width('x'))
	assert.Equal(t, 0.001, m.GlyphScale())
	asc, desc := m.VerticalExtent()
	assert.Equal(t, 800.0, asc)
	assert.Equal(t, -200.0, desc)
}

func TestCompositeDecode(t *testing.T) {
	m := &Metrics{
		Composite:    true,
		CIDWidths:    map[int]float64{0x0102: 333},
		DefaultWidth: 900,
	}
	glyphs := m.Decode([]byte{0x01, 0x02, 0x00, 0x20, 0x05})
	require.Len(t, glyphs, 2)
	assert.Equal(t, 0x0102, glyphs[0].Code)
	assert.Equal(t, 333.0, glyphs[0].Width)
	assert.Equal(t, 900.0, glyphs[1].Width)
	assert.False(t, glyphs[1].Space, "word spacing only applies to single byte codes")

	m = &Metrics{Composite: true}
	assert.Equal(t, 1000.0, m.Width(7))
}

func TestParseCIDWidths(t *testing.T) {
	w := ParseCIDWidths([]any{
		1.0, []float64{100, 200},
		10.0, 12.0, 500.0,
	})
	assert.Equal(t, map[int]float64{1: 100, 2: 200, 10: 500, 11: 500, 12: 500}, w)

	w = ParseCIDWidths([]any{1.0, "bogus"})
	assert.Empty(t, w)
}

func TestVerticalExtentFromDescriptor(t *testing.T) {
	m := &Metrics{BaseFont: "Helvetica", Ascent: 900, Descent: 250}
	asc, desc := m.VerticalExtent()
	assert.Equal(t, 900.0, asc)
	assert.Equal(t, -250.0, desc)

	m = &Metrics{BaseFont: "Helvetica"}
	asc, desc = m.VerticalExtent()
	assert.Equal(t, 718.0, asc)
	assert.Equal(t, -207.0, desc)
}

func TestLoadProgramRejectsEmpty(t *testing.T) {
	_, err := LoadProgram(nil)
	assert.ErrorIs(t, err, ErrNoProgram)

	_, err = LoadProgram([]byte("not a font"))
	assert.Error(t, err)
}
