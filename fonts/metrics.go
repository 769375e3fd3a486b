package fonts

import "strings"

// Glyph is one decoded character code of a shown string.
type Glyph struct {
	Code  int
	Width float64 // glyph space units
	Space bool    // single-byte code 32, subject to word spacing
}

// Metrics describes how a font advances and how tall its glyphs are.
// A zero Metrics is usable and behaves like an unknown simple font.
type Metrics struct {
	BaseFont string
	// Composite fonts (Type0) use two-byte codes and CID widths.
	Composite bool

	FirstChar    int
	Widths       []float64
	MissingWidth float64

	CIDWidths    map[int]float64
	DefaultWidth float64 // /DW, 1000 when unset

	Ascent  float64
	Descent float64

	// Scale converts glyph units to text space; 0 means 1/1000.
	Scale float64

	Program *Program
}

// DefaultGlyphWidth is used when no width source knows a code.
const DefaultGlyphWidth = 500

// Default returns metrics for text drawn with a font that could not be resolved.
func Default() *Metrics { return &Metrics{} }

// GlyphScale returns the factor that maps glyph units to text space.
func (m *Metrics) GlyphScale() float64 {
	if m.Scale != 0 {
		return m.Scale
	}
	return 0.001
}

// Decode splits a shown string into glyphs.
func (m *Metrics) Decode(s []byte) []Glyph {
	if m.Composite {
		out := make([]Glyph, 0, len(s)/2)
		for i := 0; i+1 < len(s); i += 2 {
			code := int(s[i])<<8 | int(s[i+1])
			out = append(out, Glyph{Code: code, Width: m.Width(code)})
		}
		return out
	}
	out := make([]Glyph, 0, len(s))
	for _, b := range s {
		code := int(b)
		out = append(out, Glyph{Code: code, Width: m.Width(code), Space: code == 32})
	}
	return out
}

// Width returns the advance of a character code in glyph units.
func (m *Metrics) Width(code int) float64 {
	if m.Composite {
		if w, ok := m.CIDWidths[code]; ok {
			return w
		}
		if len(m.CIDWidths) == 0 && m.Program != nil {
			// Identity CIDToGIDMap: CID is the glyph id
			if w, ok := m.Program.GlyphWidth(code); ok {
				return w
			}
		}
		if m.DefaultWidth != 0 {
			return m.DefaultWidth
		}
		return 1000
	}
	if len(m.Widths) > 0 {
		if i := code - m.FirstChar; i >= 0 && i < len(m.Widths) {
			return m.Widths[i]
		}
		return m.MissingWidth
	}
	if m.Program != nil {
		if w, ok := m.Program.RuneWidth(rune(code)); ok {
			return w
		}
	}
	if w, ok := standardWidth(m.BaseFont, code); ok {
		return w
	}
	if m.MissingWidth > 0 {
		return m.MissingWidth
	}
	return DefaultGlyphWidth
}

// VerticalExtent returns the ascent and descent in glyph units.
func (m *Metrics) VerticalExtent() (ascent, descent float64) {
	ascent, descent = m.Ascent, m.Descent
	if ascent == 0 && m.Program != nil {
		ascent = m.Program.Ascent
	}
	if descent == 0 && m.Program != nil {
		descent = m.Program.Descent
	}
	fa, fd := familyExtent(m.BaseFont)
	if ascent <= 0 {
		ascent = fa
	}
	if descent > 0 {
		descent = -descent
	}
	if descent == 0 {
		descent = fd
	}
	return ascent, descent
}

// ParseCIDWidths reads a Type0 /W array. Entries are either
// "c [w1 w2 ...]" or "cfirst clast w"; items are float64 or []float64.
func ParseCIDWidths(items []any) map[int]float64 {
	out := make(map[int]float64)
	for i := 0; i < len(items); {
		first, ok := items[i].(float64)
		if !ok || i+1 >= len(items) {
			break
		}
		switch next := items[i+1].(type) {
		case []float64:
			for k, w := range next {
				out[int(first)+k] = w
			}
			i += 2
		case float64:
			if i+2 >= len(items) {
				return out
			}
			w, ok := items[i+2].(float64)
			if !ok || next < first || next-first > 0xFFFF {
				return out
			}
			for c := int(first); c <= int(next); c++ {
				out[c] = w
			}
			i += 3
		default:
			return out
		}
	}
	return out
}

// baseName strips a subset tag such as "ABCDEF+" from a font name.
func baseName(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		return name[i+1:]
	}
	return name
}
