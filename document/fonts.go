package document

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/pdfcrop/fonts"
	"github.com/wudi/pdfcrop/observability"
)

// fontMetrics builds glyph metrics for the font dictionary o refers to.
// Results are cached per indirect object.
func (d *Document) fontMetrics(o types.Object) *fonts.Metrics {
	key := objectID(o, "")
	if key != "" {
		if m, ok := d.fonts[key]; ok {
			return m
		}
	}
	fd := d.dict(o)
	if fd == nil {
		return nil
	}

	m := &fonts.Metrics{BaseFont: d.name(fd["BaseFont"])}
	switch d.name(fd["Subtype"]) {
	case "Type0":
		d.compositeMetrics(fd, m)
	case "Type3":
		d.simpleMetrics(fd, m)
		if fm := d.numbers(fd["FontMatrix"]); len(fm) == 6 && fm[0] != 0 {
			m.Scale = fm[0]
		}
		if bbox := d.numbers(fd["FontBBox"]); len(bbox) == 4 && bbox[3] > bbox[1] {
			m.Ascent, m.Descent = bbox[3], bbox[1]
		}
	default:
		d.simpleMetrics(fd, m)
	}

	if key != "" {
		d.fonts[key] = m
	}
	return m
}

func (d *Document) simpleMetrics(fd types.Dict, m *fonts.Metrics) {
	if fc, ok := d.number(fd["FirstChar"]); ok {
		m.FirstChar = int(fc)
	}
	m.Widths = d.numbers(fd["Widths"])
	d.descriptorMetrics(d.dict(fd["FontDescriptor"]), m)
}

func (d *Document) compositeMetrics(fd types.Dict, m *fonts.Metrics) {
	m.Composite = true
	desc := d.array(fd["DescendantFonts"])
	if len(desc) == 0 {
		return
	}
	cid := d.dict(desc[0])
	if cid == nil {
		return
	}
	if dw, ok := d.number(cid["DW"]); ok {
		m.DefaultWidth = dw
	}
	if w := d.array(cid["W"]); w != nil {
		m.CIDWidths = fonts.ParseCIDWidths(d.widthItems(w))
	}
	d.descriptorMetrics(d.dict(cid["FontDescriptor"]), m)
}

// widthItems flattens a /W array into the shape ParseCIDWidths reads.
func (d *Document) widthItems(w types.Array) []any {
	items := make([]any, 0, len(w))
	for _, item := range w {
		if v, ok := d.number(item); ok {
			items = append(items, v)
			continue
		}
		if arr := d.array(item); arr != nil {
			items = append(items, d.numbers(arr))
			continue
		}
		items = append(items, nil)
	}
	return items
}

func (d *Document) descriptorMetrics(desc types.Dict, m *fonts.Metrics) {
	if desc == nil {
		return
	}
	if v, ok := d.number(desc["MissingWidth"]); ok {
		m.MissingWidth = v
	}
	if v, ok := d.number(desc["Ascent"]); ok {
		m.Ascent = v
	}
	if v, ok := d.number(desc["Descent"]); ok {
		m.Descent = v
	}

	d.programMetrics(desc, m)
}

// programMetrics reads the embedded font program. TrueType and OpenType
// programs supply widths and extents; bare CFF and Type 1 programs only
// fill in an extent the descriptor left out.
func (d *Document) programMetrics(fd types.Dict, m *fonts.Metrics) {
	var (
		ref  types.Object
		kind string
	)
	for _, key := range []string{"FontFile2", "FontFile3", "FontFile"} {
		if o, ok := fd[key]; ok && o != nil {
			ref, kind = o, key
			break
		}
	}
	if ref == nil {
		return
	}
	if kind == "FontFile3" && d.name(d.dict(ref)["Subtype"]) == "OpenType" {
		kind = "FontFile2"
	}

	data, err := d.streamContent(ref)
	if err != nil {
		d.log.Warn("font program unreadable", observability.String("font", m.BaseFont), observability.Error("error", err))
		return
	}

	var asc, desc float64
	switch kind {
	case "FontFile2":
		prog, err := fonts.LoadProgram(data)
		if err != nil {
			d.log.Debug("font program ignored", observability.String("font", m.BaseFont), observability.Error("error", err))
			return
		}
		m.Program = prog
		return
	case "FontFile3":
		var cff *fonts.CFF
		if cff, err = fonts.ParseCFF(data); err == nil {
			asc, desc, err = cff.Extent()
		}
	default:
		asc, desc, err = fonts.Type1Extent(data)
	}
	if err != nil {
		d.log.Debug("font program ignored", observability.String("font", m.BaseFont), observability.Error("error", err))
		return
	}
	if m.Ascent == 0 {
		m.Ascent = asc
	}
	if m.Descent == 0 {
		m.Descent = desc
	}
}
