package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfcrop/extractor"
	"github.com/wudi/pdfcrop/fonts"
	"github.com/wudi/pdfcrop/geo"
	"github.com/wudi/pdfcrop/observability"
	"github.com/wudi/pdfcrop/recovery"
)

const pageContent = "BT /F1 10 Tf 20 30 Td (AB) Tj ET q 40 0 0 20 100 100 cm /Im1 Do Q 10 150 30 20 re f"

// buildPDF serializes objects 1..n with a correct cross reference table.
// Each entry is the body between "n 0 obj" and "endobj".
func buildPDF(objects []string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}

func stream(dict, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

func fixture() []string {
	return []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 7 0 R] /Count 2 /MediaBox [0 0 200 200] " +
			"/Resources << /Font << /F1 4 0 R >> /XObject << /Im1 6 0 R >> >> >>",
		"<< /Type /Page /Parent 2 0 R /Contents 5 0 R /Annots [8 0 R 9 0 R 10 0 R] >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>",
		stream("", pageContent),
		stream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "0"),
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] >>",
		"<< /Type /Annot /Subtype /Square /Rect [170 20 150 10] >>",
		"<< /Type /Annot /Subtype /Link /Rect [0 0 200 200] >>",
		"<< /Type /Annot /Subtype /Text /Rect [0 0 5 5] /F 2 >>",
	}
}

func writeFixture(t *testing.T, objects []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF(objects), 0o644))
	return path
}

func openFixture(t *testing.T) *Document {
	t.Helper()
	doc, err := Open(writeFixture(t, fixture()), WithLogger(observability.NopLogger{}))
	require.NoError(t, err)
	t.Cleanup(func() { doc.Close() })
	return doc
}

func rect(llx, lly, urx, ury float64) geo.Rectangle {
	return geo.Rectangle{LLX: llx, LLY: lly, URX: urx, URY: ury}
}

func assertNear(t *testing.T, want, got geo.Rectangle) {
	t.Helper()
	assert.InDelta(t, want.LLX, got.LLX, 1e-6)
	assert.InDelta(t, want.LLY, got.LLY, 1e-6)
	assert.InDelta(t, want.URX, got.URX, 1e-6)
	assert.InDelta(t, want.URY, got.URY, 1e-6)
}

func TestOpenAndPages(t *testing.T) {
	doc := openFixture(t)
	assert.Equal(t, 2, doc.NumPages())

	_, err := doc.Page(0)
	assert.ErrorIs(t, err, ErrPageRange)
	_, err = doc.Page(3)
	assert.ErrorIs(t, err, ErrPageRange)

	p, err := doc.Page(2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Number())
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))
	_, err := Open(path)
	assert.Error(t, err)
}

func TestPageBoxes(t *testing.T) {
	doc := openFixture(t)

	p1, err := doc.Page(1)
	require.NoError(t, err)
	media, err := p1.MediaBox()
	require.NoError(t, err)
	assert.Equal(t, rect(0, 0, 200, 200), media, "inherited from the page tree")

	crop, ok, err := p1.CropBox()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, media, crop)

	p2, err := doc.Page(2)
	require.NoError(t, err)
	media, err = p2.MediaBox()
	require.NoError(t, err)
	assert.Equal(t, rect(0, 0, 100, 100), media)
}

func TestPageContent(t *testing.T) {
	doc := openFixture(t)
	p, err := doc.Page(1)
	require.NoError(t, err)

	text, err := p.TextBlocks()
	require.NoError(t, err)
	require.Len(t, text, 1)
	assertNear(t, rect(20, 30-1.57, 32, 30+6.29), text[0])

	images, err := p.Images()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "6 0 R", images[0].ID)
	require.Len(t, images[0].Placements, 1)
	assertNear(t, rect(100, 100, 140, 120), images[0].Placements[0])

	drawings, err := p.Drawings()
	require.NoError(t, err)
	require.Len(t, drawings, 1)
	require.NotNil(t, drawings[0].Rect)
	assertNear(t, rect(10, 150, 40, 170), *drawings[0].Rect)

	annots, err := p.Annotations()
	require.NoError(t, err)
	require.Len(t, annots, 2, "links and widgets are skipped")
	assert.Equal(t, "Square", annots[0].Subtype)
	assert.Equal(t, rect(150, 10, 170, 20), annots[0].Rect)
	assert.Equal(t, "Text", annots[1].Subtype, "hidden annotations still count")
	assert.Equal(t, rect(0, 0, 5, 5), annots[1].Rect)
}

func TestPageWithoutContentListsUnplacedImages(t *testing.T) {
	doc := openFixture(t)
	p, err := doc.Page(2)
	require.NoError(t, err)

	text, err := p.TextBlocks()
	require.NoError(t, err)
	assert.Empty(t, text)

	images, err := p.Images()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Empty(t, images[0].Placements)
}

func TestHiddenAnnotationIsContent(t *testing.T) {
	path := writeFixture(t, []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 100 100] /Annots [4 0 R] >>",
		"<< /Type /Annot /Subtype /Text /Rect [10 10 30 30] /F 2 >>",
	})
	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()
	p, err := doc.Page(1)
	require.NoError(t, err)

	box, ok, err := extractor.ContentBBox(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rect(10, 10, 30, 30), box)
}

func TestSetCropBoxAndSave(t *testing.T) {
	doc := openFixture(t)
	p, err := doc.Page(1)
	require.NoError(t, err)
	before, err := p.content()
	require.NoError(t, err)

	assert.Error(t, p.SetCropBox(rect(-1, 0, 50, 50)), "outside the media box")
	assert.Error(t, p.SetCropBox(rect(10, 10, 10, 50)), "degenerate")
	require.NoError(t, p.SetCropBox(rect(5, 5, 175, 175)))

	dir := t.TempDir()
	out := filepath.Join(dir, "out.pdf")
	require.NoError(t, doc.Save(out))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp file left behind")

	saved, err := Open(out)
	require.NoError(t, err)
	defer saved.Close()

	sp, err := saved.Page(1)
	require.NoError(t, err)
	crop, ok, err := sp.CropBox()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, rect(5, 5, 175, 175), crop)

	after, err := sp.content()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	sp2, err := saved.Page(2)
	require.NoError(t, err)
	_, ok, err = sp2.CropBox()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveIntoMissingDirectory(t *testing.T) {
	doc := openFixture(t)
	err := doc.Save(filepath.Join(t.TempDir(), "missing", "out.pdf"))
	assert.Error(t, err)
}

func TestContentStreamArray(t *testing.T) {
	objs := fixture()
	objs[2] = "<< /Type /Page /Parent 2 0 R /Contents [5 0 R 11 0 R] >>"
	objs = append(objs, stream("", "200 200 m 210 210 l S"))
	doc, err := Open(writeFixture(t, objs))
	require.NoError(t, err)
	defer doc.Close()

	p, err := doc.Page(1)
	require.NoError(t, err)
	drawings, err := p.Drawings()
	require.NoError(t, err)
	require.Len(t, drawings, 2)
	assertNear(t, rect(200, 200, 210, 210), *drawings[1].Rect)
}

func TestFormXObjectResources(t *testing.T) {
	objs := fixture()
	objs[2] = "<< /Type /Page /Parent 2 0 R /Contents 11 0 R /Resources << /XObject << /Fm1 12 0 R >> >> >>"
	objs = append(objs,
		stream("", "q 1 0 0 1 50 50 cm /Fm1 Do Q"),
		stream("/Type /XObject /Subtype /Form /BBox [0 0 100 100] /Matrix [2 0 0 2 0 0] "+
			"/Resources << /XObject << /Im1 6 0 R >> >>", "q 10 0 0 10 0 0 cm /Im1 Do Q"),
	)
	doc, err := Open(writeFixture(t, objs))
	require.NoError(t, err)
	defer doc.Close()

	p, err := doc.Page(1)
	require.NoError(t, err)
	images, err := p.Images()
	require.NoError(t, err)
	require.Len(t, images, 1, "placed from the form's own resources")
	assert.Equal(t, "6 0 R", images[0].ID)
	require.Len(t, images[0].Placements, 1)
	assertNear(t, rect(50, 50, 70, 70), images[0].Placements[0])
}

func newBareDocument() *Document {
	return &Document{log: observability.NopLogger{}, fonts: make(map[string]*fonts.Metrics)}
}

func TestCompositeFontMetrics(t *testing.T) {
	d := newBareDocument()
	m := d.fontMetrics(types.Dict{
		"Subtype":  types.Name("Type0"),
		"BaseFont": types.Name("ABCDEF+Foo"),
		"DescendantFonts": types.Array{types.Dict{
			"DW": types.Integer(800),
			"W": types.Array{
				types.Integer(1), types.Array{types.Integer(500), types.Float(700)},
				types.Integer(10), types.Integer(12), types.Integer(300),
			},
			"FontDescriptor": types.Dict{"Ascent": types.Integer(900), "Descent": types.Integer(-100)},
		}},
	})
	require.NotNil(t, m)
	assert.True(t, m.Composite)
	assert.Equal(t, 800.0, m.DefaultWidth)
	assert.Equal(t, map[int]float64{1: 500, 2: 700, 10: 300, 11: 300, 12: 300}, m.CIDWidths)
	assert.Equal(t, 900.0, m.Ascent)
	assert.Equal(t, -100.0, m.Descent)
	assert.Equal(t, 800.0, m.Width(5))
}

func TestType3FontMetrics(t *testing.T) {
	d := newBareDocument()
	m := d.fontMetrics(types.Dict{
		"Subtype":    types.Name("Type3"),
		"FontMatrix": types.Array{types.Float(0.01), types.Integer(0), types.Integer(0), types.Float(0.01), types.Integer(0), types.Integer(0)},
		"FontBBox":   types.Array{types.Integer(0), types.Integer(-10), types.Integer(80), types.Integer(90)},
		"FirstChar":  types.Integer(65),
		"Widths":     types.Array{types.Integer(50)},
	})
	require.NotNil(t, m)
	assert.Equal(t, 0.01, m.GlyphScale())
	assert.Equal(t, 50.0, m.Width(65))
	asc, desc := m.VerticalExtent()
	assert.Equal(t, 90.0, asc)
	assert.Equal(t, -10.0, desc)
}

func TestRecoveryStrategy(t *testing.T) {
	objs := fixture()
	objs[4] = stream("", pageContent+" /Missing Do")
	path := writeFixture(t, objs)

	lenient := recovery.NewLenientStrategy()
	doc, err := Open(path, WithRecovery(lenient))
	require.NoError(t, err)
	defer doc.Close()
	p, err := doc.Page(1)
	require.NoError(t, err)
	drawings, err := p.Drawings()
	require.NoError(t, err)
	assert.Len(t, drawings, 1)
	require.Len(t, lenient.Errors, 1)
	assert.Contains(t, lenient.Errors[0].Error(), "Missing")

	strict, err := Open(path, WithRecovery(recovery.NewStrictStrategy()))
	require.NoError(t, err)
	defer strict.Close()
	p, err = strict.Page(1)
	require.NoError(t, err)
	_, err = p.TextBlocks()
	assert.Error(t, err)
	_, err = p.Images()
	assert.Error(t, err, "the failure is remembered")
}
