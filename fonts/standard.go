package fonts

import "strings"

// AFM advance widths of the printable ASCII range (32..126) for the base
// faces of the standard 14 fonts. Bold and oblique faces reuse the regular
// table; the difference is a few percent of the line length.
var helveticaWidths = [95]float64{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

var timesWidths = [95]float64{
	250, 333, 408, 500, 500, 833, 778, 180, 333, 333, 500, 564, 250, 333, 250, 278,
	500, 500, 500, 500, 500, 500, 500, 500, 500, 500, 278, 278, 564, 564, 564, 444,
	921, 722, 667, 667, 722, 611, 556, 722, 722, 333, 389, 722, 611, 889, 722, 722,
	556, 722, 667, 556, 611, 722, 722, 944, 722, 722, 611, 333, 278, 333, 469, 500,
	333, 444, 500, 444, 500, 444, 333, 500, 500, 278, 278, 500, 278, 778, 500, 500,
	500, 500, 333, 389, 278, 500, 500, 722, 500, 500, 444, 480, 200, 480, 541,
}

type family int

const (
	familyUnknown family = iota
	familyHelvetica
	familyTimes
	familyCourier
)

func familyOf(name string) family {
	n := strings.ToLower(baseName(name))
	switch {
	case strings.HasPrefix(n, "helvetica"), strings.HasPrefix(n, "arial"):
		return familyHelvetica
	case strings.HasPrefix(n, "times"):
		return familyTimes
	case strings.HasPrefix(n, "courier"):
		return familyCourier
	}
	return familyUnknown
}

func standardWidth(name string, code int) (float64, bool) {
	f := familyOf(name)
	if f == familyCourier {
		return 600, true
	}
	if code < 32 || code > 126 {
		return 0, false
	}
	switch f {
	case familyHelvetica:
		return helveticaWidths[code-32], true
	case familyTimes:
		return timesWidths[code-32], true
	}
	return 0, false
}

func familyExtent(name string) (ascent, descent float64) {
	switch familyOf(name) {
	case familyHelvetica:
		return 718, -207
	case familyTimes:
		return 683, -217
	case familyCourier:
		return 629, -157
	}
	return 800, -200
}
