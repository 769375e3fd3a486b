package fonts

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// Type1Extent reads /FontBBox from the cleartext portion of a Type 1 font
// program (FontFile) and returns its top and bottom in glyph space units.
// PFB segment headers are skipped when present.
func Type1Extent(data []byte) (ascent, descent float64, err error) {
	if len(data) == 0 {
		return 0, 0, ErrNoProgram
	}
	if len(data) > 6 && data[0] == 0x80 && data[1] == 0x01 {
		data = data[6:]
	}
	if i := bytes.Index(data, []byte("eexec")); i >= 0 {
		data = data[:i]
	}

	i := bytes.Index(data, []byte("/FontBBox"))
	if i < 0 {
		return 0, 0, errors.New("type1 program has no FontBBox")
	}
	rest := string(data[i+len("/FontBBox"):])
	// {llx lly urx ury} or [llx lly urx ury]
	open := strings.IndexAny(rest, "{[")
	end := strings.IndexAny(rest, "}]")
	if open < 0 || end < open {
		return 0, 0, errors.New("malformed FontBBox")
	}
	fields := strings.Fields(rest[open+1 : end])
	if len(fields) != 4 {
		return 0, 0, errors.New("malformed FontBBox")
	}
	var bbox [4]float64
	for k, f := range fields {
		if bbox[k], err = strconv.ParseFloat(f, 64); err != nil {
			return 0, 0, err
		}
	}
	return bbox[3], bbox[1], nil
}
