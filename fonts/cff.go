package fonts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Top DICT operators read from bare CFF programs.
const (
	cffOpFontBBox   = 5
	cffOpFontMatrix = 1207
)

// CFF holds the name and Top DICT indexes of a Compact Font Format program
// (FontFile3 with /Subtype /Type1C or /CIDFontType0C).
type CFF struct {
	Names    []string
	TopDicts []map[int][]float64
}

// ParseCFF reads the header, Name INDEX and Top DICT INDEX of data.
func ParseCFF(data []byte) (*CFF, error) {
	if len(data) < 4 {
		return nil, ErrNoProgram
	}
	r := bytes.NewReader(data)
	if _, err := r.Seek(int64(data[2]), io.SeekStart); err != nil {
		return nil, err
	}

	names, err := readIndex(r)
	if err != nil {
		return nil, fmt.Errorf("read name index: %w", err)
	}
	dicts, err := readIndex(r)
	if err != nil {
		return nil, fmt.Errorf("read top dict index: %w", err)
	}

	c := &CFF{Names: make([]string, len(names)), TopDicts: make([]map[int][]float64, len(dicts))}
	for i, b := range names {
		c.Names[i] = string(b)
	}
	for i, b := range dicts {
		if c.TopDicts[i], err = parseDict(b); err != nil {
			return nil, fmt.Errorf("parse top dict %d: %w", i, err)
		}
	}
	return c, nil
}

// Extent returns the ascent and descent of the first font in glyph space
// units (1/1000 em), taken from its FontBBox.
func (c *CFF) Extent() (ascent, descent float64, err error) {
	if len(c.TopDicts) == 0 {
		return 0, 0, errors.New("cff has no top dict")
	}
	top := c.TopDicts[0]
	bbox := top[cffOpFontBBox]
	if len(bbox) != 4 {
		return 0, 0, errors.New("cff top dict has no FontBBox")
	}
	// FontMatrix defaults to 0.001 em per unit
	scale := 1.0
	if fm := top[cffOpFontMatrix]; len(fm) == 6 && fm[3] != 0 {
		scale = fm[3] * 1000
	}
	return bbox[3] * scale, bbox[1] * scale, nil
}

func readIndex(r *bytes.Reader) ([][]byte, error) {
	var count uint16
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	offSize, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if offSize < 1 || offSize > 4 {
		return nil, fmt.Errorf("invalid offset size %d", offSize)
	}

	offsets := make([]int, int(count)+1)
	for i := range offsets {
		if offsets[i], err = readOffset(r, int(offSize)); err != nil {
			return nil, err
		}
	}
	// offsets are 1-based relative to the byte preceding the data
	size := offsets[count] - 1
	if size < 0 || size > r.Len() {
		return nil, errors.New("invalid index offsets")
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}

	items := make([][]byte, count)
	for i := range items {
		start, end := offsets[i]-1, offsets[i+1]-1
		if start < 0 || end > len(data) || start > end {
			return nil, errors.New("invalid index offsets")
		}
		items[i] = data[start:end]
	}
	return items, nil
}

func readOffset(r io.Reader, size int) (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[4-size:]); err != nil {
		return 0, err
	}
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// parseDict decodes a DICT into operator -> operands. Two-byte operators
// are keyed 1200+b1.
func parseDict(data []byte) (map[int][]float64, error) {
	dict := make(map[int][]float64)
	var operands []float64

	r := bytes.NewReader(data)
	for r.Len() > 0 {
		b, _ := r.ReadByte()
		switch {
		case b <= 21:
			op := int(b)
			if b == 12 {
				b2, err := r.ReadByte()
				if err != nil {
					return nil, err
				}
				op = 1200 + int(b2)
			}
			dict[op] = operands
			operands = nil
		case b == 30:
			v, err := readReal(r)
			if err != nil {
				return nil, err
			}
			operands = append(operands, v)
		case b == 28 || b == 29 || (b >= 32 && b <= 254):
			r.UnreadByte()
			v, err := readInteger(r)
			if err != nil {
				return nil, err
			}
			operands = append(operands, float64(v))
		}
	}
	return dict, nil
}

func readReal(r *bytes.Reader) (float64, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		for _, n := range [2]byte{b >> 4, b & 0x0f} {
			switch {
			case n <= 9:
				sb.WriteByte('0' + n)
			case n == 0xa:
				sb.WriteByte('.')
			case n == 0xb:
				sb.WriteString("E")
			case n == 0xc:
				sb.WriteString("E-")
			case n == 0xe:
				sb.WriteByte('-')
			case n == 0xf:
				return strconv.ParseFloat(sb.String(), 64)
			}
		}
	}
}

func readInteger(r *bytes.Reader) (int, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b0 >= 32 && b0 <= 246:
		return int(b0) - 139, nil
	case b0 >= 247 && b0 <= 254:
		b1, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b0 <= 250 {
			return (int(b0)-247)*256 + int(b1) + 108, nil
		}
		return -(int(b0)-251)*256 - int(b1) - 108, nil
	case b0 == 28:
		var v int16
		err := binary.Read(r, binary.BigEndian, &v)
		return int(v), err
	case b0 == 29:
		var v int32
		err := binary.Read(r, binary.BigEndian, &v)
		return int(v), err
	}
	return 0, fmt.Errorf("invalid integer prefix: %d", b0)
}
