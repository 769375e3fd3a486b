package contentstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/wudi/pdfcrop/scanner"
)

// maxNesting bounds array/dict nesting in operands.
const maxNesting = 32

// Parse splits a decoded content stream into operations. On a lexical error
// it returns the operations read so far together with the error.
func Parse(data []byte) ([]Operation, error) {
	p := &opParser{s: scanner.New(data)}
	return p.parse()
}

type opParser struct {
	s       *scanner.Scanner
	pending *scanner.Token
}

func (p *opParser) next() (scanner.Token, error) {
	if p.pending != nil {
		tok := *p.pending
		p.pending = nil
		return tok, nil
	}
	return p.s.Next()
}

func (p *opParser) parse() ([]Operation, error) {
	var ops []Operation
	var operands []Operand
	for {
		tok, err := p.next()
		if errors.Is(err, io.EOF) {
			return ops, nil
		}
		if errors.Is(err, scanner.ErrUnterminatedString) {
			// keep the truncated string; the stream ends here anyway
			operands = append(operands, StringOperand{Value: tok.Bytes})
			continue
		}
		if err != nil {
			return ops, fmt.Errorf("content stream at offset %d: %w", p.s.Position(), err)
		}
		if tok.Type == scanner.TokenKeyword {
			if tok.Str == "BI" {
				img, err := p.parseInlineImage()
				if err != nil {
					return ops, fmt.Errorf("inline image at offset %d: %w", tok.Pos, err)
				}
				ops = append(ops, Operation{Operator: "BI", Operands: []Operand{img}})
				operands = nil
				continue
			}
			ops = append(ops, Operation{Operator: tok.Str, Operands: operands})
			operands = nil
			continue
		}
		op, err := p.operand(tok, 0)
		if err != nil {
			return ops, fmt.Errorf("content stream at offset %d: %w", tok.Pos, err)
		}
		if op != nil {
			operands = append(operands, op)
		}
	}
}

// operand converts tok into an operand, reading nested arrays and dicts.
// Stray closing delimiters yield nil.
func (p *opParser) operand(tok scanner.Token, depth int) (Operand, error) {
	if depth > maxNesting {
		return nil, errors.New("operand nesting too deep")
	}
	switch tok.Type {
	case scanner.TokenNumber:
		return NumberOperand{Value: tok.Num}, nil
	case scanner.TokenName:
		return NameOperand{Value: tok.Str}, nil
	case scanner.TokenString:
		return StringOperand{Value: tok.Bytes}, nil
	case scanner.TokenBoolean:
		return BoolOperand{Value: tok.Bool}, nil
	case scanner.TokenNull:
		return NullOperand{}, nil
	case scanner.TokenArrayStart:
		arr := ArrayOperand{}
		for {
			t, err := p.next()
			if errors.Is(err, io.EOF) {
				return arr, nil
			}
			if err != nil && !errors.Is(err, scanner.ErrUnterminatedString) {
				return nil, err
			}
			if t.Type == scanner.TokenArrayEnd {
				return arr, nil
			}
			if t.Type == scanner.TokenKeyword {
				// operator inside an array: the array was never closed
				p.pending = &t
				return arr, nil
			}
			v, err := p.operand(t, depth+1)
			if err != nil {
				return nil, err
			}
			if v != nil {
				arr.Values = append(arr.Values, v)
			}
		}
	case scanner.TokenDictStart:
		return p.dict(depth)
	}
	return nil, nil
}

func (p *opParser) dict(depth int) (DictOperand, error) {
	d := DictOperand{Values: make(map[string]Operand)}
	for {
		t, err := p.next()
		if errors.Is(err, io.EOF) {
			return d, nil
		}
		if err != nil {
			return d, err
		}
		if t.Type == scanner.TokenDictEnd {
			return d, nil
		}
		if t.Type != scanner.TokenName {
			continue
		}
		vt, err := p.next()
		if err != nil {
			return d, err
		}
		if vt.Type == scanner.TokenDictEnd {
			return d, nil
		}
		v, err := p.operand(vt, depth+1)
		if err != nil {
			return d, err
		}
		if v != nil {
			d.Values[t.Str] = v
		}
	}
}

// parseInlineImage reads "key value ... ID <data> EI" following BI.
func (p *opParser) parseInlineImage() (InlineImageOperand, error) {
	img := InlineImageOperand{Image: DictOperand{Values: make(map[string]Operand)}}
	for {
		t, err := p.next()
		if err != nil {
			return img, err
		}
		switch t.Type {
		case scanner.TokenInlineImage:
			img.Data = t.Bytes
			return img, nil
		case scanner.TokenName:
			vt, err := p.next()
			if err != nil {
				return img, err
			}
			if vt.Type == scanner.TokenInlineImage {
				img.Data = vt.Bytes
				return img, nil
			}
			v, err := p.operand(vt, 1)
			if err != nil {
				return img, err
			}
			if v != nil {
				img.Image.Values[t.Str] = v
			}
		case scanner.TokenKeyword:
			if t.Str == "EI" {
				return img, nil
			}
		}
	}
}
