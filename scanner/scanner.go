package scanner

import (
	"bytes"
	"errors"
	"io"
	"strconv"
)

type TokenType int

const (
	TokenNumber      TokenType = iota // numeric value
	TokenName                         // '/Name'
	TokenString                       // literal or hex string
	TokenBoolean                      // true/false
	TokenNull                         // null
	TokenArrayStart                   // '['
	TokenArrayEnd                     // ']'
	TokenDictStart                    // '<<'
	TokenDictEnd                      // '>>'
	TokenKeyword                      // operators and other bare words
	TokenInlineImage                  // inline image data following ID ... EI
)

type Token struct {
	Type  TokenType
	Str   string  // name or keyword
	Num   float64 // number
	Bytes []byte  // string bytes or inline image payload
	Bool  bool
	Pos   int64
}

var (
	ErrUnterminatedString      = errors.New("unterminated literal string")
	ErrUnterminatedInlineImage = errors.New("unterminated inline image")
)

// Scanner tokenizes a decoded content stream held in memory.
type Scanner struct {
	data []byte
	pos  int
}

func New(data []byte) *Scanner { return &Scanner{data: data} }

func (s *Scanner) Position() int64 { return int64(s.pos) }

// Next returns the next token, or io.EOF once the input is exhausted.
func (s *Scanner) Next() (Token, error) {
	s.skipWSAndComments()
	if s.pos >= len(s.data) {
		return Token{}, io.EOF
	}
	start := int64(s.pos)
	c := s.data[s.pos]
	switch c {
	case '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return Token{Type: TokenDictStart, Pos: start}, nil
		}
		return s.scanHexString(), nil
	case '>':
		if s.peek(1) == '>' {
			s.pos += 2
			return Token{Type: TokenDictEnd, Pos: start}, nil
		}
		s.pos++
		return Token{Type: TokenKeyword, Str: ">", Pos: start}, nil
	case '[':
		s.pos++
		return Token{Type: TokenArrayStart, Pos: start}, nil
	case ']':
		s.pos++
		return Token{Type: TokenArrayEnd, Pos: start}, nil
	case '(':
		return s.scanLiteralString()
	case '/':
		return s.scanName(), nil
	case '{', '}', ')':
		s.pos++
		return Token{Type: TokenKeyword, Str: string(c), Pos: start}, nil
	}
	if isDigitStart(c) {
		return s.scanNumber(), nil
	}
	return s.scanKeyword()
}

func (s *Scanner) skipWSAndComments() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.data) && !isEOL(s.data[s.pos]) {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *Scanner) peek(n int) byte {
	if s.pos+n >= len(s.data) {
		return 0
	}
	return s.data[s.pos+n]
}

func isDigitStart(c byte) bool { return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') }

func (s *Scanner) scanNumber() Token {
	start := s.pos
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
			s.pos++
			continue
		}
		break
	}
	raw := string(s.data[start:s.pos])
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		f = lenientNumber(raw)
	}
	return Token{Type: TokenNumber, Num: f, Pos: int64(start)}
}

// lenientNumber parses the longest valid prefix of malformed numbers such as
// "--5", "1.2.3" or "5-". Readers in the wild accept these.
func lenientNumber(raw string) float64 {
	for len(raw) > 1 && (raw[0] == '-' || raw[0] == '+') && (raw[1] == '-' || raw[1] == '+') {
		raw = raw[1:]
	}
	for end := len(raw); end > 0; end-- {
		if f, err := strconv.ParseFloat(raw[:end], 64); err == nil {
			return f
		}
	}
	return 0
}

func (s *Scanner) scanName() Token {
	start := s.pos
	s.pos++ // skip '/'
	var out bytes.Buffer
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isDelimiter(c) {
			break
		}
		if c == '#' && s.pos+2 < len(s.data) && isHex(s.data[s.pos+1]) && isHex(s.data[s.pos+2]) {
			out.WriteByte(fromHex(s.data[s.pos+1])<<4 | fromHex(s.data[s.pos+2]))
			s.pos += 3
			continue
		}
		out.WriteByte(c)
		s.pos++
	}
	return Token{Type: TokenName, Str: out.String(), Pos: int64(start)}
}

func (s *Scanner) scanLiteralString() (Token, error) { /* PDF 7.3.4.2 */
	start := s.pos
	s.pos++ // skip '('
	var buf bytes.Buffer
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '\\' {
			s.pos++
			if s.pos >= len(s.data) {
				break
			}
			esc := s.data[s.pos]
			// Line continuation: backslash followed by EOL is ignored
			if esc == '\r' {
				s.pos++
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
				continue
			}
			if esc == '\n' {
				s.pos++
				continue
			}
			if esc >= '0' && esc <= '7' {
				val := int(esc - '0')
				s.pos++
				for k := 0; k < 2 && s.pos < len(s.data); k++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = (val << 3) + int(d-'0')
					s.pos++
				}
				buf.WriteByte(byte(val))
				continue
			}
			buf.WriteByte(translateEscape(esc))
			s.pos++
			continue
		}
		if c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				s.pos++
				return Token{Type: TokenString, Bytes: buf.Bytes(), Pos: int64(start)}, nil
			}
		}
		buf.WriteByte(c)
		s.pos++
	}
	return Token{Type: TokenString, Bytes: buf.Bytes(), Pos: int64(start)}, ErrUnterminatedString
}

func (s *Scanner) scanHexString() Token {
	start := s.pos
	s.pos++ // skip '<'
	var hexbuf []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		if isHex(c) {
			hexbuf = append(hexbuf, c)
		}
	}
	// If odd number of nibbles, pad with 0
	if len(hexbuf)%2 == 1 {
		hexbuf = append(hexbuf, '0')
	}
	out := make([]byte, 0, len(hexbuf)/2)
	for i := 0; i < len(hexbuf); i += 2 {
		out = append(out, fromHex(hexbuf[i])<<4|fromHex(hexbuf[i+1]))
	}
	return Token{Type: TokenString, Bytes: out, Pos: int64(start)}
}

func (s *Scanner) scanKeyword() (Token, error) {
	start := s.pos
	for s.pos < len(s.data) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		// stray delimiter byte, consume it as a one byte keyword
		s.pos++
	}
	kw := string(s.data[start:s.pos])
	switch kw {
	case "true", "false":
		return Token{Type: TokenBoolean, Bool: kw == "true", Pos: int64(start)}, nil
	case "null":
		return Token{Type: TokenNull, Pos: int64(start)}, nil
	case "ID": // inline image data; the image dictionary precedes it
		return s.scanInlineImage(int64(start))
	default:
		return Token{Type: TokenKeyword, Str: kw, Pos: int64(start)}, nil
	}
}

// scanInlineImage consumes the payload after ID up to the EI operator.
func (s *Scanner) scanInlineImage(start int64) (Token, error) {
	// a single whitespace byte separates ID from the data
	if s.pos < len(s.data) && isWhitespace(s.data[s.pos]) {
		s.pos++
	}
	dataStart := s.pos
	for i := dataStart; i+1 < len(s.data); i++ {
		if s.data[i] != 'E' || s.data[i+1] != 'I' {
			continue
		}
		prevOK := i == dataStart || isWhitespace(s.data[i-1])
		nextOK := i+2 >= len(s.data) || isDelimiter(s.data[i+2])
		if prevOK && nextOK {
			payload := append([]byte(nil), s.data[dataStart:i]...)
			s.pos = i + 2
			return Token{Type: TokenInlineImage, Bytes: payload, Pos: start}, nil
		}
	}
	s.pos = len(s.data)
	return Token{}, ErrUnterminatedInlineImage
}

func isWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}
func isEOL(c byte) bool { return c == '\r' || c == '\n' }
func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return isWhitespace(c)
	}
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func fromHex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return 0
	}
}

func translateEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return c
	}
}
