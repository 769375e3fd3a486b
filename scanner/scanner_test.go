package scanner

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src string) []Token {
	t.Helper()
	s := New([]byte(src))
	var out []Token
	for {
		tok, err := s.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, tok)
	}
}

func TestScanner_Operators(t *testing.T) {
	toks := collect(t, "q 1 0 0 1 72.5 -.5 cm % comment\n/F1 12 Tf Q")
	require.Len(t, toks, 12)
	assert.Equal(t, TokenKeyword, toks[0].Type)
	assert.Equal(t, "q", toks[0].Str)
	assert.Equal(t, 72.5, toks[5].Num)
	assert.Equal(t, -0.5, toks[6].Num)
	assert.Equal(t, "cm", toks[7].Str)
	assert.Equal(t, TokenName, toks[8].Type)
	assert.Equal(t, "F1", toks[8].Str)
	assert.Equal(t, "Tf", toks[10].Str)
	assert.Equal(t, "Q", toks[11].Str)
}

func TestScanner_LiteralStrings(t *testing.T) {
	toks := collect(t, `(a\(b\)c) (nested (parens) ok) (\101\102C) (line\
cont) (tab\t)`)
	require.Len(t, toks, 5)
	assert.Equal(t, "a(b)c", string(toks[0].Bytes))
	assert.Equal(t, "nested (parens) ok", string(toks[1].Bytes))
	assert.Equal(t, "ABC", string(toks[2].Bytes))
	assert.Equal(t, "linecont", string(toks[3].Bytes))
	assert.Equal(t, "tab\t", string(toks[4].Bytes))
}

func TestScanner_HexStringAndName(t *testing.T) {
	toks := collect(t, "<48 65 6c6C6> /A#20B")
	require.Len(t, toks, 2)
	assert.Equal(t, []byte{0x48, 0x65, 0x6c, 0x6c, 0x60}, toks[0].Bytes)
	assert.Equal(t, "A B", toks[1].Str)
}

func TestScanner_ArraysAndDicts(t *testing.T) {
	toks := collect(t, "[(a) -120 (b)] TJ /Span <</ActualText (x)>> BDC")
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TokenArrayStart, TokenString, TokenNumber, TokenString, TokenArrayEnd, TokenKeyword,
		TokenName, TokenDictStart, TokenName, TokenString, TokenDictEnd, TokenKeyword,
	}, types)
}

func TestScanner_InlineImage(t *testing.T) {
	toks := collect(t, "BI /W 2 /H 1 /BPC 8 /CS /G ID \x00EI\xff\nEI Q")
	require.Len(t, toks, 11)
	assert.Equal(t, "BI", toks[0].Str)
	img := toks[9]
	assert.Equal(t, TokenInlineImage, img.Type)
	assert.Equal(t, []byte("\x00EI\xff\n"), img.Bytes)
	assert.Equal(t, "Q", toks[10].Str)
}

func TestScanner_UnterminatedInlineImage(t *testing.T) {
	s := New([]byte("BI /W 1 ID abc"))
	var err error
	for err == nil {
		_, err = s.Next()
	}
	assert.ErrorIs(t, err, ErrUnterminatedInlineImage)
}

func TestScanner_UnterminatedString(t *testing.T) {
	s := New([]byte("(abc"))
	tok, err := s.Next()
	assert.ErrorIs(t, err, ErrUnterminatedString)
	assert.Equal(t, "abc", string(tok.Bytes))
	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestScanner_MalformedNumbers(t *testing.T) {
	toks := collect(t, "--5 1.2.3 true null")
	require.Len(t, toks, 4)
	assert.Equal(t, -5.0, toks[0].Num)
	assert.Equal(t, 1.2, toks[1].Num)
	assert.Equal(t, TokenBoolean, toks[2].Type)
	assert.True(t, toks[2].Bool)
	assert.Equal(t, TokenNull, toks[3].Type)
}
