package fonts

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const type1Header = `%!PS-AdobeFont-1.0: TestFont 1.0
/FontName /TestFont def
/ItalicAngle -12 def
/FontBBox {-50 -200 1000 900} readonly def
currentdict end
currentfile eexec
`

func TestType1Extent(t *testing.T) {
	asc, desc, err := Type1Extent([]byte(type1Header + "\xde\xad\xbe\xef"))
	require.NoError(t, err)
	assert.Equal(t, 900.0, asc)
	assert.Equal(t, -200.0, desc)
}

func TestType1ExtentPFB(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x80, 0x01})
	binary.Write(&buf, binary.LittleEndian, uint32(len(type1Header)))
	buf.WriteString(type1Header)
	buf.Write([]byte{0x80, 0x02, 4, 0, 0, 0, 0xde, 0xad, 0xbe, 0xef, 0x80, 0x03})

	asc, desc, err := Type1Extent(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 900.0, asc)
	assert.Equal(t, -200.0, desc)
}

func TestType1ExtentErrors(t *testing.T) {
	_, _, err := Type1Extent(nil)
	assert.ErrorIs(t, err, ErrNoProgram)

	_, _, err = Type1Extent([]byte("/FontName /X def currentfile eexec /FontBBox {0 0 1 1}"))
	assert.Error(t, err, "bbox after eexec is encrypted data")

	_, _, err = Type1Extent([]byte("/FontBBox {0 0 1} def"))
	assert.Error(t, err)
}
