package swiftdsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestIsUTF8(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUTF8(nil))
	assert.True(t, IsUTF8(unicode.UTF8))
	assert.True(t, IsUTF8(unicode.UTF8BOM))
	assert.False(t, IsUTF8(charmap.Windows1252))
	assert.False(t, IsUTF8(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)))
}

func TestLookupEncoding(t *testing.T) {
	t.Parallel()

	enc, err := LookupEncoding("")
	require.NoError(t, err)
	assert.True(t, IsUTF8(enc))

	enc, err = LookupEncoding("UTF-8")
	require.NoError(t, err)
	assert.True(t, IsUTF8(enc))

	enc, err = LookupEncoding("ISO-8859-1")
	require.NoError(t, err)
	assert.False(t, IsUTF8(enc))

	_, err = LookupEncoding("no-such-charset")
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Encoding", cerr.Field)
}

func TestUTF16RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := minimalConfig().WithEncoding(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM))
	var buf closeBuffer
	require.NoError(t, Save(&buf, cfg, [][]*string{Strings("ä", "b,c")}, ValuesHandler{}))
	assert.Equal(t, "\xe4\x00,\x00\"\x00b\x00,\x00c\x00\"\x00\n\x00", buf.String())

	rows, err := Load(&buf, cfg, ValuesHandler{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"ä", "b,c"}, rowStrings(rows[0]))
}
