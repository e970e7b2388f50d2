package text

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

func shiftJIS(t *testing.T, s string) []byte {
	out, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestEncodingNames(t *testing.T) {
	for _, name := range []string{"shift-jis", "Shift_JIS", "SJIS", "utf-8", "UTF8", ""} {
		enc, err := Encoding(name)
		require.NoError(t, err, name)
		assert.NotNil(t, enc, name)
	}

	_, err := Encoding("klingon-8")
	assert.Error(t, err)
}

func TestNewReaderShiftJIS(t *testing.T) {
	raw := shiftJIS(t, "file name,ジャンル\na.mid,ジャズ\n")

	r, err := NewReader(bytes.NewReader(raw), "shift-jis")
	require.NoError(t, err)
	out, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "file name,ジャンル\na.mid,ジャズ\n", string(out))
}

func TestNewReaderUTF8Passthrough(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte("plain ascii")), "utf-8")
	require.NoError(t, err)
	out, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "plain ascii", string(out))
}
