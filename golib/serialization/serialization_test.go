package serialization

import (
	"bytes"
	"compress/gzip"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apple struct {
	Variety string
	Redness int
}

func gzipString(x string) []byte {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	w.Write([]byte(x))
	w.Close()
	return b.Bytes()
}

func TestJSON(t *testing.T) {
	var apples []*apple
	d := []byte(`{"Variety": "x", "Redness": 2}{"Variety": "y", "Redness": 3}`)
	err := DecodeAs(bytes.NewBuffer(d), "foo.json", func(a *apple) {
		apples = append(apples, a)
	})
	require.NoError(t, err)
	assert.Len(t, apples, 2)
}

func TestGzippedJSON(t *testing.T) {
	var apples []*apple
	d := gzipString(`{"Variety": "x", "Redness": 2}{"Variety": "y", "Redness": 3}`)
	err := DecodeAs(bytes.NewBuffer(d), "bar.json.gz", func(a *apple) {
		apples = append(apples, a)
	})
	require.NoError(t, err)
	require.Len(t, apples, 2)
	assert.Equal(t, "y", apples[1].Variety)
}

func TestDecodeIntoPointer(t *testing.T) {
	var a apple
	err := DecodeAs(bytes.NewBufferString(`{"Variety": "x", "Redness": 2}`), "a.json", &a)
	require.NoError(t, err)
	assert.Equal(t, apple{Variety: "x", Redness: 2}, a)
}

func TestUnknownSuffix(t *testing.T) {
	err := DecodeAs(bytes.NewBufferString(""), "a.yaml", &apple{})
	assert.Error(t, err)
}

func TestRoundTripFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, name := range []string{"a.json", "a.json.gz", "a.json.sz", "a.gob.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Encode(path, apple{Variety: "fuji", Redness: 7}), name)

		var got apple
		require.NoError(t, Decode(path, &got), name)
		assert.Equal(t, apple{Variety: "fuji", Redness: 7}, got, name)
	}
}

func TestDecodeStop(t *testing.T) {
	var seen int
	d := []byte(`{"Variety": "x"}{"Variety": "y"}{"Variety": "z"}`)
	err := DecodeAs(bytes.NewBuffer(d), "foo.json", func(a *apple) error {
		seen++
		if a.Variety == "y" {
			return ErrStop
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestBadHandler(t *testing.T) {
	d := []byte(`{"Variety": "x"}`)
	err := DecodeAs(bytes.NewBuffer(d), "foo.json", func(a apple) {})
	assert.Error(t, err)

	err = DecodeAs(bytes.NewBuffer(d), "foo.json", 3)
	assert.Error(t, err)
}
