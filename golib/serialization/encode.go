package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"

	"github.com/golang/snappy"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/fileutil"
)

// Encoder matches gob.Encoder and json.Encoder.
type Encoder interface {
	Encode(interface{}) error
}

// Encode writes obj to path.
func Encode(path string, obj interface{}) (err error) {
	enc, err := NewEncoder(path)
	if err != nil {
		return err
	}
	defer errors.Defer(&err, enc.Close)
	return enc.Encode(obj)
}

// EncodeCloser is an Encoder owning the writers below it.
type EncodeCloser struct {
	Encoder
	layers []io.Closer
}

// Close flushes and closes the writers, compression before file.
func (e *EncodeCloser) Close() error {
	var errs errors.List
	for i := len(e.layers) - 1; i >= 0; i-- {
		errs = errors.Append(errs, e.layers[i].Close())
	}
	return errs.Err()
}

// NewEncoder creates path, along with missing parent directories, and returns an encoder writing to it.
func NewEncoder(path string) (*EncodeCloser, error) {
	f, err := fileutil.NewBufferedWriter(path)
	if err != nil {
		return nil, err
	}
	enc, err := WrapWriter(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	enc.layers = append([]io.Closer{f}, enc.layers...)
	return enc, nil
}

// WrapWriter returns an encoder writing to w in the format path names. Closing it flushes the compression
// layer, if any, but leaves w open.
func WrapWriter(w io.Writer, path string) (*EncodeCloser, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	enc := &EncodeCloser{}
	switch f.compression {
	case gzipped:
		gz := gzip.NewWriter(w)
		enc.layers, w = append(enc.layers, gz), gz
	case snappied:
		sz := snappy.NewBufferedWriter(w)
		enc.layers, w = append(enc.layers, sz), sz
	}

	if f.gob {
		enc.Encoder = gob.NewEncoder(w)
	} else {
		enc.Encoder = json.NewEncoder(w)
	}
	return enc, nil
}
