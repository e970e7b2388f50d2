package serialization

import (
	"compress/gzip"
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"reflect"

	"github.com/golang/snappy"

	"github.com/kiteco/perfrnn/golib/errors"
)

// Decoder matches gob.Decoder and json.Decoder.
type Decoder interface {
	Decode(interface{}) error
}

// ErrStop may be returned by a handler to end decoding without an error.
var ErrStop = errors.New("stop processing requested")

// Decode reads the values stored at path.
//
// handler is either a pointer, which receives the first value, or a func taking a pointer and optionally
// returning an error, which is called for every value:
//
//   var cfg Config
//   err := serialization.Decode("config.json", &cfg)
//
//   err = serialization.Decode("part-00000.json.gz", func(rec *encoding.Record) {
//     recs = append(recs, rec)
//   })
func Decode(path string, handler interface{}) error {
	r, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "error loading %s", path)
	}
	defer r.Close()
	return DecodeAs(r, path, handler)
}

// DecodeAs is Decode reading from r, with path only naming the format.
func DecodeAs(r io.Reader, path string, handler interface{}) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	switch f.compression {
	case gzipped:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return errors.Wrapf(err, "error loading %s", path)
		}
		defer gz.Close()
		r = gz
	case snappied:
		r = snappy.NewReader(r)
	}

	var d Decoder = json.NewDecoder(r)
	if f.gob {
		d = gob.NewDecoder(r)
	}

	if reflect.ValueOf(handler).Kind() == reflect.Ptr {
		return errors.WrapfOrNil(d.Decode(handler), "error decoding %s", path)
	}

	call, elem, err := handlerFunc(handler)
	if err != nil {
		return err
	}
	for {
		v := reflect.New(elem)
		err := d.Decode(v.Interface())
		if err == io.EOF {
			return nil
		}
		if err == nil {
			err = call(v)
		}
		if err == ErrStop {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "error decoding %s", path)
		}
	}
}

// handlerFunc checks that handler is a func(*T) or func(*T) error.
func handlerFunc(handler interface{}) (func(reflect.Value) error, reflect.Type, error) {
	fn := reflect.ValueOf(handler)
	if fn.Kind() != reflect.Func {
		return nil, nil, errors.Configf("decode handler must be a pointer or a func, got %T", handler)
	}
	t := fn.Type()
	if t.NumIn() != 1 || t.In(0).Kind() != reflect.Ptr || t.NumOut() > 1 {
		return nil, nil, errors.Configf("decode handler must be func(*T) or func(*T) error, got %T", handler)
	}

	call := func(v reflect.Value) error {
		out := fn.Call([]reflect.Value{v})
		if len(out) == 0 || out[0].IsNil() {
			return nil
		}
		return out[0].Interface().(error)
	}
	return call, t.In(0).Elem(), nil
}
