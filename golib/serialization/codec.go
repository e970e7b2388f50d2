// Package serialization reads and writes streams of values whose format is named by the file suffix:
// .json or .gob, optionally followed by .gz (gzip) or .sz (snappy).
package serialization

import (
	"path/filepath"
	"strings"

	"github.com/kiteco/perfrnn/golib/errors"
)

type compression int

const (
	plain compression = iota
	gzipped
	snappied
)

type format struct {
	compression compression
	gob         bool
}

func formatOf(path string) (format, error) {
	var f format
	switch filepath.Ext(path) {
	case ".gz":
		f.compression = gzipped
	case ".sz":
		f.compression = snappied
	}
	if f.compression != plain {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}

	switch filepath.Ext(path) {
	case ".json":
	case ".gob":
		f.gob = true
	default:
		return f, errors.Configf("no serialization format for %s", path)
	}
	return f, nil
}
