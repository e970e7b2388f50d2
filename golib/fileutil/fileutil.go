package fileutil

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/kiteco/perfrnn/golib/errors"
)

// OsFs is the local filesystem.
var OsFs = afero.NewOsFs()

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

// NewBufferedWriter opens a local path for writing, creating parent directories as needed.
func NewBufferedWriter(path string) (NamedWriteCloser, error) {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

// ListDir returns the fully qualified names for the members of the provided directory,
// sorted lexicographically.
func ListDir(fs afero.Fs, path string) ([]string, error) {
	entries, err := afero.ReadDir(fs, path)
	if err != nil {
		return nil, errors.Errorf("error reading dir %s: %v", path, err)
	}

	var paths []string
	for _, entry := range entries {
		paths = append(paths, filepath.Join(path, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// FindFiles walks root recursively and returns the regular files whose base name matches
// pattern, in lexicographic path order.
func FindFiles(fs afero.Fs, root string, pattern *regexp.Regexp) ([]string, error) {
	var found []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if pattern.MatchString(info.Name()) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("error walking %s: %v", root, err)
	}
	sort.Strings(found)
	return found, nil
}

// HasExt returns true if path ends in one of the given extensions, ignoring case.
func HasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
