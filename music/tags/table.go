package tags

import (
	"encoding/csv"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/text"
)

type row struct {
	key    string
	values map[string]string
}

// table is the union of the rows of every tag file, in file then row order.
type table struct {
	columns    []string
	rows       []row
	index      map[string]int
	duplicates int
}

func newTable() *table {
	return &table{index: make(map[string]int)}
}

func (t *table) hasColumn(c string) bool {
	for _, col := range t.columns {
		if col == c {
			return true
		}
	}
	return false
}

// normalizeKey reduces a record key to the base name of the file it names.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return filepath.Base(filepath.ToSlash(key))
}

// readFile appends the rows of one delimited file to the table.
func (t *table) readFile(fs afero.Fs, path, charset string, logger *zap.Logger) error {
	f, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "error opening %s", path)
	}
	defer f.Close()

	r, err := text.NewReader(f, charset)
	if err != nil {
		return errors.Configf("%s: %v", path, err)
	}

	reader := gocsv.LazyCSVReader(r)
	if cr, ok := reader.(*csv.Reader); ok {
		// ragged rows are padded with nulls below
		cr.FieldsPerRecord = -1
	}
	records, err := reader.ReadAll()
	if err != nil {
		return errors.Configf("error parsing %s: %v", path, err)
	}
	if len(records) == 0 {
		logger.Warn("empty tag table", zap.String("path", path))
		return nil
	}

	header := make([]string, len(records[0]))
	keyIdx := -1
	for i, h := range records[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		if h == KeyColumn {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return errors.Configf("%s: missing %q column", path, KeyColumn)
	}
	for i, h := range header {
		if i != keyIdx && !t.hasColumn(h) {
			t.columns = append(t.columns, h)
		}
	}

	for n, rec := range records[1:] {
		if keyIdx >= len(rec) {
			logger.Warn("skipping tag row without a key", zap.String("path", path), zap.Int("row", n+2))
			continue
		}
		key := normalizeKey(rec[keyIdx])
		if key == "" {
			logger.Warn("skipping tag row without a key", zap.String("path", path), zap.Int("row", n+2))
			continue
		}
		if _, dup := t.index[key]; dup || key == OthersKey {
			t.duplicates++
			logger.Warn("duplicate tag row, keeping the first", zap.String("path", path), zap.String("key", key))
			continue
		}

		values := make(map[string]string, len(header))
		for i, h := range header {
			if i == keyIdx || i >= len(rec) {
				continue
			}
			values[h] = rec[i]
		}
		t.index[key] = len(t.rows)
		t.rows = append(t.rows, row{key: key, values: values})
	}
	return nil
}

// appendOthers adds the fallback row, null for every column.
func (t *table) appendOthers() {
	t.index[OthersKey] = len(t.rows)
	t.rows = append(t.rows, row{key: OthersKey, values: map[string]string{}})
}
