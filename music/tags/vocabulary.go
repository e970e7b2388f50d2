// Package tags builds dense id vocabularies for categorical metadata read from tables keyed by file name.
package tags

import (
	"regexp"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/fileutil"
	"github.com/kiteco/perfrnn/golib/logging"
)

const (
	// KeyColumn names the column holding the record key in every tag table.
	KeyColumn = "file name"
	// OthersKey is the fallback row used for keys missing from the tables.
	OthersKey = "others"
	// Null is the category of empty cells, and of every tag of the fallback row.
	Null = ""
	// DefaultEncoding of tag tables.
	DefaultEncoding = "shift_jis"
)

// DefaultPattern matches tag table file names.
var DefaultPattern = regexp.MustCompile(`^.*\.csv$`)

// Options for Build.
type Options struct {
	// Tags selects columns; nil selects every column in the order they were first seen.
	Tags []string
	// Encoding of the tables, DefaultEncoding if empty; text.AutoDetect sniffs each file.
	Encoding string
	// Pattern selects table files by base name, DefaultPattern if nil.
	Pattern *regexp.Regexp
	Logger  *zap.Logger
	// OnFallback is called whenever LookupByKey falls back to the others row.
	OnFallback func(key string)
}

// Entry is one category of one tag.
type Entry struct {
	Tag   string `csv:"tag"`
	Value string `csv:"value"`
	ID    int    `csv:"id"`
}

// Vocabulary maps the categories of each tag to dense ids. It is immutable once built
// and safe for concurrent use.
type Vocabulary struct {
	tags       []string
	ids        []map[string]int
	values     [][]string
	rows       map[string][]int
	keys       []string
	duplicates int

	logger     *zap.Logger
	onFallback func(string)
}

// Build reads every tag table under dir and assigns ids per tag in first-seen order. Files are read in
// lexicographic path order, and the others row comes last.
func Build(fs afero.Fs, dir string, opts Options) (*Vocabulary, error) {
	if opts.Encoding == "" {
		opts.Encoding = DefaultEncoding
	}
	if opts.Pattern == nil {
		opts.Pattern = DefaultPattern
	}
	logger := logging.OrDefault(opts.Logger)

	files, err := fileutil.FindFiles(fs, dir, opts.Pattern)
	if err != nil {
		return nil, errors.Configf("%v", err)
	}
	if len(files) == 0 {
		return nil, errors.Configf("no tag tables matching %s under %s", opts.Pattern, dir)
	}

	t := newTable()
	for _, f := range files {
		if err := t.readFile(fs, f, opts.Encoding, logger); err != nil {
			return nil, err
		}
	}
	t.appendOthers()

	selected := opts.Tags
	if selected == nil {
		selected = t.columns
	}
	seen := make(map[string]bool, len(selected))
	for _, tag := range selected {
		if !t.hasColumn(tag) {
			return nil, errors.Configf("%q is not a column of the tag tables", tag)
		}
		if seen[tag] {
			return nil, errors.Configf("tag %q selected twice", tag)
		}
		seen[tag] = true
	}

	v := &Vocabulary{
		tags:       append([]string(nil), selected...),
		ids:        make([]map[string]int, len(selected)),
		values:     make([][]string, len(selected)),
		rows:       make(map[string][]int, len(t.rows)),
		duplicates: t.duplicates,
		logger:     logger,
		onFallback: opts.OnFallback,
	}

	for i, tag := range v.tags {
		v.ids[i] = make(map[string]int)
		for _, r := range t.rows {
			value := r.values[tag]
			if _, ok := v.ids[i][value]; !ok {
				v.ids[i][value] = len(v.values[i])
				v.values[i] = append(v.values[i], value)
			}
		}
	}

	for _, r := range t.rows {
		ids := make([]int, len(v.tags))
		for i, tag := range v.tags {
			ids[i] = v.ids[i][r.values[tag]]
		}
		v.rows[r.key] = ids
		if r.key != OthersKey {
			v.keys = append(v.keys, r.key)
		}
	}

	logger.Info("built tag vocabulary",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("rows", len(v.keys)),
		zap.Strings("tags", v.tags),
		zap.Ints("cardinalities", v.Cardinalities()))

	return v, nil
}

// LookupByKey returns the id vector of the row whose key is the base name of key. Unknown keys
// resolve to the others row.
func (v *Vocabulary) LookupByKey(key string) []int {
	ids, ok := v.rows[normalizeKey(key)]
	if !ok {
		v.logger.Warn("key not in tag tables, using others", zap.String("key", key))
		if v.onFallback != nil {
			v.onFallback(key)
		}
		ids = v.rows[OthersKey]
	}
	return append([]int(nil), ids...)
}

// LookupByValues returns the ids of an explicit category per tag. Null names the null category.
func (v *Vocabulary) LookupByValues(values map[string]string) ([]int, error) {
	if len(values) != len(v.tags) {
		return nil, errors.Validationf("got %d tag values, expected one for each of %v", len(values), v.tags)
	}

	ids := make([]int, len(v.tags))
	for i, tag := range v.tags {
		value, ok := values[tag]
		if !ok {
			return nil, errors.Validationf("missing value for tag %q", tag)
		}
		id, ok := v.ids[i][value]
		if !ok {
			return nil, errors.Validationf("unknown category %q for tag %q", value, tag)
		}
		ids[i] = id
	}
	return ids, nil
}

// Category returns the category of tag with the given id.
func (v *Vocabulary) Category(tag string, id int) (string, bool) {
	i := v.tagIndex(tag)
	if i < 0 || id < 0 || id >= len(v.values[i]) {
		return "", false
	}
	return v.values[i][id], true
}

// Cardinalities returns the number of categories per tag, in tag order.
func (v *Vocabulary) Cardinalities() []int {
	cards := make([]int, len(v.values))
	for i, vals := range v.values {
		cards[i] = len(vals)
	}
	return cards
}

// TagCount is the number of tags.
func (v *Vocabulary) TagCount() int {
	return len(v.tags)
}

// Tags returns the tag names in order.
func (v *Vocabulary) Tags() []string {
	return append([]string(nil), v.tags...)
}

// Keys returns the record keys in table order, without the others row.
func (v *Vocabulary) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Duplicates is the number of rows dropped because their key was already seen.
func (v *Vocabulary) Duplicates() int {
	return v.duplicates
}

// OneHot expands an id vector into one one-hot vector per tag.
func (v *Vocabulary) OneHot(ids []int) ([][]float64, error) {
	if len(ids) != len(v.tags) {
		return nil, errors.Validationf("got %d ids, expected %d", len(ids), len(v.tags))
	}
	out := make([][]float64, len(ids))
	for i, id := range ids {
		n := len(v.values[i])
		if id < 0 || id >= n {
			return nil, errors.Rangef("id %d out of range for tag %q", id, v.tags[i])
		}
		out[i] = make([]float64, n)
		out[i][id] = 1
	}
	return out, nil
}

// Entries lists every (tag, category, id), ordered by tag then id.
func (v *Vocabulary) Entries() []Entry {
	var entries []Entry
	for i, tag := range v.tags {
		for id, value := range v.values[i] {
			entries = append(entries, Entry{Tag: tag, Value: value, ID: id})
		}
	}
	return entries
}

func (v *Vocabulary) tagIndex(tag string) int {
	for i, t := range v.tags {
		if t == tag {
			return i
		}
	}
	return -1
}
