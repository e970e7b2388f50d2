package aggregator

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/sample"
	"github.com/kiteco/perfrnn/golib/pipeline/source"
	"github.com/kiteco/perfrnn/golib/serialization"
)

type line struct {
	Key   string
	Value int
}

func (line) SampleTag() {}

type measure struct {
	Value float64
}

func (measure) SampleTag() {}

func records(n int) []pipeline.Record {
	var recs []pipeline.Record
	for i := 0; i < n; i++ {
		recs = append(recs, pipeline.Record{Key: string(rune('a' + i)), Value: line{Key: string(rune('a' + i)), Value: i}})
	}
	return recs
}

func run(t *testing.T, agg pipeline.Aggregator, recs []pipeline.Record) pipeline.Sample {
	src := source.Slice("src", recs)
	opts := pipeline.DefaultEngineOptions
	opts.NumWorkers = 2
	opts.Logger = zap.NewNop()
	e, err := pipeline.NewEngine(pipeline.Pipeline{
		Name:    "test",
		Parents: pipeline.ParentMap{agg: src},
		Sources: []pipeline.Source{src},
	}, opts)
	require.NoError(t, err)

	res, err := e.Run()
	require.NoError(t, err)
	return res[agg]
}

func TestWriter(t *testing.T) {
	dir, err := ioutil.TempDir("", "writer")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	opts := DefaultWriterOpts
	opts.SamplesPerFile = 2
	opts.Logger = zap.NewNop()
	w := NewWriter(opts, "writer", dir)

	files := run(t, w, records(5)).(sample.StringSlice)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "part-00000.json.gz"), files[0])
	assert.True(t, IsDone(dir))

	listed, err := ListDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string(files), listed)

	seen := make(map[string]int)
	for _, f := range files {
		err := serialization.Decode(f, func(l *line) {
			seen[l.Key] = l.Value
		})
		require.NoError(t, err)
	}
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 4}, seen)
}

func TestWriterEncodeFailure(t *testing.T) {
	dir, err := ioutil.TempDir("", "writer")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	w := NewWriter(WriterOpts{Logger: zap.NewNop()}, "writer", dir)
	w.Clone()
	w.In(line{Key: "a", Value: 1})
	w.In(measure{Value: math.Inf(1)})
	w.In(line{Key: "b", Value: 2})

	_, err = w.AggregateLocal(nil)
	assert.Error(t, err)

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "part-", "left behind %s", e.Name())
	}
}

func TestWriterSnappy(t *testing.T) {
	dir, err := ioutil.TempDir("", "writer")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	opts := DefaultWriterOpts
	opts.FileSuffix = ".json.sz"
	opts.Logger = zap.NewNop()
	w := NewWriter(opts, "writer", dir)

	files := run(t, w, records(3)).(sample.StringSlice)
	require.Equal(t, sample.StringSlice{filepath.Join(dir, "part-00000.json.sz")}, files)

	var count int
	require.NoError(t, serialization.Decode(files[0], func(l *line) { count++ }))
	assert.Equal(t, 3, count)
}

func TestWriterEmpty(t *testing.T) {
	dir, err := ioutil.TempDir("", "writer")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	w := NewWriter(WriterOpts{Logger: zap.NewNop()}, "writer", dir)
	files := run(t, w, nil).(sample.StringSlice)
	assert.Empty(t, files)
	assert.True(t, IsDone(dir))
}

func countLines(s pipeline.Sample) sample.Addable {
	return sample.Counts{"lines": 1, s.(line).Key: 1}
}

func TestSumAggregator(t *testing.T) {
	agg := NewSumAggregator("sum", func() sample.Addable { return sample.Counts{} }, countLines)
	res := run(t, agg, records(3)).(sample.Counts)
	assert.Equal(t, sample.Counts{"lines": 3, "a": 1, "b": 1, "c": 1}, res)

	empty := NewSumAggregator("sum", func() sample.Addable { return sample.Counts{} }, countLines)
	assert.Equal(t, sample.Counts{}, run(t, empty, nil))
}
