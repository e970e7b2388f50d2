package dependent

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/sample"
	"github.com/kiteco/perfrnn/golib/pipeline/source"
)

func TestNewFromFunc(t *testing.T) {
	var recs []pipeline.Record
	for _, s := range []string{"a", "bb", "ccc"} {
		recs = append(recs, pipeline.Record{Key: s, Value: sample.String(s)})
	}
	src := source.Slice("src", recs)

	var n, chars int64
	dep := NewFromFunc("count", func(s pipeline.Sample) {
		atomic.AddInt64(&n, 1)
		atomic.AddInt64(&chars, int64(len(s.(sample.String))))
	})

	opts := pipeline.DefaultEngineOptions
	opts.NumWorkers = 3
	opts.Logger = zap.NewNop()
	e, err := pipeline.NewEngine(pipeline.Pipeline{
		Name:    "func",
		Parents: pipeline.ParentMap{dep: src},
		Sources: []pipeline.Source{src},
	}, opts)
	require.NoError(t, err)

	_, err = e.Run()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.EqualValues(t, 6, chars)
	assert.EqualValues(t, 3, e.FeedStats()["count"].In)
}
