package pipelines

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/aggregator"
	"github.com/kiteco/perfrnn/golib/pipeline/sample"
	"github.com/kiteco/perfrnn/golib/pipeline/source"
	"github.com/kiteco/perfrnn/golib/serialization"
	"github.com/kiteco/perfrnn/music/condition"
	"github.com/kiteco/perfrnn/music/control"
	"github.com/kiteco/perfrnn/music/encoding"
	"github.com/kiteco/perfrnn/music/notes"
	"github.com/kiteco/perfrnn/music/performance"
	"github.com/kiteco/perfrnn/music/tags"
)

func sequence(filename string) *notes.NoteSequence {
	return &notes.NoteSequence{
		Filename:  filename,
		TotalTime: 1,
		Notes: []notes.Note{
			{Pitch: 60, Velocity: 80, StartTime: 0, EndTime: 0.5},
			{Pitch: 62, Velocity: 80, StartTime: 0.5, EndTime: 1},
		},
	}
}

func extract(t *testing.T, filename string) performance.Performance {
	q, err := notes.QuantizeAbsolute(sequence(filename), 100)
	require.NoError(t, err)
	perfs, err := NewExtractor(performance.ExtractOptions{NumVelocityBins: 32}, nil).Extract(q)
	require.NoError(t, err)
	require.Len(t, perfs, 1)
	return perfs[0]
}

func conditioning(t *testing.T) *condition.Conditioning {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tags/t.csv", []byte("file name,genre\na.mid,jazz\nb.mid,rock\n"), 0644))
	v, err := tags.Build(fs, "/tags", tags.Options{Encoding: "utf-8", Logger: zap.NewNop()})
	require.NoError(t, err)
	c, err := condition.New(condition.Options{Vocabulary: v})
	require.NoError(t, err)
	return c
}

func spanSignal(t *testing.T, bins int) control.Signal {
	s, err := control.NewSpanRelative(bins)
	require.NoError(t, err)
	return s
}

func TestEncodeUnconditioned(t *testing.T) {
	enc, err := NewEncoder(EncoderOptions{
		NumVelocityBins: 32,
		MaxShiftSteps:   100,
		Conditioning:    conditioning(t),
		Producer:        performance.TimeEmbeddingCapabilities,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, enc.RecordsPerPerformance())

	p := extract(t, "b.mid")
	recs, err := enc.Encode("b.mid", p)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, "b.mid", rec.Key)
	assert.False(t, rec.Conditioned)
	assert.Equal(t, p.Len()-1, rec.Len())
	assert.Equal(t, [][]float64{{0, 1, 0}}, rec.Tags)
	for _, in := range rec.Inputs {
		assert.Len(t, in, enc.Codec().InputSize())
	}
}

func TestEncodeOptionalConditioning(t *testing.T) {
	signal := spanSignal(t, 10)
	opts := EncoderOptions{
		NumVelocityBins: 32,
		MaxShiftSteps:   100,
		Signals:         []control.Signal{signal},
		Producer:        performance.TimeEmbeddingCapabilities,
	}

	enc, err := NewEncoder(opts)
	require.NoError(t, err)
	p := extract(t, "a.mid")
	recs, err := enc.Encode("a.mid", p)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Conditioned)
	assert.False(t, recs[0].ControlsDisabled)

	opts.OptionalConditioning = true
	opts.Conditioning = conditioning(t)
	enc, err = NewEncoder(opts)
	require.NoError(t, err)
	assert.Equal(t, 2, enc.RecordsPerPerformance())

	recs, err = enc.Encode("a.mid", p)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].ControlsDisabled)
	assert.True(t, recs[1].ControlsDisabled)

	seqSize := enc.Codec().Sequence.InputSize()
	for i, rec := range recs {
		assert.Equal(t, [][]float64{{1, 0, 0}}, rec.Tags)
		assert.Equal(t, recs[0].Labels, rec.Labels)
		for _, in := range rec.Inputs {
			require.Len(t, in, 1+10+seqSize)
			assert.Equal(t, float64(i), in[0])
		}
	}
	// disabled controls are zeroed
	for _, v := range recs[1].Inputs[0][1:11] {
		assert.Equal(t, 0.0, v)
	}
	recs[0].Tags[0][0] = 7
	assert.Equal(t, [][]float64{{1, 0, 0}}, recs[1].Tags)
}

func TestNewEncoderCapabilities(t *testing.T) {
	_, err := NewEncoder(EncoderOptions{
		Signals:  []control.Signal{spanSignal(t, 4)},
		Producer: performance.Capabilities{SourceOffset: true},
	})
	assert.True(t, errors.Is(err, errors.ErrConfig))

	_, err = NewEncoder(EncoderOptions{
		Conditioning: conditioning(t),
		Producer:     performance.Capabilities{SourceOffset: true, EndTime: true},
	})
	assert.True(t, errors.Is(err, errors.ErrConfig))

	_, err = NewEncoder(EncoderOptions{
		Signals:  []control.Signal{spanSignal(t, 4)},
		Producer: NewExtractor(performance.ExtractOptions{}, nil).Capabilities(),
	})
	assert.NoError(t, err)
}

func TestEncodeErrors(t *testing.T) {
	offset, err := control.NewOffsetRelative(0.5, 4)
	require.NoError(t, err)
	enc, err := NewEncoder(EncoderOptions{
		NumVelocityBins: 32,
		MaxShiftSteps:   100,
		Signals:         []control.Signal{offset},
		Producer:        performance.TimeEmbeddingCapabilities,
	})
	require.NoError(t, err)

	p := extract(t, "a.mid")
	_, err = enc.Encode("a.mid", p)
	assert.True(t, errors.Is(err, errors.ErrRange))

	tr := enc.Transform("encoder")
	tr.In(pipeline.Keyed{Key: "a.mid", Sample: p.(pipeline.Sample)})
	out := tr.TransformOut()
	reason, ok := pipeline.ErrorReason(out)
	require.True(t, ok)
	assert.Equal(t, "position_out_of_range", reason)
	assert.Nil(t, tr.TransformOut())
}

func TestExtractorTransform(t *testing.T) {
	collector := NewStatsCollector()
	ex := NewExtractor(performance.ExtractOptions{NumVelocityBins: 32, MinEventsDiscard: 100}, collector.Add)

	q := Quantizer("quantizer", 100)
	q.In(sequence("a.mid"))
	keyed := q.TransformOut()
	assert.Equal(t, "a.mid", keyed.(pipeline.Keyed).Key)

	tr := ex.Transform("extractor")
	tr.In(keyed)
	reason, ok := pipeline.ErrorReason(tr.TransformOut())
	require.True(t, ok)
	assert.Equal(t, "too_short", reason)
	assert.EqualValues(t, 1, collector.Stats().DiscardedTooShort)

	ex = NewExtractor(performance.ExtractOptions{NumVelocityBins: 32}, collector.Add)
	tr = ex.Transform("extractor")
	tr.In(keyed)
	out := tr.TransformOut()
	require.NotNil(t, out)
	_, isErr := pipeline.ErrorReason(out)
	assert.False(t, isErr)
	_, ok = out.(pipeline.Keyed).Sample.(*performance.TimeEmbedding)
	assert.True(t, ok)
	assert.EqualValues(t, 1, collector.Stats().LengthsInSeconds.Total())
}

func TestInEval(t *testing.T) {
	var eval int
	for i := 0; i < 1000; i++ {
		key := fmt.Sprintf("song-%d.mid", i)
		in := InEval(key, 7, 0.2)
		assert.Equal(t, in, InEval(key, 7, 0.2))
		if in {
			eval++
		}
		assert.False(t, InEval(key, 7, 0))
		assert.True(t, InEval(key, 7, 1))
	}
	assert.InDelta(t, 200, eval, 60)
}

func TestConfig(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.EvalRatio = 1.5
	assert.True(t, errors.Is(bad.Validate(), errors.ErrConfig))

	bad = DefaultConfig()
	bad.MaxEvents = 10
	assert.True(t, errors.Is(bad.Validate(), errors.ErrConfig))

	bad = DefaultConfig()
	bad.ControlSignals = []control.SignalConfig{{Type: "tempo", Bins: 3}}
	assert.True(t, errors.Is(bad.Validate(), errors.ErrConfig))

	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "config.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"eval_ratio": 0.25, "control_signals": [{"type": "span_relative", "bins": 8}]}`), 0644))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.EvalRatio)
	assert.Equal(t, 100, cfg.StepsPerSecond)
	assert.Len(t, cfg.ControlSignals, 1)

	_, err = LoadConfig(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestBuild(t *testing.T) {
	dir, err := ioutil.TempDir("", "dataset")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tags/t.csv", []byte("file name,genre\na.mid,jazz\nb.mid,rock\n"), 0644))

	cfg := DefaultConfig()
	cfg.MinEvents = 0
	cfg.EvalRatio = 0
	cfg.OptionalConditioning = true
	cfg.ControlSignals = []control.SignalConfig{{Type: control.SpanRelative, Bins: 10}}
	cfg.Conditioning = condition.Config{TagDir: "/tags", Encoding: "utf-8", DurationBins: 8, MaxDuration: 1}

	var recs []pipeline.Record
	for _, name := range []string{"a.mid", "b.mid", "c.mid"} {
		recs = append(recs, pipeline.Record{Key: name, Value: sequence(name)})
	}

	var hooked int64
	ds, err := Build(cfg, BuildOptions{
		Source: source.Slice("midi", recs),
		OutDir: dir,
		Fs:     fs,
		Logger: zap.NewNop(),
		RecordHook: func(mode string, rec *encoding.Record) {
			if mode == ModeTraining && len(rec.Inputs) > 0 {
				atomic.AddInt64(&hooked, 1)
			}
		},
	})
	require.NoError(t, err)

	opts := pipeline.DefaultEngineOptions
	opts.NumWorkers = 2
	opts.Logger = zap.NewNop()
	engine, err := pipeline.NewEngine(ds.Pipeline, opts)
	require.NoError(t, err)
	_, err = engine.Run()
	require.NoError(t, err)

	results := make(map[string]interface{})
	for _, r := range engine.Results() {
		results[r.Name] = r.Value
	}
	counts := results["records_training"].(sample.Counts)
	assert.EqualValues(t, 6, counts[CountRecords])
	assert.EqualValues(t, 3, counts[CountControlsDisabled])
	assert.EqualValues(t, 6, counts[CountConditioned])
	assert.Empty(t, results["records_eval"].(sample.Counts))
	assert.EqualValues(t, 3, ds.Stats[ModeTraining].Stats().LengthsInSeconds.Total())

	assert.True(t, aggregator.IsDone(filepath.Join(dir, ModeEval)))
	assert.True(t, aggregator.IsDone(filepath.Join(dir, ModeTraining)))

	parts, err := aggregator.ListDir(filepath.Join(dir, ModeTraining))
	require.NoError(t, err)
	require.NotEmpty(t, parts)

	var decoded []*encoding.Record
	for _, part := range parts {
		require.NoError(t, serialization.Decode(part, func(rec *encoding.Record) {
			decoded = append(decoded, rec)
		}))
	}
	require.Len(t, decoded, 6)
	for _, rec := range decoded {
		// one tag component plus the duration bin
		require.Len(t, rec.Tags, 2)
		assert.Len(t, rec.Tags[1], 8)
	}

	stats := engine.FeedStats()
	assert.EqualValues(t, 3, stats["encoder_training"].In)
	assert.EqualValues(t, 6, stats["encoder_training"].Out)
	assert.EqualValues(t, 6, atomic.LoadInt64(&hooked))
}

func TestBuildUnknownSignal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ControlSignals = []control.SignalConfig{{Type: "density", Bins: 3}}
	_, err := Build(cfg, BuildOptions{Source: source.Slice("midi", nil)})
	assert.True(t, errors.Is(err, errors.ErrConfig))
}
