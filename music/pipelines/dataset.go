package pipelines

import (
	"math"
	"path/filepath"
	"strconv"

	spooky "github.com/dgryski/go-spooky"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/logging"
	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/aggregator"
	"github.com/kiteco/perfrnn/golib/pipeline/dependent"
	"github.com/kiteco/perfrnn/golib/pipeline/sample"
	"github.com/kiteco/perfrnn/golib/pipeline/transform"
	"github.com/kiteco/perfrnn/music/condition"
	"github.com/kiteco/perfrnn/music/control"
	"github.com/kiteco/perfrnn/music/encoding"
	"github.com/kiteco/perfrnn/music/notes"
	"github.com/kiteco/perfrnn/music/performance"
)

// Dataset modes, in the order their feeds are built.
const (
	ModeEval     = "eval"
	ModeTraining = "training"
)

// Modes lists every dataset mode.
var Modes = []string{ModeEval, ModeTraining}

// Record counter names.
const (
	CountRecords          = "records"
	CountSteps            = "steps"
	CountConditioned      = "conditioned"
	CountControlsDisabled = "controls_disabled"
)

// BuildOptions are the runtime dependencies of Build.
type BuildOptions struct {
	// Source emits *notes.NoteSequence values, e.g. a notes.DirSource.
	Source pipeline.Source
	// OutDir receives one directory of record parts per mode.
	OutDir string
	// Fs is used to read tag tables; defaults to the OS filesystem.
	Fs     afero.Fs
	Logger *zap.Logger
	// SubsequenceHook is called for every performance cut from a longer recording.
	SubsequenceHook performance.SubsequenceHook
	// RecordHook, if set, sees every encoded record of a mode. It is called from all workers.
	RecordHook func(mode string, rec *encoding.Record)
	// WriterGoroutines per mode; defaults to 1.
	WriterGoroutines int
}

// Dataset is a pipeline writing encoded records for every mode, along with the components it shares.
type Dataset struct {
	Pipeline     pipeline.Pipeline
	Encoder      *Encoder
	Conditioning *condition.Conditioning
	// Stats collects extraction stats per mode.
	Stats map[string]*StatsCollector
}

// InEval returns true if the recording with the given key belongs to the eval split. The split is a
// deterministic function of key and seed.
func InEval(key string, seed uint64, ratio float64) bool {
	if ratio <= 0 {
		return false
	}
	if ratio >= 1 {
		return true
	}
	h := spooky.Hash64([]byte(strconv.FormatUint(seed, 10) + ":" + key))
	return float64(h)/math.MaxUint64 < ratio
}

// Build assembles the dataset pipeline. For each mode the records flow through
// partition, quantizer, extractor and encoder feeds into a part writer under <OutDir>/<mode>
// and a record counter.
func Build(cfg Config, opts BuildOptions) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	logger := logging.OrDefault(opts.Logger)

	signals, err := control.FromConfig(cfg.ControlSignals)
	if err != nil {
		return nil, err
	}

	var cond *condition.Conditioning
	if cfg.Conditioning.Enabled() {
		if cond, err = condition.FromConfig(opts.Fs, cfg.Conditioning, logger); err != nil {
			return nil, err
		}
	}

	extractOpts := performance.ExtractOptions{
		MinEventsDiscard:  cfg.MinEvents,
		MaxEventsTruncate: cfg.MaxEvents,
		MaxStepsTruncate:  cfg.MaxSteps,
		NumVelocityBins:   cfg.NumVelocityBins,
		MaxShiftSteps:     cfg.MaxShiftSteps,
		SplitInstruments:  cfg.SplitInstruments,
		SubsequenceHook:   opts.SubsequenceHook,
	}

	// every mode uses the same extractor settings, so one capability check covers them all
	enc, err := NewEncoder(EncoderOptions{
		NumVelocityBins:      cfg.NumVelocityBins,
		MaxShiftSteps:        cfg.MaxShiftSteps,
		Signals:              signals,
		OptionalConditioning: cfg.OptionalConditioning,
		Conditioning:         cond,
		Producer:             NewExtractor(extractOpts, nil).Capabilities(),
	})
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Encoder:      enc,
		Conditioning: cond,
		Stats:        make(map[string]*StatsCollector),
	}

	parents := make(pipeline.ParentMap)
	counters := make(map[string]pipeline.Aggregator)
	writers := make(map[string]pipeline.Aggregator)
	for _, mode := range Modes {
		eval := mode == ModeEval
		partition := transform.NewFilter("partition_"+mode, func(s pipeline.Sample) bool {
			return InEval(s.(*notes.NoteSequence).Filename, cfg.Seed, cfg.EvalRatio) == eval
		})

		stats := NewStatsCollector()
		ds.Stats[mode] = stats

		last := parents.Chain(opts.Source,
			partition,
			Quantizer("quantizer_"+mode, cfg.StepsPerSecond),
			NewExtractor(extractOpts, stats.Add).Transform("extractor_"+mode),
			enc.Transform("encoder_"+mode),
		)

		writer := aggregator.NewWriter(aggregator.WriterOpts{
			NumGo:          opts.WriterGoroutines,
			SamplesPerFile: cfg.SamplesPerFile,
			Logger:         logger,
		}, "writer_"+mode, filepath.Join(opts.OutDir, mode))
		counter := aggregator.NewSumAggregator("counter_"+mode, newCounts, recordCounts)

		parents.FanOut(last, writer, counter)
		if hook := opts.RecordHook; hook != nil {
			mode := mode
			parents.FanOut(last, dependent.NewFromFunc("hook_"+mode, func(s pipeline.Sample) {
				hook(mode, s.(*encoding.Record))
			}))
		}
		writers[mode] = writer
		counters[mode] = counter
	}

	ds.Pipeline = pipeline.Pipeline{
		Name:    "performance-dataset",
		Parents: parents,
		Sources: []pipeline.Source{opts.Source},
		Params: map[string]interface{}{
			"Config": cfg,
			"OutDir": opts.OutDir,
		},
		ResultsFn: func(res map[pipeline.Aggregator]pipeline.Sample) []pipeline.Result {
			var results []pipeline.Result
			for _, mode := range Modes {
				results = append(results,
					pipeline.Result{Name: "records_" + mode, Value: res[counters[mode]]},
					pipeline.Result{Name: "files_" + mode, Value: res[writers[mode]]},
					pipeline.Result{Name: "extractor_stats_" + mode, Value: ds.Stats[mode].Stats().Counters()},
				)
			}
			return results
		},
	}
	return ds, nil
}

func newCounts() sample.Addable {
	return make(sample.Counts)
}

func recordCounts(s pipeline.Sample) sample.Addable {
	rec, ok := s.(*encoding.Record)
	if !ok {
		return nil
	}
	c := sample.Counts{
		CountRecords: 1,
		CountSteps:   int64(rec.Len()),
	}
	if rec.Conditioned {
		c[CountConditioned]++
	}
	if rec.ControlsDisabled {
		c[CountControlsDisabled]++
	}
	return c
}
