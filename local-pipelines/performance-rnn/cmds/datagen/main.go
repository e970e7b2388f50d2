package main

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	arg "github.com/alexflint/go-arg"
	humanize "github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/logging"
	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/sample"
	"github.com/kiteco/perfrnn/music/control"
	"github.com/kiteco/perfrnn/music/encoding"
	"github.com/kiteco/perfrnn/music/notes"
	"github.com/kiteco/perfrnn/music/pipelines"
)

func maybeQuit(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

type args struct {
	Input  string `arg:"required" help:"directory of midi files"`
	Output string `arg:"required" help:"output directory, one subdirectory per mode"`
	Config string `help:"dataset config (.json or .gob, optionally .gz)"`

	TagDir       string   `help:"directory of tag tables"`
	Tags         []string `help:"tags to condition on, all columns if empty"`
	Encoding     string   `help:"charset of the tag tables"`
	DurationBins int      `help:"number of end time bins, 0 disables duration conditioning"`
	MaxDuration  float64  `help:"seconds per duration bin"`

	SpanBins  int  `help:"add a span relative position control with this many bins"`
	Optional  bool `help:"also emit every record with controls disabled"`
	EvalRatio float64
	Seed      uint64

	Workers       int
	ProgressEvery int
	LogLevel      string
	Dev           bool
}

// progress counts the records written for each mode.
type progress struct {
	every    int64
	training int64
	eval     int64
	logger   *zap.Logger
}

func (p *progress) hook(mode string, rec *encoding.Record) {
	counter := &p.training
	if mode == pipelines.ModeEval {
		counter = &p.eval
	}
	n := atomic.AddInt64(counter, 1)
	if p.every > 0 && n%p.every == 0 {
		p.logger.Info("records", zap.String("mode", mode), zap.Int64("count", n), zap.String("last", rec.Key))
	}
}

func (a args) config() (pipelines.Config, error) {
	cfg := pipelines.DefaultConfig()
	if a.Config != "" {
		var err error
		if cfg, err = pipelines.LoadConfig(a.Config); err != nil {
			return cfg, err
		}
	}
	if a.TagDir != "" {
		cfg.Conditioning.TagDir = a.TagDir
		cfg.Conditioning.Tags = a.Tags
		cfg.Conditioning.Encoding = a.Encoding
	}
	if a.DurationBins > 0 {
		cfg.Conditioning.DurationBins = a.DurationBins
		cfg.Conditioning.MaxDuration = a.MaxDuration
	}
	if a.SpanBins > 0 {
		cfg.ControlSignals = append(cfg.ControlSignals, control.SignalConfig{Type: control.SpanRelative, Bins: a.SpanBins})
	}
	if a.Optional {
		cfg.OptionalConditioning = true
	}
	if a.EvalRatio > 0 {
		cfg.EvalRatio = a.EvalRatio
	}
	if a.Seed > 0 {
		cfg.Seed = a.Seed
	}
	return cfg, cfg.Validate()
}

func main() {
	a := args{
		Workers:       pipeline.DefaultEngineOptions.NumWorkers,
		ProgressEvery: pipeline.DefaultEngineOptions.ProgressEvery,
		LogLevel:      "info",
	}
	arg.MustParse(&a)

	logger, err := logging.New(a.LogLevel, a.Dev)
	maybeQuit(err)
	defer logger.Sync()

	cfg, err := a.config()
	maybeQuit(err)

	src, err := notes.NewDirSource("midi", a.Input, logger)
	maybeQuit(err)
	logger.Info("found midi files", zap.Int("files", src.Files()), zap.String("dir", a.Input))

	prog := &progress{every: int64(a.ProgressEvery), logger: logger}
	ds, err := pipelines.Build(cfg, pipelines.BuildOptions{
		Source:          src,
		OutDir:          a.Output,
		Logger:          logger,
		RecordHook:      prog.hook,
	})
	maybeQuit(err)

	engine, err := pipeline.NewEngine(ds.Pipeline, pipeline.EngineOptions{
		NumWorkers:    a.Workers,
		Logger:        logger,
		ProgressEvery: a.ProgressEvery,
	})
	maybeQuit(err)

	_, err = engine.Run()
	maybeQuit(err)

	summarize(engine, src)
}

func summarize(engine *pipeline.Engine, src *notes.DirSource) {
	fmt.Printf("read %s midi files (%s unreadable) in %s\n",
		humanize.Comma(int64(src.Files())), humanize.Comma(int64(src.Failed())), engine.Elapsed())

	stats := engine.FeedStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := stats[name]
		fmt.Printf("%-24s in %10s  out %10s  errors %8s\n", name,
			humanize.Comma(s.In), humanize.Comma(s.Out), humanize.Comma(s.Errs()))
		for _, reason := range s.Reasons() {
			fmt.Printf("    %-40s %s\n", reason, humanize.Comma(s.ErrsByReason[reason].Count))
		}
	}

	for _, r := range engine.Results() {
		switch v := r.Value.(type) {
		case sample.Counts:
			printCounts(r.Name, v)
		case map[string]int64:
			printCounts(r.Name, v)
		case sample.StringSlice:
			fmt.Printf("%s: %d files\n", r.Name, len(v))
		default:
			fmt.Printf("%s: %v\n", r.Name, v)
		}
	}
}

func printCounts(name string, counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, humanize.Comma(counts[k])))
	}
	fmt.Printf("%s: %s\n", name, strings.Join(parts, " "))
}
