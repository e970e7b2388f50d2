package pipeline

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/logging"
	"github.com/kiteco/perfrnn/golib/workerpool"
)

// EngineOptions configures a pipeline run.
type EngineOptions struct {
	// NumWorkers is the number of goroutines processing records. Defaults to runtime.NumCPU().
	NumWorkers int
	// Logger defaults to logging.Logger.
	Logger *zap.Logger
	// ProgressEvery logs progress after every n records emitted by the sources; 0 disables it.
	ProgressEvery int
	// OnlyKeys restricts each named source to the given record keys.
	OnlyKeys map[string][]string
}

// DefaultEngineOptions for a local run.
var DefaultEngineOptions = EngineOptions{
	NumWorkers:    runtime.NumCPU(),
	ProgressEvery: 1000,
}

// Engine runs a pipeline on the local machine.
type Engine struct {
	pipe   Pipeline
	opts   EngineOptions
	clone  PipeClone
	stats  *runStats
	logger *zap.Logger

	records int64
	results []Result
	elapsed time.Duration
}

// NewEngine validates the pipeline and prepares it for running.
func NewEngine(pipe Pipeline, opts EngineOptions) (*Engine, error) {
	if err := pipe.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid pipeline")
	}
	if opts.NumWorkers < 1 {
		opts.NumWorkers = runtime.NumCPU()
	}

	return &Engine{
		pipe:   pipe,
		opts:   opts,
		clone:  pipe.Identity(),
		stats:  newRunStats(),
		logger: logging.OrDefault(opts.Logger).With(zap.String("pipeline", pipe.Name)),
	}, nil
}

type sourced struct {
	source Source
	rec    Record
}

// Run the pipeline to completion and return the final value of every aggregator.
func (e *Engine) Run() (map[Aggregator]Sample, error) {
	start := time.Now()

	workers := make([]worker, 0, e.opts.NumWorkers)
	for i := 0; i < e.opts.NumWorkers; i++ {
		w, err := newWorker(e.clone, e.stats, e.logger)
		if err != nil {
			return nil, errors.Wrapf(err, "could not create worker %d", i)
		}
		workers = append(workers, w)
	}

	records := make(chan sourced, 2*len(workers))

	pool := workerpool.New(len(workers))
	defer pool.Stop()

	jobs := make([]workerpool.Job, 0, len(workers))
	for _, w := range workers {
		w := w
		jobs = append(jobs, func() error {
			for s := range records {
				w.Run(s.source, s.rec)
			}
			return nil
		})
	}
	pool.Add(jobs)

	e.feed(records)
	close(records)

	if err := pool.Wait(); err != nil {
		return nil, err
	}

	results := make(map[Aggregator]Sample)
	for _, agg := range e.pipe.Aggregators() {
		clones := make([]Aggregator, 0, len(workers))
		for _, w := range workers {
			clones = append(clones, w.ClonedAggregator(agg))
		}
		res, err := agg.AggregateLocal(clones)
		if err != nil {
			return nil, errors.Wrapf(err, "error aggregating %s", agg.Name())
		}
		results[agg] = res
		if err := agg.Finalize(); err != nil {
			return nil, errors.Wrapf(err, "error finalizing %s", agg.Name())
		}
	}

	if e.pipe.ResultsFn != nil {
		e.results = e.pipe.ResultsFn(results)
	}

	e.elapsed = time.Since(start)
	e.logger.Info("pipeline done",
		zap.Int64("records", atomic.LoadInt64(&e.records)),
		zap.Duration("elapsed", e.elapsed))

	return results, nil
}

func (e *Engine) feed(records chan<- sourced) {
	for _, s := range e.clone.Sources {
		var only map[string]bool
		if keys, ok := e.opts.OnlyKeys[s.Name()]; ok {
			only = make(map[string]bool, len(keys))
			for _, k := range keys {
				only[k] = true
			}
		}

		for {
			rec := s.SourceOut()
			if rec.Value == nil {
				break
			}
			if only != nil && !only[rec.Key] {
				continue
			}

			n := atomic.AddInt64(&e.records, 1)
			if e.opts.ProgressEvery > 0 && n%int64(e.opts.ProgressEvery) == 0 {
				e.logger.Info("progress", zap.String("source", s.Name()), zap.Int64("records", n))
			}
			records <- sourced{source: s, rec: rec}
		}
	}
}

// FeedStats returns the stats of every feed that saw at least one sample, by feed name.
func (e *Engine) FeedStats() map[string]FeedStats {
	return e.stats.byName()
}

// Results returns the output of the pipeline's ResultsFn, if any.
func (e *Engine) Results() []Result {
	return e.results
}

// Records returns the number of records emitted by the sources.
func (e *Engine) Records() int64 {
	return atomic.LoadInt64(&e.records)
}

// Elapsed returns the wall time of the last Run.
func (e *Engine) Elapsed() time.Duration {
	return e.elapsed
}

// String implements fmt.Stringer
func (e *Engine) String() string {
	return fmt.Sprintf("Engine(%s, workers=%d)", e.pipe.Name, e.opts.NumWorkers)
}
