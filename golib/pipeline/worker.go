package pipeline

import (
	"go.uber.org/zap"
)

// worker owns clones of the pipeline's dependents, so several workers can process records concurrently.
type worker struct {
	clone  PipeClone
	stats  *runStats
	logger *zap.Logger
}

func newWorker(base PipeClone, stats *runStats, logger *zap.Logger) (worker, error) {
	clone, err := base.CloneForWorker()
	if err != nil {
		return worker{}, err
	}
	return worker{
		clone:  clone,
		stats:  stats,
		logger: logger,
	}, nil
}

// Run the pipeline for a record emitted by the given source.
func (w worker) Run(s Source, rec Record) {
	w.logger.Debug("running record", zap.String("source", s.Name()), zap.String("key", rec.Key))

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while running record", zap.String("source", s.Name()), zap.String("key", rec.Key))
			panic(r)
		}
	}()

	for _, dep := range w.clone.Dependents[s] {
		w.runDependent(s, rec, dep, rec.Value)
	}
}

// ClonedAggregator returns this worker's clone of the given original aggregator.
func (w worker) ClonedAggregator(agg Aggregator) Aggregator {
	return w.clone.OrigToClone[agg].(Aggregator)
}

func (w worker) runDependent(s Source, rec Record, d Dependent, in Sample) {
	orig := w.clone.CloneToOrig[d]
	w.stats.IncrFeedIn(orig)

	d.In(in)

	t, ok := d.(Transform)
	if !ok {
		return
	}

	for {
		sample := t.TransformOut()
		if sample == nil {
			return
		}
		if se, ok := asErrorSample(sample); ok {
			w.stats.AddFeedError(orig, s.Name(), rec.Key, se)
			continue
		}

		w.stats.IncrFeedOut(orig)
		for _, dep := range w.clone.Dependents[t] {
			w.runDependent(s, rec, dep, sample)
		}
	}
}
