package pipelines

import (
	"sync"

	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/transform"
	"github.com/kiteco/perfrnn/music/notes"
	"github.com/kiteco/perfrnn/music/performance"
)

// Extractor extracts performances from quantized sequences.
type Extractor struct {
	opts    performance.ExtractOptions
	statsFn func(performance.Stats)
}

// NewExtractor reports the stats of every extraction to statsFn, which may be nil and must be safe for
// concurrent use.
func NewExtractor(opts performance.ExtractOptions, statsFn func(performance.Stats)) *Extractor {
	return &Extractor{opts: opts, statsFn: statsFn}
}

// Capabilities of the performances the extractor produces.
func (e *Extractor) Capabilities() performance.Capabilities {
	return performance.TimeEmbeddingCapabilities
}

// Extract performances from an absolute-quantized sequence.
func (e *Extractor) Extract(seq *notes.NoteSequence) ([]performance.Performance, error) {
	perfs, _, err := e.extract(seq)
	return perfs, err
}

func (e *Extractor) extract(seq *notes.NoteSequence) ([]performance.Performance, performance.Stats, error) {
	perfs, stats, err := performance.Extract(seq, e.opts)
	if e.statsFn != nil {
		e.statsFn(stats)
	}
	return perfs, stats, err
}

// Transform returns a pipeline transform from keyed quantized sequences to keyed performances. A sequence
// yielding no performance becomes an error sample explaining why.
func (e *Extractor) Transform(name string) pipeline.Transform {
	return transform.NewMap(name, func(s pipeline.Sample) []pipeline.Sample {
		k := s.(pipeline.Keyed)
		seq := k.Sample.(*notes.NoteSequence)

		perfs, stats, err := e.extract(seq)
		if err != nil {
			return []pipeline.Sample{pipeline.WrapError("extract_failed", err)}
		}
		if len(perfs) == 0 {
			return []pipeline.Sample{pipeline.NewError(emptyReason(stats))}
		}

		out := make([]pipeline.Sample, 0, len(perfs))
		for _, p := range perfs {
			out = append(out, pipeline.Keyed{Key: k.Key, Sample: p.(pipeline.Sample)})
		}
		return out
	})
}

func emptyReason(stats performance.Stats) string {
	switch {
	case stats.DiscardedMoreThanOneProgram > 0:
		return "more_than_one_program"
	case stats.DiscardedTooShort > 0:
		return "too_short"
	default:
		return "no_performances"
	}
}

// Quantizer returns a pipeline transform from raw sequences to pipeline.Keyed absolute-quantized sequences,
// keyed by file name.
func Quantizer(name string, stepsPerSecond int) pipeline.Transform {
	return transform.NewOneInOneOut(name, func(s pipeline.Sample) pipeline.Sample {
		seq := s.(*notes.NoteSequence)
		q, err := notes.QuantizeAbsolute(seq, stepsPerSecond)
		if err != nil {
			return pipeline.WrapError("quantize_failed", err)
		}
		return pipeline.Keyed{Key: seq.Filename, Sample: q}
	})
}

// StatsCollector sums extraction stats reported from concurrent workers.
type StatsCollector struct {
	m     sync.Mutex
	stats performance.Stats
}

// NewStatsCollector returns an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{stats: performance.NewStats()}
}

// Add stats, for use as an extractor stats function.
func (c *StatsCollector) Add(s performance.Stats) {
	c.m.Lock()
	defer c.m.Unlock()
	c.stats = c.stats.Add(s)
}

// Stats returns the sum so far.
func (c *StatsCollector) Stats() performance.Stats {
	c.m.Lock()
	defer c.m.Unlock()
	return c.stats
}
