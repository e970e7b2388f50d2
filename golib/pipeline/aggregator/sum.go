package aggregator

import (
	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/sample"
)

// Sum folds the samples it receives into a sample.Addable. Every worker clone keeps its own total; the totals
// are added together once the run is over.
type Sum struct {
	name string
	zero func() sample.Addable
	conv func(pipeline.Sample) sample.Addable

	total sample.Addable
}

// NewSumAggregator returns a Sum. zero returns an empty total and conv turns an input into the value to add,
// or nil to skip the input.
func NewSumAggregator(name string, zero func() sample.Addable, conv func(pipeline.Sample) sample.Addable) *Sum {
	return &Sum{name: name, zero: zero, conv: conv}
}

// Name implements pipeline.Aggregator.
func (s *Sum) Name() string { return s.name }

// Clone implements pipeline.Aggregator.
func (s *Sum) Clone() pipeline.Dependent {
	c := NewSumAggregator(s.name, s.zero, s.conv)
	c.total = s.zero()
	return c
}

// In implements pipeline.Aggregator.
func (s *Sum) In(in pipeline.Sample) {
	if v := s.conv(in); v != nil {
		s.total = s.total.Add(v)
	}
}

// AggregateLocal implements pipeline.Aggregator.
func (s *Sum) AggregateLocal(clones []pipeline.Aggregator) (pipeline.Sample, error) {
	total := s.zero()
	for _, c := range clones {
		if t := c.(*Sum).total; t != nil {
			total = total.Add(t)
		}
	}
	return total, nil
}

// Finalize implements pipeline.Aggregator.
func (s *Sum) Finalize() error { return nil }
