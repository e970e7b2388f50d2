package sample

import "github.com/kiteco/perfrnn/golib/pipeline"

// StringSlice is a slice of strings
type StringSlice []string

// SampleTag implements pipeline.Sample
func (StringSlice) SampleTag() {}

// String wraps a string
type String string

// SampleTag implements pipeline.Sample
func (String) SampleTag() {}

// Addable is a sample that can be summed by a sum aggregator.
type Addable interface {
	pipeline.Sample
	// Add returns the sum of the receiver and other; the receiver may be mutated.
	Add(other Addable) Addable
}

// Counts maps names to counters.
type Counts map[string]int64

// SampleTag implements pipeline.Sample
func (Counts) SampleTag() {}

// Add implements Addable
func (c Counts) Add(other Addable) Addable {
	if c == nil {
		c = make(Counts)
	}
	for k, v := range other.(Counts) {
		c[k] += v
	}
	return c
}
