package performance

import (
	"sort"
	"strconv"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/notes"
)

// Stat names, shared with the run summaries.
const (
	StatDiscardedTooShort           = "performances_discarded_too_short"
	StatTruncated                   = "performances_truncated"
	StatTruncatedTimewise           = "performances_truncated_timewise"
	StatDiscardedMoreThanOneProgram = "performances_discarded_more_than_1_program"
	StatLengthsInSeconds            = "performance_lengths_in_seconds"
)

// LengthBuckets are the lower bounds of the length histogram, in seconds.
var LengthBuckets = []float64{5, 10, 20, 30, 40, 60, 120}

// Histogram counts values into buckets. Counts[0] holds values below Edges[0] and Counts[i] values in
// [Edges[i-1], Edges[i]).
type Histogram struct {
	Edges  []float64
	Counts []int64
}

// NewHistogram with the given bucket lower bounds, which must be sorted.
func NewHistogram(edges []float64) Histogram {
	return Histogram{
		Edges:  append([]float64(nil), edges...),
		Counts: make([]int64, len(edges)+1),
	}
}

// Increment the bucket holding v.
func (h *Histogram) Increment(v float64) {
	if h.Counts == nil {
		h.Counts = make([]int64, len(h.Edges)+1)
	}
	i := sort.Search(len(h.Edges), func(i int) bool { return h.Edges[i] > v })
	h.Counts[i]++
}

// Total number of values counted.
func (h Histogram) Total() int64 {
	var n int64
	for _, c := range h.Counts {
		n += c
	}
	return n
}

// Labels names each bucket, e.g. "[5,10)".
func (h Histogram) Labels() []string {
	labels := make([]string, len(h.Edges)+1)
	for i := range labels {
		lo, hi := "-inf", "inf"
		if i > 0 {
			lo = strconv.FormatFloat(h.Edges[i-1], 'g', -1, 64)
		}
		if i < len(h.Edges) {
			hi = strconv.FormatFloat(h.Edges[i], 'g', -1, 64)
		}
		labels[i] = "[" + lo + "," + hi + ")"
	}
	return labels
}

// Stats gathered while extracting performances.
type Stats struct {
	DiscardedTooShort           int64
	Truncated                   int64
	TruncatedTimewise           int64
	DiscardedMoreThanOneProgram int64
	LengthsInSeconds            Histogram
}

// NewStats returns empty stats.
func NewStats() Stats {
	return Stats{LengthsInSeconds: NewHistogram(LengthBuckets)}
}

// Add returns the sum of two Stats.
func (s Stats) Add(o Stats) Stats {
	sum := Stats{
		DiscardedTooShort:           s.DiscardedTooShort + o.DiscardedTooShort,
		Truncated:                   s.Truncated + o.Truncated,
		TruncatedTimewise:           s.TruncatedTimewise + o.TruncatedTimewise,
		DiscardedMoreThanOneProgram: s.DiscardedMoreThanOneProgram + o.DiscardedMoreThanOneProgram,
		LengthsInSeconds:            NewHistogram(LengthBuckets),
	}
	for _, h := range []Histogram{s.LengthsInSeconds, o.LengthsInSeconds} {
		for i, c := range h.Counts {
			if i < len(sum.LengthsInSeconds.Counts) {
				sum.LengthsInSeconds.Counts[i] += c
			}
		}
	}
	return sum
}

// Counters flattens the stats into named counters; histogram buckets are named
// performance_lengths_in_seconds_[lo,hi).
func (s Stats) Counters() map[string]int64 {
	m := map[string]int64{
		StatDiscardedTooShort:           s.DiscardedTooShort,
		StatTruncated:                   s.Truncated,
		StatTruncatedTimewise:           s.TruncatedTimewise,
		StatDiscardedMoreThanOneProgram: s.DiscardedMoreThanOneProgram,
	}
	for i, label := range s.LengthsInSeconds.Labels() {
		if i < len(s.LengthsInSeconds.Counts) {
			m[StatLengthsInSeconds+"_"+label] = s.LengthsInSeconds.Counts[i]
		}
	}
	return m
}

// ExtractOptions configures Extract. Zero values disable the corresponding limit.
type ExtractOptions struct {
	StartStep         int
	MinEventsDiscard  int
	MaxEventsTruncate int
	MaxStepsTruncate  int
	NumVelocityBins   int
	MaxShiftSteps     int
	// SplitInstruments extracts one performance per instrument instead of rejecting multi-program input.
	SplitInstruments bool
	SubsequenceHook  SubsequenceHook
}

// Extract builds TimeEmbedding performances from an absolute-quantized sequence, truncating and
// discarding them as configured.
func Extract(seq *notes.NoteSequence, opts ExtractOptions) ([]Performance, Stats, error) {
	stats := NewStats()
	if !notes.IsAbsoluteQuantized(seq) {
		return nil, stats, errors.Validationf("%s: sequence is not absolute quantized", seq.Filename)
	}
	sps := seq.QuantizationInfo.StepsPerSecond

	instruments := []*int{nil}
	if opts.SplitInstruments {
		instruments = instruments[:0]
		for _, i := range seq.Instruments() {
			i := i
			instruments = append(instruments, &i)
		}
	} else if len(seq.Programs()) > 1 {
		stats.DiscardedMoreThanOneProgram++
		return nil, stats, nil
	}

	var perfs []Performance
	for _, instrument := range instruments {
		p, err := NewTimeEmbedding(seq, TimeEmbeddingOptions{
			StartStep:       opts.StartStep,
			NumVelocityBins: opts.NumVelocityBins,
			MaxShiftSteps:   opts.MaxShiftSteps,
			Instrument:      instrument,
			Hook:            opts.SubsequenceHook,
		})
		if err != nil {
			return nil, stats, err
		}

		if opts.MaxStepsTruncate > 0 && p.NumSteps() > opts.MaxStepsTruncate {
			p.SetLength(opts.MaxStepsTruncate)
			stats.TruncatedTimewise++
		}
		if opts.MaxEventsTruncate > 0 && p.Len() > opts.MaxEventsTruncate {
			p.Truncate(opts.MaxEventsTruncate)
			stats.Truncated++
		}

		if opts.MinEventsDiscard > 0 && p.Len() < opts.MinEventsDiscard {
			stats.DiscardedTooShort++
			continue
		}
		perfs = append(perfs, p)
		stats.LengthsInSeconds.Increment(float64(p.NumSteps()) / float64(sps))
	}
	return perfs, stats, nil
}
