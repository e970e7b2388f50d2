package pipeline

import (
	"sort"
	"sync"
)

const maxErrorSamples = 10

// FeedStats counts the samples a feed consumed and produced during a run.
type FeedStats struct {
	In           int64
	Out          int64
	ErrsByReason map[string]FeedErrors
}

// Errs is the total number of error samples across all reasons.
func (f FeedStats) Errs() int64 {
	var n int64
	for _, e := range f.ErrsByReason {
		n += e.Count
	}
	return n
}

// Reasons returns the error reasons in sorted order.
func (f FeedStats) Reasons() []string {
	reasons := make([]string, 0, len(f.ErrsByReason))
	for r := range f.ErrsByReason {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

// FeedError is one recorded error sample.
type FeedError struct {
	SourceName string
	SourceKey  string
	Error      string
}

// FeedErrors counts errors for a single reason and keeps the first few.
type FeedErrors struct {
	Count   int64
	Samples []FeedError
}

func (f FeedErrors) add(sourceName, sourceKey string, err error) FeedErrors {
	f.Count++
	if len(f.Samples) < maxErrorSamples {
		f.Samples = append(f.Samples, FeedError{
			SourceName: sourceName,
			SourceKey:  sourceKey,
			Error:      err.Error(),
		})
	}
	return f
}

// runStats is shared by all workers, keyed by the original (un-cloned) feed.
type runStats struct {
	m     sync.Mutex
	feeds map[Feed]FeedStats
}

func newRunStats() *runStats {
	return &runStats{feeds: make(map[Feed]FeedStats)}
}

func (r *runStats) IncrFeedIn(f Feed) {
	r.m.Lock()
	defer r.m.Unlock()
	s := r.feeds[f]
	s.In++
	r.feeds[f] = s
}

func (r *runStats) IncrFeedOut(f Feed) {
	r.m.Lock()
	defer r.m.Unlock()
	s := r.feeds[f]
	s.Out++
	r.feeds[f] = s
}

func (r *runStats) AddFeedError(f Feed, sourceName, sourceKey string, err errorSample) {
	r.m.Lock()
	defer r.m.Unlock()
	s := r.feeds[f]
	if s.ErrsByReason == nil {
		s.ErrsByReason = make(map[string]FeedErrors)
	}
	s.ErrsByReason[err.reason] = s.ErrsByReason[err.reason].add(sourceName, sourceKey, err)
	r.feeds[f] = s
}

// byName returns a copy of the stats keyed by feed name.
func (r *runStats) byName() map[string]FeedStats {
	r.m.Lock()
	defer r.m.Unlock()
	out := make(map[string]FeedStats, len(r.feeds))
	for f, s := range r.feeds {
		ebr := make(map[string]FeedErrors, len(s.ErrsByReason))
		for k, v := range s.ErrsByReason {
			v.Samples = append([]FeedError(nil), v.Samples...)
			ebr[k] = v
		}
		s.ErrsByReason = ebr
		out[f.Name()] = s
	}
	return out
}
