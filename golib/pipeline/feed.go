package pipeline

// A pipeline is a tree of feeds rooted at its sources. Sources emit records; every dependent has exactly one
// parent (see ParentMap) and receives each sample that parent emits. Transforms emit samples of their own,
// aggregators fold what they receive into one result per run.
//
// Feeds are not required to be safe for concurrent use. The engine gives every worker its own clone of each
// dependent, so clones of the same feed must not interfere with each other.

// Feed is a named node of a pipeline.
type Feed interface {
	Name() string
}

// Source emits records. SourceOut is called from a single goroutine until it returns the zero Record.
type Source interface {
	Feed
	SourceOut() Record
}

// Record is a sample emitted by a Source.
type Record struct {
	// Key identifies the record within its source, e.g. a relative file path.
	Key   string
	Value Sample
}

// Dependent consumes the samples of its parent. Only clones receive samples.
type Dependent interface {
	Feed
	// Clone returns a dependent with the same behavior and fresh per-worker state.
	Clone() Dependent
	In(Sample)
}

// Transform is a Dependent that emits samples. After each call to In, TransformOut is called until it
// returns nil.
type Transform interface {
	Dependent
	TransformOut() Sample
}

// Aggregator is a Dependent whose per-worker clones are combined once all records have been processed.
type Aggregator interface {
	Dependent
	// AggregateLocal is called on the original aggregator with its clones and returns the result of the run.
	AggregateLocal(clones []Aggregator) (Sample, error)
	// Finalize runs after AggregateLocal, e.g. to write completion markers.
	Finalize() error
}
