package pipeline

import (
	"reflect"
	"sort"

	"github.com/kiteco/perfrnn/golib/errors"
)

// Result is a named value reported at the end of a run.
type Result struct {
	Name  string
	Value interface{}
}

// Pipeline is a set of sources plus the tree of dependents hanging off them.
type Pipeline struct {
	Name string
	// Parents maps every dependent to the feed it reads from. Sources never appear as keys.
	Parents ParentMap
	Sources []Source
	// Params records how the pipeline was configured; it is not interpreted by the engine.
	Params map[string]interface{}
	// ResultsFn turns the aggregated value of each Aggregator into reported Results. May be nil.
	ResultsFn func(res map[Aggregator]Sample) []Result
}

// ParentMap maps a dependent to its parent.
type ParentMap map[Dependent]Feed

// Chain links deps one after another below emitter and returns the last of them.
func (p ParentMap) Chain(emitter Feed, first Dependent, rest ...Dependent) Dependent {
	last := first
	p[first] = emitter
	for _, dep := range rest {
		p[dep] = last
		last = dep
	}
	return last
}

// FanOut makes every dep a direct child of emitter.
func (p ParentMap) FanOut(emitter Feed, first Dependent, rest ...Dependent) {
	p[first] = emitter
	for _, dep := range rest {
		p[dep] = emitter
	}
}

// Validate returns an ErrConfig error describing the first problem found with the pipeline's shape.
func (p Pipeline) Validate() error {
	if p.Name == "" {
		return errors.Configf("pipeline name cannot be empty")
	}
	if len(p.Sources) == 0 {
		return errors.Configf("pipeline %s has no sources", p.Name)
	}

	sources := make(map[Feed]bool, len(p.Sources))
	for i, s := range p.Sources {
		if err := checkFeed(s); err != nil {
			return errors.Configf("source %d: %v", i, err)
		}
		sources[s] = true
	}

	for dep, parent := range p.Parents {
		if err := checkFeed(dep); err != nil {
			return errors.Configf("dependent: %v", err)
		}
		if err := checkFeed(parent); err != nil {
			return errors.Configf("parent of %s: %v", dep.Name(), err)
		}
		if _, ok := parent.(Aggregator); ok {
			return errors.Configf("aggregator %s cannot be the parent of %s", parent.Name(), dep.Name())
		}
		if err := p.checkRooted(dep, sources); err != nil {
			return err
		}
	}

	seen := make(map[string]bool)
	for _, feed := range p.AllFeeds() {
		if seen[feed.Name()] {
			return errors.Configf("duplicate name for feed: %s", feed.Name())
		}
		seen[feed.Name()] = true
	}
	return nil
}

// checkRooted walks up from dep and fails if the walk loops or ends anywhere but one of the pipeline's sources.
func (p Pipeline) checkRooted(dep Dependent, sources map[Feed]bool) error {
	visited := map[Feed]bool{dep: true}
	var cur Feed = p.Parents[dep]
	for {
		if sources[cur] {
			return nil
		}
		if visited[cur] {
			return errors.Configf("feed %s is part of a cycle", dep.Name())
		}
		visited[cur] = true

		d, ok := cur.(Dependent)
		if !ok {
			return errors.Configf("feed %s descends from %s, which is not a source of %s", dep.Name(), cur.Name(), p.Name)
		}
		next, ok := p.Parents[d]
		if !ok {
			return errors.Configf("feed %s has no path to a source", dep.Name())
		}
		cur = next
	}
}

// Aggregators returns the pipeline's aggregators sorted by name.
func (p Pipeline) Aggregators() []Aggregator {
	var aggs []Aggregator
	for feed := range p.Parents {
		if a, ok := feed.(Aggregator); ok {
			aggs = append(aggs, a)
		}
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Name() < aggs[j].Name() })
	return aggs
}

// AllFeeds returns sources and dependents sorted by name.
func (p Pipeline) AllFeeds() []Feed {
	feeds := make([]Feed, 0, len(p.Sources)+len(p.Parents))
	for _, s := range p.Sources {
		feeds = append(feeds, s)
	}
	for dep := range p.Parents {
		feeds = append(feeds, dep)
	}
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].Name() < feeds[j].Name() })
	return feeds
}

// DependentMap is the inverse of a ParentMap: each feed mapped to its children, sorted by name.
type DependentMap map[Feed][]Dependent

// NewDependentMap inverts pm.
func NewDependentMap(pm ParentMap) DependentMap {
	children := make(DependentMap)
	for dep, parent := range pm {
		children[parent] = append(children[parent], dep)
	}
	for _, c := range children {
		c := c
		sort.Slice(c, func(i, j int) bool { return c[i].Name() < c[j].Name() })
	}
	return children
}

func checkFeed(f Feed) error {
	if f == nil {
		return errors.New("feed is nil")
	}
	v := reflect.ValueOf(f)
	if v.Kind() != reflect.Ptr {
		return errors.Errorf("feed %s is not a pointer", f.Name())
	}
	if v.IsNil() {
		return errors.New("feed is nil")
	}
	if f.Name() == "" {
		return errors.Errorf("feed %v has an empty name", f)
	}
	switch f.(type) {
	case Source, Dependent:
		return nil
	default:
		return errors.Errorf("feed %s is neither a Source nor a Dependent", f.Name())
	}
}
