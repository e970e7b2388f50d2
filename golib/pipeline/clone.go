package pipeline

import (
	"fmt"
)

// PipeClone holds a copy of a Pipeline in which the Dependents may be replaced by their clones.
// OrigToClone and CloneToOrig map between the two so that stats and results can be attributed to
// the feeds the caller knows about.
type PipeClone struct {
	Sources    []Source
	Parents    ParentMap
	Dependents DependentMap

	OrigToClone map[Feed]Feed
	CloneToOrig map[Feed]Feed
}

// Identity returns a PipeClone that refers to the pipeline's own feeds.
func (p Pipeline) Identity() PipeClone {
	c, _ := clonePipe(p.Sources, p.Parents, func(f Feed) (Feed, error) { return f, nil })
	return c
}

// CloneForWorker clones every Dependent so that a single worker can own it. Sources are shared.
func (p PipeClone) CloneForWorker() (PipeClone, error) {
	return clonePipe(p.Sources, p.Parents, func(f Feed) (Feed, error) {
		dep, ok := f.(Dependent)
		if !ok {
			return f, nil
		}
		clone := dep.Clone()
		if clone == nil {
			return nil, fmt.Errorf("nil clone returned")
		}
		switch dep.(type) {
		case Transform:
			if _, ok := clone.(Transform); !ok {
				return nil, fmt.Errorf("clone of Transform %s is not a Transform", dep.Name())
			}
		case Aggregator:
			if _, ok := clone.(Aggregator); !ok {
				return nil, fmt.Errorf("clone of Aggregator %s is not an Aggregator", dep.Name())
			}
		}
		return clone, nil
	})
}

func clonePipe(sources []Source, parents ParentMap, cloneFn func(Feed) (Feed, error)) (PipeClone, error) {
	pc := PipeClone{
		Sources:     make([]Source, 0, len(sources)),
		Parents:     make(ParentMap, len(parents)),
		OrigToClone: make(map[Feed]Feed),
		CloneToOrig: make(map[Feed]Feed),
	}

	track := func(orig Feed) (Feed, error) {
		if c, ok := pc.OrigToClone[orig]; ok {
			return c, nil
		}
		c, err := cloneFn(orig)
		if err != nil {
			return nil, fmt.Errorf("could not clone %s: %v", orig.Name(), err)
		}
		pc.OrigToClone[orig] = c
		pc.CloneToOrig[c] = orig
		return c, nil
	}

	for _, s := range sources {
		c, err := track(s)
		if err != nil {
			return PipeClone{}, err
		}
		pc.Sources = append(pc.Sources, c.(Source))
	}

	for dep := range parents {
		if _, err := track(dep); err != nil {
			return PipeClone{}, err
		}
	}

	for dep, parent := range parents {
		newParent, found := pc.OrigToClone[parent]
		if !found {
			newParent = parent
		}
		pc.Parents[pc.OrigToClone[dep].(Dependent)] = newParent
	}

	pc.Dependents = NewDependentMap(pc.Parents)
	return pc, nil
}
