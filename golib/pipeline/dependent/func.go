// Package dependent adapts plain functions into pipeline dependents.
package dependent

import (
	"github.com/kiteco/perfrnn/golib/pipeline"
)

// Func is a pipeline.Dependent that hands every sample to a function. Clones share the function, so it
// must be safe to call from several workers at once.
type Func struct {
	name string
	fn   func(pipeline.Sample)
}

// NewFromFunc returns a Func named name.
func NewFromFunc(name string, fn func(pipeline.Sample)) *Func {
	return &Func{name: name, fn: fn}
}

// Name implements pipeline.Dependent.
func (f *Func) Name() string { return f.name }

// Clone implements pipeline.Dependent.
func (f *Func) Clone() pipeline.Dependent { return f.shared() }

// In implements pipeline.Dependent.
func (f *Func) In(s pipeline.Sample) {
	if s == nil {
		return
	}
	f.fn(s)
}

func (f *Func) shared() *Func { return &Func{name: f.name, fn: f.fn} }
