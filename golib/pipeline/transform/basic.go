// Package transform holds pipeline.Transform implementations built from plain functions.
package transform

import (
	"github.com/kiteco/perfrnn/golib/pipeline"
)

// pending buffers the samples produced by the last call to In.
type pending struct {
	name string
	out  []pipeline.Sample
}

func (p *pending) Name() string { return p.name }

func (p *pending) set(out ...pipeline.Sample) {
	p.out = p.out[:0]
	for _, s := range out {
		if s == nil {
			continue
		}
		p.out = append(p.out, s)
	}
}

// TransformOut implements pipeline.Transform.
func (p *pending) TransformOut() pipeline.Sample {
	if len(p.out) == 0 {
		return nil
	}
	s := p.out[0]
	p.out[0] = nil
	p.out = p.out[1:]
	return s
}

// OneInOneOutFn maps a sample to at most one sample; nil means nothing is emitted.
type OneInOneOutFn func(pipeline.Sample) pipeline.Sample

// OneInOneOut applies a OneInOneOutFn to every input.
type OneInOneOut struct {
	pending
	f OneInOneOutFn
}

// NewOneInOneOut returns a OneInOneOut named name.
func NewOneInOneOut(name string, f OneInOneOutFn) *OneInOneOut {
	return &OneInOneOut{pending: pending{name: name}, f: f}
}

// In implements pipeline.Transform.
func (t *OneInOneOut) In(s pipeline.Sample) { t.set(t.f(s)) }

// Clone implements pipeline.Transform.
func (t *OneInOneOut) Clone() pipeline.Dependent { return NewOneInOneOut(t.name, t.f) }

// MapFn maps a sample to any number of samples, emitted in order. Nil entries are skipped.
type MapFn func(pipeline.Sample) []pipeline.Sample

// Map applies a MapFn to every input.
type Map struct {
	pending
	f MapFn
}

// NewMap returns a Map named name.
func NewMap(name string, f MapFn) *Map {
	return &Map{pending: pending{name: name}, f: f}
}

// In implements pipeline.Transform.
func (t *Map) In(s pipeline.Sample) { t.set(t.f(s)...) }

// Clone implements pipeline.Transform.
func (t *Map) Clone() pipeline.Dependent { return NewMap(t.name, t.f) }

// IncludeFn reports whether a sample passes a Filter.
type IncludeFn func(pipeline.Sample) bool

// Filter re-emits the inputs accepted by an IncludeFn.
type Filter struct {
	pending
	include IncludeFn
}

// NewFilter returns a Filter named name.
func NewFilter(name string, include IncludeFn) *Filter {
	return &Filter{pending: pending{name: name}, include: include}
}

// In implements pipeline.Transform.
func (f *Filter) In(s pipeline.Sample) {
	if f.include(s) {
		f.set(s)
		return
	}
	f.set()
}

// Clone implements pipeline.Transform.
func (f *Filter) Clone() pipeline.Dependent { return NewFilter(f.name, f.include) }
