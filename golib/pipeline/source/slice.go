// Package source holds in-memory pipeline sources.
package source

import (
	"github.com/kiteco/perfrnn/golib/pipeline"
)

// Records emits a fixed list of records in order, then the zero Record.
type Records struct {
	name string
	recs []pipeline.Record
	next int
}

// Slice returns a source over recs.
func Slice(name string, recs []pipeline.Record) *Records {
	return &Records{name: name, recs: recs}
}

// Name implements pipeline.Source.
func (r *Records) Name() string { return r.name }

// SourceOut implements pipeline.Source.
func (r *Records) SourceOut() pipeline.Record {
	if r.next == len(r.recs) {
		return pipeline.Record{}
	}
	r.next++
	return r.recs[r.next-1]
}

