// Package pipelines assembles the stages that turn MIDI recordings into encoded training records.
package pipelines

import (
	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/pipeline"
	"github.com/kiteco/perfrnn/golib/pipeline/transform"
	"github.com/kiteco/perfrnn/music/condition"
	"github.com/kiteco/perfrnn/music/control"
	"github.com/kiteco/perfrnn/music/encoding"
	"github.com/kiteco/perfrnn/music/performance"
)

// EncoderOptions configures NewEncoder.
type EncoderOptions struct {
	NumVelocityBins int
	MaxShiftSteps   int
	// Signals are extracted for every performance and encoded as per-event controls. Without signals
	// performances are encoded unconditioned.
	Signals []control.Signal
	// OptionalConditioning encodes every performance twice, with controls enabled and then disabled.
	// It has no effect without signals.
	OptionalConditioning bool
	// Conditioning attaches one-hot tag and duration vectors to every record when set.
	Conditioning *condition.Conditioning
	// Producer is what the performances fed to the encoder are able to report.
	Producer performance.Capabilities
}

// Encoder turns performances into records. It is read-only after construction and can be shared
// by concurrent callers.
type Encoder struct {
	codec        encoding.PerformanceCodec
	signals      []control.Signal
	optional     bool
	conditioning *condition.Conditioning
}

// NewEncoder returns ErrConfig if the producer cannot supply what the signals or the conditioning need.
func NewEncoder(opts EncoderOptions) (*Encoder, error) {
	if err := control.CheckSupported(opts.Signals, opts.Producer); err != nil {
		return nil, err
	}
	if opts.Conditioning != nil {
		if missing := opts.Producer.Missing(opts.Conditioning.Requires()); len(missing) > 0 {
			return nil, errors.Configf("conditioning needs performances with %v", missing)
		}
	}

	var ctl encoding.ControlEncoder
	if len(opts.Signals) > 0 {
		seq := encoding.ControlSequence{}
		for _, s := range opts.Signals {
			seq.Encodings = append(seq.Encodings, s.Encoding())
		}
		ctl = seq
		if opts.OptionalConditioning {
			ctl = encoding.OptionalControls{Controls: seq}
		}
	}

	return &Encoder{
		codec:        encoding.NewPerformanceCodec(opts.NumVelocityBins, opts.MaxShiftSteps, ctl),
		signals:      opts.Signals,
		optional:     opts.OptionalConditioning && len(opts.Signals) > 0,
		conditioning: opts.Conditioning,
	}, nil
}

// Codec used for the event and control inputs.
func (e *Encoder) Codec() encoding.PerformanceCodec {
	return e.codec
}

// RecordsPerPerformance is the number of records Encode returns on success.
func (e *Encoder) RecordsPerPerformance() int {
	if e.optional {
		return 2
	}
	return 1
}

// Encode a performance into one record, or into two when optional conditioning is enabled: the first with
// controls and the second with controls disabled. Errors from conditioning or signals are returned as is.
func (e *Encoder) Encode(key string, p performance.Performance) ([]*encoding.Record, error) {
	var tags [][]float64
	if e.conditioning != nil {
		ids, err := e.conditioning.IDsForPerformance(p)
		if err != nil {
			return nil, err
		}
		if tags, err = e.conditioning.OneHot(ids); err != nil {
			return nil, err
		}
	}

	if len(e.signals) == 0 {
		rec, err := e.codec.Encode(p)
		if err != nil {
			return nil, err
		}
		rec.Key, rec.Tags = key, tags
		return []*encoding.Record{rec}, nil
	}

	controls, err := e.controls(p)
	if err != nil {
		return nil, err
	}

	disable := []bool{false}
	if e.optional {
		disable = append(disable, true)
	}

	var recs []*encoding.Record
	for _, d := range disable {
		cs := controls
		if d {
			cs = make([]encoding.Control, len(controls))
			for i, c := range controls {
				cs[i] = encoding.Control{Disabled: true, Values: c.Values}
			}
		}
		rec, err := e.codec.EncodeConditioned(cs, p)
		if err != nil {
			return nil, err
		}
		rec.Key, rec.Tags, rec.ControlsDisabled = key, copyTags(tags), d
		recs = append(recs, rec)
	}
	return recs, nil
}

// copyTags gives every record its own tag vectors.
func copyTags(tags [][]float64) [][]float64 {
	if tags == nil {
		return nil
	}
	out := make([][]float64, len(tags))
	for i, t := range tags {
		out[i] = append([]float64(nil), t...)
	}
	return out
}

// controls zips the values of every signal into one tuple per event.
func (e *Encoder) controls(p performance.Performance) ([]encoding.Control, error) {
	values := make([][]float64, len(e.signals))
	for i, s := range e.signals {
		v, err := s.Extract(p)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	controls := make([]encoding.Control, p.Len())
	for j := range controls {
		tuple := make([]float64, len(e.signals))
		for i := range e.signals {
			tuple[i] = values[i][j]
		}
		controls[j].Values = tuple
	}
	return controls, nil
}

// Transform returns a pipeline transform that encodes pipeline.Keyed performances and emits
// *encoding.Record samples. Failures become error samples with a reason derived from the error kind.
func (e *Encoder) Transform(name string) pipeline.Transform {
	return transform.NewMap(name, func(s pipeline.Sample) []pipeline.Sample {
		k := s.(pipeline.Keyed)
		p, ok := k.Sample.(performance.Performance)
		if !ok {
			return []pipeline.Sample{pipeline.NewError("not a performance")}
		}

		recs, err := e.Encode(k.Key, p)
		if err != nil {
			return []pipeline.Sample{pipeline.WrapError(encodeReason(err), err)}
		}
		out := make([]pipeline.Sample, 0, len(recs))
		for _, r := range recs {
			out = append(out, r)
		}
		return out
	})
}

func encodeReason(err error) string {
	switch {
	case errors.Is(err, errors.ErrRange):
		return "position_out_of_range"
	case errors.Is(err, errors.ErrConfig):
		return "missing_capability"
	default:
		return "encode_failed"
	}
}
