package encoding

import (
	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/performance"
)

// Conditional encodes an event sequence alongside a control sequence. The input at position i is the
// control encoding for the next event followed by the encoding of event i.
type Conditional struct {
	Control ControlEncoder
	Target  OneHotSequence
}

// InputSize of a single input vector.
func (c Conditional) InputSize() int {
	return c.Control.InputSize() + c.Target.InputSize()
}

// Encode controls and events, which must have the same length.
func (c Conditional) Encode(controls []Control, events []performance.Event) (*Record, error) {
	if len(controls) != len(events) {
		return nil, errors.Errorf("control sequence length %d does not match event sequence length %d", len(controls), len(events))
	}

	rec := &Record{Conditioned: true}
	for i := 0; i+1 < len(events); i++ {
		ctl, err := c.Control.EventsToInput(controls, i+1)
		if err != nil {
			return nil, err
		}
		ev, err := c.Target.EventsToInput(events, i)
		if err != nil {
			return nil, err
		}
		label, err := c.Target.EventsToLabel(events, i+1)
		if err != nil {
			return nil, err
		}
		rec.Inputs = append(rec.Inputs, append(ctl, ev...))
		rec.Labels = append(rec.Labels, label)
	}
	return rec, nil
}

// PerformanceCodec encodes performances with or without control conditioning.
type PerformanceCodec struct {
	Sequence OneHotSequence
	// Control may be nil for a codec that never conditions.
	Control ControlEncoder
}

// NewPerformanceCodec for performances with the given event ranges.
func NewPerformanceCodec(numVelocityBins, maxShiftSteps int, control ControlEncoder) PerformanceCodec {
	return PerformanceCodec{
		Sequence: OneHotSequence{Encoding: NewPerformanceEncoding(numVelocityBins, maxShiftSteps)},
		Control:  control,
	}
}

// InputSize of the conditioned inputs, or of the plain inputs when there is no control encoder.
func (c PerformanceCodec) InputSize() int {
	if c.Control == nil {
		return c.Sequence.InputSize()
	}
	return c.Control.InputSize() + c.Sequence.InputSize()
}

// Encode a performance without controls.
func (c PerformanceCodec) Encode(p performance.Performance) (*Record, error) {
	return c.Sequence.Encode(p.Events())
}

// EncodeConditioned encodes a performance with one control tuple per event.
func (c PerformanceCodec) EncodeConditioned(controls []Control, p performance.Performance) (*Record, error) {
	if c.Control == nil {
		return nil, errors.Configf("codec has no control encoder")
	}
	return Conditional{Control: c.Control, Target: c.Sequence}.Encode(controls, p.Events())
}
