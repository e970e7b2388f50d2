// Package encoding turns performances and control sequences into model inputs and labels.
package encoding

import (
	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/performance"
)

const numPitches = performance.MaxPitch - performance.MinPitch + 1

// PerformanceEncoding maps performance events to class indices laid out as
// note-on pitches, note-off pitches, time shifts, then velocity bins.
type PerformanceEncoding struct {
	MaxShiftSteps   int
	NumVelocityBins int
}

// NewPerformanceEncoding with the default shift range.
func NewPerformanceEncoding(numVelocityBins, maxShiftSteps int) PerformanceEncoding {
	if maxShiftSteps <= 0 {
		maxShiftSteps = performance.DefaultMaxShiftSteps
	}
	return PerformanceEncoding{MaxShiftSteps: maxShiftSteps, NumVelocityBins: numVelocityBins}
}

// NumClasses is the one-hot width.
func (e PerformanceEncoding) NumClasses() int {
	return 2*numPitches + e.MaxShiftSteps + e.NumVelocityBins
}

// DefaultEvent is used to pad sequences.
func (e PerformanceEncoding) DefaultEvent() performance.Event {
	return performance.Event{Type: performance.TimeShift, Value: e.MaxShiftSteps}
}

// EncodeEvent returns the class index of an event.
func (e PerformanceEncoding) EncodeEvent(ev performance.Event) (int, error) {
	switch ev.Type {
	case performance.NoteOn, performance.NoteOff:
		if ev.Value < performance.MinPitch || ev.Value > performance.MaxPitch {
			return 0, errors.Rangef("pitch %d out of range", ev.Value)
		}
		idx := ev.Value - performance.MinPitch
		if ev.Type == performance.NoteOff {
			idx += numPitches
		}
		return idx, nil
	case performance.TimeShift:
		if ev.Value < 1 || ev.Value > e.MaxShiftSteps {
			return 0, errors.Rangef("time shift %d out of range", ev.Value)
		}
		return 2*numPitches + ev.Value - 1, nil
	case performance.Velocity:
		if ev.Value < 1 || ev.Value > e.NumVelocityBins {
			return 0, errors.Rangef("velocity bin %d out of range", ev.Value)
		}
		return 2*numPitches + e.MaxShiftSteps + ev.Value - 1, nil
	}
	return 0, errors.Errorf("unknown event type %v", ev.Type)
}

// DecodeEvent is the inverse of EncodeEvent.
func (e PerformanceEncoding) DecodeEvent(idx int) (performance.Event, error) {
	switch {
	case idx < 0:
	case idx < numPitches:
		return performance.Event{Type: performance.NoteOn, Value: idx + performance.MinPitch}, nil
	case idx < 2*numPitches:
		return performance.Event{Type: performance.NoteOff, Value: idx - numPitches + performance.MinPitch}, nil
	case idx < 2*numPitches+e.MaxShiftSteps:
		return performance.Event{Type: performance.TimeShift, Value: idx - 2*numPitches + 1}, nil
	case idx < e.NumClasses():
		return performance.Event{Type: performance.Velocity, Value: idx - 2*numPitches - e.MaxShiftSteps + 1}, nil
	}
	return performance.Event{}, errors.Rangef("class %d out of range", idx)
}

// OneHot returns a vector of n zeros with a 1 at idx.
func OneHot(idx, n int) []float64 {
	v := make([]float64, n)
	v[idx] = 1
	return v
}

// OneHotSequence encodes event sequences for next-event prediction.
type OneHotSequence struct {
	Encoding PerformanceEncoding
}

// InputSize of a single input vector.
func (s OneHotSequence) InputSize() int {
	return s.Encoding.NumClasses()
}

// NumClasses of the labels.
func (s OneHotSequence) NumClasses() int {
	return s.Encoding.NumClasses()
}

// EventsToInput returns the one-hot input for position i.
func (s OneHotSequence) EventsToInput(events []performance.Event, i int) ([]float64, error) {
	idx, err := s.Encoding.EncodeEvent(events[i])
	if err != nil {
		return nil, err
	}
	return OneHot(idx, s.Encoding.NumClasses()), nil
}

// EventsToLabel returns the class of position i.
func (s OneHotSequence) EventsToLabel(events []performance.Event, i int) (int, error) {
	return s.Encoding.EncodeEvent(events[i])
}

// Encode builds inputs for events 0..n-2 and labels for events 1..n-1.
func (s OneHotSequence) Encode(events []performance.Event) (*Record, error) {
	rec := &Record{}
	for i := 0; i+1 < len(events); i++ {
		in, err := s.EventsToInput(events, i)
		if err != nil {
			return nil, err
		}
		label, err := s.EventsToLabel(events, i+1)
		if err != nil {
			return nil, err
		}
		rec.Inputs = append(rec.Inputs, in)
		rec.Labels = append(rec.Labels, label)
	}
	return rec, nil
}
