package performance

import (
	"sort"
	"strings"

	"github.com/kiteco/perfrnn/music/notes"
)

// Performance is an ordered sequence of events on an absolute time grid.
type Performance interface {
	Events() []Event
	Len() int
	StepsPerSecond() int
	// NumSteps is the total length in steps, the sum of all time shifts.
	NumSteps() int
	// StartStep is the step of the source sequence the performance starts at.
	StartStep() int
	NumVelocityBins() int
	MaxShiftSteps() int
}

// SourceOffsetter is implemented by performances that know where they start within their source recording.
type SourceOffsetter interface {
	StartTimeOffset() float64
}

// EndTimer is implemented by performances that know where they end within their source recording.
type EndTimer interface {
	EndTime() float64
}

// FileNamer is implemented by performances that know the file they were read from.
type FileNamer interface {
	FileName() string
}

// Capabilities lists optional accessors a performance offers.
type Capabilities struct {
	SourceOffset bool
	EndTime      bool
	FileName     bool
}

// CapabilitiesOf reports the optional accessors p implements.
func CapabilitiesOf(p interface{}) Capabilities {
	_, offset := p.(SourceOffsetter)
	_, end := p.(EndTimer)
	_, name := p.(FileNamer)
	return Capabilities{SourceOffset: offset, EndTime: end, FileName: name}
}

// Missing returns the names of the capabilities in req that c lacks.
func (c Capabilities) Missing(req Capabilities) []string {
	var missing []string
	if req.SourceOffset && !c.SourceOffset {
		missing = append(missing, "start_time_offset")
	}
	if req.EndTime && !c.EndTime {
		missing = append(missing, "end_time")
	}
	if req.FileName && !c.FileName {
		missing = append(missing, "file_name")
	}
	return missing
}

// Covers returns true if c offers everything req asks for.
func (c Capabilities) Covers(req Capabilities) bool {
	return len(c.Missing(req)) == 0
}

// Union of two capability sets.
func (c Capabilities) Union(o Capabilities) Capabilities {
	return Capabilities{
		SourceOffset: c.SourceOffset || o.SourceOffset,
		EndTime:      c.EndTime || o.EndTime,
		FileName:     c.FileName || o.FileName,
	}
}

func (c Capabilities) String() string {
	// what c offers is what an empty set misses against it
	return "{" + strings.Join(Capabilities{}.Missing(c), ",") + "}"
}

// Basic is a performance with no optional capabilities.
type Basic struct {
	events          []Event
	stepsPerSecond  int
	startStep       int
	numVelocityBins int
	maxShiftSteps   int
}

// NewBasic wraps an event list.
func NewBasic(stepsPerSecond int, events []Event, numVelocityBins, maxShiftSteps int) *Basic {
	if maxShiftSteps <= 0 {
		maxShiftSteps = DefaultMaxShiftSteps
	}
	return &Basic{
		events:          append([]Event(nil), events...),
		stepsPerSecond:  stepsPerSecond,
		numVelocityBins: numVelocityBins,
		maxShiftSteps:   maxShiftSteps,
	}
}

// SampleTag implements pipeline.Sample
func (*Basic) SampleTag() {}

// Events implements Performance
func (b *Basic) Events() []Event { return b.events }

// Len implements Performance
func (b *Basic) Len() int { return len(b.events) }

// StepsPerSecond implements Performance
func (b *Basic) StepsPerSecond() int { return b.stepsPerSecond }

// StartStep implements Performance
func (b *Basic) StartStep() int { return b.startStep }

// NumVelocityBins implements Performance
func (b *Basic) NumVelocityBins() int { return b.numVelocityBins }

// MaxShiftSteps implements Performance
func (b *Basic) MaxShiftSteps() int { return b.maxShiftSteps }

// NumSteps implements Performance
func (b *Basic) NumSteps() int {
	var steps int
	for _, e := range b.events {
		if e.Type == TimeShift {
			steps += e.Value
		}
	}
	return steps
}

// Truncate keeps the first n events.
func (b *Basic) Truncate(n int) {
	if n < len(b.events) {
		b.events = b.events[:n]
	}
}

// SetLength pads with time shifts or trims events from the end until NumSteps() == steps.
func (b *Basic) SetLength(steps int) {
	switch cur := b.NumSteps(); {
	case cur < steps:
		b.appendSteps(steps - cur)
	case cur > steps:
		b.trimSteps(cur - steps)
	}
}

func (b *Basic) appendSteps(n int) {
	if n <= 0 {
		return
	}
	// extend a trailing shift before adding new ones
	if last := len(b.events) - 1; last >= 0 && b.events[last].Type == TimeShift {
		add := b.maxShiftSteps - b.events[last].Value
		if add > n {
			add = n
		}
		b.events[last].Value += add
		n -= add
	}
	for n > 0 {
		s := n
		if s > b.maxShiftSteps {
			s = b.maxShiftSteps
		}
		b.events = append(b.events, Event{Type: TimeShift, Value: s})
		n -= s
	}
}

func (b *Basic) trimSteps(n int) {
	var trimmed int
	for len(b.events) > 0 && trimmed < n {
		last := len(b.events) - 1
		e := b.events[last]
		if e.Type == TimeShift && trimmed+e.Value > n {
			b.events[last].Value -= n - trimmed
			trimmed = n
			continue
		}
		if e.Type == TimeShift {
			trimmed += e.Value
		}
		b.events = b.events[:last]
	}
}

type noteEvent struct {
	step     int
	off      bool
	pitch    int
	velocity int
}

// fromQuantized builds the events of the notes of seq starting at or after startStep. If instrument is not
// nil, only that instrument's notes are used.
func fromQuantized(seq *notes.NoteSequence, startStep, numVelocityBins, maxShiftSteps int, instrument *int) []Event {
	var nes []noteEvent
	for _, n := range seq.Notes {
		if n.QuantizedStartStep < startStep {
			continue
		}
		if instrument != nil && n.Instrument != *instrument {
			continue
		}
		nes = append(nes,
			noteEvent{step: n.QuantizedStartStep, pitch: n.Pitch, velocity: n.Velocity},
			noteEvent{step: n.QuantizedEndStep, off: true, pitch: n.Pitch})
	}

	// within a step, note-offs come first
	sort.SliceStable(nes, func(i, j int) bool {
		a, b := nes[i], nes[j]
		if a.step != b.step {
			return a.step < b.step
		}
		if a.off != b.off {
			return a.off
		}
		return a.pitch < b.pitch
	})

	var events []Event
	current := startStep
	velocityBin := 0
	for _, ne := range nes {
		for ne.step > current {
			shift := ne.step - current
			if shift > maxShiftSteps {
				shift = maxShiftSteps
			}
			events = append(events, Event{Type: TimeShift, Value: shift})
			current += shift
		}

		if ne.off {
			events = append(events, Event{Type: NoteOff, Value: ne.pitch})
			continue
		}
		if numVelocityBins > 0 {
			if bin := velocityToBin(ne.velocity, numVelocityBins); bin != velocityBin {
				events = append(events, Event{Type: Velocity, Value: bin})
				velocityBin = bin
			}
		}
		events = append(events, Event{Type: NoteOn, Value: ne.pitch})
	}
	return events
}
