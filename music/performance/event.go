// Package performance turns quantized note sequences into event-based performances.
package performance

import "fmt"

// EventType of a performance event.
type EventType int

const (
	// NoteOn starts a note; the value is the pitch.
	NoteOn EventType = iota + 1
	// NoteOff ends a note; the value is the pitch.
	NoteOff
	// TimeShift advances time; the value is the number of steps.
	TimeShift
	// Velocity sets the velocity bin of the following notes.
	Velocity
)

const (
	// MinPitch and MaxPitch bound NoteOn and NoteOff values.
	MinPitch = 0
	MaxPitch = 127

	minVelocity = 1
	maxVelocity = 127

	// DefaultMaxShiftSteps is the longest single time shift.
	DefaultMaxShiftSteps = 100
)

var eventNames = map[EventType]string{
	NoteOn:    "note-on",
	NoteOff:   "note-off",
	TimeShift: "time-shift",
	Velocity:  "velocity",
}

func (t EventType) String() string {
	if n, ok := eventNames[t]; ok {
		return n
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is a single performance event.
type Event struct {
	Type  EventType `json:"type"`
	Value int       `json:"value"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d)", e.Type, e.Value)
}

// velocityToBin maps a MIDI velocity to a 1-based bin.
func velocityToBin(velocity, numBins int) int {
	return (velocity-minVelocity)*numBins/(maxVelocity-minVelocity+1) + 1
}

// BinToVelocity returns the lowest MIDI velocity in a 1-based bin.
func BinToVelocity(bin, numBins int) int {
	return minVelocity + (bin-1)*(maxVelocity-minVelocity+1)/numBins
}
