// Package notes holds the note sequence model fed into performance extraction, along with
// a MIDI reader and the absolute-time quantizer.
package notes

import "sort"

// Note is a single sounding note.
type Note struct {
	Pitch      int     `json:"pitch"`
	Velocity   int     `json:"velocity"`
	Program    int     `json:"program"`
	Instrument int     `json:"instrument"`
	IsDrum     bool    `json:"is_drum,omitempty"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`

	// Set by QuantizeAbsolute.
	QuantizedStartStep int `json:"quantized_start_step,omitempty"`
	QuantizedEndStep   int `json:"quantized_end_step,omitempty"`
}

// Tempo change in quarter notes per minute.
type Tempo struct {
	Time float64 `json:"time"`
	QPM  float64 `json:"qpm"`
}

// QuantizationInfo describes how a sequence was quantized.
type QuantizationInfo struct {
	StepsPerSecond int `json:"steps_per_second"`
}

// SubsequenceInfo locates a sequence within the recording it was cut from.
type SubsequenceInfo struct {
	StartTimeOffset float64 `json:"start_time_offset"`
	EndTimeOffset   float64 `json:"end_time_offset"`
}

// NoteSequence is a (possibly quantized) recording.
type NoteSequence struct {
	Filename  string  `json:"filename"`
	Notes     []Note  `json:"notes"`
	TotalTime float64 `json:"total_time"`
	Tempos    []Tempo `json:"tempos,omitempty"`

	QuantizationInfo    *QuantizationInfo `json:"quantization_info,omitempty"`
	TotalQuantizedSteps int               `json:"total_quantized_steps,omitempty"`
	SubsequenceInfo     *SubsequenceInfo  `json:"subsequence_info,omitempty"`
}

// SampleTag implements pipeline.Sample
func (*NoteSequence) SampleTag() {}

// Copy returns a deep copy of the sequence.
func (s *NoteSequence) Copy() *NoteSequence {
	c := *s
	c.Notes = append([]Note(nil), s.Notes...)
	c.Tempos = append([]Tempo(nil), s.Tempos...)
	if s.QuantizationInfo != nil {
		qi := *s.QuantizationInfo
		c.QuantizationInfo = &qi
	}
	if s.SubsequenceInfo != nil {
		si := *s.SubsequenceInfo
		c.SubsequenceInfo = &si
	}
	return &c
}

// Programs returns the distinct programs used by the sequence's notes.
func (s *NoteSequence) Programs() map[int]struct{} {
	programs := make(map[int]struct{})
	for _, n := range s.Notes {
		programs[n.Program] = struct{}{}
	}
	return programs
}

// Instruments returns the distinct instruments in ascending order.
func (s *NoteSequence) Instruments() []int {
	seen := make(map[int]bool)
	var out []int
	for _, n := range s.Notes {
		if !seen[n.Instrument] {
			seen[n.Instrument] = true
			out = append(out, n.Instrument)
		}
	}
	sort.Ints(out)
	return out
}
