package notes

import (
	"io"
	"path/filepath"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/kiteco/perfrnn/golib/errors"
)

const (
	defaultQPM  = 120.0
	drumChannel = 9
)

// ReadMIDI loads a standard MIDI file from disk.
func ReadMIDI(path string) (*NoteSequence, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading midi file %s", path)
	}
	return FromSMF(s, path)
}

// DecodeMIDI reads a standard MIDI file from r.
func DecodeMIDI(r io.Reader, filename string) (*NoteSequence, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrapf(err, "error decoding midi %s", filename)
	}
	return FromSMF(s, filename)
}

type tempoChange struct {
	tick uint64
	qpm  float64
}

// clock converts absolute ticks to seconds under a tempo map.
type clock struct {
	ticksPerQuarter float64
	changes         []tempoChange
}

func (c clock) seconds(tick uint64) float64 {
	var secs float64
	prev := tempoChange{qpm: defaultQPM}
	for _, ch := range c.changes {
		if ch.tick >= tick {
			break
		}
		secs += float64(ch.tick-prev.tick) / c.ticksPerQuarter * 60 / prev.qpm
		prev = ch
	}
	return secs + float64(tick-prev.tick)/c.ticksPerQuarter*60/prev.qpm
}

type noteKey struct {
	channel uint8
	key     uint8
}

// FromSMF converts a parsed MIDI file into a NoteSequence. Each track becomes an instrument.
func FromSMF(s *smf.SMF, filename string) (*NoteSequence, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.Errorf("%s: only metric time formats are supported", filename)
	}

	c := clock{ticksPerQuarter: float64(ticks.Ticks4th())}
	for _, track := range s.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				c.changes = append(c.changes, tempoChange{tick: tick, qpm: bpm})
			}
		}
	}
	sort.SliceStable(c.changes, func(i, j int) bool { return c.changes[i].tick < c.changes[j].tick })

	seq := &NoteSequence{Filename: filepath.Base(filename)}
	if len(c.changes) == 0 || c.changes[0].tick > 0 {
		seq.Tempos = append(seq.Tempos, Tempo{QPM: defaultQPM})
	}
	for _, ch := range c.changes {
		seq.Tempos = append(seq.Tempos, Tempo{Time: c.seconds(ch.tick), QPM: ch.qpm})
	}

	for instrument, track := range s.Tracks {
		var tick uint64
		programs := make(map[uint8]int)
		open := make(map[noteKey][]Note)

		for _, ev := range track {
			tick += uint64(ev.Delta)
			msg := midi.Message(ev.Message)

			var channel, key, velocity, program uint8
			switch {
			case msg.GetProgramChange(&channel, &program):
				programs[channel] = int(program)
			case msg.GetNoteStart(&channel, &key, &velocity):
				k := noteKey{channel, key}
				open[k] = append(open[k], Note{
					Pitch:      int(key),
					Velocity:   int(velocity),
					Program:    programs[channel],
					Instrument: instrument,
					IsDrum:     channel == drumChannel,
					StartTime:  c.seconds(tick),
				})
			case msg.GetNoteEnd(&channel, &key):
				k := noteKey{channel, key}
				pending := open[k]
				if len(pending) == 0 {
					continue
				}
				n := pending[0]
				open[k] = pending[1:]
				n.EndTime = c.seconds(tick)
				seq.Notes = append(seq.Notes, n)
			}
		}

		// close dangling notes at the end of the track
		end := c.seconds(tick)
		for _, pending := range open {
			for _, n := range pending {
				n.EndTime = end
				seq.Notes = append(seq.Notes, n)
			}
		}
	}

	sort.SliceStable(seq.Notes, func(i, j int) bool {
		a, b := seq.Notes[i], seq.Notes[j]
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.Instrument != b.Instrument {
			return a.Instrument < b.Instrument
		}
		return a.Pitch < b.Pitch
	})

	for _, n := range seq.Notes {
		if n.EndTime > seq.TotalTime {
			seq.TotalTime = n.EndTime
		}
	}
	return seq, nil
}
