package notes

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
)

// writeMIDI returns a single track file at 120 qpm with 480 ticks per quarter, so 960 ticks is one second.
func writeMIDI(t *testing.T) []byte {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.ProgramChange(0, 5))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(960, midi.NoteOff(0, 60))
	tr.Add(480, midi.NoteOn(0, 64, 80))
	tr.Add(480, midi.NoteOff(0, 64))
	tr.Close(0)
	require.NoError(t, s.Add(tr))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeMIDI(t *testing.T) {
	seq, err := DecodeMIDI(bytes.NewReader(writeMIDI(t)), "/data/song.mid")
	require.NoError(t, err)

	assert.Equal(t, "song.mid", seq.Filename)
	require.Len(t, seq.Notes, 2)

	assert.Equal(t, 60, seq.Notes[0].Pitch)
	assert.Equal(t, 100, seq.Notes[0].Velocity)
	assert.Equal(t, 5, seq.Notes[0].Program)
	assert.InDelta(t, 0, seq.Notes[0].StartTime, 1e-9)
	assert.InDelta(t, 1, seq.Notes[0].EndTime, 1e-9)

	assert.Equal(t, 64, seq.Notes[1].Pitch)
	assert.InDelta(t, 1.5, seq.Notes[1].StartTime, 1e-9)
	assert.InDelta(t, 2, seq.Notes[1].EndTime, 1e-9)

	assert.InDelta(t, 2, seq.TotalTime, 1e-9)
	require.NotEmpty(t, seq.Tempos)
	assert.Equal(t, 120.0, seq.Tempos[0].QPM)
}

func TestClockTempoChange(t *testing.T) {
	c := clock{ticksPerQuarter: 100, changes: []tempoChange{{tick: 0, qpm: 60}, {tick: 200, qpm: 120}}}
	assert.InDelta(t, 1, c.seconds(100), 1e-9)
	assert.InDelta(t, 2, c.seconds(200), 1e-9)
	assert.InDelta(t, 2.5, c.seconds(300), 1e-9)
}

func TestQuantizeAbsolute(t *testing.T) {
	seq := &NoteSequence{
		Filename:  "a.mid",
		TotalTime: 1.02,
		Notes: []Note{
			{Pitch: 60, StartTime: 0, EndTime: 0.5},
			{Pitch: 62, StartTime: 0.501, EndTime: 0.503},
			{Pitch: 64, StartTime: 0.996, EndTime: 1.06},
		},
	}

	q, err := QuantizeAbsolute(seq, 100)
	require.NoError(t, err)
	assert.True(t, IsAbsoluteQuantized(q))
	assert.False(t, IsAbsoluteQuantized(seq))

	assert.Equal(t, 0, q.Notes[0].QuantizedStartStep)
	assert.Equal(t, 50, q.Notes[0].QuantizedEndStep)
	// both ends round to step 50, so the note is extended
	assert.Equal(t, 50, q.Notes[1].QuantizedStartStep)
	assert.Equal(t, 51, q.Notes[1].QuantizedEndStep)
	assert.Equal(t, 100, q.Notes[2].QuantizedStartStep)
	assert.Equal(t, 106, q.Notes[2].QuantizedEndStep)
	assert.Equal(t, 106, q.TotalQuantizedSteps)

	// the input is untouched
	assert.Equal(t, 0, seq.Notes[1].QuantizedEndStep)

	_, err = QuantizeAbsolute(seq, 0)
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestDirSource(t *testing.T) {
	dir, err := ioutil.TempDir("", "midi")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "sub", "b.mid"), writeMIDI(t), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "a.MID"), writeMIDI(t), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "broken.mid"), []byte("nope"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	src, err := NewDirSource("midi", dir, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, src.Files())

	var keys []string
	for rec := src.SourceOut(); rec.Value != nil; rec = src.SourceOut() {
		keys = append(keys, rec.Key)
		assert.Len(t, rec.Value.(*NoteSequence).Notes, 2)
	}
	assert.Equal(t, []string{"a.MID", filepath.Join("sub", "b.mid")}, keys)
	assert.Equal(t, 1, src.Failed())

	_, err = NewDirSource("midi", filepath.Join(dir, "sub", "empty"), zap.NewNop())
	assert.Error(t, err)
}
