package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/notes"
)

func quantized(t *testing.T, seq *notes.NoteSequence) *notes.NoteSequence {
	q, err := notes.QuantizeAbsolute(seq, 100)
	require.NoError(t, err)
	return q
}

func twoNotes() *notes.NoteSequence {
	return &notes.NoteSequence{
		Filename:  "a.mid",
		TotalTime: 2.5,
		Notes: []notes.Note{
			{Pitch: 60, Velocity: 127, StartTime: 0, EndTime: 1},
			{Pitch: 64, Velocity: 127, StartTime: 1, EndTime: 2.5},
		},
	}
}

func TestFromQuantized(t *testing.T) {
	p, err := NewTimeEmbedding(quantized(t, twoNotes()), TimeEmbeddingOptions{NumVelocityBins: 32})
	require.NoError(t, err)

	expected := []Event{
		{Velocity, 32},
		{NoteOn, 60},
		{TimeShift, 100},
		{NoteOff, 60},
		{NoteOn, 64},
		{TimeShift, 100},
		{TimeShift, 50},
		{NoteOff, 64},
	}
	assert.Equal(t, expected, p.Events())
	assert.Equal(t, 250, p.NumSteps())
	assert.Equal(t, 100, p.StepsPerSecond())
	assert.Equal(t, DefaultMaxShiftSteps, p.MaxShiftSteps())
}

func TestTimeEmbeddingFields(t *testing.T) {
	seq := quantized(t, twoNotes())
	p, err := NewTimeEmbedding(seq, TimeEmbeddingOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.StartTimeOffset())
	assert.Equal(t, 2.5, p.EndTime())
	assert.Equal(t, "a.mid", p.FileName())

	var hooked int
	seq.SubsequenceInfo = &notes.SubsequenceInfo{StartTimeOffset: 30, EndTimeOffset: 4}
	p, err = NewTimeEmbedding(seq, TimeEmbeddingOptions{Hook: func(*notes.NoteSequence) { hooked++ }})
	require.NoError(t, err)
	assert.Equal(t, 30.0, p.StartTimeOffset())
	assert.Equal(t, 36.5, p.EndTime())
	assert.Equal(t, 1, hooked)

	_, err = NewTimeEmbedding(twoNotes(), TimeEmbeddingOptions{})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestCapabilities(t *testing.T) {
	p, err := NewTimeEmbedding(quantized(t, twoNotes()), TimeEmbeddingOptions{})
	require.NoError(t, err)
	assert.Equal(t, TimeEmbeddingCapabilities, CapabilitiesOf(p))

	b := NewBasic(100, nil, 0, 0)
	caps := CapabilitiesOf(b)
	assert.Equal(t, Capabilities{}, caps)
	assert.Equal(t, []string{"start_time_offset", "end_time"}, caps.Missing(Capabilities{SourceOffset: true, EndTime: true}))
	assert.True(t, TimeEmbeddingCapabilities.Covers(Capabilities{EndTime: true}))
	assert.Equal(t, "{start_time_offset,file_name}", Capabilities{SourceOffset: true, FileName: true}.String())
}

func TestSetLength(t *testing.T) {
	b := NewBasic(100, []Event{{NoteOn, 60}, {TimeShift, 100}, {TimeShift, 50}, {NoteOff, 60}}, 0, 100)

	b.SetLength(120)
	assert.Equal(t, []Event{{NoteOn, 60}, {TimeShift, 100}, {TimeShift, 20}}, b.Events())

	b.SetLength(300)
	assert.Equal(t, 300, b.NumSteps())
	assert.Equal(t, []Event{{NoteOn, 60}, {TimeShift, 100}, {TimeShift, 100}, {TimeShift, 100}}, b.Events())

	b.Truncate(2)
	assert.Equal(t, 2, b.Len())
}

func TestExtract(t *testing.T) {
	seq := quantized(t, twoNotes())

	perfs, stats, err := Extract(seq, ExtractOptions{MinEventsDiscard: 2, MaxEventsTruncate: 5})
	require.NoError(t, err)
	require.Len(t, perfs, 1)
	assert.Equal(t, 5, perfs[0].Len())
	assert.EqualValues(t, 1, stats.Truncated)
	assert.EqualValues(t, 1, stats.LengthsInSeconds.Total())

	_, stats, err = Extract(seq, ExtractOptions{MinEventsDiscard: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.DiscardedTooShort)

	perfs, stats, err = Extract(seq, ExtractOptions{MaxStepsTruncate: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, perfs[0].NumSteps())
	assert.EqualValues(t, 1, stats.TruncatedTimewise)

	multi := seq.Copy()
	multi.Notes[1].Program = 3
	multi.Notes[1].Instrument = 1
	perfs, stats, err = Extract(multi, ExtractOptions{})
	require.NoError(t, err)
	assert.Empty(t, perfs)
	assert.EqualValues(t, 1, stats.DiscardedMoreThanOneProgram)

	perfs, _, err = Extract(multi, ExtractOptions{SplitInstruments: true})
	require.NoError(t, err)
	assert.Len(t, perfs, 2)

	_, _, err = Extract(twoNotes(), ExtractOptions{})
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	a := NewStats()
	a.Truncated = 2
	a.LengthsInSeconds.Increment(3)
	a.LengthsInSeconds.Increment(5)

	b := NewStats()
	b.Truncated = 1
	b.LengthsInSeconds.Increment(500)

	sum := a.Add(b)
	assert.EqualValues(t, 3, sum.Truncated)
	assert.Equal(t, []int64{1, 1, 0, 0, 0, 0, 0, 1}, sum.LengthsInSeconds.Counts)

	c := sum.Counters()
	assert.EqualValues(t, 3, c[StatTruncated])
	assert.EqualValues(t, 1, c["performance_lengths_in_seconds_[-inf,5)"])
	assert.EqualValues(t, 1, c["performance_lengths_in_seconds_[120,inf)"])
}
