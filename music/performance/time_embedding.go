package performance

import (
	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/notes"
)

// SubsequenceHook is called for every sequence that was cut from a longer recording.
type SubsequenceHook func(seq *notes.NoteSequence)

// TimeEmbeddingOptions configures NewTimeEmbedding.
type TimeEmbeddingOptions struct {
	StartStep       int
	NumVelocityBins int
	// MaxShiftSteps defaults to DefaultMaxShiftSteps.
	MaxShiftSteps int
	// Instrument restricts the performance to one instrument when not nil.
	Instrument *int
	Hook       SubsequenceHook
}

// TimeEmbedding is a performance that knows its position within the source recording,
// as needed by position control signals.
type TimeEmbedding struct {
	*Basic
	startTimeOffset float64
	endTime         float64
	fileName        string
}

// NewTimeEmbedding builds a performance from an absolute-quantized sequence.
// The start offset is taken from the sequence's subsequence info (0 if absent) and the end time is
// the start offset plus the sequence's total time plus the subsequence end offset.
func NewTimeEmbedding(seq *notes.NoteSequence, opts TimeEmbeddingOptions) (*TimeEmbedding, error) {
	if !notes.IsAbsoluteQuantized(seq) {
		return nil, errors.Validationf("%s: sequence is not absolute quantized", seq.Filename)
	}
	if opts.MaxShiftSteps <= 0 {
		opts.MaxShiftSteps = DefaultMaxShiftSteps
	}

	var start, endOffset float64
	if info := seq.SubsequenceInfo; info != nil {
		start = info.StartTimeOffset
		endOffset = info.EndTimeOffset
		if opts.Hook != nil {
			opts.Hook(seq)
		}
	}

	events := fromQuantized(seq, opts.StartStep, opts.NumVelocityBins, opts.MaxShiftSteps, opts.Instrument)
	basic := &Basic{
		events:          events,
		stepsPerSecond:  seq.QuantizationInfo.StepsPerSecond,
		startStep:       opts.StartStep,
		numVelocityBins: opts.NumVelocityBins,
		maxShiftSteps:   opts.MaxShiftSteps,
	}

	return &TimeEmbedding{
		Basic:           basic,
		startTimeOffset: start,
		endTime:         start + seq.TotalTime + endOffset,
		fileName:        seq.Filename,
	}, nil
}

// StartTimeOffset implements SourceOffsetter
func (t *TimeEmbedding) StartTimeOffset() float64 { return t.startTimeOffset }

// EndTime implements EndTimer
func (t *TimeEmbedding) EndTime() float64 { return t.endTime }

// FileName implements FileNamer
func (t *TimeEmbedding) FileName() string { return t.fileName }

// TimeEmbeddingCapabilities is what every TimeEmbedding offers.
var TimeEmbeddingCapabilities = Capabilities{SourceOffset: true, EndTime: true, FileName: true}
