package notes

import (
	"github.com/kiteco/perfrnn/golib/errors"
)

// quantizeCutoff rounds a fractional step up once it passes the halfway point.
const quantizeCutoff = 0.5

func quantizeToStep(seconds float64, stepsPerSecond int) int {
	return int(seconds*float64(stepsPerSecond) + (1 - quantizeCutoff))
}

// QuantizeAbsolute returns a copy of seq with every note snapped to a grid of stepsPerSecond steps.
// Notes that would end on their start step are extended by one step.
func QuantizeAbsolute(seq *NoteSequence, stepsPerSecond int) (*NoteSequence, error) {
	if stepsPerSecond <= 0 {
		return nil, errors.Configf("steps per second must be positive, got %d", stepsPerSecond)
	}

	q := seq.Copy()
	q.QuantizationInfo = &QuantizationInfo{StepsPerSecond: stepsPerSecond}
	q.TotalQuantizedSteps = quantizeToStep(seq.TotalTime, stepsPerSecond)

	for i := range q.Notes {
		n := &q.Notes[i]
		if n.StartTime < 0 || n.EndTime < 0 {
			return nil, errors.Validationf("%s: note %d has a negative time", seq.Filename, i)
		}
		n.QuantizedStartStep = quantizeToStep(n.StartTime, stepsPerSecond)
		n.QuantizedEndStep = quantizeToStep(n.EndTime, stepsPerSecond)
		if n.QuantizedEndStep == n.QuantizedStartStep {
			n.QuantizedEndStep++
		}
		if n.QuantizedEndStep > q.TotalQuantizedSteps {
			q.TotalQuantizedSteps = n.QuantizedEndStep
		}
	}
	return q, nil
}

// IsAbsoluteQuantized returns true if seq was quantized by QuantizeAbsolute.
func IsAbsoluteQuantized(seq *NoteSequence) bool {
	return seq.QuantizationInfo != nil && seq.QuantizationInfo.StepsPerSecond > 0
}
