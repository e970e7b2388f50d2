package pipeline

import "fmt"

// Sample is any value flowing between feeds.
type Sample interface {
	SampleTag()
}

// Keyed pairs a sample with the key of the record it came from.
type Keyed struct {
	Key    string
	Sample Sample
}

// SampleTag implements Sample.
func (Keyed) SampleTag() {}

// errorSample is emitted by a feed in place of a sample it could not produce. The engine counts it under
// its reason and does not pass it on.
type errorSample struct {
	reason string
	err    error
}

func (errorSample) SampleTag() {}

func (e errorSample) Error() string {
	if e.err == nil {
		return e.reason
	}
	return fmt.Sprintf("%s: %v", e.reason, e.err)
}

func (e errorSample) Unwrap() error { return e.err }

// NewError returns an error sample. Reasons are aggregated in FeedStats, so a feed should draw them from a
// small fixed set.
func NewError(reason string) Sample {
	return errorSample{reason: reason}
}

// NewErrorAsError is NewError typed as an error.
func NewErrorAsError(reason string) error {
	return errorSample{reason: reason}
}

// WrapError returns an error sample for err. Reasons nest when err is itself an error sample.
func WrapError(reason string, err error) Sample {
	if inner, ok := err.(errorSample); ok {
		return errorSample{reason: reason + ": " + inner.reason, err: inner.err}
	}
	return errorSample{reason: reason, err: err}
}

// ErrorReason returns the reason of an error sample, looking through Keyed. ok is false for any other sample.
func ErrorReason(s Sample) (reason string, ok bool) {
	e, ok := asErrorSample(s)
	return e.reason, ok
}

func asErrorSample(s Sample) (errorSample, bool) {
	if k, ok := s.(Keyed); ok {
		s = k.Sample
	}
	e, ok := s.(errorSample)
	return e, ok
}
