// Package control computes per-event control signals for conditioning performance models.
package control

import (
	"math"
	"reflect"
	"strings"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/performance"
)

// Signal extracts one control value per performance event.
type Signal interface {
	Name() string
	Description() string
	// Validate returns true if v is an acceptable raw control value.
	Validate(v interface{}) bool
	Extract(p performance.Performance) ([]float64, error)
	Encoding() BinEncoding
	// Requires lists the capabilities Extract needs from a performance.
	Requires() performance.Capabilities
}

// denominatorFn returns the number of steps that maps to a position of 1.
type denominatorFn func(p performance.Performance, stepsPerSecond float64) float64

// Position is the elapsed time since the start of the source recording, normalized by a
// variant-specific span. The value for an event excludes that event's own time shift.
type Position struct {
	name        string
	description string
	encoding    BinEncoding
	requires    performance.Capabilities
	denominator denominatorFn
}

var _ Signal = (*Position)(nil)

// NewOffsetRelative normalizes by a fixed maxDuration in seconds shared by every performance.
func NewOffsetRelative(maxDuration float64, bins int) (*Position, error) {
	if !(maxDuration > 0) {
		return nil, errors.Configf("max duration must be positive, got %v", maxDuration)
	}
	return newPosition(
		"time_offset_relative",
		"Time since the start of the source recording relative to a fixed maximum duration.",
		bins,
		performance.Capabilities{SourceOffset: true},
		func(_ performance.Performance, sps float64) float64 {
			return maxDuration * sps
		})
}

// NewSpanRelative normalizes by the span of the source recording, one second past its end time.
func NewSpanRelative(bins int) (*Position, error) {
	return newPosition(
		"time_span_relative",
		"Time since the start of the source recording relative to its total span.",
		bins,
		performance.Capabilities{SourceOffset: true, EndTime: true},
		func(p performance.Performance, sps float64) float64 {
			return (p.(performance.EndTimer).EndTime() + 1) * sps
		})
}

// NewFixedSpan normalizes by a fixed target length of maxTime seconds plus one, for generating sequences of a
// chosen length. Performances still need an end time so that training data matches the span-relative variant.
func NewFixedSpan(maxTime float64, bins int) (*Position, error) {
	if !(maxTime >= 0) {
		return nil, errors.Configf("max time must not be negative, got %v", maxTime)
	}
	return newPosition(
		"time_fixed_span",
		"Time since the start of the sequence relative to a fixed target length.",
		bins,
		performance.Capabilities{SourceOffset: true, EndTime: true},
		func(_ performance.Performance, sps float64) float64 {
			return (maxTime + 1) * sps
		})
}

func newPosition(name, description string, bins int, requires performance.Capabilities, denom denominatorFn) (*Position, error) {
	if bins <= 0 {
		return nil, errors.Configf("%s: bin count must be positive, got %d", name, bins)
	}
	return &Position{
		name:        name,
		description: description,
		encoding:    BinEncoding{Bins: bins},
		requires:    requires,
		denominator: denom,
	}, nil
}

// Name implements Signal
func (s *Position) Name() string { return s.name }

// Description implements Signal
func (s *Position) Description() string { return s.description }

// Encoding implements Signal
func (s *Position) Encoding() BinEncoding { return s.encoding }

// Requires implements Signal
func (s *Position) Requires() performance.Capabilities { return s.requires }

// Validate implements Signal. Only non-negative numbers are valid.
func (s *Position) Validate(v interface{}) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() >= 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsNaN(f) && f >= 0
	}
	return false
}

// Extract implements Signal. It fails with ErrConfig if p lacks a required capability and with ErrRange
// once the position reaches the span.
func (s *Position) Extract(p performance.Performance) ([]float64, error) {
	if missing := performance.CapabilitiesOf(p).Missing(s.requires); len(missing) > 0 {
		return nil, errors.Configf("%s needs performances with %s", s.name, strings.Join(missing, ", "))
	}

	sps := float64(p.StepsPerSecond())
	current := p.(performance.SourceOffsetter).StartTimeOffset() * sps
	denom := s.denominator(p, sps)
	if !(denom > 0) {
		return nil, errors.Rangef("%s: span of %v steps is not positive", s.name, denom)
	}

	events := p.Events()
	out := make([]float64, 0, len(events))
	for _, ev := range events {
		if current >= denom {
			return nil, errors.Rangef("%s: position exceeds configured maximum span (%v >= %v steps)", s.name, current, denom)
		}
		out = append(out, current/denom)
		if ev.Type == performance.TimeShift {
			current += float64(ev.Value)
		}
	}
	return out, nil
}
