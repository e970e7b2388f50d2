package control

import (
	"strings"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/performance"
)

// Signal types accepted by FromConfig.
const (
	OffsetRelative = "offset_relative"
	SpanRelative   = "span_relative"
	FixedSpan      = "fixed_span"
)

// SignalConfig describes one control signal.
type SignalConfig struct {
	Type string `json:"type"`
	Bins int    `json:"bins"`
	// MaxDuration in seconds, for offset_relative.
	MaxDuration float64 `json:"max_duration,omitempty"`
	// MaxTime in seconds, for fixed_span.
	MaxTime float64 `json:"max_time,omitempty"`
}

// FromConfig builds the configured signals in order.
func FromConfig(cfgs []SignalConfig) ([]Signal, error) {
	var signals []Signal
	for _, c := range cfgs {
		var s Signal
		var err error
		switch strings.ToLower(c.Type) {
		case OffsetRelative:
			s, err = NewOffsetRelative(c.MaxDuration, c.Bins)
		case SpanRelative:
			s, err = NewSpanRelative(c.Bins)
		case FixedSpan:
			s, err = NewFixedSpan(c.MaxTime, c.Bins)
		default:
			err = errors.Configf("unknown control signal type %q", c.Type)
		}
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, nil
}

// CheckSupported returns ErrConfig naming the first signal whose requirements a producer offering caps
// cannot meet.
func CheckSupported(signals []Signal, caps performance.Capabilities) error {
	for _, s := range signals {
		if missing := caps.Missing(s.Requires()); len(missing) > 0 {
			return errors.Configf("control signal %s needs %s, which the performances do not provide",
				s.Name(), strings.Join(missing, ", "))
		}
	}
	return nil
}

// Requires is the union of the capabilities the signals need.
func Requires(signals []Signal) performance.Capabilities {
	var caps performance.Capabilities
	for _, s := range signals {
		caps = caps.Union(s.Requires())
	}
	return caps
}
