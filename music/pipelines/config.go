package pipelines

import (
	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/golib/serialization"
	"github.com/kiteco/perfrnn/music/condition"
	"github.com/kiteco/perfrnn/music/control"
)

// Config for building a performance dataset.
type Config struct {
	StepsPerSecond  int `json:"steps_per_second"`
	NumVelocityBins int `json:"num_velocity_bins"`
	MaxShiftSteps   int `json:"max_shift_steps"`

	// MinEvents discards shorter performances, MaxEvents truncates longer ones.
	MinEvents int `json:"min_events"`
	MaxEvents int `json:"max_events"`
	// MaxSteps truncates performances to this many steps; 0 disables it.
	MaxSteps         int  `json:"max_steps,omitempty"`
	SplitInstruments bool `json:"split_instruments,omitempty"`

	// EvalRatio is the fraction of recordings set aside for evaluation, chosen by hashing the file name with Seed.
	EvalRatio float64 `json:"eval_ratio"`
	Seed      uint64  `json:"seed"`

	ControlSignals       []control.SignalConfig `json:"control_signals,omitempty"`
	OptionalConditioning bool                   `json:"optional_conditioning,omitempty"`
	Conditioning         condition.Config       `json:"conditioning"`

	SamplesPerFile int `json:"samples_per_file"`
}

// DefaultConfig returns the standard performance dataset settings.
func DefaultConfig() Config {
	return Config{
		StepsPerSecond:  100,
		NumVelocityBins: 32,
		MaxShiftSteps:   100,
		MinEvents:       32,
		MaxEvents:       512,
		EvalRatio:       0.1,
		SamplesPerFile:  10000,
	}
}

// LoadConfig reads a config from a .json or .gob file, optionally compressed, on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := serialization.Decode(path, &cfg); err != nil {
		return Config{}, errors.Configf("error loading config: %v", err)
	}
	return cfg, cfg.Validate()
}

// Validate returns ErrConfig describing the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.StepsPerSecond <= 0:
		return errors.Configf("steps per second must be positive, got %d", c.StepsPerSecond)
	case c.NumVelocityBins < 0 || c.NumVelocityBins > 127:
		return errors.Configf("velocity bins must be in [0,127], got %d", c.NumVelocityBins)
	case c.MaxShiftSteps <= 0:
		return errors.Configf("max shift steps must be positive, got %d", c.MaxShiftSteps)
	case c.MinEvents < 0 || c.MaxEvents < 0 || c.MaxSteps < 0:
		return errors.Configf("event and step limits must not be negative")
	case c.MaxEvents > 0 && c.MaxEvents < c.MinEvents:
		return errors.Configf("max events %d is less than min events %d", c.MaxEvents, c.MinEvents)
	case c.EvalRatio < 0 || c.EvalRatio > 1:
		return errors.Configf("eval ratio must be in [0,1], got %v", c.EvalRatio)
	case c.SamplesPerFile < 0:
		return errors.Configf("samples per file must not be negative")
	}
	if len(c.Conditioning.Tags) > 0 && c.Conditioning.TagDir == "" {
		return errors.Configf("tags %v selected without a tag directory", c.Conditioning.Tags)
	}
	_, err := control.FromConfig(c.ControlSignals)
	return err
}
