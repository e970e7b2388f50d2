// Package condition composes tag and duration conditioning into a single id vector per performance.
package condition

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kiteco/perfrnn/golib/errors"
	"github.com/kiteco/perfrnn/music/performance"
	"github.com/kiteco/perfrnn/music/tags"
)

// Options for New. At least one field must be set.
type Options struct {
	Vocabulary *tags.Vocabulary
	Duration   *DurationBinner
}

// Conditioning resolves the conditioning ids of a performance: the tag ids of its file followed by the
// bin of its end time, for whichever of the two is configured. It is read-only after New.
type Conditioning struct {
	vocab    *tags.Vocabulary
	duration *DurationBinner
}

// New returns ErrConfig unless a vocabulary or a duration binner is given.
func New(opts Options) (*Conditioning, error) {
	if opts.Vocabulary == nil && opts.Duration == nil {
		return nil, errors.Configf("conditioning needs a tag vocabulary or duration bins")
	}
	return &Conditioning{vocab: opts.Vocabulary, duration: opts.Duration}, nil
}

// Config holds the plain values conditioning is built from. Zero values leave a component out.
type Config struct {
	TagDir       string   `json:"tag_dir,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Encoding     string   `json:"encoding,omitempty"`
	DurationBins int      `json:"duration_bins,omitempty"`
	MaxDuration  float64  `json:"max_duration,omitempty"`
}

// Enabled returns true if the config asks for any conditioning.
func (c Config) Enabled() bool {
	return c.TagDir != "" || c.DurationBins > 0
}

// FromConfig builds the vocabulary and binner described by cfg.
func FromConfig(fs afero.Fs, cfg Config, logger *zap.Logger) (*Conditioning, error) {
	var opts Options
	if cfg.TagDir != "" {
		v, err := tags.Build(fs, cfg.TagDir, tags.Options{Tags: cfg.Tags, Encoding: cfg.Encoding, Logger: logger})
		if err != nil {
			return nil, err
		}
		opts.Vocabulary = v
	} else if len(cfg.Tags) > 0 {
		return nil, errors.Configf("tags %v selected without a tag directory", cfg.Tags)
	}
	if cfg.DurationBins > 0 || cfg.MaxDuration > 0 {
		d, err := NewDurationBinner(cfg.DurationBins, cfg.MaxDuration)
		if err != nil {
			return nil, err
		}
		opts.Duration = d
	}
	return New(opts)
}

// Vocabulary returns the tag vocabulary, or nil.
func (c *Conditioning) Vocabulary() *tags.Vocabulary {
	return c.vocab
}

// Requires reports the performance capabilities IDsForPerformance needs.
func (c *Conditioning) Requires() performance.Capabilities {
	return performance.Capabilities{
		FileName: c.vocab != nil,
		EndTime:  c.duration != nil,
	}
}

// IDsForPerformance looks up the tags of the performance's file and bins its end time.
func (c *Conditioning) IDsForPerformance(p performance.Performance) ([]int, error) {
	var ids []int
	if c.vocab != nil {
		named, ok := p.(performance.FileNamer)
		if !ok {
			return nil, errors.Configf("tag conditioning needs performances with a file name")
		}
		ids = append(ids, c.vocab.LookupByKey(named.FileName())...)
	}
	if c.duration != nil {
		ended, ok := p.(performance.EndTimer)
		if !ok {
			return nil, errors.Configf("duration conditioning needs performances with an end time")
		}
		bin, err := c.duration.BinFor(ended.EndTime())
		if err != nil {
			return nil, err
		}
		ids = append(ids, bin)
	}
	return ids, nil
}

// IDsForExplicit resolves conditioning ids from explicit values, as needed when generating without a
// source performance. Every configured component needs its input.
func (c *Conditioning) IDsForExplicit(values map[string]string, duration *float64) ([]int, error) {
	var ids []int
	if c.vocab != nil {
		if values == nil {
			return nil, errors.Validationf("tag values are required")
		}
		tagIDs, err := c.vocab.LookupByValues(values)
		if err != nil {
			return nil, err
		}
		ids = append(ids, tagIDs...)
	}
	if c.duration != nil {
		if duration == nil {
			return nil, errors.Validationf("a duration is required")
		}
		bin, err := c.duration.BinFor(*duration)
		if err != nil {
			return nil, err
		}
		ids = append(ids, bin)
	}
	return ids, nil
}

// Shape returns the number of components and the cardinality of each.
func (c *Conditioning) Shape() (int, []int) {
	var cards []int
	if c.vocab != nil {
		cards = append(cards, c.vocab.Cardinalities()...)
	}
	if c.duration != nil {
		cards = append(cards, c.duration.BinCount())
	}
	return len(cards), cards
}

// Size is the total one-hot width, the sum of the cardinalities.
func (c *Conditioning) Size() int {
	_, cards := c.Shape()
	var n int
	for _, card := range cards {
		n += card
	}
	return n
}

// OneHot expands ids into one one-hot vector per component.
func (c *Conditioning) OneHot(ids []int) ([][]float64, error) {
	n, cards := c.Shape()
	if len(ids) != n {
		return nil, errors.Validationf("got %d conditioning ids, expected %d", len(ids), n)
	}
	out := make([][]float64, n)
	for i, id := range ids {
		if id < 0 || id >= cards[i] {
			return nil, errors.Rangef("conditioning id %d out of range for component %d", id, i)
		}
		out[i] = make([]float64, cards[i])
		out[i][id] = 1
	}
	return out, nil
}
