package control

import (
	"math"

	"github.com/kiteco/perfrnn/golib/errors"
)

// BinEncoding quantizes values in [0,1) into Bins equal-width classes. Bin i covers [i/Bins, (i+1)/Bins).
type BinEncoding struct {
	Bins int
}

// NumClasses implements encoding.ValueEncoding
func (b BinEncoding) NumClasses() int {
	return b.Bins
}

// DefaultEvent is the value used when no control is given.
func (b BinEncoding) DefaultEvent() float64 {
	return 0
}

// Encode implements encoding.ValueEncoding by returning floor(v*Bins). Values outside [0,1) fail with ErrRange.
func (b BinEncoding) Encode(v float64) (int, error) {
	if math.IsNaN(v) || v < 0 || v >= 1 {
		return 0, errors.Rangef("control value %v is outside [0, 1)", v)
	}
	bin := int(math.Floor(v * float64(b.Bins)))
	// keep the result consistent with the bin edges Decode reports
	if bin+1 < b.Bins && b.Decode(bin+1) <= v {
		bin++
	} else if bin > 0 && b.Decode(bin) > v {
		bin--
	}
	if bin >= b.Bins {
		bin = b.Bins - 1
	}
	return bin, nil
}

// Decode returns the lower edge of bin i, i/Bins.
func (b BinEncoding) Decode(i int) float64 {
	return float64(i) / float64(b.Bins)
}
