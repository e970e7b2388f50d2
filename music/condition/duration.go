package condition

import (
	"math"

	"github.com/kiteco/perfrnn/golib/errors"
)

// DurationBinner buckets performance end times into a fixed number of bins.
type DurationBinner struct {
	binCount    int
	maxDuration float64
}

// NewDurationBinner with binCount bins each spanning maxDuration seconds.
func NewDurationBinner(binCount int, maxDuration float64) (*DurationBinner, error) {
	if binCount <= 0 {
		return nil, errors.Configf("duration bin count must be positive, got %d", binCount)
	}
	if !(maxDuration > 0) {
		return nil, errors.Configf("max duration must be positive, got %v", maxDuration)
	}
	return &DurationBinner{binCount: binCount, maxDuration: maxDuration}, nil
}

// BinFor returns floor((endTime+1)/maxDuration), failing with ErrRange when that is not a valid bin.
func (d *DurationBinner) BinFor(endTime float64) (int, error) {
	bin := math.Floor((endTime + 1) / d.maxDuration)
	if math.IsNaN(bin) || bin < 0 {
		return 0, errors.Rangef("invalid end time %v", endTime)
	}
	if bin >= float64(d.binCount) {
		return 0, errors.Rangef("duration %v exceeds configured maximum (bin %v >= %d)", endTime, bin, d.binCount)
	}
	return int(bin), nil
}

// BinCount is the number of bins.
func (d *DurationBinner) BinCount() int {
	return d.binCount
}

// MaxDuration is the width of one bin in seconds.
func (d *DurationBinner) MaxDuration() float64 {
	return d.maxDuration
}
