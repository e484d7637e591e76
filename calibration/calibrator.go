package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

var (
	// ErrMalformedSpec is returned for unusable calibration settings.
	ErrMalformedSpec = errors.New("malformed calibration spec")
	// ErrMissingColumn is returned when an input table lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// Mode names a calibration strategy.
type Mode string

const (
	ModeLinear   Mode = "linear"
	ModeQuantile Mode = "quantile"
	ModeIsotonic Mode = "isotonic"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeLinear, ModeQuantile, ModeIsotonic:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrMalformedSpec, s)
}

// Calibrator maps an overall score on [0, 1] to a band on the 0.5 grid
// within Bounds. NaN input yields NaN. Implementations are read-only after
// construction and safe for concurrent use.
type Calibrator interface {
	Band(x float64) float64
	Bounds() (lo, hi float64)
	Mode() Mode
}

// Linear maps [0, 1] onto [Low, High].
type Linear struct {
	low  float64
	high float64
}

// NewLinear creates a linear calibrator.
func NewLinear(low, high float64) (*Linear, error) {
	if !common.IsFinite(low) || !common.IsFinite(high) || low >= high {
		return nil, fmt.Errorf("%w: linear bounds [%v, %v]", ErrMalformedSpec, low, high)
	}
	return &Linear{low: low, high: high}, nil
}

func (l *Linear) Band(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	return common.HalfBand(l.low+(l.high-l.low)*common.Clamp(x, 0, 1), l.low, l.high)
}

func (l *Linear) Bounds() (float64, float64) {
	return l.low, l.high
}

func (l *Linear) Mode() Mode {
	return ModeLinear
}
