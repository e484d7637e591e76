package calibration

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/algorithms/stats"
)

// isotonicHigh is the top of the band scale targets are rescaled from.
const isotonicHigh = 9.0

// Isotonic is a monotone fit from overall score to observed band.
type Isotonic struct {
	reg *stats.IsotonicRegression
	lo  float64
}

// FitIsotonic fits overall scores to true bands. The band floor is 4.0 when
// every observed band is at least 4, else 0. Rows with a NaN member are
// ignored.
func FitIsotonic(overall, bandTrue []float64) (*Isotonic, error) {
	if len(overall) != len(bandTrue) {
		return nil, fmt.Errorf("%w: %d scores but %d bands", ErrMalformedSpec, len(overall), len(bandTrue))
	}

	lo := 4.0
	seen := false
	for _, b := range bandTrue {
		if math.IsNaN(b) {
			continue
		}
		seen = true
		if b < 4.0 {
			lo = 0.0
		}
	}
	if !seen {
		return nil, fmt.Errorf("%w: no labelled bands", ErrMalformedSpec)
	}

	targets := make([]float64, len(bandTrue))
	for i, b := range bandTrue {
		targets[i] = (common.Clamp(b, lo, isotonicHigh) - lo) / (isotonicHigh - lo)
		if math.IsNaN(b) {
			targets[i] = math.NaN()
		}
	}

	reg := stats.NewIsotonicRegression(0, 1)
	if err := reg.Fit(overall, targets); err != nil {
		return nil, fmt.Errorf("%w: isotonic fit: %v", ErrMalformedSpec, err)
	}
	return &Isotonic{reg: reg, lo: lo}, nil
}

func newIsotonicFromKnots(lo float64, reg *stats.IsotonicRegression) (*Isotonic, error) {
	if reg == nil || !reg.Fitted() || len(reg.X) != len(reg.Y) {
		return nil, fmt.Errorf("%w: isotonic curve has no knots", ErrMalformedSpec)
	}
	if lo != 0 && lo != 4 {
		return nil, fmt.Errorf("%w: isotonic floor %v", ErrMalformedSpec, lo)
	}
	return &Isotonic{reg: reg, lo: lo}, nil
}

// Band evaluates the fit at x and rescales onto [lo, 9].
func (c *Isotonic) Band(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	yhat := common.Clamp(c.reg.Predict(x), 0, 1)
	return common.HalfBand(c.lo+(isotonicHigh-c.lo)*yhat, c.lo, isotonicHigh)
}

func (c *Isotonic) Bounds() (float64, float64) {
	return c.lo, isotonicHigh
}

func (c *Isotonic) Mode() Mode {
	return ModeIsotonic
}

// Floor returns the lower end of the band scale, 0 or 4.
func (c *Isotonic) Floor() float64 {
	return c.lo
}
