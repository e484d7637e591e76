package calibration

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/algorithms/stats"
)

// CurvePoints is the size of the exported sampling grid.
const CurvePoints = 201

// Grid returns CurvePoints evenly spaced scores over [0, 1].
func Grid() []float64 {
	return common.Linspace(0, 1, CurvePoints)
}

// QuantileFit records the fitted cut-points of a quantile calibrator.
type QuantileFit struct {
	Bands       []float64 `json:"bands"`
	Percentiles []float64 `json:"percentiles"`
	Quantiles   []float64 `json:"quantiles"`
}

// Curve is the exported calibration artifact. Fields after Mode are the
// mode's parameters; enough to rebuild the calibrator with FromCurve.
type Curve struct {
	Overall01 []float64 `json:"overall01"`
	Band      []float64 `json:"band"`
	Mode      Mode      `json:"mode"`

	Low  *float64 `json:"low,omitempty"`
	High *float64 `json:"high,omitempty"`

	Spec []QuantilePair `json:"spec,omitempty"`
	Fit  *QuantileFit   `json:"fit,omitempty"`

	Lo    *float64                  `json:"lo,omitempty"`
	Knots *stats.IsotonicRegression `json:"knots,omitempty"`
}

// ExportCurve samples c over Grid.
func ExportCurve(c Calibrator) Curve {
	grid := Grid()
	bands := make([]float64, len(grid))
	for i, x := range grid {
		bands[i] = c.Band(x)
	}
	curve := Curve{Overall01: grid, Band: bands, Mode: c.Mode()}

	switch cal := c.(type) {
	case *Linear:
		low, high := cal.Bounds()
		curve.Low, curve.High = &low, &high
	case *Quantile:
		curve.Spec = cal.Pairs()
		fit := &QuantileFit{Quantiles: cal.CutPoints()}
		for _, p := range cal.pairs {
			fit.Bands = append(fit.Bands, p.Band)
			fit.Percentiles = append(fit.Percentiles, p.Percentile)
		}
		curve.Fit = fit
	case *Isotonic:
		lo := cal.Floor()
		curve.Lo = &lo
		curve.Knots = cal.reg
	}
	return curve
}

// FromCurve rebuilds the calibrator a curve was exported from.
func FromCurve(c Curve) (Calibrator, error) {
	switch c.Mode {
	case ModeLinear:
		if c.Low == nil || c.High == nil {
			return nil, fmt.Errorf("%w: linear curve without low/high", ErrMalformedSpec)
		}
		return NewLinear(*c.Low, *c.High)
	case ModeQuantile:
		if c.Fit == nil || len(c.Fit.Quantiles) != len(c.Spec) {
			return nil, fmt.Errorf("%w: quantile curve without cut-points", ErrMalformedSpec)
		}
		if err := validatePairs(c.Spec); err != nil {
			return nil, err
		}
		return newQuantile(c.Spec, c.Fit.Quantiles), nil
	case ModeIsotonic:
		if c.Lo == nil {
			return nil, fmt.Errorf("%w: isotonic curve without lo", ErrMalformedSpec)
		}
		return newIsotonicFromKnots(*c.Lo, c.Knots)
	}
	return nil, fmt.Errorf("%w: unknown curve mode %q", ErrMalformedSpec, c.Mode)
}

// WriteCurve writes c as indented JSON. Equal curves give equal bytes.
func WriteCurve(w io.Writer, c Curve) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode curve: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadCurve decodes a curve written by WriteCurve.
func ReadCurve(r io.Reader) (Curve, error) {
	var c Curve
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Curve{}, fmt.Errorf("%w: decode curve: %v", ErrMalformedSpec, err)
	}
	if len(c.Overall01) != CurvePoints || len(c.Band) != CurvePoints {
		return Curve{}, fmt.Errorf("%w: curve has %d/%d points, want %d",
			ErrMalformedSpec, len(c.Overall01), len(c.Band), CurvePoints)
	}
	return c, nil
}

// CurveFileName returns the artifact file name for a mode.
func CurveFileName(m Mode) string {
	switch m {
	case ModeQuantile:
		return "quantile_map.json"
	case ModeIsotonic:
		return "isotonic_curve.json"
	default:
		return "linear_curve.json"
	}
}

// WriteCurveFile writes the curve into dir under its mode's file name and
// returns the path.
func WriteCurveFile(dir string, c Curve) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create curve dir: %w", err)
	}
	path := filepath.Join(dir, CurveFileName(c.Mode))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create curve file: %w", err)
	}
	if err := WriteCurve(f, c); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// LoadCurveFile reads and rebuilds a calibrator from a curve file.
func LoadCurveFile(path string) (Calibrator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration curve: %w", err)
	}
	defer f.Close()

	c, err := ReadCurve(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return FromCurve(c)
}
