package calibration

import (
	"fmt"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// Spec selects and parameterizes a calibrator.
type Spec struct {
	Mode      Mode    `json:"mode" yaml:"mode" mapstructure:"mode"`
	Low       float64 `json:"low" yaml:"low" mapstructure:"low"`
	High      float64 `json:"high" yaml:"high" mapstructure:"high"`
	Quantiles string  `json:"quantile_spec" yaml:"quantile_spec" mapstructure:"quantile_spec"`
	// LabelsPath is a CSV with overall_01 and band_true, required for isotonic.
	LabelsPath string `json:"labels" yaml:"labels" mapstructure:"labels"`
	// CurvePath loads a previously exported curve instead of fitting.
	CurvePath string `json:"curve" yaml:"curve" mapstructure:"curve"`
}

// DefaultSpec returns linear calibration onto [4, 9].
func DefaultSpec() Spec {
	return Spec{
		Mode:      ModeLinear,
		Low:       4.0,
		High:      9.0,
		Quantiles: DefaultQuantileSpec,
	}
}

// Validate checks the spec without touching the filesystem.
func (s Spec) Validate() error {
	if s.CurvePath != "" {
		return nil
	}
	if _, err := ParseMode(string(s.Mode)); err != nil {
		return err
	}
	switch s.Mode {
	case ModeLinear:
		if !common.IsFinite(s.Low) || !common.IsFinite(s.High) || s.Low >= s.High {
			return fmt.Errorf("%w: linear bounds [%v, %v]", ErrMalformedSpec, s.Low, s.High)
		}
	case ModeQuantile:
		if _, err := ParseQuantileSpec(s.Quantiles); err != nil {
			return err
		}
	case ModeIsotonic:
		if s.LabelsPath == "" {
			return fmt.Errorf("%w: isotonic mode needs a labels file", ErrMalformedSpec)
		}
	}
	return nil
}

// Build constructs the calibrator. reference is the score distribution
// quantile cut-points are computed from; it is ignored by other modes.
func Build(s Spec, reference []float64) (Calibrator, error) {
	if s.CurvePath != "" {
		return LoadCurveFile(s.CurvePath)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	switch s.Mode {
	case ModeQuantile:
		pairs, err := ParseQuantileSpec(s.Quantiles)
		if err != nil {
			return nil, err
		}
		return FitQuantile(pairs, reference)
	case ModeIsotonic:
		overall, bands, err := ReadLabels(s.LabelsPath)
		if err != nil {
			return nil, err
		}
		return FitIsotonic(overall, bands)
	default:
		return NewLinear(s.Low, s.High)
	}
}
