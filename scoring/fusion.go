package scoring

import (
	"errors"
	"math"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// ErrNoScoreableInput is returned when no sub-score is present.
var ErrNoScoreableInput = errors.New("no scoreable input")

// SubScores are the three sub-scores, each independently present.
type SubScores struct {
	Content       Optional `json:"content_01"`
	Fluency       Optional `json:"fluency_01"`
	Pronunciation Optional `json:"pronunciation_01"`
}

// FusedScore is the combined score. Band is filled in by a calibrator.
type FusedScore struct {
	Overall01  float64  `json:"overall_01"`
	OverallStd float64  `json:"overall_std"`
	Band       Optional `json:"band_estimate"`
}

// Fuser combines sub-scores with renormalized nominal weights.
type Fuser struct {
	weights FusionWeights
}

// NewFuser creates a fuser with the given nominal weights.
func NewFuser(weights FusionWeights) *Fuser {
	return &Fuser{weights: weights}
}

// EffectiveWeights returns the weights renormalized over the present
// sub-scores, in content, fluency, pronunciation order. Missing entries get 0.
func (f *Fuser) EffectiveWeights(s SubScores) [3]float64 {
	nominal := [3]float64{f.weights.Content, f.weights.Fluency, f.weights.Pronunciation}
	present := [3]bool{s.Content.Valid, s.Fluency.Valid, s.Pronunciation.Valid}

	total := 0.0
	for i := range nominal {
		if present[i] {
			total += nominal[i]
		}
	}
	var out [3]float64
	if total <= 0 {
		return out
	}
	for i := range nominal {
		if present[i] {
			out[i] = nominal[i] / total
		}
	}
	return out
}

// Fuse returns the weighted overall score and its propagated std. Content
// uncertainty is not modeled and enters the sum as 0.
func (f *Fuser) Fuse(s SubScores, u UncertaintyEstimate) (FusedScore, error) {
	if !s.Content.Valid && !s.Fluency.Valid && !s.Pronunciation.Valid {
		return FusedScore{Overall01: math.NaN(), Band: None()}, ErrNoScoreableInput
	}

	w := f.EffectiveWeights(s)
	values := [3]Optional{s.Content, s.Fluency, s.Pronunciation}
	overall := 0.0
	for i, v := range values {
		if v.Valid {
			overall += common.Clamp(v.Value, 0, 1) * w[i]
		}
	}
	if !common.IsFinite(overall) {
		overall = 0
	}

	nominalPresent := 0.0
	if s.Content.Valid {
		nominalPresent += f.weights.Content
	}
	if s.Fluency.Valid {
		nominalPresent += f.weights.Fluency
	}
	if s.Pronunciation.Valid {
		nominalPresent += f.weights.Pronunciation
	}

	// content std is always 0
	std := math.Hypot(u.FluencyStd*f.weights.Fluency, u.PronunciationStd*f.weights.Pronunciation) /
		common.FloorEps(nominalPresent)
	if !common.IsFinite(std) {
		std = 0
	}

	return FusedScore{
		Overall01:  common.Clamp(overall, 0, 1),
		OverallStd: std,
		Band:       None(),
	}, nil
}
