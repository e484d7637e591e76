package scoring

import (
	"math"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// SubScorePair holds the audio-derived sub-scores.
type SubScorePair struct {
	Fluency       Optional `json:"fluency_01"`
	Pronunciation Optional `json:"pronunciation_01"`
}

// Score maps x onto [0, 1]. A non-finite input scores 0 regardless of
// inversion.
func (r ClipRange) Score(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	s := common.Clip01(x, r.Lo, r.Hi)
	if r.Invert {
		s = 1 - s
	}
	return s
}

// Composer turns a FeatureVector into fluency and pronunciation scores.
type Composer struct {
	ranges  FeatureRanges
	weights SubscoreWeights
}

// NewComposer creates a composer with the given ranges and weights.
func NewComposer(ranges FeatureRanges, weights SubscoreWeights) *Composer {
	return &Composer{ranges: ranges, weights: weights}
}

// Ranges returns the composer's clip ranges.
func (c *Composer) Ranges() FeatureRanges {
	return c.ranges
}

// Compose returns missing scores when the vector has no speech features.
func (c *Composer) Compose(fv FeatureVector) SubScorePair {
	s := fv.Speech
	if s == nil {
		return SubScorePair{Fluency: None(), Pronunciation: None()}
	}

	r, fw, pw := c.ranges, c.weights.Fluency, c.weights.Pronunciation
	fluency := fw.Articulation*r.ArticulationWPM.Score(s.ArticulationWPM) +
		fw.WPM*r.WPM.Score(s.WPM) +
		fw.PauseRatio*r.PauseRatio.Score(s.PauseRatio) +
		fw.AvgPause*r.AvgPauseS.Score(s.AvgPauseS) +
		fw.Filler*r.FillerPer100W.Score(fv.FillerPer100W) +
		fw.Repair*r.RepairPer100W.Score(fv.SelfRepairPer100W)

	pronunciation := pw.Pitch*r.F0StdHz.Score(s.F0StdHz) +
		pw.Energy*r.EnergyStd.Score(s.EnergyStd)

	return SubScorePair{
		Fluency:       Some(common.Clamp(fluency, 0, 1)),
		Pronunciation: Some(common.Clamp(pronunciation, 0, 1)),
	}
}
