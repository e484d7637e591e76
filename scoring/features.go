package scoring

import (
	"math"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/algorithms/speech"
	"github.com/RyanBlaney/sonido-band/algorithms/temporal"
)

// SpeechFeatures are the audio-derived descriptors of one utterance.
type SpeechFeatures struct {
	DurationS       float64 `json:"duration_s"`
	VoicedDurationS float64 `json:"voiced_duration_s"`
	SilentDurationS float64 `json:"silent_duration_s"`
	PauseCount      int     `json:"pause_count_ge300ms"`
	AvgPauseS       float64 `json:"avg_pause_s"`
	PauseRatio      float64 `json:"pause_ratio"`
	WPM             float64 `json:"wpm"`
	ArticulationWPM float64 `json:"articulation_wpm"`
	F0StdHz         float64 `json:"f0_std_hz"`
	EnergyStd       float64 `json:"energy_std"`
}

// FeatureVector is the full descriptor set for one sample. Speech is nil
// when the audio could not be loaded; transcript statistics are always set.
type FeatureVector struct {
	Speech            *SpeechFeatures `json:"speech"`
	WordCount         int             `json:"word_count"`
	FillerCount       int             `json:"filler_count"`
	SelfRepairCount   int             `json:"self_repair_count"`
	FillerPer100W     float64         `json:"filler_per_100w"`
	SelfRepairPer100W float64         `json:"self_repair_per_100w"`
}

// Column is one named entry of the flat feature view.
type Column struct {
	Name  string
	Value float64
}

// FeatureColumnNames lists the flat feature columns in output order.
var FeatureColumnNames = []string{
	"duration_s", "voiced_duration_s", "silent_duration_s",
	"pause_count_ge300ms", "avg_pause_s", "pause_ratio",
	"wpm", "articulation_wpm", "f0_std_hz", "energy_std",
	"word_count", "filler_count", "self_repair_count",
	"filler_per_100w", "self_repair_per_100w",
}

// Columns flattens the vector in FeatureColumnNames order. Speech fields
// are NaN when Speech is nil.
func (fv FeatureVector) Columns() []Column {
	nan := math.NaN()
	speechVals := []float64{nan, nan, nan, nan, nan, nan, nan, nan, nan, nan}
	if s := fv.Speech; s != nil {
		speechVals = []float64{
			s.DurationS, s.VoicedDurationS, s.SilentDurationS,
			float64(s.PauseCount), s.AvgPauseS, s.PauseRatio,
			s.WPM, s.ArticulationWPM, s.F0StdHz, s.EnergyStd,
		}
	}
	values := append(speechVals,
		float64(fv.WordCount), float64(fv.FillerCount), float64(fv.SelfRepairCount),
		fv.FillerPer100W, fv.SelfRepairPer100W,
	)

	cols := make([]Column, len(FeatureColumnNames))
	for i, name := range FeatureColumnNames {
		cols[i] = Column{Name: name, Value: values[i]}
	}
	return cols
}

// ProsodyStats holds pitch and energy variability.
type ProsodyStats struct {
	F0StdHz   float64 `json:"f0_std_hz"`
	EnergyStd float64 `json:"energy_std"`
}

// Assembler combines analyzer outputs into a FeatureVector.
type Assembler struct{}

// Assemble derives speaking rates from the word count. A nil pauses value
// produces a vector without speech features.
func (Assembler) Assemble(pauses *temporal.PauseStats, prosody ProsodyStats, dis speech.DisfluencyStats) FeatureVector {
	fv := FeatureVector{
		WordCount:         dis.WordCount,
		FillerCount:       dis.FillerCount,
		SelfRepairCount:   dis.SelfRepairCount,
		FillerPer100W:     dis.FillerPer100W,
		SelfRepairPer100W: dis.SelfRepairPer100W,
	}
	if pauses == nil {
		return fv
	}

	words := float64(dis.WordCount)
	fv.Speech = &SpeechFeatures{
		DurationS:       pauses.DurationS,
		VoicedDurationS: pauses.VoicedDurationS,
		SilentDurationS: pauses.SilentDurationS,
		PauseCount:      pauses.LongPauseCount,
		AvgPauseS:       pauses.AvgLongPauseS,
		PauseRatio:      pauses.PauseRatio,
		WPM:             60 * words / common.FloorEps(pauses.DurationS),
		ArticulationWPM: 60 * words / common.FloorEps(pauses.VoicedDurationS),
		F0StdHz:         prosody.F0StdHz,
		EnergyStd:       prosody.EnergyStd,
	}
	return fv
}
