package scoring

// AnalysisConfig holds the framing and threshold parameters shared by the
// speech analyzers.
type AnalysisConfig struct {
	TopDB            float64 `json:"top_db" yaml:"top_db" mapstructure:"top_db"`
	FrameLength      int     `json:"frame_length" yaml:"frame_length" mapstructure:"frame_length"`
	HopLength        int     `json:"hop_length" yaml:"hop_length" mapstructure:"hop_length"`
	MinPauseS        float64 `json:"min_pause_s" yaml:"min_pause_s" mapstructure:"min_pause_s"`
	PitchFrameLength int     `json:"pitch_frame_length" yaml:"pitch_frame_length" mapstructure:"pitch_frame_length"`
	PitchHopLength   int     `json:"pitch_hop_length" yaml:"pitch_hop_length" mapstructure:"pitch_hop_length"`
	PitchMinHz       float64 `json:"pitch_min_hz" yaml:"pitch_min_hz" mapstructure:"pitch_min_hz"`
	PitchMaxHz       float64 `json:"pitch_max_hz" yaml:"pitch_max_hz" mapstructure:"pitch_max_hz"`
	PitchThreshold   float64 `json:"pitch_threshold" yaml:"pitch_threshold" mapstructure:"pitch_threshold"`
}

// DefaultAnalysisConfig returns the standard speech analysis parameters.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		TopDB:            35,
		FrameLength:      2048,
		HopLength:        512,
		MinPauseS:        0.3,
		PitchFrameLength: 2048,
		PitchHopLength:   256,
		PitchMinHz:       50,
		PitchMaxHz:       400,
		PitchThreshold:   0.1,
	}
}

// ClipRange maps a raw feature onto [0, 1]. Invert flips the scale for
// features where larger values are worse.
type ClipRange struct {
	Lo     float64 `json:"lo" yaml:"lo" mapstructure:"lo"`
	Hi     float64 `json:"hi" yaml:"hi" mapstructure:"hi"`
	Invert bool    `json:"invert" yaml:"invert" mapstructure:"invert"`
}

// FeatureRanges are the clip ranges used by the Composer.
type FeatureRanges struct {
	ArticulationWPM ClipRange `json:"articulation_wpm" yaml:"articulation_wpm" mapstructure:"articulation_wpm"`
	WPM             ClipRange `json:"wpm" yaml:"wpm" mapstructure:"wpm"`
	PauseRatio      ClipRange `json:"pause_ratio" yaml:"pause_ratio" mapstructure:"pause_ratio"`
	AvgPauseS       ClipRange `json:"avg_pause_s" yaml:"avg_pause_s" mapstructure:"avg_pause_s"`
	F0StdHz         ClipRange `json:"f0_std_hz" yaml:"f0_std_hz" mapstructure:"f0_std_hz"`
	EnergyStd       ClipRange `json:"energy_std" yaml:"energy_std" mapstructure:"energy_std"`
	FillerPer100W   ClipRange `json:"filler_per_100w" yaml:"filler_per_100w" mapstructure:"filler_per_100w"`
	RepairPer100W   ClipRange `json:"self_repair_per_100w" yaml:"self_repair_per_100w" mapstructure:"self_repair_per_100w"`
}

// DefaultFeatureRanges returns the standard clip ranges.
func DefaultFeatureRanges() FeatureRanges {
	return FeatureRanges{
		ArticulationWPM: ClipRange{Lo: 90, Hi: 220},
		WPM:             ClipRange{Lo: 70, Hi: 180},
		PauseRatio:      ClipRange{Lo: 0.05, Hi: 0.40, Invert: true},
		AvgPauseS:       ClipRange{Lo: 0.15, Hi: 0.80, Invert: true},
		F0StdHz:         ClipRange{Lo: 20, Hi: 80, Invert: true},
		EnergyStd:       ClipRange{Lo: 0.02, Hi: 0.20, Invert: true},
		FillerPer100W:   ClipRange{Lo: 2, Hi: 12, Invert: true},
		RepairPer100W:   ClipRange{Lo: 1, Hi: 6, Invert: true},
	}
}

// FluencyWeights weight the fluency terms. They sum to 1.
type FluencyWeights struct {
	Articulation float64 `json:"articulation" yaml:"articulation" mapstructure:"articulation"`
	WPM          float64 `json:"wpm" yaml:"wpm" mapstructure:"wpm"`
	PauseRatio   float64 `json:"pause_ratio" yaml:"pause_ratio" mapstructure:"pause_ratio"`
	AvgPause     float64 `json:"avg_pause" yaml:"avg_pause" mapstructure:"avg_pause"`
	Filler       float64 `json:"filler" yaml:"filler" mapstructure:"filler"`
	Repair       float64 `json:"repair" yaml:"repair" mapstructure:"repair"`
}

// PronunciationWeights weight the pronunciation terms. They sum to 1.
type PronunciationWeights struct {
	Pitch  float64 `json:"pitch" yaml:"pitch" mapstructure:"pitch"`
	Energy float64 `json:"energy" yaml:"energy" mapstructure:"energy"`
}

// SubscoreWeights groups the composer weights.
type SubscoreWeights struct {
	Fluency       FluencyWeights       `json:"fluency" yaml:"fluency" mapstructure:"fluency"`
	Pronunciation PronunciationWeights `json:"pronunciation" yaml:"pronunciation" mapstructure:"pronunciation"`
}

// DefaultSubscoreWeights returns the standard composer weights.
func DefaultSubscoreWeights() SubscoreWeights {
	return SubscoreWeights{
		Fluency: FluencyWeights{
			Articulation: 0.25,
			WPM:          0.20,
			PauseRatio:   0.20,
			AvgPause:     0.10,
			Filler:       0.15,
			Repair:       0.10,
		},
		Pronunciation: PronunciationWeights{Pitch: 0.6, Energy: 0.4},
	}
}

// UncertaintyConfig parameterizes the perturbation trials.
type UncertaintyConfig struct {
	Trials       int     `json:"trials" yaml:"trials" mapstructure:"trials"`
	Seed         uint64  `json:"seed" yaml:"seed" mapstructure:"seed"`
	TopDBSigma   float64 `json:"top_db_sigma" yaml:"top_db_sigma" mapstructure:"top_db_sigma"`
	TopDBMin     float64 `json:"top_db_min" yaml:"top_db_min" mapstructure:"top_db_min"`
	TopDBMax     float64 `json:"top_db_max" yaml:"top_db_max" mapstructure:"top_db_max"`
	DropFraction float64 `json:"drop_fraction" yaml:"drop_fraction" mapstructure:"drop_fraction"`
}

// DefaultUncertaintyConfig returns 8 trials with seed 7, sigma 5 dB clamped
// to [25, 60] and 2% sample dropout.
func DefaultUncertaintyConfig() UncertaintyConfig {
	return UncertaintyConfig{
		Trials:       8,
		Seed:         7,
		TopDBSigma:   5,
		TopDBMin:     25,
		TopDBMax:     60,
		DropFraction: 0.02,
	}
}

// FusionWeights are the nominal sub-score weights.
type FusionWeights struct {
	Content       float64 `json:"content" yaml:"content" mapstructure:"content"`
	Fluency       float64 `json:"fluency" yaml:"fluency" mapstructure:"fluency"`
	Pronunciation float64 `json:"pronunciation" yaml:"pronunciation" mapstructure:"pronunciation"`
}

// DefaultFusionWeights returns content .35, fluency .35, pronunciation .30.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Content: 0.35, Fluency: 0.35, Pronunciation: 0.30}
}
