package scoring

import (
	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/algorithms/temporal"
	"github.com/RyanBlaney/sonido-band/algorithms/tonal"
)

// SegmentAnalyzer measures voicing and pauses.
type SegmentAnalyzer struct {
	segmenter *temporal.Segmenter
	minPauseS float64
}

// NewSegmentAnalyzer creates a segment analyzer from the analysis config.
func NewSegmentAnalyzer(cfg AnalysisConfig) *SegmentAnalyzer {
	return &SegmentAnalyzer{
		segmenter: temporal.NewSegmenter(cfg.FrameLength, cfg.HopLength),
		minPauseS: cfg.MinPauseS,
	}
}

// Analyze never fails; empty or silent input yields full silence.
func (sa *SegmentAnalyzer) Analyze(signal []float64, sampleRate int, topDB float64) temporal.PauseStats {
	return sa.segmenter.AnalyzePauses(signal, sampleRate, topDB, sa.minPauseS)
}

// ProsodyAnalyzer measures pitch and energy stability.
type ProsodyAnalyzer struct {
	cfg    AnalysisConfig
	energy *temporal.Energy
}

// NewProsodyAnalyzer creates a prosody analyzer from the analysis config.
func NewProsodyAnalyzer(cfg AnalysisConfig) *ProsodyAnalyzer {
	return &ProsodyAnalyzer{
		cfg:    cfg,
		energy: temporal.NewEnergy(cfg.FrameLength, cfg.HopLength, true),
	}
}

// Analyze returns the population std of the finite pitch estimates and of
// frame RMS. Missing estimates yield 0.
func (pa *ProsodyAnalyzer) Analyze(signal []float64, sampleRate int) ProsodyStats {
	params := tonal.DefaultYinParams(sampleRate)
	params.FrameLength = pa.cfg.PitchFrameLength
	params.HopLength = pa.cfg.PitchHopLength
	params.MinFreq = pa.cfg.PitchMinHz
	params.MaxFreq = pa.cfg.PitchMaxHz
	params.Threshold = pa.cfg.PitchThreshold

	f0 := common.FiniteValues(tonal.NewYinTracker(params).Track(signal))
	rms := pa.energy.ComputeFrameRMS(signal)

	return ProsodyStats{
		F0StdHz:   common.PopStdDev(f0),
		EnergyStd: common.PopStdDev(rms),
	}
}
