package scoring

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/algorithms/speech"
)

// UncertaintyEstimate is the spread of the sub-scores under perturbation.
type UncertaintyEstimate struct {
	FluencyStd       float64 `json:"fluency_std"`
	PronunciationStd float64 `json:"pronunciation_std"`
}

// UncertaintyEstimator recomputes the sub-scores on perturbed copies of the
// signal. Each trial jitters top_db with Gaussian noise and drops a random
// fraction of samples.
type UncertaintyEstimator struct {
	cfg       UncertaintyConfig
	segment   *SegmentAnalyzer
	prosody   *ProsodyAnalyzer
	assembler Assembler
	composer  *Composer
}

// NewUncertaintyEstimator wires the estimator to the analyzers it reruns.
func NewUncertaintyEstimator(cfg UncertaintyConfig, segment *SegmentAnalyzer, prosody *ProsodyAnalyzer, composer *Composer) *UncertaintyEstimator {
	return &UncertaintyEstimator{
		cfg:      cfg,
		segment:  segment,
		prosody:  prosody,
		composer: composer,
	}
}

// Estimate runs the trials with a source seeded from the configured seed.
// Identical input and seed give bit-identical results.
func (ue *UncertaintyEstimator) Estimate(signal []float64, sampleRate int, dis speech.DisfluencyStats, baseTopDB float64) UncertaintyEstimate {
	return ue.EstimateWithSource(signal, sampleRate, dis, baseTopDB, rand.NewPCG(ue.cfg.Seed, ue.cfg.Seed))
}

// EstimateWithSource runs the trials drawing from src. src must not be
// shared with concurrent callers.
func (ue *UncertaintyEstimator) EstimateWithSource(signal []float64, sampleRate int, dis speech.DisfluencyStats, baseTopDB float64, src rand.Source) UncertaintyEstimate {
	if ue.cfg.Trials <= 0 {
		return UncertaintyEstimate{}
	}

	jitter := distuv.Normal{Mu: 0, Sigma: ue.cfg.TopDBSigma, Src: src}
	dropCount := int(ue.cfg.DropFraction * float64(len(signal)))

	fluency := make([]float64, 0, ue.cfg.Trials)
	pronunciation := make([]float64, 0, ue.cfg.Trials)
	for range ue.cfg.Trials {
		topDB := common.Clamp(baseTopDB+jitter.Rand(), ue.cfg.TopDBMin, ue.cfg.TopDBMax)
		perturbed := dropSamples(signal, dropCount, src)

		pauses := ue.segment.Analyze(perturbed, sampleRate, topDB)
		prosody := ue.prosody.Analyze(perturbed, sampleRate)
		scores := ue.composer.Compose(ue.assembler.Assemble(&pauses, prosody, dis))

		fluency = append(fluency, scores.Fluency.Value)
		pronunciation = append(pronunciation, scores.Pronunciation.Value)
	}

	return UncertaintyEstimate{
		FluencyStd:       common.PopStdDev(fluency),
		PronunciationStd: common.PopStdDev(pronunciation),
	}
}

// dropSamples returns a copy of signal without count randomly chosen samples.
func dropSamples(signal []float64, count int, src rand.Source) []float64 {
	if count <= 0 {
		return signal
	}
	if count >= len(signal) {
		return []float64{}
	}

	idxs := make([]int, count)
	sampleuv.WithoutReplacement(idxs, len(signal), src)
	dropped := make([]bool, len(signal))
	for _, i := range idxs {
		dropped[i] = true
	}

	out := make([]float64, 0, len(signal)-count)
	for i, v := range signal {
		if !dropped[i] {
			out = append(out, v)
		}
	}
	return out
}
