package main

import (
	"fmt"

	"github.com/RyanBlaney/sonido-band/algorithms/speech"
	"github.com/RyanBlaney/sonido-band/batch"
	"github.com/RyanBlaney/sonido-band/calibration"
	"github.com/RyanBlaney/sonido-band/config"
	"github.com/RyanBlaney/sonido-band/scoring"
	"github.com/RyanBlaney/sonido-band/transcode"
)

// newScorer builds the scoring pipeline from configuration. bands may be
// nil.
func newScorer(cfg *config.Root, bands scoring.BandMapper) (*scoring.Scorer, error) {
	phrases := speech.DefaultPhraseSet()
	if cfg.Disfluency.PhraseSet != "" {
		ps, err := speech.LoadPhraseSet(cfg.Disfluency.PhraseSet)
		if err != nil {
			return nil, err
		}
		phrases = ps
	}

	sa, err := scoring.NewSpeechAnalyzer(scoring.SpeechOptions{
		Analysis:    cfg.Analysis,
		Ranges:      cfg.Ranges,
		Weights:     cfg.Subscores,
		Uncertainty: cfg.Uncertainty,
		Phrases:     phrases,
	})
	if err != nil {
		return nil, err
	}

	decoder := transcode.NewDecoder(&transcode.DecoderConfig{
		TargetSampleRate: cfg.Audio.SampleRate,
		FFmpegPath:       cfg.Audio.FFmpegPath,
		PreferFFmpeg:     cfg.Audio.PreferFFmpeg,
		Timeout:          cfg.Audio.Timeout,
		MaxDuration:      cfg.Audio.MaxDuration,
	})
	if err := decoder.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("audio decoder: %w", err)
	}

	opts := []scoring.ScorerOption{scoring.WithAudioLoader(decoder)}
	if cfg.Content.URL != "" {
		opts = append(opts, scoring.WithContentScorer(scoring.NewHTTPContentScorer(cfg.Content.URL, cfg.Content.Timeout)))
	}
	if bands != nil {
		opts = append(opts, scoring.WithBandMapper(bands))
	}
	return scoring.NewScorer(sa, scoring.NewFuser(cfg.Fusion), opts...), nil
}

// newBandBuilder prepares the calibrator for a batch run. Everything that
// can fail on configuration fails here, before any row is scored; quantile
// cut-points are fitted on the batch's own scores afterwards.
func newBandBuilder(spec calibration.Spec) (batch.BandBuilder, error) {
	if spec.CurvePath == "" && spec.Mode == calibration.ModeQuantile {
		pairs, err := calibration.ParseQuantileSpec(spec.Quantiles)
		if err != nil {
			return nil, err
		}
		return func(reference []float64) (scoring.BandMapper, error) {
			q, err := calibration.FitQuantile(pairs, reference)
			if err != nil {
				return nil, err
			}
			return q, nil
		}, nil
	}

	c, err := calibration.Build(spec, nil)
	if err != nil {
		return nil, err
	}
	return func([]float64) (scoring.BandMapper, error) {
		return c, nil
	}, nil
}
