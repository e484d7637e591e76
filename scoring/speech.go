package scoring

import (
	"fmt"

	"github.com/RyanBlaney/sonido-band/algorithms/speech"
	"github.com/RyanBlaney/sonido-band/transcode"
)

// SpeechOptions configures a SpeechAnalyzer.
type SpeechOptions struct {
	Analysis    AnalysisConfig
	Ranges      FeatureRanges
	Weights     SubscoreWeights
	Uncertainty UncertaintyConfig
	Phrases     speech.PhraseSet
}

// DefaultSpeechOptions returns the standard analysis setup.
func DefaultSpeechOptions() SpeechOptions {
	return SpeechOptions{
		Analysis:    DefaultAnalysisConfig(),
		Ranges:      DefaultFeatureRanges(),
		Weights:     DefaultSubscoreWeights(),
		Uncertainty: DefaultUncertaintyConfig(),
		Phrases:     speech.DefaultPhraseSet(),
	}
}

// SpeechResult is the outcome of the speech branch for one sample. When
// Features.Speech is nil the audio was unavailable: Scores are missing and
// Uncertainty is zero.
type SpeechResult struct {
	Features    FeatureVector       `json:"features"`
	Scores      SubScorePair        `json:"scores"`
	Uncertainty UncertaintyEstimate `json:"uncertainty"`
}

// Available reports whether audio features were computed.
func (r SpeechResult) Available() bool {
	return r.Features.Speech != nil
}

// SpeechAnalyzer runs the full audio and transcript feature pipeline.
// It holds no per-call state and is safe for concurrent use.
type SpeechAnalyzer struct {
	topDB       float64
	disfluency  *speech.DisfluencyAnalyzer
	segment     *SegmentAnalyzer
	prosody     *ProsodyAnalyzer
	assembler   Assembler
	composer    *Composer
	uncertainty *UncertaintyEstimator
}

// NewSpeechAnalyzer builds the pipeline. It fails only on an invalid
// phrase set.
func NewSpeechAnalyzer(opts SpeechOptions) (*SpeechAnalyzer, error) {
	dis, err := speech.NewDisfluencyAnalyzer(opts.Phrases)
	if err != nil {
		return nil, fmt.Errorf("failed to build disfluency analyzer: %w", err)
	}

	segment := NewSegmentAnalyzer(opts.Analysis)
	prosody := NewProsodyAnalyzer(opts.Analysis)
	composer := NewComposer(opts.Ranges, opts.Weights)

	return &SpeechAnalyzer{
		topDB:       opts.Analysis.TopDB,
		disfluency:  dis,
		segment:     segment,
		prosody:     prosody,
		composer:    composer,
		uncertainty: NewUncertaintyEstimator(opts.Uncertainty, segment, prosody, composer),
	}, nil
}

// Analyze scores the sample. A nil audio yields a result with transcript
// statistics only.
func (sa *SpeechAnalyzer) Analyze(audio *transcode.AudioData, transcript string) SpeechResult {
	dis := sa.disfluency.Analyze(transcript)
	if audio == nil {
		fv := sa.assembler.Assemble(nil, ProsodyStats{}, dis)
		return SpeechResult{Features: fv, Scores: sa.composer.Compose(fv)}
	}

	pauses := sa.segment.Analyze(audio.PCM, audio.SampleRate, sa.topDB)
	prosody := sa.prosody.Analyze(audio.PCM, audio.SampleRate)
	fv := sa.assembler.Assemble(&pauses, prosody, dis)

	return SpeechResult{
		Features:    fv,
		Scores:      sa.composer.Compose(fv),
		Uncertainty: sa.uncertainty.Estimate(audio.PCM, audio.SampleRate, dis, sa.topDB),
	}
}
