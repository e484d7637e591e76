package scoring

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/logging"
	"github.com/RyanBlaney/sonido-band/transcode"
)

// AudioLoader decodes an audio file to a mono signal.
type AudioLoader interface {
	Load(ctx context.Context, path string) (*transcode.AudioData, error)
}

// BandMapper converts an overall score on [0, 1] to a band.
type BandMapper interface {
	Band(x float64) float64
}

// Request describes one sample. Text is scored for content; Transcript is
// analyzed for disfluencies. Each falls back to the other when empty.
type Request struct {
	ID         string `json:"id"`
	AudioPath  string `json:"audio_path"`
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
}

// ContentText returns the text used for content scoring.
func (r Request) ContentText() string {
	if r.Text != "" {
		return r.Text
	}
	return r.Transcript
}

// SpokenTranscript returns the text used for disfluency analysis.
func (r Request) SpokenTranscript() string {
	if r.Transcript != "" {
		return r.Transcript
	}
	return r.Text
}

// Result is the full scoring outcome of one sample.
type Result struct {
	Request     Request             `json:"inputs"`
	SubScores   SubScores           `json:"subscores_01"`
	Features    FeatureVector       `json:"speaking_features"`
	Uncertainty UncertaintyEstimate `json:"uncertainty"`
	Fused       FusedScore          `json:"fused"`
	Err         error               `json:"-"`
}

// Scorer runs content scoring, the speech branch, fusion and band mapping
// for single samples.
type Scorer struct {
	speech  *SpeechAnalyzer
	fuser   *Fuser
	content ContentScorer
	loader  AudioLoader
	bands   BandMapper
	logger  logging.Logger
}

// ScorerOption customizes a Scorer.
type ScorerOption func(*Scorer)

// WithContentScorer sets the content scorer. Without one, content is missing.
func WithContentScorer(cs ContentScorer) ScorerOption {
	return func(s *Scorer) { s.content = cs }
}

// WithAudioLoader sets the audio loader. Without one, audio is missing.
func WithAudioLoader(l AudioLoader) ScorerOption {
	return func(s *Scorer) { s.loader = l }
}

// WithBandMapper sets the calibrator. Without one, the band is missing.
func WithBandMapper(b BandMapper) ScorerOption {
	return func(s *Scorer) { s.bands = b }
}

// WithLogger overrides the global logger.
func WithLogger(l logging.Logger) ScorerOption {
	return func(s *Scorer) { s.logger = l }
}

// NewScorer creates a scorer.
func NewScorer(sa *SpeechAnalyzer, fuser *Fuser, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		speech: sa,
		fuser:  fuser,
		logger: logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score scores one sample. Missing inputs and decode failures degrade the
// affected branch. The error is ErrNoScoreableInput when nothing could be
// scored; the returned Result is still fully populated.
func (s *Scorer) Score(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "score sample",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("sample.id", req.ID),
			attribute.Bool("sample.has_audio", req.AudioPath != ""),
			attribute.Bool("sample.has_text", req.ContentText() != ""),
		),
	)
	defer span.End()

	logger := s.logger.WithFields(logging.Fields{
		"component": "scorer",
		"sample":    req.ID,
	})

	result := Result{Request: req}
	result.SubScores.Content = s.scoreContent(ctx, req.ContentText(), logger)

	audio := s.loadAudio(ctx, req.AudioPath, logger)
	sr := s.speech.Analyze(audio, req.SpokenTranscript())
	result.Features = sr.Features
	result.Uncertainty = sr.Uncertainty
	result.SubScores.Fluency = sr.Scores.Fluency
	result.SubScores.Pronunciation = sr.Scores.Pronunciation
	span.SetAttributes(attribute.Bool("sample.speech_available", sr.Available()))

	fused, err := s.fuser.Fuse(result.SubScores, result.Uncertainty)
	if err != nil {
		err = fmt.Errorf("sample %q: %w", req.ID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		result.Fused = fused
		result.Err = err
		return result, err
	}
	if s.bands != nil {
		fused.Band = Some(s.bands.Band(fused.Overall01))
	}
	result.Fused = fused

	span.SetAttributes(attribute.Float64("score.overall_01", fused.Overall01))
	logger.Debug("Sample scored", logging.Fields{
		"overall_01":  fused.Overall01,
		"overall_std": fused.OverallStd,
		"band":        fused.Band.String(),
	})
	return result, nil
}

func (s *Scorer) scoreContent(ctx context.Context, text string, logger logging.Logger) Optional {
	if text == "" || s.content == nil {
		return None()
	}
	v, err := s.content.Score(ctx, text)
	if err != nil {
		logger.Warn("Content scoring failed", logging.Fields{"error": err.Error()})
		return None()
	}
	if !common.IsFinite(v) {
		v = 0
	}
	return Some(common.Clamp(v, 0, 1))
}

func (s *Scorer) loadAudio(ctx context.Context, path string, logger logging.Logger) *transcode.AudioData {
	if path == "" || s.loader == nil {
		return nil
	}
	audio, err := s.loader.Load(ctx, path)
	if err != nil {
		logger.Warn("Audio decode failed, speech features missing", logging.Fields{
			"audio_path": path,
			"error":      err.Error(),
		})
		return nil
	}
	return audio
}
