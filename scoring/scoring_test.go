package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/algorithms/speech"
	"github.com/RyanBlaney/sonido-band/algorithms/temporal"
	"github.com/RyanBlaney/sonido-band/logging"
	"github.com/RyanBlaney/sonido-band/transcode"
)

const testRate = 16000

// burstSignal returns tone bursts separated by silence.
func burstSignal(freq float64, bursts int, burstS, gapS float64) []float64 {
	var out []float64
	for b := range bursts {
		for i := range int(burstS * testRate) {
			t := float64(i) / testRate
			amp := 0.5 + 0.1*float64(b)
			out = append(out, amp*math.Sin(2*math.Pi*freq*t))
		}
		out = append(out, make([]float64, int(gapS*testRate))...)
	}
	return out
}

func TestOptionalJSON(t *testing.T) {
	data, err := json.Marshal(SubScores{Content: None(), Fluency: Some(0.5), Pronunciation: None()})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"content_01":null,"fluency_01":0.5,"pronunciation_01":null}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}

	var back SubScores
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Content.Valid || !back.Fluency.Valid || back.Fluency.Value != 0.5 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
	if !math.IsNaN(None().Float()) {
		t.Error("missing value should render as NaN")
	}
}

func TestAssemblerRates(t *testing.T) {
	pauses := temporal.PauseStats{DurationS: 30, VoicedDurationS: 20, SilentDurationS: 10, PauseRatio: 1.0 / 3}
	dis := speech.DisfluencyStats{WordCount: 50}

	fv := Assembler{}.Assemble(&pauses, ProsodyStats{F0StdHz: 12}, dis)
	if fv.Speech == nil {
		t.Fatal("expected speech features")
	}
	if fv.Speech.WPM != 100 {
		t.Errorf("wpm = %v, want 100", fv.Speech.WPM)
	}
	if fv.Speech.ArticulationWPM != 150 {
		t.Errorf("articulation = %v, want 150", fv.Speech.ArticulationWPM)
	}

	silent := temporal.PauseStats{DurationS: 2}
	fv = Assembler{}.Assemble(&silent, ProsodyStats{}, dis)
	if want := 60 * 50 / common.Epsilon; fv.Speech.ArticulationWPM != want {
		t.Errorf("articulation with zero voicing = %v, want %v", fv.Speech.ArticulationWPM, want)
	}
}

func TestColumnsMissingSpeech(t *testing.T) {
	fv := FeatureVector{WordCount: 7, FillerCount: 1, FillerPer100W: 100.0 / 7}
	cols := fv.Columns()
	if len(cols) != len(FeatureColumnNames) {
		t.Fatalf("got %d columns, want %d", len(cols), len(FeatureColumnNames))
	}
	for _, c := range cols {
		switch c.Name {
		case "word_count":
			if c.Value != 7 {
				t.Errorf("word_count = %v", c.Value)
			}
		case "filler_count", "filler_per_100w", "self_repair_count", "self_repair_per_100w":
			if math.IsNaN(c.Value) {
				t.Errorf("%s should always be present", c.Name)
			}
		default:
			if !math.IsNaN(c.Value) {
				t.Errorf("%s = %v, want NaN", c.Name, c.Value)
			}
		}
	}
}

func TestClipRangeScore(t *testing.T) {
	tests := []struct {
		name string
		r    ClipRange
		x    float64
		want float64
	}{
		{"filler rate inverted", ClipRange{Lo: 2, Hi: 12, Invert: true}, 10, 0.2},
		{"below range", ClipRange{Lo: 90, Hi: 220}, 10, 0},
		{"above range inverted", ClipRange{Lo: 0.05, Hi: 0.4, Invert: true}, 0.9, 0},
		{"degenerate range", ClipRange{Lo: 1, Hi: 1}, 5, 0},
		{"nan inverted", ClipRange{Lo: 20, Hi: 80, Invert: true}, math.NaN(), 0},
		{"positive infinity", ClipRange{Lo: 70, Hi: 180}, math.Inf(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Score(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Score(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestComposer(t *testing.T) {
	c := NewComposer(DefaultFeatureRanges(), DefaultSubscoreWeights())

	if got := c.Compose(FeatureVector{WordCount: 3}); got.Fluency.Valid || got.Pronunciation.Valid {
		t.Fatalf("expected missing scores without speech, got %+v", got)
	}

	// every fluency term at its best value
	best := FeatureVector{
		Speech: &SpeechFeatures{
			ArticulationWPM: 250, WPM: 200, PauseRatio: 0.01, AvgPauseS: 0.1,
			F0StdHz: 10, EnergyStd: 0.01,
		},
	}
	got := c.Compose(best)
	if math.Abs(got.Fluency.Value-1) > 1e-12 || math.Abs(got.Pronunciation.Value-1) > 1e-12 {
		t.Fatalf("best case = %+v, want 1/1", got)
	}

	// filler rate 10 per 100 words costs 0.15 * 0.8
	withFillers := best
	withFillers.FillerPer100W = 10
	got = c.Compose(withFillers)
	if want := 1 - 0.15*0.8; math.Abs(got.Fluency.Value-want) > 1e-12 {
		t.Errorf("fluency = %v, want %v", got.Fluency.Value, want)
	}

	// pitch std 50 Hz is halfway through [20, 80]
	mid := best
	mid.Speech = &SpeechFeatures{F0StdHz: 50, EnergyStd: 0.2}
	got = c.Compose(mid)
	if want := 0.6 * 0.5; math.Abs(got.Pronunciation.Value-want) > 1e-12 {
		t.Errorf("pronunciation = %v, want %v", got.Pronunciation.Value, want)
	}
}

func TestFuserWeightsSumToOne(t *testing.T) {
	f := NewFuser(DefaultFusionWeights())
	for mask := 1; mask < 8; mask++ {
		s := SubScores{Content: None(), Fluency: None(), Pronunciation: None()}
		if mask&1 != 0 {
			s.Content = Some(1)
		}
		if mask&2 != 0 {
			s.Fluency = Some(0.3)
		}
		if mask&4 != 0 {
			s.Pronunciation = Some(0)
		}
		w := f.EffectiveWeights(s)
		if sum := w[0] + w[1] + w[2]; math.Abs(sum-1) > 1e-12 {
			t.Errorf("mask %03b: weights sum to %v", mask, sum)
		}
		fused, err := f.Fuse(s, UncertaintyEstimate{})
		if err != nil {
			t.Fatalf("mask %03b: %v", mask, err)
		}
		if fused.Overall01 < 0 || fused.Overall01 > 1 {
			t.Errorf("mask %03b: overall %v out of range", mask, fused.Overall01)
		}
	}
}

func TestFuserNoScoreableInput(t *testing.T) {
	f := NewFuser(DefaultFusionWeights())
	fused, err := f.Fuse(SubScores{}, UncertaintyEstimate{})
	if !errors.Is(err, ErrNoScoreableInput) {
		t.Fatalf("err = %v, want ErrNoScoreableInput", err)
	}
	if !math.IsNaN(fused.Overall01) || fused.Band.Valid {
		t.Errorf("expected NaN overall and missing band, got %+v", fused)
	}
}

func TestFuserRenormalizesAndPropagatesStd(t *testing.T) {
	f := NewFuser(DefaultFusionWeights())
	s := SubScores{Content: None(), Fluency: Some(0.8), Pronunciation: Some(0.6)}
	u := UncertaintyEstimate{FluencyStd: 0.1, PronunciationStd: 0.2}

	fused, err := f.Fuse(s, u)
	if err != nil {
		t.Fatal(err)
	}
	wantOverall := (0.8*0.35 + 0.6*0.30) / 0.65
	if math.Abs(fused.Overall01-wantOverall) > 1e-12 {
		t.Errorf("overall = %v, want %v", fused.Overall01, wantOverall)
	}
	wantStd := math.Sqrt(0.035*0.035+0.06*0.06) / 0.65
	if math.Abs(fused.OverallStd-wantStd) > 1e-12 {
		t.Errorf("std = %v, want %v", fused.OverallStd, wantStd)
	}

	// content present widens the denominator but adds no variance
	s.Content = Some(0.5)
	fused, _ = f.Fuse(s, u)
	if want := math.Sqrt(0.035*0.035+0.06*0.06) / 1.0; math.Abs(fused.OverallStd-want) > 1e-12 {
		t.Errorf("std with content = %v, want %v", fused.OverallStd, want)
	}
}

func TestUncertaintyDeterministic(t *testing.T) {
	opts := DefaultSpeechOptions()
	sa, err := NewSpeechAnalyzer(opts)
	if err != nil {
		t.Fatal(err)
	}
	signal := burstSignal(150, 3, 0.4, 0.35)
	dis := speech.DisfluencyStats{WordCount: 6}

	first := sa.uncertainty.Estimate(signal, testRate, dis, 35)
	second := sa.uncertainty.Estimate(signal, testRate, dis, 35)
	if first != second {
		t.Fatalf("estimates differ: %+v vs %+v", first, second)
	}
	if first.FluencyStd < 0 || first.PronunciationStd < 0 {
		t.Fatalf("negative std: %+v", first)
	}

	none := NewUncertaintyEstimator(UncertaintyConfig{}, sa.segment, sa.prosody, sa.composer)
	if got := none.Estimate(signal, testRate, dis, 35); got != (UncertaintyEstimate{}) {
		t.Errorf("zero trials should give zero estimate, got %+v", got)
	}
}

func TestUncertaintyEmptySignal(t *testing.T) {
	sa, err := NewSpeechAnalyzer(DefaultSpeechOptions())
	if err != nil {
		t.Fatal(err)
	}
	got := sa.uncertainty.Estimate(nil, testRate, speech.DisfluencyStats{}, 35)
	if got.FluencyStd != 0 || got.PronunciationStd != 0 {
		t.Errorf("empty signal estimate = %+v, want zeros", got)
	}
}

func TestDropSamples(t *testing.T) {
	signal := make([]float64, 1000)
	for i := range signal {
		signal[i] = float64(i)
	}
	out := dropSamples(signal, 20, rand.NewPCG(1, 2))
	if len(out) != 980 {
		t.Fatalf("len = %d, want 980", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			t.Fatal("order not preserved")
		}
	}
	if got := dropSamples(signal, 0, rand.NewPCG(1, 2)); len(got) != len(signal) {
		t.Errorf("zero drop changed length to %d", len(got))
	}
}

type stubLoader struct {
	audio *transcode.AudioData
	err   error
}

func (s stubLoader) Load(ctx context.Context, path string) (*transcode.AudioData, error) {
	return s.audio, s.err
}

type linearBands struct{}

func (linearBands) Band(x float64) float64 {
	return common.HalfBand(4+5*common.Clamp(x, 0, 1), 4, 9)
}

func newTestScorer(t *testing.T, opts ...ScorerOption) *Scorer {
	t.Helper()
	sa, err := NewSpeechAnalyzer(DefaultSpeechOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts = append([]ScorerOption{WithLogger(&logging.NoOpLogger{}), WithBandMapper(linearBands{})}, opts...)
	return NewScorer(sa, NewFuser(DefaultFusionWeights()), opts...)
}

func TestSpeechResultAvailable(t *testing.T) {
	sa, err := NewSpeechAnalyzer(DefaultSpeechOptions())
	if err != nil {
		t.Fatal(err)
	}

	missing := sa.Analyze(nil, "um well")
	if missing.Available() || missing.Scores.Fluency.Valid {
		t.Errorf("nil audio reported as available: %+v", missing)
	}

	audio := &transcode.AudioData{PCM: burstSignal(180, 2, 0.5, 0.6), SampleRate: testRate, Channels: 1}
	present := sa.Analyze(audio, "um well")
	if !present.Available() || !present.Scores.Fluency.Valid {
		t.Errorf("decoded audio reported as missing: %+v", present)
	}
}

func TestScorerDecodeFailureDegradesToContent(t *testing.T) {
	content := ContentScorerFunc(func(ctx context.Context, text string) (float64, error) {
		return 0.6, nil
	})
	s := newTestScorer(t,
		WithContentScorer(content),
		WithAudioLoader(stubLoader{err: transcode.ErrUnsupportedFormat}),
	)

	res, err := s.Score(context.Background(), Request{ID: "s1", AudioPath: "x.mp3", Transcript: "um I think well yes"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Features.Speech != nil || res.SubScores.Fluency.Valid {
		t.Fatal("speech branch should be missing after decode failure")
	}
	if res.Features.FillerCount != 2 || res.Features.WordCount != 5 {
		t.Errorf("disfluency stats = %+v", res.Features)
	}
	if res.Fused.Overall01 != 0.6 || res.Fused.OverallStd != 0 {
		t.Errorf("fused = %+v, want content-only 0.6", res.Fused)
	}
	if !res.Fused.Band.Valid || res.Fused.Band.Value != 7 {
		t.Errorf("band = %v, want 7", res.Fused.Band)
	}
}

func TestScorerNoScoreableInput(t *testing.T) {
	s := newTestScorer(t)
	res, err := s.Score(context.Background(), Request{ID: "empty"})
	if !errors.Is(err, ErrNoScoreableInput) {
		t.Fatalf("err = %v, want ErrNoScoreableInput", err)
	}
	if res.Err == nil || res.Fused.Band.Valid {
		t.Errorf("result should carry the error and no band: %+v", res)
	}
}

func TestScorerWithAudio(t *testing.T) {
	audio := &transcode.AudioData{PCM: burstSignal(180, 4, 0.5, 0.6), SampleRate: testRate, Channels: 1}
	failing := ContentScorerFunc(func(ctx context.Context, text string) (float64, error) {
		return 0, errors.New("model offline")
	})
	s := newTestScorer(t, WithAudioLoader(stubLoader{audio: audio}), WithContentScorer(failing))

	res, err := s.Score(context.Background(), Request{ID: "a", AudioPath: "a.wav", Transcript: "one two three four five six seven eight"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.SubScores.Content.Valid {
		t.Error("content should be missing when the scorer fails")
	}
	sp := res.Features.Speech
	if sp == nil {
		t.Fatal("expected speech features")
	}
	if sp.PauseCount < 3 {
		t.Errorf("pause count = %d, want at least 3", sp.PauseCount)
	}
	for _, v := range []Optional{res.SubScores.Fluency, res.SubScores.Pronunciation} {
		if !v.Valid || v.Value < 0 || v.Value > 1 {
			t.Errorf("sub-score %v out of range", v)
		}
	}
	if b := res.Fused.Band.Value; math.Mod(b*2, 1) != 0 || b < 4 || b > 9 {
		t.Errorf("band %v not on the half grid within [4, 9]", b)
	}
}

func TestEndToEndLinearBand(t *testing.T) {
	f := NewFuser(DefaultFusionWeights())
	fused, err := f.Fuse(SubScores{Fluency: Some(0.8), Pronunciation: Some(0.6)}, UncertaintyEstimate{})
	if err != nil {
		t.Fatal(err)
	}
	if got := (linearBands{}).Band(fused.Overall01); got != 7.5 {
		t.Errorf("band = %v, want 7.5", got)
	}
}

func TestHTTPContentScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch req.Text {
		case "high":
			w.Write([]byte(`{"score": 1.4}`))
		case "ok":
			w.Write([]byte(`{"score": 0.42}`))
		case "empty":
			w.Write([]byte(`{}`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cs := NewHTTPContentScorer(srv.URL+"/", 2*time.Second)
	tests := []struct {
		text    string
		want    float64
		wantErr bool
	}{
		{"ok", 0.42, false},
		{"high", 1, false},
		{"empty", 0, true},
		{"fail", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := cs.Score(context.Background(), tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequestTextFallback(t *testing.T) {
	r := Request{Transcript: "spoken"}
	if r.ContentText() != "spoken" || r.SpokenTranscript() != "spoken" {
		t.Errorf("fallback to transcript failed: %+v", r)
	}
	r = Request{Text: "essay", Transcript: "spoken"}
	if r.ContentText() != "essay" || r.SpokenTranscript() != "spoken" {
		t.Errorf("explicit fields not honored: %+v", r)
	}
}
