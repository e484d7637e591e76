package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// amin is the power floor used when converting frame energy to decibels.
const amin = 1e-10

// Interval is a half-open sample range [Start, End).
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the interval length in samples.
func (iv Interval) Len() int {
	return iv.End - iv.Start
}

// Segmenter splits a signal into voiced (non-silent) intervals using
// short-time energy framing.
type Segmenter struct {
	energy    *Energy
	hopLength int
}

// NewSegmenter creates a segmenter with the given frame and hop lengths.
func NewSegmenter(frameLength, hopLength int) *Segmenter {
	return &Segmenter{
		energy:    NewEnergy(frameLength, hopLength, true),
		hopLength: hopLength,
	}
}

// Split returns the intervals whose frame level is within topDB of the
// loudest frame. A signal with no energy at all has no voiced intervals.
func (s *Segmenter) Split(signal []float64, topDB float64) []Interval {
	rms := s.energy.ComputeFrameRMS(signal)
	if len(rms) == 0 {
		return []Interval{}
	}

	peak := common.Max(rms)
	if peak*peak <= amin {
		return []Interval{}
	}

	refDB := 10.0 * math.Log10(math.Max(amin, peak*peak))
	voiced := make([]bool, len(rms))
	for i, v := range rms {
		db := 10.0*math.Log10(math.Max(amin, v*v)) - refDB
		voiced[i] = db > -topDB
	}

	var intervals []Interval
	currentStart := -1
	for i, isVoiced := range voiced {
		if isVoiced && currentStart == -1 {
			currentStart = i
		} else if !isVoiced && currentStart != -1 {
			intervals = append(intervals, s.framesToInterval(currentStart, i, len(signal)))
			currentStart = -1
		}
	}
	if currentStart != -1 {
		intervals = append(intervals, s.framesToInterval(currentStart, len(voiced), len(signal)))
	}

	return intervals
}

func (s *Segmenter) framesToInterval(startFrame, endFrame, n int) Interval {
	return Interval{
		Start: min(startFrame*s.hopLength, n),
		End:   min(endFrame*s.hopLength, n),
	}
}

// Gaps returns the uncovered regions between intervals, including the
// leading region before the first interval and the trailing region after
// the last one.
func Gaps(intervals []Interval, n int) []Interval {
	var gaps []Interval
	lastEnd := 0
	for _, iv := range intervals {
		if iv.Start > lastEnd {
			gaps = append(gaps, Interval{Start: lastEnd, End: iv.Start})
		}
		lastEnd = iv.End
	}
	if lastEnd < n {
		gaps = append(gaps, Interval{Start: lastEnd, End: n})
	}
	return gaps
}

// PauseStats summarises voicing and pausing of one signal.
type PauseStats struct {
	DurationS       float64   `json:"duration_s"`
	VoicedDurationS float64   `json:"voiced_duration_s"`
	SilentDurationS float64   `json:"silent_duration_s"`
	GapsS           []float64 `json:"gaps_s"`
	LongPauseCount  int       `json:"pause_count"`
	AvgLongPauseS   float64   `json:"avg_pause_s"`
	PauseRatio      float64   `json:"pause_ratio"`
}

// minDurationS stands in for the duration of an empty signal.
const minDurationS = 1e-4

// AnalyzePauses segments the signal and derives pause statistics. Gaps of at
// least minPauseS seconds count as pauses.
func (s *Segmenter) AnalyzePauses(signal []float64, sampleRate int, topDB, minPauseS float64) PauseStats {
	sr := float64(max(sampleRate, 1))
	duration := minDurationS
	if len(signal) > 0 {
		duration = float64(len(signal)) / sr
	}

	intervals := s.Split(signal, topDB)
	voiced := 0.0
	for _, iv := range intervals {
		voiced += float64(iv.Len()) / sr
	}

	gaps := Gaps(intervals, len(signal))
	stats := PauseStats{
		DurationS:       duration,
		VoicedDurationS: voiced,
		SilentDurationS: math.Max(0, duration-voiced),
		GapsS:           make([]float64, 0, len(gaps)),
	}

	longTotal := 0.0
	for _, g := range gaps {
		sec := float64(g.Len()) / sr
		stats.GapsS = append(stats.GapsS, sec)
		if sec >= minPauseS {
			stats.LongPauseCount++
			longTotal += sec
		}
	}
	if stats.LongPauseCount > 0 {
		stats.AvgLongPauseS = longTotal / float64(stats.LongPauseCount)
	}
	stats.PauseRatio = stats.SilentDurationS / math.Max(duration, 1e-6)

	return stats
}
