package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-band/algorithms/spectral"
)

// YinParams contains parameters for YIN pitch tracking
type YinParams struct {
	SampleRate  int     `json:"sample_rate"`
	FrameLength int     `json:"frame_length"`
	HopLength   int     `json:"hop_length"`
	MinFreq     float64 `json:"min_freq"` // Minimum frequency (Hz)
	MaxFreq     float64 `json:"max_freq"` // Maximum frequency (Hz)
	Threshold   float64 `json:"threshold"`
	Center      bool    `json:"center"`
}

// DefaultYinParams returns the speech-band configuration: 50-400 Hz,
// 2048-sample frames, hop 256, trough threshold 0.1.
func DefaultYinParams(sampleRate int) YinParams {
	return YinParams{
		SampleRate:  sampleRate,
		FrameLength: 2048,
		HopLength:   256,
		MinFreq:     50.0,
		MaxFreq:     400.0,
		Threshold:   0.1,
		Center:      true,
	}
}

// YinTracker estimates the fundamental frequency frame by frame.
//
// Reference: de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental
// frequency estimator for speech and music"
//
// The difference function is computed from an FFT cross-correlation and
// sliding-window energies, so the cost per frame is dominated by three FFTs
// rather than the quadratic time-domain sum.
type YinTracker struct {
	params YinParams
	fft    *spectral.FFT
}

// NewYinTracker creates a tracker with the given parameters
func NewYinTracker(params YinParams) *YinTracker {
	return &YinTracker{
		params: params,
		fft:    spectral.NewFFT(),
	}
}

// Track returns one estimate per frame. Frames without a trough below the
// threshold, silent frames and estimates outside [MinFreq, MaxFreq] are NaN.
func (y *YinTracker) Track(signal []float64) []float64 {
	p := y.params
	if len(signal) == 0 || p.SampleRate <= 0 || p.FrameLength < 4 || p.HopLength <= 0 ||
		p.MinFreq <= 0 || p.MaxFreq <= p.MinFreq {
		return []float64{}
	}

	winLength := p.FrameLength / 2
	sr := float64(p.SampleRate)
	minTau := max(1, int(math.Floor(sr/p.MaxFreq)))
	maxTau := min(int(math.Ceil(sr/p.MinFreq)), p.FrameLength-winLength-1)
	if minTau >= maxTau {
		return []float64{}
	}

	padded := signal
	if p.Center {
		pad := p.FrameLength / 2
		padded = make([]float64, len(signal)+2*pad)
		copy(padded[pad:], signal)
	}
	if len(padded) < p.FrameLength {
		return []float64{}
	}

	numFrames := 1 + (len(padded)-p.FrameLength)/p.HopLength
	f0 := make([]float64, numFrames)
	for i := range numFrames {
		start := i * p.HopLength
		frame := padded[start : start+p.FrameLength]
		f0[i] = y.estimateFrame(frame, winLength, minTau, maxTau)
	}
	return f0
}

func (y *YinTracker) estimateFrame(frame []float64, winLength, minTau, maxTau int) float64 {
	// cumulative energy for sliding windows
	prefix := make([]float64, len(frame)+1)
	for i, v := range frame {
		prefix[i+1] = prefix[i] + v*v
	}
	energyAt := func(tau int) float64 {
		return prefix[tau+winLength] - prefix[tau]
	}

	e0 := energyAt(0)
	if e0 <= 0 {
		return math.NaN()
	}

	acf := y.fft.CrossCorrelate(frame[:winLength], frame, maxTau+1)
	if len(acf) < maxTau+2 {
		return math.NaN()
	}

	// cumulative mean normalized difference function
	cmndf := make([]float64, maxTau+2)
	cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau <= maxTau+1; tau++ {
		d := math.Max(0, e0+energyAt(tau)-2*acf[tau])
		runningSum += d
		if runningSum <= 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = d * float64(tau) / runningSum
	}

	best := -1
	for tau := minTau; tau <= maxTau; tau++ {
		if cmndf[tau] < y.params.Threshold {
			// walk down to the bottom of this trough
			for tau+1 <= maxTau && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			best = tau
			break
		}
	}
	if best < 0 {
		return math.NaN()
	}

	period := parabolicInterpolation(cmndf, best)
	if period <= 0 {
		return math.NaN()
	}
	freq := float64(y.params.SampleRate) / period
	if freq < y.params.MinFreq || freq > y.params.MaxFreq {
		return math.NaN()
	}
	return freq
}

// parabolicInterpolation refines a minimum location from its two neighbours
func parabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2

	if a == 0 {
		return float64(idx)
	}

	shift := -b / (2 * a)
	if math.Abs(shift) > 1 {
		return float64(idx)
	}
	return float64(idx) + shift
}
