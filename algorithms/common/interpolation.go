package common

import "math"

// ResampleLinear resamples a signal from originalRate to targetRate using
// linear interpolation between neighbouring samples.
func ResampleLinear(signal []float64, originalRate, targetRate int) []float64 {
	if len(signal) == 0 || originalRate <= 0 || targetRate <= 0 || originalRate == targetRate {
		return signal
	}

	ratio := float64(originalRate) / float64(targetRate)
	newLength := int(math.Round(float64(len(signal)) / ratio))

	if newLength <= 0 {
		return []float64{}
	}

	resampled := make([]float64, newLength)
	last := len(signal) - 1

	for i := range resampled {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= last {
			resampled[i] = signal[last]
			continue
		}
		frac := pos - float64(idx)
		resampled[i] = signal[idx] + frac*(signal[idx+1]-signal[idx])
	}

	return resampled
}

// Downmix averages interleaved channels into a mono signal.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
