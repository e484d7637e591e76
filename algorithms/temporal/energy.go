package temporal

import (
	"math"
)

// Energy computes short-time RMS energy over fixed-size overlapping frames
type Energy struct {
	frameSize int
	hopSize   int
	center    bool
}

// NewEnergy creates a new energy calculator. With center set, the signal is
// zero padded by frameSize/2 on both sides so frame i is centred on sample
// i*hopSize.
func NewEnergy(frameSize, hopSize int, center bool) *Energy {
	return &Energy{
		frameSize: frameSize,
		hopSize:   hopSize,
		center:    center,
	}
}

// FrameCount returns how many frames ComputeFrameRMS yields for n samples.
func (e *Energy) FrameCount(n int) int {
	if n == 0 || e.hopSize <= 0 || e.frameSize <= 0 {
		return 0
	}
	if e.center {
		return 1 + n/e.hopSize
	}
	if n < e.frameSize {
		return 0
	}
	return (n-e.frameSize)/e.hopSize + 1
}

// ComputeFrameRMS calculates RMS energy for every frame
func (e *Energy) ComputeFrameRMS(signal []float64) []float64 {
	numFrames := e.FrameCount(len(signal))
	if numFrames == 0 {
		return []float64{}
	}

	offset := 0
	if e.center {
		offset = e.frameSize / 2
	}

	energies := make([]float64, numFrames)
	for i := range numFrames {
		// frame span in padded coordinates mapped back onto the signal
		start := i*e.hopSize - offset
		end := start + e.frameSize

		sumSquares := 0.0
		for j := max(start, 0); j < min(end, len(signal)); j++ {
			sumSquares += signal[j] * signal[j]
		}
		energies[i] = math.Sqrt(sumSquares / float64(e.frameSize))
	}

	return energies
}
