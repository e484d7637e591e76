package spectral

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes Fast Fourier Transform using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeInverseReal computes inverse FFT and returns real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))

	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// CrossCorrelate returns r[tau] = sum_j a[j]*b[j+tau] for tau in [0, maxLag].
// Both inputs are zero padded to a power of two so the circular product
// equals the linear correlation over the requested lags.
func (f *FFT) CrossCorrelate(a, b []float64, maxLag int) []float64 {
	if len(a) == 0 || len(b) == 0 || maxLag < 0 {
		return []float64{}
	}

	n := common.NextPowerOfTwo(len(a) + len(b))
	pa := make([]float64, n)
	pb := make([]float64, n)
	copy(pa, a)
	copy(pb, b)

	A := f.Compute(pa)
	B := f.Compute(pb)
	prod := make([]complex128, n)
	for i := range prod {
		ar, ai := real(A[i]), imag(A[i])
		// conj(A) * B
		prod[i] = complex(ar, -ai) * B[i]
	}

	full := f.ComputeInverseReal(prod)
	if maxLag >= len(full) {
		maxLag = len(full) - 1
	}
	return full[:maxLag+1]
}
