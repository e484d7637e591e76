package spectral

import (
	"math"
	"testing"
)

func TestComputeConstantSignal(t *testing.T) {
	got := NewFFT().Compute([]float64{1, 1, 1, 1})
	if len(got) != 4 {
		t.Fatalf("got %d bins, want 4", len(got))
	}
	if math.Abs(real(got[0])-4) > 1e-12 {
		t.Errorf("dc bin = %v, want 4", got[0])
	}
	for k := 1; k < 4; k++ {
		if math.Hypot(real(got[k]), imag(got[k])) > 1e-12 {
			t.Errorf("bin %d = %v, want 0", k, got[k])
		}
	}
	if len(NewFFT().Compute(nil)) != 0 {
		t.Error("empty input should give no bins")
	}
}

func TestCrossCorrelateMatchesDirectSum(t *testing.T) {
	a := []float64{1, -2, 0.5, 3}
	b := []float64{0.25, 1, -1, 2, 0.5, -0.75}
	maxLag := 2

	got := NewFFT().CrossCorrelate(a, b, maxLag)
	if len(got) != maxLag+1 {
		t.Fatalf("got %d lags, want %d", len(got), maxLag+1)
	}
	for tau := 0; tau <= maxLag; tau++ {
		want := 0.0
		for j := range a {
			if j+tau < len(b) {
				want += a[j] * b[j+tau]
			}
		}
		if math.Abs(got[tau]-want) > 1e-9 {
			t.Errorf("r[%d] = %v, want %v", tau, got[tau], want)
		}
	}
}
