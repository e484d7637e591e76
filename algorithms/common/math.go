package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Epsilon floors denominators of derived ratios.
const Epsilon = 1e-6

// Basic statistical functions used across algorithms using gonum for robustness

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divides by n).
// Returns 0 for fewer than two values.
func PopStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.PopStdDev(data, nil)
}

// FiniteValues returns the finite entries of data in order.
func FiniteValues(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Max returns the largest value in data, or 0 for an empty slice.
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp constrains a value to a range. NaN collapses to min.
func Clamp(value, min, max float64) float64 {
	if math.IsNaN(value) || value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clip01 maps x linearly from [lo, hi] onto [0, 1] and clips.
// A degenerate range yields 0.
func Clip01(x, lo, hi float64) float64 {
	if lo == hi {
		return 0.0
	}
	return Clamp((x-lo)/(hi-lo), 0, 1)
}

// FloorEps returns max(x, Epsilon).
func FloorEps(x float64) float64 {
	return math.Max(x, Epsilon)
}

// RoundHalf rounds x to the nearest multiple of 0.5, ties to even like
// numpy's round(x*2)/2.
func RoundHalf(x float64) float64 {
	return math.RoundToEven(x*2) / 2
}

// HalfBand rounds x to the 0.5 grid and keeps the result inside [lo, hi].
// When a bound is not itself on the grid the nearest in-range grid point is used.
func HalfBand(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	b := RoundHalf(x)
	if b < lo {
		b = math.Ceil(lo*2) / 2
	}
	if b > hi {
		b = math.Floor(hi*2) / 2
	}
	return b
}

// Interpolate performs linear interpolation over ascending x, clipping
// queries outside the range to the boundary values.
func Interpolate(x, y []float64, xi float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0.0
	}
	if len(x) == 1 || xi <= x[0] {
		return y[0]
	}
	if xi >= x[len(x)-1] {
		return y[len(y)-1]
	}

	// Binary search for the interval
	left := 0
	right := len(x) - 1

	for right-left > 1 {
		mid := (left + right) / 2
		if x[mid] <= xi {
			left = mid
		} else {
			right = mid
		}
	}

	t := (xi - x[left]) / (x[right] - x[left])
	return y[left] + t*(y[right]-y[left])
}

// Linspace returns n evenly spaced points over [start, stop] with the
// last point pinned to stop.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if n == 1 {
		return []float64{start}
	}
	step := (stop - start) / float64(n-1)
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)*step + start
	}
	out[n-1] = stop
	return out
}

// NextPowerOfTwo finds the next power of 2 >= n
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
