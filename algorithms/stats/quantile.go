package stats

import (
	"fmt"
	"math"
	"sort"
)

// Quantiles computes empirical quantiles with linear interpolation between
// closest ranks (Hyndman & Fan R-7, numpy's "linear" method).
//
// References:
//   - Hyndman, R.J., Fan, Y. (1996). "Sample Quantiles in Statistical Packages"
//     The American Statistician, 50(4), 361-365
type Quantiles struct {
	sorted []float64
}

// NewQuantiles sorts a copy of data. NaN values are dropped.
func NewQuantiles(data []float64) (*Quantiles, error) {
	sorted := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	sort.Float64s(sorted)
	return &Quantiles{sorted: sorted}, nil
}

// Len returns the number of values the quantiles are computed over.
func (q *Quantiles) Len() int {
	return len(q.sorted)
}

// At returns the p-quantile for p in [0, 1].
func (q *Quantiles) At(p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("quantile %v outside [0, 1]", p)
	}
	n := len(q.sorted)
	if n == 1 {
		return q.sorted[0], nil
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return q.sorted[n-1], nil
	}
	frac := h - float64(lo)
	return q.sorted[lo] + frac*(q.sorted[lo+1]-q.sorted[lo]), nil
}

// AtAll evaluates several quantiles at once.
func (q *Quantiles) AtAll(ps []float64) ([]float64, error) {
	out := make([]float64, len(ps))
	for i, p := range ps {
		v, err := q.At(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
