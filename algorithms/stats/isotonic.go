package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
)

// IsotonicRegression is a fitted monotone non-decreasing step-linear function.
//
// Fitting pools duplicate x values into their weighted mean, runs the
// pool-adjacent-violators algorithm, then clips the fitted values to
// [YMin, YMax]. Prediction interpolates linearly between fitted knots and
// clips inputs outside the observed x range to the boundary knots.
type IsotonicRegression struct {
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`

	X []float64 `json:"x"` // knot positions, strictly increasing
	Y []float64 `json:"y"` // fitted values, non-decreasing
}

// NewIsotonicRegression creates an unfitted regression bounded to [yMin, yMax].
func NewIsotonicRegression(yMin, yMax float64) *IsotonicRegression {
	return &IsotonicRegression{YMin: yMin, YMax: yMax}
}

type pooled struct {
	x, y, w float64
}

// Fit fits the regression to (x, y) pairs. Pairs with a non-finite member
// are ignored.
func (ir *IsotonicRegression) Fit(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("length mismatch: %d x values, %d y values", len(x), len(y))
	}

	points := make([]pooled, 0, len(x))
	for i := range x {
		if common.IsFinite(x[i]) && common.IsFinite(y[i]) {
			points = append(points, pooled{x: x[i], y: y[i], w: 1})
		}
	}
	if len(points) == 0 {
		return fmt.Errorf("no finite points to fit")
	}

	sort.SliceStable(points, func(i, j int) bool {
		if points[i].x != points[j].x {
			return points[i].x < points[j].x
		}
		return points[i].y < points[j].y
	})

	// merge ties in x
	unique := make([]pooled, 0, len(points))
	for _, p := range points {
		if n := len(unique); n > 0 && unique[n-1].x == p.x {
			last := &unique[n-1]
			last.y = (last.y*last.w + p.y*p.w) / (last.w + p.w)
			last.w += p.w
			continue
		}
		unique = append(unique, p)
	}

	fitted := pava(unique)

	ir.X = make([]float64, len(unique))
	ir.Y = make([]float64, len(unique))
	for i, p := range unique {
		ir.X[i] = p.x
		ir.Y[i] = common.Clamp(fitted[i], ir.YMin, ir.YMax)
	}
	return nil
}

// pava returns the non-decreasing least-squares fit of the pooled points.
func pava(points []pooled) []float64 {
	type block struct {
		sum, weight float64
		count       int
	}
	blocks := make([]block, 0, len(points))
	for _, p := range points {
		blocks = append(blocks, block{sum: p.y * p.w, weight: p.w, count: 1})
		for len(blocks) > 1 {
			n := len(blocks)
			prev, cur := blocks[n-2], blocks[n-1]
			if prev.sum/prev.weight <= cur.sum/cur.weight {
				break
			}
			blocks[n-2] = block{
				sum:    prev.sum + cur.sum,
				weight: prev.weight + cur.weight,
				count:  prev.count + cur.count,
			}
			blocks = blocks[:n-1]
		}
	}

	out := make([]float64, 0, len(points))
	for _, b := range blocks {
		mean := b.sum / b.weight
		for range b.count {
			out = append(out, mean)
		}
	}
	return out
}

// Fitted reports whether Fit has succeeded.
func (ir *IsotonicRegression) Fitted() bool {
	return len(ir.X) > 0
}

// Predict evaluates the fitted function at v. NaN input yields NaN.
func (ir *IsotonicRegression) Predict(v float64) float64 {
	if !ir.Fitted() || math.IsNaN(v) {
		return math.NaN()
	}
	return common.Interpolate(ir.X, ir.Y, v)
}
