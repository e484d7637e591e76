package stats

import "fmt"

// QuadraticWeightedKappa measures agreement between two integer ratings
// with quadratic disagreement weights. minRating and maxRating bound the
// rating scale; pass the observed extremes when the scale is not fixed.
func QuadraticWeightedKappa(truth, pred []int, minRating, maxRating int) (float64, error) {
	if len(truth) != len(pred) {
		return 0, fmt.Errorf("length mismatch: %d vs %d", len(truth), len(pred))
	}
	if len(truth) == 0 {
		return 0, fmt.Errorf("empty ratings")
	}
	if maxRating < minRating {
		return 0, fmt.Errorf("invalid rating range [%d, %d]", minRating, maxRating)
	}

	n := maxRating - minRating + 1
	observed := make([][]float64, n)
	for i := range observed {
		observed[i] = make([]float64, n)
	}
	for i := range truth {
		a, b := truth[i]-minRating, pred[i]-minRating
		if a < 0 || a >= n || b < 0 || b >= n {
			return 0, fmt.Errorf("rating pair (%d, %d) outside [%d, %d]", truth[i], pred[i], minRating, maxRating)
		}
		observed[a][b]++
	}

	actHist := make([]float64, n)
	predHist := make([]float64, n)
	total := 0.0
	for i := range n {
		for j := range n {
			actHist[i] += observed[i][j]
			predHist[j] += observed[i][j]
			total += observed[i][j]
		}
	}
	total = max(total, 1.0)

	num, den := 0.0, 0.0
	for i := range n {
		for j := range n {
			w := 0.0
			if n > 1 {
				d := float64(i - j)
				w = d * d / float64((n-1)*(n-1))
			}
			expected := actHist[i] * predHist[j] / total
			num += w * observed[i][j]
			den += w * expected
		}
	}
	if den <= 0 {
		return 0, nil
	}
	return 1.0 - num/den, nil
}

// RatingBounds returns the smallest and largest rating across both slices.
func RatingBounds(truth, pred []int) (int, int) {
	lo, hi := 0, 0
	first := true
	for _, s := range [][]int{truth, pred} {
		for _, v := range s {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}
