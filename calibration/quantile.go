package calibration

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-band/algorithms/common"
	"github.com/RyanBlaney/sonido-band/algorithms/stats"
)

// DefaultQuantileSpec is the default band:percentile table.
const DefaultQuantileSpec = "4.0:0.05,4.5:0.10,5.0:0.20,5.5:0.35,6.0:0.55,6.5:0.70,7.0:0.85,7.5:0.93,8.0:0.97,8.5:0.99,9.0:1.00"

// QuantilePair assigns Band to scores up to the Percentile cut-point.
type QuantilePair struct {
	Band       float64 `json:"band"`
	Percentile float64 `json:"percentile"`
}

// ParseQuantileSpec parses "band:percentile,..." into pairs sorted by
// percentile. The last percentile must be 1 and bands must not decrease.
func ParseQuantileSpec(spec string) ([]QuantilePair, error) {
	var pairs []QuantilePair
	for _, seg := range strings.Split(spec, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		b, p, ok := strings.Cut(seg, ":")
		if !ok {
			return nil, fmt.Errorf("%w: entry %q is not band:percentile", ErrMalformedSpec, seg)
		}
		band, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: band in %q: %v", ErrMalformedSpec, seg, err)
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: percentile in %q: %v", ErrMalformedSpec, seg, err)
		}
		pairs = append(pairs, QuantilePair{Band: band, Percentile: pct})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Percentile < pairs[j].Percentile
	})
	if err := validatePairs(pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

func validatePairs(pairs []QuantilePair) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: empty quantile spec", ErrMalformedSpec)
	}
	for i, p := range pairs {
		if !common.IsFinite(p.Band) || math.IsNaN(p.Percentile) || p.Percentile < 0 || p.Percentile > 1 {
			return fmt.Errorf("%w: invalid pair %v:%v", ErrMalformedSpec, p.Band, p.Percentile)
		}
		if i > 0 && p.Band < pairs[i-1].Band {
			return fmt.Errorf("%w: band %v follows larger band %v", ErrMalformedSpec, p.Band, pairs[i-1].Band)
		}
	}
	if last := pairs[len(pairs)-1].Percentile; last != 1 {
		return fmt.Errorf("%w: last percentile is %v, want 1.0", ErrMalformedSpec, last)
	}
	return nil
}

// Quantile reproduces the band proportions of a reference distribution.
type Quantile struct {
	pairs []QuantilePair
	cuts  []float64
}

// FitQuantile computes the cut-points of reference, clipped to [0, 1], at
// each listed percentile. An empty reference falls back to the uniform
// curve grid.
func FitQuantile(pairs []QuantilePair, reference []float64) (*Quantile, error) {
	if err := validatePairs(pairs); err != nil {
		return nil, err
	}

	clipped := make([]float64, 0, len(reference))
	for _, v := range reference {
		if !math.IsNaN(v) {
			clipped = append(clipped, common.Clamp(v, 0, 1))
		}
	}
	if len(clipped) == 0 {
		clipped = Grid()
	}

	q, err := stats.NewQuantiles(clipped)
	if err != nil {
		return nil, err
	}
	ps := make([]float64, len(pairs))
	for i, p := range pairs {
		ps[i] = p.Percentile
	}
	cuts, err := q.AtAll(ps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSpec, err)
	}

	return newQuantile(pairs, cuts), nil
}

func newQuantile(pairs []QuantilePair, cuts []float64) *Quantile {
	return &Quantile{
		pairs: append([]QuantilePair(nil), pairs...),
		cuts:  append([]float64(nil), cuts...),
	}
}

// Band returns the band of the first cut-point not below x, or the last
// band when x exceeds every cut-point.
func (q *Quantile) Band(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	x = common.Clamp(x, 0, 1)
	idx := sort.SearchFloat64s(q.cuts, x)
	if idx >= len(q.pairs) {
		idx = len(q.pairs) - 1
	}
	lo, hi := q.Bounds()
	return common.HalfBand(q.pairs[idx].Band, lo, hi)
}

func (q *Quantile) Bounds() (float64, float64) {
	return q.pairs[0].Band, q.pairs[len(q.pairs)-1].Band
}

func (q *Quantile) Mode() Mode {
	return ModeQuantile
}

// Pairs returns the band:percentile table.
func (q *Quantile) Pairs() []QuantilePair {
	return append([]QuantilePair(nil), q.pairs...)
}

// CutPoints returns the fitted score cut-points, one per pair.
func (q *Quantile) CutPoints() []float64 {
	return append([]float64(nil), q.cuts...)
}
