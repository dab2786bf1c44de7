package rfm

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"sales-rfm/pkg/models"
)

// ErrDegenerateBins is returned in strict mode when the population cannot be
// cut into the requested number of distinct equal-count bins.
var ErrDegenerateBins = errors.New("quantile bin edges are not unique")

// Linspace returns q+1 evenly spaced probabilities from 0 to 1 inclusive.
func Linspace(q int) []float64 {
	out := make([]float64, q+1)
	step := 1 / float64(q)
	for i := range out {
		out[i] = float64(i) * step
	}
	out[q] = 1
	return out
}

// Quantiles evaluates each probability in qs against sorted (ascending) data
// using linear interpolation between closest ranks: the virtual index of p is
// p*(n-1).
func Quantiles(sorted []float64, qs []float64) []float64 {
	n := len(sorted)
	out := make([]float64, len(qs))
	if n == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i, p := range qs {
		virtual := p * float64(n-1)
		prev := math.Floor(virtual)
		gamma := virtual - prev
		lo := clampIndex(int(prev), n)
		hi := clampIndex(int(prev)+1, n)
		out[i] = lerp(sorted[lo], sorted[hi], gamma)
	}
	return out
}

// lerp interpolates from the nearer endpoint to limit rounding drift.
func lerp(a, b, t float64) float64 {
	if a == b {
		return a
	}
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// Qcut assigns each value a 0-based bin in [0, q) using equal-population edges
// at the quantiles Linspace(q). A value belongs to the first bin whose upper
// edge is >= the value; the minimum belongs to bin 0.
//
// When two edges coincide (too few distinct values or customers) strict mode
// returns ErrDegenerateBins. Otherwise the coinciding bins are merged and
// values land in the lowest of them.
func Qcut(values []float64, q int, strict bool) ([]int, error) {
	bins := make([]int, len(values))
	if len(values) == 0 {
		return bins, nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	edges := Quantiles(sorted, Linspace(q))

	if strict {
		if distinct := len(slices.Compact(slices.Clone(edges))); distinct < len(edges) {
			return nil, fmt.Errorf("%w: %d of %d edges distinct over %d values",
				ErrDegenerateBins, distinct, len(edges), len(values))
		}
	}

	for i, v := range values {
		idx := sort.SearchFloat64s(edges, v)
		if idx == 0 {
			idx = 1
		}
		bins[i] = idx - 1
	}
	return bins, nil
}

// RankFirst ranks values 1..n ascending; equal values are ranked in the order
// they appear.
func RankFirst(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})
	ranks := make([]float64, len(values))
	for pos, idx := range order {
		ranks[idx] = float64(pos + 1)
	}
	return ranks
}

// Box computes the five-number summary of values, or nil when values is empty.
func Box(values []float64) *models.BoxStats {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	q := Quantiles(sorted, []float64{0, 0.25, 0.5, 0.75, 1})
	return &models.BoxStats{Min: q[0], Q1: q[1], Median: q[2], Q3: q[3], Max: q[4]}
}
