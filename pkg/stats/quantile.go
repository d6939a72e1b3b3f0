package stats

import (
	"math"
	"sort"
)

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks. Returns NaN for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// sortedDefined returns the non-NaN values in ascending order.
func sortedDefined(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// QuantileEdges returns the distinct edges of k equal-frequency bins over the
// defined values. Duplicate edges are dropped, so fewer than k+1 edges mean
// fewer than k bins could be formed.
func QuantileEdges(vals []float64, k int) []float64 {
	sorted := sortedDefined(vals)
	if len(sorted) == 0 || k < 1 {
		return nil
	}

	edges := make([]float64, 0, k+1)
	for i := 0; i <= k; i++ {
		e := Quantile(sorted, float64(i)/float64(k))
		if len(edges) > 0 && e == edges[len(edges)-1] {
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// Cut assigns each value the index of the edge interval containing it.
// Intervals are right-closed and the first one includes its lower edge.
// Undefined or out-of-range values get -1.
func Cut(vals, edges []float64) []int {
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = -1
		if len(edges) < 2 || math.IsNaN(v) || v < edges[0] || v > edges[len(edges)-1] {
			continue
		}
		j := sort.SearchFloat64s(edges, v)
		if j == 0 {
			out[i] = 0
			continue
		}
		out[i] = j - 1
	}
	return out
}
