// Package classify ranks municipalities by a composite performance score and
// compares that labeling with a simulated prediction of the same classes.
package classify

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/mchmarny/edupulse/pkg/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// ClassesDefault is the number of quantile classes tried first.
	ClassesDefault = 5
	// ClassesFallback is used once when ClassesDefault bins cannot be formed.
	ClassesFallback = 3

	realApprovalWeight = 0.5
	realQualityWeight  = 0.5

	predApprovalWeight = 0.4
	predFundingWeight  = 0.2
	predQualityWeight  = 0.4

	noiseSigma = 0.05
	noiseSeed  = 42
)

var (
	// ErrClassification is returned when no usable class set can be formed.
	ErrClassification = errors.New("classification failed")

	// ErrEmptyComparison is returned when no entity has both a real and a predicted class.
	ErrEmptyComparison = errors.New("no comparable data")
)

// Result holds the aligned real and predicted labels per municipality.
type Result struct {
	Municipalities []string `json:"municipalities" yaml:"municipalities"`
	Real           []int    `json:"real" yaml:"real"`
	Predicted      []int    `json:"predicted" yaml:"predicted"`
	Classes        []int    `json:"classes" yaml:"classes"`
	K              int      `json:"k" yaml:"k"`
}

// Classify aggregates the cleaned table by municipality, bins a real composite
// score into quantile classes and bins a noisy predicted score into the same
// realized classes. The returned sequences have equal length.
func Classify(t *dataset.Table) (*Result, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil table", ErrClassification)
	}

	munis := dataset.ByMunicipality(t)
	if len(munis) == 0 {
		return nil, fmt.Errorf("%w: no municipalities", ErrEmptyComparison)
	}

	realScores := RealScores(munis)

	realLabels, k, err := binReal(realScores)
	if err != nil {
		return nil, err
	}

	classes := realized(realLabels)
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: no defined composite score", ErrClassification)
	}

	predScores := PredictedScores(munis)
	predLabels := relabel(stats.Cut(predScores, stats.QuantileEdges(predScores, len(classes))), classes)

	res := &Result{
		Municipalities: make([]string, 0, len(munis)),
		Real:           make([]int, 0, len(munis)),
		Predicted:      make([]int, 0, len(munis)),
		Classes:        classes,
		K:              k,
	}

	for i, m := range munis {
		if realLabels[i] < 0 || predLabels[i] < 0 {
			continue
		}
		res.Municipalities = append(res.Municipalities, m.Name)
		res.Real = append(res.Real, realLabels[i])
		res.Predicted = append(res.Predicted, predLabels[i])
	}

	if len(res.Real) == 0 || len(res.Predicted) == 0 {
		return nil, ErrEmptyComparison
	}

	slog.Debug("classified",
		"municipalities", len(munis),
		"compared", len(res.Real),
		"k", k,
		"classes", classes,
	)

	return res, nil
}

// RealScores computes 0.5*approval/max + 0.5*quality/max per municipality.
func RealScores(munis []*dataset.Municipality) []float64 {
	approval, _, quality := columns(munis)
	ra, rq := normalize(approval), normalize(quality)

	out := make([]float64, len(munis))
	for i := range munis {
		out[i] = realApprovalWeight*ra[i] + realQualityWeight*rq[i]
	}
	return out
}

// PredictedScores computes 0.4*approval/max + 0.2*funding/max + 0.4*quality/max
// per municipality plus N(0, 0.05) noise from a fixed seed. One draw is made
// per municipality in input order, so identical input yields identical scores.
func PredictedScores(munis []*dataset.Municipality) []float64 {
	approval, funding, quality := columns(munis)
	ra, rf, rq := normalize(approval), normalize(funding), normalize(quality)

	noise := distuv.Normal{
		Mu:    0,
		Sigma: noiseSigma,
		Src:   rand.NewPCG(noiseSeed, 0),
	}

	out := make([]float64, len(munis))
	for i := range munis {
		e := noise.Rand()
		out[i] = predApprovalWeight*ra[i] + predFundingWeight*rf[i] + predQualityWeight*rq[i] + e
	}
	return out
}

func columns(munis []*dataset.Municipality) (approval, funding, quality []float64) {
	approval = make([]float64, len(munis))
	funding = make([]float64, len(munis))
	quality = make([]float64, len(munis))
	for i, m := range munis {
		approval[i] = m.Approval
		funding[i] = m.Funding
		quality[i] = m.Quality
	}
	return approval, funding, quality
}

// normalize divides by the largest defined value. A zero or undefined maximum
// makes every ratio NaN.
func normalize(vals []float64) []float64 {
	m := dataset.Max(vals)
	out := make([]float64, len(vals))
	for i, v := range vals {
		if m == 0 || math.IsNaN(m) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v / m
	}
	return out
}

// binReal tries ClassesDefault equal-frequency bins and retries once with
// ClassesFallback when duplicate edges or too few entities prevent it.
func binReal(scores []float64) ([]int, int, error) {
	defined := len(dataset.Defined(scores))

	edges := stats.QuantileEdges(scores, ClassesDefault)
	if defined >= ClassesDefault && len(edges) == ClassesDefault+1 {
		return stats.Cut(scores, edges), ClassesDefault, nil
	}

	slog.Debug("quantile bins not feasible, falling back",
		"requested", ClassesDefault,
		"edges", len(edges),
		"defined", defined,
		"fallback", ClassesFallback,
	)

	edges = stats.QuantileEdges(scores, ClassesFallback)
	if len(edges) < 2 {
		return nil, 0, fmt.Errorf("%w: %d defined scores yield no %d-class binning", ErrClassification, defined, ClassesFallback)
	}
	return stats.Cut(scores, edges), ClassesFallback, nil
}

// realized returns the distinct defined labels in ascending order.
func realized(labels []int) []int {
	out := make([]int, 0)
	for _, l := range labels {
		if l >= 0 && !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return out
}

// relabel maps the i-th produced bin to the i-th realized class. Entities
// without a bin are assigned the lowest realized class.
func relabel(bins, classes []int) []int {
	produced := realized(bins)
	mapping := make(map[int]int, len(produced))
	for i, b := range produced {
		if i < len(classes) {
			mapping[b] = classes[i]
		}
	}

	out := make([]int, len(bins))
	for i, b := range bins {
		c, ok := mapping[b]
		if !ok {
			c = classes[0]
		}
		out[i] = c
	}
	return out
}
