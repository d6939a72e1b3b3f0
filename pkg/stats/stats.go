package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mchmarny/edupulse/pkg/dataset"
	"gonum.org/v1/gonum/stat"
)

const (
	// TopDefault is the default size of the municipality ranking.
	TopDefault = 10
)

// ErrUnknownColumn is returned for a column that is not an indicator.
var ErrUnknownColumn = errors.New("unknown column")

// Summary describes one numeric column. Fields are nil when undefined.
type Summary struct {
	Column string   `json:"column" yaml:"column"`
	Count  int      `json:"count" yaml:"count"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	Std    *float64 `json:"std" yaml:"std"`
	Min    *float64 `json:"min" yaml:"min"`
	P25    *float64 `json:"p25" yaml:"p25"`
	P50    *float64 `json:"p50" yaml:"p50"`
	P75    *float64 `json:"p75" yaml:"p75"`
	Max    *float64 `json:"max" yaml:"max"`
}

// YearSeries holds per-year aggregates in ascending year order.
type YearSeries struct {
	Years    []int     `json:"years" yaml:"years"`
	Schools  []int     `json:"schools" yaml:"schools"`
	Funding  []float64 `json:"funding" yaml:"funding"`
	Approval []float64 `json:"approval" yaml:"approval"`
	Quality  []float64 `json:"quality" yaml:"quality"`
}

// Correlation is the Pearson coefficient between two columns.
type Correlation struct {
	X     string   `json:"x" yaml:"x"`
	Y     string   `json:"y" yaml:"y"`
	Pairs int      `json:"pairs" yaml:"pairs"`
	R     *float64 `json:"r" yaml:"r"`
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Describe summarizes the indicator columns of a cleaned table.
func Describe(t *dataset.Table) []*Summary {
	list := make([]*Summary, 0, len(dataset.NumericColumns))
	for _, col := range dataset.NumericColumns {
		list = append(list, describe(col, t.Floats(col)))
	}
	return list
}

func describe(col string, vals []float64) *Summary {
	sorted := sortedDefined(vals)
	s := &Summary{Column: col, Count: len(sorted)}
	if len(sorted) == 0 {
		return s
	}

	s.Mean = num(stat.Mean(sorted, nil))
	if len(sorted) > 1 {
		s.Std = num(stat.StdDev(sorted, nil))
	}
	s.Min = num(sorted[0])
	s.P25 = num(Quantile(sorted, 0.25))
	s.P50 = num(Quantile(sorted, 0.5))
	s.P75 = num(Quantile(sorted, 0.75))
	s.Max = num(sorted[len(sorted)-1])
	return s
}

// ByYear aggregates school count, total funding and mean indicators per year.
// Rows without a year are ignored.
func ByYear(t *dataset.Table) *YearSeries {
	type acc struct {
		schools  int
		funding  float64
		approval []float64
		quality  []float64
	}

	groups := make(map[int]*acc)
	for _, r := range t.Records() {
		if r.Year == 0 {
			continue
		}
		g, ok := groups[r.Year]
		if !ok {
			g = &acc{}
			groups[r.Year] = g
		}
		g.schools++
		if !math.IsNaN(r.Funding) {
			g.funding += r.Funding
		}
		g.approval = append(g.approval, r.Approval)
		g.quality = append(g.quality, r.Quality)
	}

	s := &YearSeries{
		Years:    make([]int, 0, len(groups)),
		Schools:  make([]int, 0, len(groups)),
		Funding:  make([]float64, 0, len(groups)),
		Approval: make([]float64, 0, len(groups)),
		Quality:  make([]float64, 0, len(groups)),
	}

	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, y := range years {
		g := groups[y]
		s.Years = append(s.Years, y)
		s.Schools = append(s.Schools, g.schools)
		s.Funding = append(s.Funding, g.funding)
		s.Approval = append(s.Approval, zeroNaN(dataset.Mean(g.approval)))
		s.Quality = append(s.Quality, zeroNaN(dataset.Mean(g.quality)))
	}

	return s
}

func zeroNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// TopMunicipalities ranks municipality aggregates by the given indicator
// column in descending order and returns at most n of them.
func TopMunicipalities(t *dataset.Table, by string, n int) ([]*dataset.Municipality, error) {
	var key func(*dataset.Municipality) float64
	switch by {
	case dataset.ColFunding:
		key = func(m *dataset.Municipality) float64 { return m.Funding }
	case dataset.ColApproval:
		key = func(m *dataset.Municipality) float64 { return m.Approval }
	case dataset.ColQuality:
		key = func(m *dataset.Municipality) float64 { return m.Quality }
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, by)
	}

	if n <= 0 {
		n = TopDefault
	}

	list := dataset.ByMunicipality(t)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := key(list[i]), key(list[j])
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return a > b
	})

	if len(list) > n {
		list = list[:n]
	}
	return list, nil
}

// Correlate computes the Pearson correlation between two columns over the
// rows where both values are defined.
func Correlate(t *dataset.Table, x, y string) (*Correlation, error) {
	xs, ys := t.Floats(x), t.Floats(y)
	if xs == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, x)
	}
	if ys == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, y)
	}

	px := make([]float64, 0, len(xs))
	py := make([]float64, 0, len(ys))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}

	c := &Correlation{X: x, Y: y, Pairs: len(px)}
	if len(px) > 1 {
		c.R = num(stat.Correlation(px, py, nil))
	}
	return c, nil
}
