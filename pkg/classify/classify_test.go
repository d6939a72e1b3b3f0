package classify

import (
	"fmt"
	"math"
	"testing"

	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableOf(t *testing.T, recs ...*dataset.Record) *dataset.Table {
	t.Helper()
	tbl, err := dataset.FromRecords(recs)
	require.NoError(t, err)
	return tbl
}

func spreadTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	recs := make([]*dataset.Record, 0, n)
	for i := range n {
		recs = append(recs, &dataset.Record{
			Municipality: fmt.Sprintf("M%02d", i),
			Funding:      float64(1000 + (i*37)%500),
			Approval:     float64(50 + (i*13)%50),
			Quality:      float64(3 + (i*7)%6),
		})
	}
	return tableOf(t, recs...)
}

func TestClassify_ThreeMunicipalities(t *testing.T) {
	tbl := tableOf(t,
		&dataset.Record{Municipality: "A", Funding: 1000, Approval: 50, Quality: 4},
		&dataset.Record{Municipality: "B", Funding: 2000, Approval: 75, Quality: 6},
		&dataset.Record{Municipality: "C", Funding: 3000, Approval: 100, Quality: 8},
	)

	res, err := Classify(tbl)
	require.NoError(t, err)
	assert.Equal(t, ClassesFallback, res.K)
	assert.Len(t, res.Real, 3)
	assert.Len(t, res.Predicted, 3)
	assert.Equal(t, []int{0, 1, 2}, res.Real)
	assert.Equal(t, []int{0, 1, 2}, res.Classes)
	for _, p := range res.Predicted {
		assert.Contains(t, []int{0, 1, 2}, p)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	tbl := spreadTable(t, 40)

	a, err := Classify(tbl)
	require.NoError(t, err)
	b, err := Classify(tbl)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, PredictedScores(dataset.ByMunicipality(tbl)), PredictedScores(dataset.ByMunicipality(tbl)))
}

func TestClassify_FiveClasses(t *testing.T) {
	res, err := Classify(spreadTable(t, 40))
	require.NoError(t, err)
	assert.Equal(t, ClassesDefault, res.K)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Classes)
	assert.Len(t, res.Predicted, len(res.Real))
	assert.Len(t, res.Municipalities, len(res.Real))
}

func TestClassify_PredictedSubsetOfReal(t *testing.T) {
	for _, n := range []int{2, 3, 4, 7, 12, 40} {
		res, err := Classify(spreadTable(t, n))
		require.NoError(t, err, n)
		for _, p := range res.Predicted {
			assert.Contains(t, res.Classes, p, n)
		}
		for _, r := range res.Real {
			assert.Contains(t, res.Classes, r, n)
		}
	}
}

func TestClassify_FallbackOnTies(t *testing.T) {
	recs := []*dataset.Record{
		{Municipality: "low", Funding: 100, Approval: 40, Quality: 3},
		{Municipality: "high", Funding: 900, Approval: 100, Quality: 9},
	}
	for i := range 8 {
		recs = append(recs, &dataset.Record{
			Municipality: fmt.Sprintf("tie%d", i),
			Funding:      500,
			Approval:     70,
			Quality:      6,
		})
	}

	res, err := Classify(tableOf(t, recs...))
	require.NoError(t, err)
	assert.Equal(t, ClassesFallback, res.K)
	assert.Len(t, res.Real, 10)
	assert.Less(t, len(res.Classes), ClassesFallback+1)
}

func TestClassify_AllEqualScores(t *testing.T) {
	tbl := tableOf(t,
		&dataset.Record{Municipality: "A", Funding: 1, Approval: 50, Quality: 5},
		&dataset.Record{Municipality: "B", Funding: 2, Approval: 50, Quality: 5},
		&dataset.Record{Municipality: "C", Funding: 3, Approval: 50, Quality: 5},
	)
	res, err := Classify(tbl)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrClassification)
}

func TestClassify_ZeroMaximum(t *testing.T) {
	tbl := tableOf(t,
		&dataset.Record{Municipality: "A", Funding: 1, Approval: 0, Quality: 0},
		&dataset.Record{Municipality: "B", Funding: 2, Approval: 0, Quality: 0},
	)
	_, err := Classify(tbl)
	assert.ErrorIs(t, err, ErrClassification)
}

func TestClassify_DropsUndefinedReal(t *testing.T) {
	tbl := tableOf(t,
		&dataset.Record{Municipality: "A", Funding: 1000, Approval: 50, Quality: 4},
		&dataset.Record{Municipality: "B", Funding: 2000, Approval: math.NaN(), Quality: 6},
		&dataset.Record{Municipality: "C", Funding: 3000, Approval: 100, Quality: 8},
		&dataset.Record{Municipality: "D", Funding: 2500, Approval: 80, Quality: 7},
	)
	res, err := Classify(tbl)
	require.NoError(t, err)
	assert.Len(t, res.Real, 3)
	assert.NotContains(t, res.Municipalities, "B")
}

func TestClassify_Empty(t *testing.T) {
	_, err := Classify(tableOf(t))
	assert.ErrorIs(t, err, ErrEmptyComparison)

	_, err = Classify(nil)
	assert.ErrorIs(t, err, ErrClassification)
}

func TestRealScores(t *testing.T) {
	munis := []*dataset.Municipality{
		{Name: "A", Approval: 50, Quality: 4},
		{Name: "B", Approval: 100, Quality: 8},
	}
	assert.Equal(t, []float64{0.5, 1}, RealScores(munis))
}

func TestRelabel(t *testing.T) {
	assert.Equal(t, []int{4, 2, 2}, relabel([]int{1, -1, 0}, []int{2, 4}))
	assert.Equal(t, []int{0, 0}, relabel([]int{-1, -1}, []int{0, 1, 2}))
}

func TestRealized(t *testing.T) {
	assert.Equal(t, []int{0, 2, 3}, realized([]int{3, -1, 0, 2, 3, 0}))
	assert.Empty(t, realized([]int{-1}))
}

func TestConfusionMatrix(t *testing.T) {
	m, err := NewConfusionMatrix([]int{0, 1, 2, 2}, []int{0, 2, 2, 1}, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Total)
	assert.Equal(t, [][]int{{1, 0, 0}, {0, 0, 1}, {0, 1, 1}}, m.Counts)
	assert.InDelta(t, 0.5, m.Accuracy(), 1e-9)

	_, err = NewConfusionMatrix([]int{0}, []int{0, 1}, []int{0, 1})
	assert.Error(t, err)

	_, err = NewConfusionMatrix(nil, nil, []int{0})
	assert.ErrorIs(t, err, ErrEmptyComparison)

	_, err = NewConfusionMatrix([]int{5}, []int{0}, []int{0})
	assert.Error(t, err)
}

func TestResultMatrix(t *testing.T) {
	res, err := Classify(spreadTable(t, 25))
	require.NoError(t, err)

	m, err := res.Matrix()
	require.NoError(t, err)
	assert.Equal(t, len(res.Real), m.Total)

	sum := 0
	for _, row := range m.Counts {
		for _, c := range row {
			sum += c
		}
	}
	assert.Equal(t, m.Total, sum)
}
