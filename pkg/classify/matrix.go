package classify

import (
	"fmt"
	"slices"
)

// ConfusionMatrix counts entities per (real, predicted) class pair.
// Rows are real classes and columns predicted classes, both in Classes order.
type ConfusionMatrix struct {
	Classes []int   `json:"classes" yaml:"classes"`
	Counts  [][]int `json:"counts" yaml:"counts"`
	Total   int     `json:"total" yaml:"total"`
}

// NewConfusionMatrix tabulates aligned label sequences over the given classes.
func NewConfusionMatrix(real, predicted, classes []int) (*ConfusionMatrix, error) {
	if len(real) != len(predicted) {
		return nil, fmt.Errorf("label sequences differ in length: %d != %d", len(real), len(predicted))
	}
	if len(real) == 0 {
		return nil, ErrEmptyComparison
	}

	idx := make(map[int]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}

	m := &ConfusionMatrix{
		Classes: slices.Clone(classes),
		Counts:  make([][]int, len(classes)),
	}
	for i := range m.Counts {
		m.Counts[i] = make([]int, len(classes))
	}

	for i := range real {
		r, ok := idx[real[i]]
		if !ok {
			return nil, fmt.Errorf("real label %d not in classes %v", real[i], classes)
		}
		p, ok := idx[predicted[i]]
		if !ok {
			return nil, fmt.Errorf("predicted label %d not in classes %v", predicted[i], classes)
		}
		m.Counts[r][p]++
		m.Total++
	}

	return m, nil
}

// Matrix tabulates the result labels.
func (r *Result) Matrix() (*ConfusionMatrix, error) {
	return NewConfusionMatrix(r.Real, r.Predicted, r.Classes)
}

// Accuracy is the share of entities on the diagonal.
func (m *ConfusionMatrix) Accuracy() float64 {
	if m.Total == 0 {
		return 0
	}
	hit := 0
	for i := range m.Counts {
		hit += m.Counts[i][i]
	}
	return float64(hit) / float64(m.Total)
}
