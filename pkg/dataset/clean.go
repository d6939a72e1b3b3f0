package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"
)

// ErrMissingColumn is returned when a designated numeric column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Clean coerces the indicator columns to numbers, fills missing values with
// the column mean and renames raw columns to display labels.
// Columns may be addressed by raw name or display label, so cleaning a
// cleaned table returns an equivalent table.
func Clean(t *Table) (*Table, error) {
	if t == nil {
		return nil, errors.New("nil table")
	}

	df := t.df
	for _, col := range NumericColumns {
		name, ok := resolve(t, col, numericRaw[col])
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, numericRaw[col])
		}

		vals := t.Floats(name)
		mean := Mean(vals)
		filled := fillMissing(vals, mean)
		slog.Debug("imputed column", "column", col, "mean", mean, "filled", filled)

		df = df.Mutate(series.New(vals, series.Float, name))
	}

	for col, raw := range identifierRaw {
		name, ok := resolve(t, col, raw)
		if !ok {
			continue
		}
		df = df.Mutate(series.New(normalizeIDs(t.Strings(name)), series.String, name))
	}

	for _, raw := range renameOrder {
		label := displayLabels[raw]
		if raw == label || !slices.Contains(df.Names(), raw) {
			continue
		}
		df = df.Rename(label, raw)
	}

	return newTable(df)
}

func resolve(t *Table, label, raw string) (string, bool) {
	switch {
	case t.Has(raw):
		return raw, true
	case t.Has(label):
		return label, true
	default:
		return "", false
	}
}

// Mean returns the arithmetic mean of the defined values, or NaN when none are defined.
func Mean(vals []float64) float64 {
	defined := Defined(vals)
	if len(defined) == 0 {
		return math.NaN()
	}
	return stat.Mean(defined, nil)
}

// Defined returns the non-NaN values.
func Defined(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// fillMissing replaces NaN values in place and returns how many were replaced.
// A NaN mean leaves the slice untouched.
func fillMissing(vals []float64, mean float64) int {
	if math.IsNaN(mean) {
		return 0
	}
	n := 0
	for i, v := range vals {
		if math.IsNaN(v) {
			vals[i] = mean
			n++
		}
	}
	return n
}

// normalizeIDs turns spreadsheet numbers such as "3205309.0" into "3205309".
func normalizeIDs(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f != math.Trunc(f) || math.Abs(f) > 1e15 {
			continue
		}
		out[i] = strconv.FormatInt(int64(f), 10)
	}
	return out
}
