package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is an immutable view over loaded school records.
// Every operation returns a new Table.
type Table struct {
	df dataframe.DataFrame
}

func newTable(df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("building table: %w", df.Err)
	}
	return &Table{df: df}, nil
}

// FromRows builds a table of string columns from a header row and data rows.
// Short rows are padded and long rows truncated to the header width.
func FromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header row")
	}

	cols := make([][]string, len(header))
	for _, r := range rows[1:] {
		if isBlank(r) {
			continue
		}
		for i := range header {
			v := ""
			if i < len(r) {
				v = strings.TrimSpace(r[i])
			}
			cols[i] = append(cols[i], v)
		}
	}

	list := make([]series.Series, len(header))
	for i, h := range header {
		vals := cols[i]
		if vals == nil {
			vals = []string{}
		}
		list[i] = series.New(vals, series.String, h)
	}

	return newTable(dataframe.New(list...))
}

func isBlank(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.df.Nrow()
}

// Columns returns column names in table order.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	return t.df.Names()
}

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	return slices.Contains(t.Columns(), col)
}

// Floats returns a copy of the named column as float64 values.
// Values that are missing or not numeric are NaN. Returns nil for unknown columns.
func (t *Table) Floats(col string) []float64 {
	if !t.Has(col) {
		return nil
	}
	s := t.df.Col(col)
	if s.Type() == series.Float {
		return s.Float()
	}
	out := make([]float64, s.Len())
	for i, v := range s.Records() {
		out[i] = parseFloat(v)
	}
	return out
}

// Strings returns a copy of the named column as strings. Returns nil for unknown columns.
func (t *Table) Strings(col string) []string {
	if !t.Has(col) {
		return nil
	}
	return t.df.Col(col).Records()
}

// Years returns the distinct years present in the table in ascending order.
func (t *Table) Years() []int {
	seen := make(map[int]bool)
	for _, v := range t.Strings(ColYear) {
		y, err := strconv.Atoi(v)
		if err != nil || y == 0 {
			continue
		}
		seen[y] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

// FilterYear returns the rows for the given year.
func (t *Table) FilterYear(year int) (*Table, error) {
	if !t.Has(ColYear) {
		return nil, fmt.Errorf("table has no %q column", ColYear)
	}

	want := strconv.Itoa(year)
	idx := make([]int, 0)
	for i, v := range t.Strings(ColYear) {
		if v == want {
			idx = append(idx, i)
		}
	}

	if len(idx) == 0 {
		return t.empty()
	}
	return newTable(t.df.Subset(idx))
}

func (t *Table) empty() (*Table, error) {
	list := make([]series.Series, 0, len(t.Columns()))
	for _, name := range t.Columns() {
		s := t.df.Col(name)
		if s.Type() == series.Float {
			list = append(list, series.New([]float64{}, series.Float, name))
			continue
		}
		list = append(list, series.New([]string{}, series.String, name))
	}
	return newTable(dataframe.New(list...))
}

func parseFloat(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
