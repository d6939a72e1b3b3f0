package dataset

import (
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strings"
)

// Municipality is the per-municipality mean of the school indicators.
type Municipality struct {
	Name     string  `json:"name" yaml:"name"`
	Code     string  `json:"code,omitempty" yaml:"code,omitempty"`
	Schools  int     `json:"schools" yaml:"schools"`
	Funding  float64 `json:"funding" yaml:"funding"`
	Approval float64 `json:"approval" yaml:"approval"`
	Quality  float64 `json:"quality" yaml:"quality"`
}

// MarshalJSON writes undefined indicator means as null.
func (m Municipality) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name     string   `json:"name"`
		Code     string   `json:"code,omitempty"`
		Schools  int      `json:"schools"`
		Funding  *float64 `json:"funding"`
		Approval *float64 `json:"approval"`
		Quality  *float64 `json:"quality"`
	}{
		Name:     m.Name,
		Code:     m.Code,
		Schools:  m.Schools,
		Funding:  defined(m.Funding),
		Approval: defined(m.Approval),
		Quality:  defined(m.Quality),
	})
}

func defined(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type accumulator struct {
	m        *Municipality
	funding  []float64
	approval []float64
	quality  []float64
}

// ByMunicipality groups rows by municipality name and averages the indicators,
// ignoring undefined values. Rows without a municipality name are skipped.
// The result is sorted by name.
func ByMunicipality(t *Table) []*Municipality {
	groups := make(map[string]*accumulator)
	skipped := 0

	for _, r := range t.Records() {
		name := strings.TrimSpace(r.Municipality)
		if name == "" {
			skipped++
			continue
		}
		g, ok := groups[name]
		if !ok {
			g = &accumulator{m: &Municipality{Name: name, Code: r.MunicipalityCode}}
			groups[name] = g
		}
		g.m.Schools++
		g.funding = append(g.funding, r.Funding)
		g.approval = append(g.approval, r.Approval)
		g.quality = append(g.quality, r.Quality)
	}

	if skipped > 0 {
		slog.Debug("rows without municipality skipped", "count", skipped)
	}

	list := make([]*Municipality, 0, len(groups))
	for _, g := range groups {
		g.m.Funding = Mean(g.funding)
		g.m.Approval = Mean(g.approval)
		g.m.Quality = Mean(g.quality)
		list = append(list, g.m)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return list
}

// Max returns the largest defined value, or NaN when none are defined.
func Max(vals []float64) float64 {
	m := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(m) || v > m {
			m = v
		}
	}
	return m
}
