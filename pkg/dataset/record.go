package dataset

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Record is one school row of a cleaned table.
type Record struct {
	Year             int     `json:"year" yaml:"year"`
	SchoolCode       string  `json:"school_code" yaml:"schoolCode"`
	MunicipalityCode string  `json:"municipality_code" yaml:"municipalityCode"`
	Municipality     string  `json:"municipality" yaml:"municipality"`
	School           string  `json:"school" yaml:"school"`
	Funding          float64 `json:"funding" yaml:"funding"`
	Approval         float64 `json:"approval" yaml:"approval"`
	Quality          float64 `json:"quality" yaml:"quality"`
}

// Records returns the typed rows of a cleaned table.
// Missing text columns yield empty strings and a missing year yields 0.
func (t *Table) Records() []*Record {
	n := t.Len()
	list := make([]*Record, n)

	years := t.Strings(ColYear)
	schoolCodes := t.Strings(ColSchoolCode)
	muniCodes := t.Strings(ColMunicipalityCode)
	munis := t.Strings(ColMunicipality)
	schools := t.Strings(ColSchool)
	funding := t.Floats(ColFunding)
	approval := t.Floats(ColApproval)
	quality := t.Floats(ColQuality)

	for i := range n {
		r := &Record{
			Funding:  at(funding, i),
			Approval: at(approval, i),
			Quality:  at(quality, i),
		}
		if years != nil {
			r.Year, _ = strconv.Atoi(years[i])
		}
		if schoolCodes != nil {
			r.SchoolCode = schoolCodes[i]
		}
		if muniCodes != nil {
			r.MunicipalityCode = muniCodes[i]
		}
		if munis != nil {
			r.Municipality = munis[i]
		}
		if schools != nil {
			r.School = schools[i]
		}
		list[i] = r
	}

	return list
}

func at(vals []float64, i int) float64 {
	if vals == nil {
		return math.NaN()
	}
	return vals[i]
}

// FromRecords builds a cleaned table from typed rows.
func FromRecords(list []*Record) (*Table, error) {
	n := len(list)
	years := make([]string, n)
	schoolCodes := make([]string, n)
	muniCodes := make([]string, n)
	munis := make([]string, n)
	schools := make([]string, n)
	funding := make([]float64, n)
	approval := make([]float64, n)
	quality := make([]float64, n)

	for i, r := range list {
		if r.Year != 0 {
			years[i] = strconv.Itoa(r.Year)
		}
		schoolCodes[i] = r.SchoolCode
		muniCodes[i] = r.MunicipalityCode
		munis[i] = r.Municipality
		schools[i] = r.School
		funding[i] = r.Funding
		approval[i] = r.Approval
		quality[i] = r.Quality
	}

	return newTable(dataframe.New(
		series.New(years, series.String, ColYear),
		series.New(schoolCodes, series.String, ColSchoolCode),
		series.New(muniCodes, series.String, ColMunicipalityCode),
		series.New(munis, series.String, ColMunicipality),
		series.New(schools, series.String, ColSchool),
		series.New(funding, series.Float, ColFunding),
		series.New(approval, series.Float, ColApproval),
		series.New(quality, series.Float, ColQuality),
	))
}
