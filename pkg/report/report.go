// Package report exports the cleaned data and analysis results to a workbook.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/mchmarny/edupulse/pkg/classify"
	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/mchmarny/edupulse/pkg/stats"
	"github.com/xuri/excelize/v2"
)

const (
	SheetData    = "Dados"
	SheetSummary = "Estatisticas"
	SheetByYear  = "PorAno"
	SheetClasses = "Classes"
	SheetMatrix  = "Matriz"

	colWidth = 20
)

// Report is the content of an exported workbook.
type Report struct {
	Table   *dataset.Table
	Summary []*stats.Summary
	ByYear  *stats.YearSeries
	Result  *classify.Result
	Matrix  *classify.ConfusionMatrix
}

// Build computes the summary, yearly series and classification of t.
// A table that cannot be classified still produces a report without the
// classification sheets.
func Build(t *dataset.Table) (*Report, error) {
	if t == nil {
		return nil, errors.New("table required")
	}

	r := &Report{
		Table:   t,
		Summary: stats.Describe(t),
		ByYear:  stats.ByYear(t),
	}

	res, err := classify.Classify(t)
	if err != nil {
		if errors.Is(err, classify.ErrClassification) || errors.Is(err, classify.ErrEmptyComparison) {
			slog.Warn("classification skipped", "error", err)
			return r, nil
		}
		return nil, err
	}

	m, err := res.Matrix()
	if err != nil {
		return nil, fmt.Errorf("error building confusion matrix: %w", err)
	}

	r.Result = res
	r.Matrix = m
	return r, nil
}

// Write saves the report as an xlsx workbook at path.
func Write(path string, r *Report) error {
	if r == nil || r.Table == nil {
		return errors.New("report required")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	if err := writeData(f, r.Table); err != nil {
		return err
	}
	if err := writeSummary(f, r.Summary); err != nil {
		return err
	}
	if err := writeByYear(f, r.ByYear); err != nil {
		return err
	}
	if r.Result != nil {
		if err := writeClasses(f, r.Result); err != nil {
			return err
		}
	}
	if r.Matrix != nil {
		if err := writeMatrix(f, r.Matrix); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving workbook: %s: %w", path, err)
	}

	slog.Debug("report saved", "path", path, "sheets", f.GetSheetList())
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("error writing header %s: %w", h, err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, colWidth); err != nil {
			return fmt.Errorf("error sizing column %s: %w", h, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("error writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func newSheet(f *excelize.File, name string) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("error creating sheet %s: %w", name, err)
	}
	return nil
}

func cellFloat(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func cellPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func writeData(f *excelize.File, t *dataset.Table) error {
	headers := []string{
		dataset.ColYear, dataset.ColSchoolCode, dataset.ColMunicipalityCode,
		dataset.ColMunicipality, dataset.ColSchool,
		dataset.ColFunding, dataset.ColApproval, dataset.ColQuality,
	}
	if err := writeHeader(f, SheetData, headers); err != nil {
		return err
	}

	for i, rec := range t.Records() {
		vals := []any{
			rec.Year, rec.SchoolCode, rec.MunicipalityCode, rec.Municipality, rec.School,
			cellFloat(rec.Funding), cellFloat(rec.Approval), cellFloat(rec.Quality),
		}
		if err := writeRow(f, SheetData, i+2, vals); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, list []*stats.Summary) error {
	if err := newSheet(f, SheetSummary); err != nil {
		return err
	}
	headers := []string{"Coluna", "Contagem", "Média", "Desvio Padrão", "Mínimo", "25%", "50%", "75%", "Máximo"}
	if err := writeHeader(f, SheetSummary, headers); err != nil {
		return err
	}

	for i, s := range list {
		vals := []any{
			s.Column, s.Count, cellPtr(s.Mean), cellPtr(s.Std), cellPtr(s.Min),
			cellPtr(s.P25), cellPtr(s.P50), cellPtr(s.P75), cellPtr(s.Max),
		}
		if err := writeRow(f, SheetSummary, i+2, vals); err != nil {
			return err
		}
	}
	return nil
}

func writeByYear(f *excelize.File, ys *stats.YearSeries) error {
	if err := newSheet(f, SheetByYear); err != nil {
		return err
	}
	headers := []string{dataset.ColYear, "Escolas", dataset.ColFunding, dataset.ColApproval, dataset.ColQuality}
	if err := writeHeader(f, SheetByYear, headers); err != nil {
		return err
	}
	if ys == nil {
		return nil
	}

	for i, y := range ys.Years {
		vals := []any{y, ys.Schools[i], cellFloat(ys.Funding[i]), cellFloat(ys.Approval[i]), cellFloat(ys.Quality[i])}
		if err := writeRow(f, SheetByYear, i+2, vals); err != nil {
			return err
		}
	}
	return nil
}

func writeClasses(f *excelize.File, r *classify.Result) error {
	if err := newSheet(f, SheetClasses); err != nil {
		return err
	}
	if err := writeHeader(f, SheetClasses, []string{dataset.ColMunicipality, "Classe Real", "Classe Prevista"}); err != nil {
		return err
	}

	for i, name := range r.Municipalities {
		if err := writeRow(f, SheetClasses, i+2, []any{name, r.Real[i], r.Predicted[i]}); err != nil {
			return err
		}
	}
	return nil
}

func writeMatrix(f *excelize.File, m *classify.ConfusionMatrix) error {
	if err := newSheet(f, SheetMatrix); err != nil {
		return err
	}

	headers := make([]string, 0, len(m.Classes)+1)
	headers = append(headers, "Real \\ Previsto")
	for _, c := range m.Classes {
		headers = append(headers, strconv.Itoa(c))
	}
	if err := writeHeader(f, SheetMatrix, headers); err != nil {
		return err
	}

	for i, c := range m.Classes {
		vals := make([]any, 0, len(m.Classes)+1)
		vals = append(vals, c)
		for _, n := range m.Counts[i] {
			vals = append(vals, n)
		}
		if err := writeRow(f, SheetMatrix, i+2, vals); err != nil {
			return err
		}
	}

	row := len(m.Classes) + 3
	if err := writeRow(f, SheetMatrix, row, []any{"Acurácia", m.Accuracy()}); err != nil {
		return err
	}
	return nil
}
