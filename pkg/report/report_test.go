package report

import (
	"path/filepath"
	"testing"

	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testTable(t *testing.T, recs ...*dataset.Record) *dataset.Table {
	t.Helper()
	tbl, err := dataset.FromRecords(recs)
	require.NoError(t, err)
	return tbl
}

func TestBuildAndWrite(t *testing.T) {
	tbl := testTable(t,
		&dataset.Record{Year: 2023, Municipality: "A", School: "E1", Funding: 1000, Approval: 50, Quality: 4},
		&dataset.Record{Year: 2023, Municipality: "B", School: "E2", Funding: 2000, Approval: 75, Quality: 6},
		&dataset.Record{Year: 2024, Municipality: "C", School: "E3", Funding: 3000, Approval: 100, Quality: 8},
	)

	r, err := Build(tbl)
	require.NoError(t, err)
	require.NotNil(t, r.Result)
	require.NotNil(t, r.Matrix)
	assert.Len(t, r.Summary, len(dataset.NumericColumns))

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(path, r))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetData, SheetSummary, SheetByYear, SheetClasses, SheetMatrix}, f.GetSheetList())

	v, err := f.GetCellValue(SheetData, "D1")
	require.NoError(t, err)
	assert.Equal(t, dataset.ColMunicipality, v)

	v, err = f.GetCellValue(SheetData, "D4")
	require.NoError(t, err)
	assert.Equal(t, "C", v)

	rows, err := f.GetRows(SheetByYear)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = f.GetRows(SheetClasses)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rows, err = f.GetRows(SheetMatrix)
	require.NoError(t, err)
	assert.Equal(t, "Acurácia", rows[len(rows)-1][0])
}

func TestBuild_Unclassifiable(t *testing.T) {
	tbl := testTable(t,
		&dataset.Record{Year: 2023, Municipality: "A", Funding: 1000, Approval: 50, Quality: 4},
		&dataset.Record{Year: 2023, Municipality: "B", Funding: 1000, Approval: 50, Quality: 4},
	)

	r, err := Build(tbl)
	require.NoError(t, err)
	assert.Nil(t, r.Result)
	assert.Nil(t, r.Matrix)

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, Write(path, r))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetData, SheetSummary, SheetByYear}, f.GetSheetList())
}

func TestReport_Errors(t *testing.T) {
	_, err := Build(nil)
	assert.Error(t, err)
	assert.Error(t, Write(filepath.Join(t.TempDir(), "x.xlsx"), nil))
}
