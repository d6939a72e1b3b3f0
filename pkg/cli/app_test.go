package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/edupulse/pkg/config"
	"github.com/mchmarny/edupulse/pkg/data"
	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMain(m *testing.M) {
	initLogging(false)
	os.Exit(m.Run())
}

var testHeader = []any{
	dataset.RawYear, dataset.RawSchoolCode, dataset.RawMunicipalityCode, dataset.RawMunicipality,
	dataset.RawSchool, dataset.RawFunding, dataset.RawApproval, dataset.RawQuality,
}

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	return writeRows(t, dir, [][]any{
		{2023, 32001, 3205309, "Vitória", "EEEF A", 1000.0, 80.0, 5.0},
		{2023, 32002, 3205309, "Vitória", "EEEF B", "", 90.0, 6.0},
		{2023, 32003, 3201308, "Cariacica", "EEEF C", 3000.0, 60.0, 4.0},
		{2024, 32004, 3201308, "Cariacica", "EEEF D", 2000.0, 70.0, ""},
		{2024, 32005, 3203205, "Linhares", "EEEF E", 4000.0, 95.0, 7.0},
	})
}

// writeNoQualityWorkbook leaves the IDEB column blank in every row.
func writeNoQualityWorkbook(t *testing.T, dir string) string {
	t.Helper()
	return writeRows(t, dir, [][]any{
		{2023, 32001, 3205309, "Vitória", "EEEF A", 1000.0, 80.0, ""},
		{2023, 32003, 3201308, "Cariacica", "EEEF C", 3000.0, 60.0, ""},
		{2024, 32005, 3203205, "Linhares", "EEEF E", 4000.0, 95.0, ""},
	})
}

func writeRows(t *testing.T, dir string, body [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(dataset.DefaultSheet)
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	rows := append([][]any{testHeader}, body...)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow(dataset.DefaultSheet, cell, &row))
	}

	path := filepath.Join(dir, "pdde.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

// runApp executes the CLI with an isolated config dir and database.
func runApp(t *testing.T, dir, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.Reader = strings.NewReader(input)

	base := []string{appName, "--config", dir, "--db", filepath.Join(dir, data.DataFileName)}
	err := app.Run(context.Background(), append(base, args...))
	return out.String(), err
}

func TestImportDescribeClassify(t *testing.T) {
	dir := t.TempDir()
	wb := writeWorkbook(t, dir)

	out, err := runApp(t, dir, "", "import", "--file", wb)
	require.NoError(t, err)

	var imp ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &imp))
	assert.Equal(t, 5, imp.Import.Rows)
	assert.Equal(t, []int{2023, 2024}, imp.Years)
	assert.Equal(t, 3, imp.Municipalities)

	out, err = runApp(t, dir, "", "describe", "--top", "2")
	require.NoError(t, err)

	var desc DescribeResult
	require.NoError(t, json.Unmarshal([]byte(out), &desc))
	assert.Equal(t, 5, desc.Rows)
	assert.Len(t, desc.Summary, len(dataset.NumericColumns))
	assert.Len(t, desc.Top, 2)
	assert.Equal(t, "Linhares", desc.Top[0].Name)
	assert.Len(t, desc.Correlations, 3)

	out, err = runApp(t, dir, "", "describe", "--year", "2024")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &desc))
	assert.Equal(t, 2, desc.Rows)

	out, err = runApp(t, dir, "", "classify")
	require.NoError(t, err)

	var cls ClassifyResult
	require.NoError(t, json.Unmarshal([]byte(out), &cls))
	assert.Equal(t, 3, cls.Result.K)
	assert.Len(t, cls.Result.Real, 3)
	assert.NotEmpty(t, cls.RunID)

	out, err = runApp(t, dir, "", "runs")
	require.NoError(t, err)

	var runs []*data.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, cls.RunID, runs[0].ID)
	assert.Equal(t, 5, runs[0].Rows)
}

func TestClassify_FileNoSave(t *testing.T) {
	dir := t.TempDir()
	wb := writeWorkbook(t, dir)

	_, err := runApp(t, dir, "", "classify", "--file", wb, "--no-save")
	require.NoError(t, err)

	out, err := runApp(t, dir, "", "runs")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestDescribe_NoData(t *testing.T) {
	dir := t.TempDir()
	_, err := runApp(t, dir, "", "describe")
	assert.ErrorIs(t, err, errNoData)
}

func TestDescribe_ConfiguredInputFile(t *testing.T) {
	dir := t.TempDir()
	c := config.Default()
	c.InputFile = writeWorkbook(t, dir)
	require.NoError(t, config.Save(dir, c))

	out, err := runApp(t, dir, "", "describe")
	require.NoError(t, err)

	var desc DescribeResult
	require.NoError(t, json.Unmarshal([]byte(out), &desc))
	assert.Equal(t, 5, desc.Rows)

	_, err = runApp(t, dir, "", "classify", "--no-save")
	assert.NoError(t, err)

	// the flag wins over the config file
	_, err = runApp(t, dir, "", "describe", "--file", filepath.Join(dir, "missing.xlsx"))
	assert.ErrorIs(t, err, dataset.ErrFileNotFound)
}

func TestDescribe_MissingQualityColumn(t *testing.T) {
	dir := t.TempDir()
	wb := writeNoQualityWorkbook(t, dir)

	out, err := runApp(t, dir, "", "describe", "--file", wb)
	require.NoError(t, err)

	var body struct {
		Top []map[string]any `json:"top"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Top, 3)
	assert.Nil(t, body.Top[0]["quality"])
	assert.NotNil(t, body.Top[0]["funding"])
}

func TestImport_MissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := runApp(t, dir, "", "import", "--file", filepath.Join(dir, "missing.xlsx"))
	assert.ErrorIs(t, err, dataset.ErrFileNotFound)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	wb := writeWorkbook(t, dir)
	path := filepath.Join(dir, "report.xlsx")

	out, err := runApp(t, dir, "", "--format", "yaml", "export", "--file", wb, "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "classified: true")

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	wb := writeWorkbook(t, dir)

	_, err := runApp(t, dir, "", "import", "--file", wb)
	require.NoError(t, err)

	out, err := runApp(t, dir, "n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")

	out, err = runApp(t, dir, "y\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset complete.")

	_, err = runApp(t, dir, "", "describe")
	assert.ErrorIs(t, err, errNoData)
}

func TestResolveColumn(t *testing.T) {
	col, err := resolveColumn("IDEB")
	require.NoError(t, err)
	assert.Equal(t, dataset.ColQuality, col)

	col, err = resolveColumn(dataset.ColFunding)
	require.NoError(t, err)
	assert.Equal(t, dataset.ColFunding, col)

	_, err = resolveColumn("escola")
	assert.Error(t, err)
}

func TestEncodeTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, encodeTo(&buf, formatYAML, map[string]int{"rows": 2}))
	assert.Equal(t, "rows: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, encodeTo(&buf, formatJSON, map[string]int{"rows": 2}))
	assert.JSONEq(t, `{"rows": 2}`, buf.String())
}
