package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mchmarny/edupulse/pkg/data"
	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/mchmarny/edupulse/pkg/stats"
	"github.com/urfave/cli/v3"
)

const (
	fileFlagName  = "file"
	sheetFlagName = "sheet"
	yearFlagName  = "year"
)

var (
	errNoData = errors.New("no data imported, run import first or pass --file")

	columnAliases = map[string]string{
		"repasse":   dataset.ColFunding,
		"funding":   dataset.ColFunding,
		"aprovacao": dataset.ColApproval,
		"approval":  dataset.ColApproval,
		"ideb":      dataset.ColQuality,
		"quality":   dataset.ColQuality,
	}
)

func newFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    fileFlagName,
		Aliases: []string{"f"},
		Usage:   "Path to the PDDE workbook (default: imported data)",
		Sources: cli.EnvVars("EDUPULSE_FILE"),
	}
}

func newSheetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  sheetFlagName,
		Usage: "Workbook sheet name (default: from config)",
	}
}

func newYearFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    yearFlagName,
		Aliases: []string{"y"},
		Usage:   "Limit to a single year (optional)",
	}
}

// tableSource returns the cleaned table, optionally limited to one year.
type tableSource func(year *int) (*dataset.Table, error)

func fileSource(c *dataset.Cache, path, sheet string) tableSource {
	return func(year *int) (*dataset.Table, error) {
		t, err := c.LoadAndClean(path, sheet)
		if err != nil {
			return nil, err
		}
		if year == nil {
			return t, nil
		}
		return t.FilterYear(*year)
	}
}

func dbSource(db *sql.DB) tableSource {
	return func(year *int) (*dataset.Table, error) {
		list, err := data.GetRecords(db, year)
		if err != nil {
			return nil, fmt.Errorf("error reading records: %w", err)
		}
		if len(list) == 0 && year == nil {
			return nil, errNoData
		}
		return dataset.FromRecords(list)
	}
}

// sourceFor reads the workbook from --file or the configured input file,
// and the imported records when neither is set.
func sourceFor(cmd *cli.Command) tableSource {
	cfg := getConfig(cmd)
	if path := fileFor(cmd); path != "" {
		return fileSource(cfg.Cache, path, sheetFor(cmd))
	}
	return dbSource(cfg.DB)
}

func fileFor(cmd *cli.Command) string {
	if path := cmd.String(fileFlagName); path != "" {
		return path
	}
	return getConfig(cmd).Settings.InputFile
}

func sheetFor(cmd *cli.Command) string {
	if s := cmd.String(sheetFlagName); s != "" {
		return s
	}
	return getConfig(cmd).Settings.Sheet
}

func yearFor(cmd *cli.Command) *int {
	if !cmd.IsSet(yearFlagName) {
		return nil
	}
	y := cmd.Int(yearFlagName)
	return &y
}

// resolveColumn maps a short indicator name or display label to its column.
func resolveColumn(name string) (string, error) {
	if col, ok := columnAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return col, nil
	}
	for _, col := range dataset.NumericColumns {
		if name == col {
			return col, nil
		}
	}
	return "", fmt.Errorf("%w: %s", stats.ErrUnknownColumn, name)
}
