package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/edupulse/pkg/data"
	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/urfave/cli/v3"
)

func newImportCmd() *cli.Command {
	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Load, clean and store the PDDE workbook",
		UsageText: `edupulse import --file pdde.xlsx                # import the default sheet
   edupulse import --file pdde.xlsx --sheet PDDE  # import a specific sheet
   edupulse import                                # import the file set in config`,
		Action: cmdImport,
		Flags: []cli.Flag{
			newFileFlag(),
			newSheetFlag(),
		},
	}
}

type ImportResult struct {
	Import         *data.Import `json:"import" yaml:"import"`
	Years          []int        `json:"years" yaml:"years"`
	Municipalities int          `json:"municipalities" yaml:"municipalities"`
	Duration       string       `json:"duration" yaml:"duration"`
}

func cmdImport(_ context.Context, cmd *cli.Command) error {
	start := time.Now()
	cfg := getConfig(cmd)

	path := fileFor(cmd)
	if path == "" {
		return cli.ShowSubcommandHelp(cmd)
	}
	sheet := sheetFor(cmd)

	slog.Info("importing workbook", "path", path, "sheet", sheet)
	t, err := dataset.LoadAndClean(path, sheet)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	imp, err := data.SaveRecords(cfg.DB, path, sheet, t.Records())
	if err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	res := &ImportResult{
		Import:         imp,
		Years:          t.Years(),
		Municipalities: len(dataset.ByMunicipality(t)),
		Duration:       time.Since(start).String(),
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
