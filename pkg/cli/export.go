package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/edupulse/pkg/report"
	"github.com/urfave/cli/v3"
)

const outFlagName = "out"

func newExportCmd() *cli.Command {
	return &cli.Command{
		Name:   "export",
		Usage:  "Write cleaned data, statistics and classification to a workbook",
		Action: cmdExport,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     outFlagName,
				Aliases:  []string{"o"},
				Usage:    "Path of the xlsx report to write",
				Required: true,
			},
			newFileFlag(),
			newSheetFlag(),
			newYearFlag(),
		},
	}
}

type ExportResult struct {
	Path       string `json:"path" yaml:"path"`
	Rows       int    `json:"rows" yaml:"rows"`
	Classified bool   `json:"classified" yaml:"classified"`
}

func cmdExport(_ context.Context, cmd *cli.Command) error {
	t, err := sourceFor(cmd)(yearFor(cmd))
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	r, err := report.Build(t)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	out := cmd.String(outFlagName)
	if err := report.Write(out, r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	slog.Info("report written", "path", out)

	res := &ExportResult{
		Path:       out,
		Rows:       t.Len(),
		Classified: r.Result != nil,
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
