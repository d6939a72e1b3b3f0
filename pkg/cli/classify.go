package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/edupulse/pkg/classify"
	"github.com/mchmarny/edupulse/pkg/data"
	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/urfave/cli/v3"
)

const noSaveFlagName = "no-save"

func newClassifyCmd() *cli.Command {
	return &cli.Command{
		Name:    "classify",
		Aliases: []string{"c"},
		Usage:   "Bin municipalities by composite score and compare with the noisy prediction",
		Action:  cmdClassify,
		Flags: []cli.Flag{
			newFileFlag(),
			newSheetFlag(),
			newYearFlag(),
			&cli.BoolFlag{
				Name:  noSaveFlagName,
				Usage: "Do not record the run in the database",
			},
		},
	}
}

type ClassifyResult struct {
	Result   *classify.Result          `json:"result" yaml:"result"`
	Matrix   *classify.ConfusionMatrix `json:"matrix" yaml:"matrix"`
	Accuracy float64                   `json:"accuracy" yaml:"accuracy"`
	RunID    string                    `json:"run_id,omitempty" yaml:"runID,omitempty"`
}

func classifyTable(t *dataset.Table) (*ClassifyResult, error) {
	res, err := classify.Classify(t)
	if err != nil {
		return nil, err
	}

	m, err := res.Matrix()
	if err != nil {
		return nil, fmt.Errorf("error building confusion matrix: %w", err)
	}

	return &ClassifyResult{
		Result:   res,
		Matrix:   m,
		Accuracy: m.Accuracy(),
	}, nil
}

func newRun(t *dataset.Table, year *int, res *ClassifyResult) *data.Run {
	return &data.Run{
		Year:     year,
		Rows:     t.Len(),
		K:        res.Result.K,
		Classes:  res.Result.Classes,
		Accuracy: res.Accuracy,
		Matrix:   res.Matrix.Counts,
	}
}

func cmdClassify(_ context.Context, cmd *cli.Command) error {
	year := yearFor(cmd)
	t, err := sourceFor(cmd)(year)
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	res, err := classifyTable(t)
	if err != nil {
		return fmt.Errorf("failed to classify: %w", err)
	}

	if res.Result.K != classify.ClassesDefault {
		slog.Warn("fell back to fewer classes", "k", res.Result.K)
	}

	if !cmd.Bool(noSaveFlagName) {
		run := newRun(t, year, res)
		if err := data.SaveRun(getConfig(cmd).DB, run); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		res.RunID = run.ID
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
