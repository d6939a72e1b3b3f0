package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/mchmarny/edupulse/pkg/stats"
	"github.com/urfave/cli/v3"
)

const (
	topFlagName = "top"
	byFlagName  = "by"
)

func newDescribeCmd() *cli.Command {
	return &cli.Command{
		Name:    "describe",
		Aliases: []string{"d"},
		Usage:   "Summarize the indicators, yearly trend and top municipalities",
		Action:  cmdDescribe,
		Flags: []cli.Flag{
			newFileFlag(),
			newSheetFlag(),
			newYearFlag(),
			&cli.IntFlag{
				Name:  topFlagName,
				Usage: "Number of municipalities in the ranking",
				Value: stats.TopDefault,
			},
			&cli.StringFlag{
				Name:  byFlagName,
				Usage: "Ranking indicator [repasse, aprovacao, ideb]",
				Value: "repasse",
			},
		},
	}
}

type DescribeResult struct {
	Rows         int                     `json:"rows" yaml:"rows"`
	Years        []int                   `json:"years" yaml:"years"`
	Summary      []*stats.Summary        `json:"summary" yaml:"summary"`
	ByYear       *stats.YearSeries       `json:"by_year" yaml:"byYear"`
	Top          []*dataset.Municipality `json:"top" yaml:"top"`
	Correlations []*stats.Correlation    `json:"correlations" yaml:"correlations"`
}

func describeTable(t *dataset.Table, by string, n int) (*DescribeResult, error) {
	col, err := resolveColumn(by)
	if err != nil {
		return nil, err
	}

	top, err := stats.TopMunicipalities(t, col, n)
	if err != nil {
		return nil, err
	}

	corr, err := correlations(t)
	if err != nil {
		return nil, err
	}

	return &DescribeResult{
		Rows:         t.Len(),
		Years:        t.Years(),
		Summary:      stats.Describe(t),
		ByYear:       stats.ByYear(t),
		Top:          top,
		Correlations: corr,
	}, nil
}

// correlations returns the coefficient of every indicator pair.
func correlations(t *dataset.Table) ([]*stats.Correlation, error) {
	cols := dataset.NumericColumns
	list := make([]*stats.Correlation, 0, len(cols))
	for i := range cols {
		for j := i + 1; j < len(cols); j++ {
			c, err := stats.Correlate(t, cols[i], cols[j])
			if err != nil {
				return nil, err
			}
			list = append(list, c)
		}
	}
	return list, nil
}

func cmdDescribe(_ context.Context, cmd *cli.Command) error {
	t, err := sourceFor(cmd)(yearFor(cmd))
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}

	res, err := describeTable(t, cmd.String(byFlagName), cmd.Int(topFlagName))
	if err != nil {
		return fmt.Errorf("failed to describe data: %w", err)
	}

	if err := encode(cmd, res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
