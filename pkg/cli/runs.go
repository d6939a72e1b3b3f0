package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/edupulse/pkg/data"
	"github.com/urfave/cli/v3"
)

const (
	limitFlagName    = "limit"
	runsLimitDefault = 20
)

func newRunsCmd() *cli.Command {
	return &cli.Command{
		Name:   "runs",
		Usage:  "List recorded classification runs, newest first",
		Action: cmdRuns,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  limitFlagName,
				Usage: "Maximum number of runs to list",
				Value: runsLimitDefault,
			},
		},
	}
}

func cmdRuns(_ context.Context, cmd *cli.Command) error {
	list, err := data.ListRuns(getConfig(cmd).DB, cmd.Int(limitFlagName))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if err := encode(cmd, list); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
