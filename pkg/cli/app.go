package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mchmarny/edupulse/pkg/config"
	"github.com/mchmarny/edupulse/pkg/data"
	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/mchmarny/edupulse/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "edupulse"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName      = "debug"
	dbFilePathFlagName = "db"
	formatFlagName     = "format"
	configDirFlagName  = "config"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DBPath   string
	Debug    bool
	Format   string
	DB       *sql.DB
	Settings *config.Config
	Cache    *dataset.Cache
}

func getConfig(cmd *cli.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "CLI for quick insight into school funding, approval and IDEB by municipality",
		Writer:                os.Stdout,
		Reader:                os.Stdin,
		Metadata:              map[string]any{},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    debugFlagName,
				Usage:   "Prints verbose logs (optional, default: false)",
				Sources: cli.EnvVars("EDUPULSE_DEBUG"),
			},
			&cli.StringFlag{
				Name:    dbFilePathFlagName,
				Usage:   "Path to the Sqlite database file",
				Sources: cli.EnvVars("EDUPULSE_DB"),
			},
			&cli.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&cli.StringFlag{
				Name:    configDirFlagName,
				Usage:   "Directory holding config.yaml (default: ~/.edupulse)",
				Sources: cli.EnvVars("EDUPULSE_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			newImportCmd(),
			newDescribeCmd(),
			newClassifyCmd(),
			newRunsCmd(),
			newExportCmd(),
			newServerCmd(),
			newResetCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool(debugFlagName) {
				initLogging(true)
			}

			format := formatJSON
			if f := cmd.String(formatFlagName); f == formatYAML || f == "yml" {
				format = formatYAML
			}

			dir := cmd.String(configDirFlagName)
			if dir == "" {
				dir = getHomeDir()
			}

			settings, err := config.ReadOrCreate(dir)
			if err != nil {
				return ctx, fmt.Errorf("reading config: %w", err)
			}

			dbPath := cmd.String(dbFilePathFlagName)
			if dbPath == "" {
				dbPath = filepath.Join(dir, data.DataFileName)
			}

			if err := data.Init(dbPath); err != nil {
				return ctx, fmt.Errorf("initializing database: %w", err)
			}

			db, err := data.GetDB(dbPath)
			if err != nil {
				return ctx, fmt.Errorf("opening database: %w", err)
			}

			cmd.Root().Metadata[appConfigKey] = &appConfig{
				DBPath:   dbPath,
				Debug:    cmd.Bool(debugFlagName),
				Format:   format,
				DB:       db,
				Settings: settings,
				Cache:    dataset.NewCache(time.Duration(settings.CacheTTLMinutes) * time.Minute),
			}
			return ctx, nil
		},
		After: func(_ context.Context, cmd *cli.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created home dir", "path", dir)
	}
	return dir
}

func encode(cmd *cli.Command, v any) error {
	return encodeTo(cmd.Root().Writer, getConfig(cmd).Format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
