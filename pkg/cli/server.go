package cli

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/mchmarny/edupulse/pkg/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20

	portFlagName      = "port"
	geoFlagName       = "geo"
	noBrowserFlagName = "no-browser"
)

//go:embed assets/* templates/*
var embedFS embed.FS

func newServerCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local dashboard HTTP server",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    portFlagName,
				Usage:   "Port on which the server will listen (default: from config)",
				Sources: cli.EnvVars("EDUPULSE_PORT"),
			},
			newFileFlag(),
			newSheetFlag(),
			&cli.StringFlag{
				Name:    geoFlagName,
				Usage:   "GeoJSON file or URL with municipal boundaries (default: from config)",
				Sources: cli.EnvVars("EDUPULSE_GEO"),
			},
			&cli.BoolFlag{
				Name:    noBrowserFlagName,
				Aliases: []string{"nb"},
				Usage:   "Do not open browser automatically",
			},
		},
	}
}

// mapLayer is the boundary collection joined on the map endpoint.
type mapLayer struct {
	features     *geojson.FeatureCollection
	codeProperty string
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	port := cmd.Int(portFlagName)
	if port == 0 {
		port = cfg.Settings.Port
	}
	address := fmt.Sprintf("127.0.0.1:%d", port)

	geoSrc := cmd.String(geoFlagName)
	if geoSrc == "" {
		geoSrc = cfg.Settings.GeoSource
	}

	src := sourceFor(cmd)
	layer, err := prepare(ctx, src, geoSrc, cfg.Settings.GeoCodeProperty)
	if err != nil {
		return fmt.Errorf("preparing server data: %w", err)
	}

	mux := makeRouter(cfg.DB, src, layer)
	s := &http.Server{
		Addr:           address,
		Handler:        mux,
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
		}
	}()

	url := fmt.Sprintf("http://%s", address)
	slog.Info("server started", "address", url)

	if !cmd.Bool(noBrowserFlagName) {
		openBrowser(url)
	}

	<-done

	sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

// prepare loads the boundaries and warms the table source concurrently.
// A missing import is not fatal; the dashboard reports it per request.
func prepare(ctx context.Context, src tableSource, geoSrc, codeProperty string) (*mapLayer, error) {
	var layer *mapLayer
	g, gctx := errgroup.WithContext(ctx)

	if geoSrc != "" {
		g.Go(func() error {
			fc, err := geo.Load(gctx, geoSrc)
			if err != nil {
				return err
			}
			layer = &mapLayer{features: fc, codeProperty: codeProperty}
			return nil
		})
	}

	g.Go(func() error {
		t, err := src(nil)
		if errors.Is(err, errNoData) {
			slog.Warn("no data available yet", "error", err)
			return nil
		}
		if err != nil {
			return err
		}
		slog.Debug("data ready", "rows", t.Len())
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return layer, nil
}

func makeRouter(db *sql.DB, src tableSource, layer *mapLayer) *http.ServeMux {
	tmpl := template.Must(template.New("").ParseFS(embedFS, "templates/*.html"))
	static, err := fs.Sub(embedFS, "assets")
	if err != nil {
		panic(err)
	}

	reg := prometheus.NewRegistry()
	m := newHTTPMetrics(reg)

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /favicon.ico", faviconHandler)

	// Views
	m.handle(mux, "GET /{$}", homeViewHandler(tmpl, layer != nil))

	// Data API
	m.handle(mux, "GET /data/state", stateAPIHandler(db))
	m.handle(mux, "GET /data/describe", describeAPIHandler(src))
	m.handle(mux, "GET /data/by-year", byYearAPIHandler(src))
	m.handle(mux, "GET /data/top", topAPIHandler(src))
	m.handle(mux, "GET /data/correlation", correlationAPIHandler(src))
	m.handle(mux, "GET /data/classify", classifyAPIHandler(src, m))
	m.handle(mux, "GET /data/map", mapAPIHandler(src, layer))

	// Metrics
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return mux
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
