// Command render writes the dashboard charts as static images, one file per
// chart, for reports and for checking a dataset without running the service.
//
// Usage:
//
//	go run ./cmd/render -data-dir data -out charts -indicator alpha -format png
//
// Without -indicator, every catalog indicator is rendered.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/dustin/go-humanize"
	"github.com/pmatran/vulnerapp/internal/dataset"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/pmatran/vulnerapp/internal/render"
	"golang.org/x/sync/errgroup"
)

type options struct {
	dataDir   string
	outDir    string
	catalog   string
	indicator string
	format    render.Format
	size      render.Options
	window    int
}

// job is one image to draw.
type job struct {
	name string
	fig  figure.Figure
}

func main() {
	if err := run(); err != nil {
		slog.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := flag.String("data-dir", ".", "directory holding n_galerie.csv, q_galerie.csv and la_results.csv")
	outDir := flag.String("out", "charts", "output directory")
	catalogPath := flag.String("catalog", "", "catalog YAML file (default: embedded)")
	indicator := flag.String("indicator", "", "indicator code to render (default: all)")
	format := flag.String("format", "svg", "image format: svg or png")
	width := flag.Int("width", render.DefaultOptions.Width, "image width in pixels")
	height := flag.Int("height", render.DefaultOptions.Height, "image height in pixels")
	window := flag.Int("window", domain.DefaultWindowDays, "rolling window in days for the historical chart")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	sharedobs.NewLogger(*logLevel, "text")

	f, err := render.ParseFormat(*format)
	if err != nil {
		return err
	}
	if err := domain.ValidateWindow(*window); err != nil {
		return err
	}

	return renderAll(options{
		dataDir:   *dataDir,
		outDir:    *outDir,
		catalog:   *catalogPath,
		indicator: *indicator,
		format:    f,
		size:      render.Options{Width: *width, Height: *height},
		window:    *window,
	})
}

func renderAll(opts options) error {
	cat, err := domain.LoadCatalog(opts.catalog)
	if err != nil {
		return err
	}

	ds, err := dataset.Load(dataset.Files{
		Levels:      filepath.Join(opts.dataDir, "n_galerie.csv"),
		Flows:       filepath.Join(opts.dataDir, "q_galerie.csv"),
		Predictions: filepath.Join(opts.dataDir, "la_results.csv"),
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	jobs, err := buildJobs(ds, cat, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var written, skipped, total atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, j := range jobs {
		g.Go(func() error {
			var buf bytes.Buffer
			err := render.Render(&buf, j.fig, opts.format, opts.size)
			if errors.Is(err, render.ErrNoData) {
				slog.Warn("chart has no data, skipped", "chart", j.name)
				skipped.Add(1)
				return nil
			}
			if err != nil {
				return fmt.Errorf("render %s: %w", j.name, err)
			}

			path := filepath.Join(opts.outDir, j.name+"."+string(opts.format))
			if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			slog.Debug("chart written", "path", path, "size", humanize.Bytes(uint64(buf.Len())))
			written.Add(1)
			total.Add(int64(buf.Len()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("charts rendered",
		"out", opts.outDir,
		"written", written.Load(),
		"skipped", skipped.Load(),
		"total_size", humanize.Bytes(uint64(total.Load())),
	)
	return nil
}

// buildJobs lists the historical chart followed by the prediction panels of
// every selected indicator. Panel files are named <indicator>_<panel>.
func buildJobs(ds *domain.Dataset, cat *domain.Catalog, opts options) ([]job, error) {
	bounds, err := ds.YearBounds()
	if err != nil {
		return nil, fmt.Errorf("dataset has no levels or flows: %w", err)
	}
	hist, err := figure.Historical(ds, figure.HistoricalQuery{WindowDays: opts.window, Years: bounds})
	if err != nil {
		return nil, err
	}
	jobs := []job{{name: "historical", fig: hist}}

	indicators := make([]string, 0, len(cat.Indicators))
	if opts.indicator != "" {
		code, err := cat.ResolveIndicator(opts.indicator)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, code)
	} else {
		for _, ind := range cat.Indicators {
			indicators = append(indicators, ind.Code)
		}
	}

	for _, code := range indicators {
		for _, p := range figure.Predictions(ds, cat, code) {
			jobs = append(jobs, job{
				name: code + "_" + strings.TrimPrefix(p.ID, "plt_"),
				fig:  p.Figure,
			})
		}
	}
	return jobs, nil
}
