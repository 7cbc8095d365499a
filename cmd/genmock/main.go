// Command genmock writes deterministic synthetic gallery datasets for local
// development and demos. The output has the same layout as the real exports,
// and is read back through the dataset loader before the command reports success.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -from 2015 -to 2022 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/dustin/go-humanize"
	"github.com/pmatran/vulnerapp/internal/dataset"
	"github.com/pmatran/vulnerapp/internal/domain"
)

// Gallery and river regime used to shape the synthetic series.
const (
	meanLevel     = 10.0 // mNGF
	levelAmp      = 1.2
	meanFlow      = 120.0 // m3/h
	flowAmp       = 35.0
	missingRate   = 0.01
	rowsPerPanel  = 40
	minGalleryLvl = 8.5
	maxGalleryLvl = 11.5
)

// riverLevel gives the simulated river level for each hydraulic condition.
var riverLevel = map[string]float64{
	"lc": 9.0,
	"mc": 10.0,
	"hc": 11.5,
}

// indicatorScale bends the response curve so each indicator looks distinct.
var indicatorScale = map[string]float64{
	"alpha":    1.0,
	"iota_ag":  0.6,
	"iota_fdc": 0.8,
	"iota_ga":  0.45,
}

type params struct {
	outDir   string
	fromYear int
	toYear   int
	seed     uint64
}

func main() {
	if err := run(); err != nil {
		slog.Error("genmock failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	out := flag.String("out", "data/mock", "output directory")
	from := flag.Int("from", 2015, "first year of the level and flow series")
	to := flag.Int("to", 2022, "last year of the level and flow series")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	sharedobs.NewLogger("info", "text")

	if *from > *to {
		flag.Usage()
		return fmt.Errorf("-from %d is after -to %d", *from, *to)
	}

	p := params{outDir: *out, fromYear: *from, toYear: *to, seed: *seed}
	files, err := generate(p)
	if err != nil {
		return err
	}

	// Read everything back with the service loader.
	ds, err := dataset.Load(files)
	if err != nil {
		return fmt.Errorf("generated files do not load: %w", err)
	}
	for _, s := range []domain.Series{ds.Levels, ds.Flows} {
		sum := domain.Summarize(s)
		slog.Info("series written",
			"name", sum.Name,
			"points", humanize.Comma(int64(sum.Count)),
			"valid", humanize.Comma(int64(sum.Valid)),
			"min", humanize.FormatFloat("#,###.##", float64(sum.Min)),
			"max", humanize.FormatFloat("#,###.##", float64(sum.Max)),
		)
	}
	slog.Info("predictions written",
		"rows", len(ds.Predictions),
		"indicators", domain.Indicators(ds.Predictions),
		"conditions", domain.Conditions(ds.Predictions),
	)
	return nil
}

// generate writes the three exports into p.outDir and returns their paths.
func generate(p params) (dataset.Files, error) {
	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		return dataset.Files{}, err
	}
	files := dataset.Files{
		Levels:      filepath.Join(p.outDir, "n_galerie.csv"),
		Flows:       filepath.Join(p.outDir, "q_galerie.csv"),
		Predictions: filepath.Join(p.outDir, "la_results.csv"),
	}

	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))
	levels, flows := seriesRows(rng, p.fromYear, p.toYear)

	if err := writeCSV(files.Levels, []string{"date", dataset.LevelColumn}, levels); err != nil {
		return dataset.Files{}, fmt.Errorf("writing levels: %w", err)
	}
	if err := writeCSV(files.Flows, []string{"date", dataset.FlowColumn}, flows); err != nil {
		return dataset.Files{}, fmt.Errorf("writing flows: %w", err)
	}
	header := []string{"", "indicator", "h_cdt", "n_gal", "h_riv", "q_pred", "value", "value_90"}
	if err := writeCSV(files.Predictions, header, predictionRows(rng)); err != nil {
		return dataset.Files{}, fmt.Errorf("writing predictions: %w", err)
	}
	return files, nil
}

// seriesRows builds daily level and flow rows with a yearly cycle, noise and
// a few missing cells. Flow rises when the gallery level drops.
func seriesRows(rng *rand.Rand, fromYear, toYear int) (levels, flows [][]string) {
	start := time.Date(fromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(toYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	for t := start; t.Before(end); t = t.AddDate(0, 0, 1) {
		phase := 2 * math.Pi * float64(t.YearDay()) / 365.25
		level := meanLevel + levelAmp*math.Cos(phase) + rng.NormFloat64()*0.08
		flow := meanFlow - flowAmp*math.Cos(phase) + rng.NormFloat64()*4

		date := t.Format("2006-01-02")
		levels = append(levels, []string{date, cell(rng, level)})
		flows = append(flows, []string{date + " 00:00:00", cell(rng, flow)})
	}
	return levels, flows
}

// predictionRows sweeps the gallery level for every indicator and condition.
// The 84% prediction always sits above the median.
func predictionRows(rng *rand.Rand) [][]string {
	var rows [][]string
	idx := 0
	for _, ind := range []string{"alpha", "iota_ag", "iota_fdc", "iota_ga"} {
		for _, cdt := range []string{"lc", "mc", "hc"} {
			hRiv := riverLevel[cdt]
			for i := range rowsPerPanel {
				nGal := minGalleryLvl + (maxGalleryLvl-minGalleryLvl)*float64(i)/float64(rowsPerPanel-1)
				dh := hRiv - nGal
				value := 100 * indicatorScale[ind] / (1 + math.Exp(-2*dh))
				value = clamp(value+rng.NormFloat64(), 0, 100)
				value90 := clamp(value+5+10*rng.Float64(), 0, 100)
				qPred := meanFlow + 25*dh

				rows = append(rows, []string{
					strconv.Itoa(idx), ind, cdt,
					format(nGal), format(hRiv), format(qPred), format(value), format(value90),
				})
				idx++
			}
		}
	}
	return rows
}

func cell(rng *rand.Rand, v float64) string {
	if rng.Float64() < missingRate {
		return ""
	}
	return format(v)
}

func format(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
