// Command validate checks a data directory before it is handed to the
// dashboard: file layout, series integrity, prediction coverage against the
// catalog, and that every chart builds and renders.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -catalog catalog.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pmatran/vulnerapp/internal/dataset"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/pmatran/vulnerapp/internal/render"
)

// Plausibility bounds for the gallery measurements.
const (
	minPlausibleLevel = -10.0 // mNGF
	maxPlausibleLevel = 50.0
	maxMissingRatio   = 0.25
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", ".", "directory holding n_galerie.csv, q_galerie.csv and la_results.csv")
	catalogPath := flag.String("catalog", "", "catalog YAML file (default: embedded)")
	flag.Parse()

	os.Exit(run(os.Stdout, *dataDir, *catalogPath))
}

func run(out io.Writer, dataDir, catalogPath string) int {
	fmt.Fprintln(out, "=== Gallery Data Validation ===")
	fmt.Fprintln(out)

	cat, err := domain.LoadCatalog(catalogPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load catalog: %v\n", err)
		return 1
	}

	files := dataset.Files{
		Levels:      filepath.Join(dataDir, "n_galerie.csv"),
		Flows:       filepath.Join(dataDir, "q_galerie.csv"),
		Predictions: filepath.Join(dataDir, "la_results.csv"),
	}

	load := &phase{name: "Phase 1: Files (layout and parsing)"}
	ds := loadDataset(load, files)

	phases := []*phase{load}
	if ds != nil {
		phases = append(phases,
			validateSeries(ds),
			validatePredictions(ds, cat),
			validateFigures(ds, cat),
		)
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-48s %s\n", p.name, status)
	}

	if ds != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Rows: %s levels, %s flows, %s predictions\n",
			humanize.Comma(int64(ds.Levels.Len())),
			humanize.Comma(int64(ds.Flows.Len())),
			humanize.Comma(int64(len(ds.Predictions))))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Files ──

func loadDataset(p *phase, files dataset.Files) *domain.Dataset {
	levels, err := dataset.LoadSeries(files.Levels, dataset.LevelColumn, "Niveaux", "mNGF")
	if err != nil {
		p.errorf("levels: %v", err)
	}
	flows, err := dataset.LoadSeries(files.Flows, dataset.FlowColumn, "Debits", "m3/h")
	if err != nil {
		p.errorf("flows: %v", err)
	}
	predictions, err := dataset.LoadPredictions(files.Predictions)
	if err != nil {
		p.errorf("predictions: %v", err)
	}
	if !p.passed() {
		return nil
	}
	return &domain.Dataset{Levels: levels, Flows: flows, Predictions: predictions, LoadedAt: domain.Now()}
}

// ── Phase 2: Series ──

func validateSeries(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 2: Series (levels and flows)"}

	checkSeries(p, ds.Levels, func(v float64) bool {
		return v >= minPlausibleLevel && v <= maxPlausibleLevel
	})
	checkSeries(p, ds.Flows, func(v float64) bool { return v >= 0 })

	lvlFrom, lvlTo, errL := domain.YearBounds(ds.Levels)
	flwFrom, flwTo, errF := domain.YearBounds(ds.Flows)
	if errL == nil && errF == nil && (lvlTo < flwFrom || flwTo < lvlFrom) {
		p.errorf("levels (%d-%d) and flows (%d-%d) do not overlap", lvlFrom, lvlTo, flwFrom, flwTo)
	}
	return p
}

func checkSeries(p *phase, s domain.Series, plausible func(float64) bool) {
	if s.Len() == 0 {
		p.errorf("%s: no rows", s.Name)
		return
	}

	sum := domain.Summarize(s)
	if sum.Valid == 0 {
		p.errorf("%s: every value is missing", s.Name)
		return
	}
	if missing := 1 - float64(sum.Valid)/float64(sum.Count); missing > maxMissingRatio {
		p.errorf("%s: %.0f%% of values are missing", s.Name, missing*100)
	}

	dupes := 0
	for i, pt := range s.Points {
		if i > 0 && pt.Time.Equal(s.Points[i-1].Time) {
			dupes++
		}
		if !math.IsNaN(pt.Value) && !plausible(pt.Value) {
			p.errorf("%s %s: implausible value %g", s.Name, pt.Time.Format("2006-01-02"), pt.Value)
		}
	}
	if dupes > 0 {
		p.errorf("%s: %d duplicate timestamps", s.Name, dupes)
	}
}

// ── Phase 3: Predictions ──

func validatePredictions(ds *domain.Dataset, cat *domain.Catalog) *phase {
	p := &phase{name: "Phase 3: Predictions (catalog coverage)"}

	for _, code := range domain.Indicators(ds.Predictions) {
		if _, ok := cat.Indicator(code); !ok {
			p.errorf("indicator %q is not in the catalog", code)
		}
	}
	for _, code := range domain.Conditions(ds.Predictions) {
		if _, ok := cat.Condition(code); !ok {
			p.errorf("condition %q is not in the catalog", code)
		}
	}

	for _, ind := range cat.Indicators {
		for _, cdt := range cat.Conditions {
			if len(domain.FilterPredictions(ds.Predictions, ind.Code, cdt.Code)) == 0 {
				p.errorf("no rows for indicator %q under condition %q", ind.Code, cdt.Code)
			}
		}
	}

	for i, r := range ds.Predictions {
		for _, v := range []struct {
			name string
			val  float64
		}{{"value", r.Value}, {"value_90", r.Value90}} {
			if !math.IsNaN(v.val) && (v.val < 0 || v.val > 100) {
				p.errorf("row %d: %s %g outside 0..100", i, v.name, v.val)
			}
		}
		if r.Value90 < r.Value {
			p.errorf("row %d: value_90 %g below value %g", i, r.Value90, r.Value)
		}
		if math.IsNaN(r.GalleryLevel) || math.IsNaN(r.RiverLevel) {
			p.errorf("row %d: missing n_gal or h_riv", i)
		}
	}
	return p
}

// ── Phase 4: Figures ──

func validateFigures(ds *domain.Dataset, cat *domain.Catalog) *phase {
	p := &phase{name: "Phase 4: Figures (build and render)"}

	bounds, err := ds.YearBounds()
	if err != nil {
		p.errorf("year bounds: %v", err)
		return p
	}
	hist, err := figure.Historical(ds, figure.HistoricalQuery{WindowDays: domain.DefaultWindowDays, Years: bounds})
	if err != nil {
		p.errorf("historical: %v", err)
	} else {
		checkRender(p, "historical", hist)
	}

	for _, ind := range cat.Indicators {
		for _, panel := range figure.Predictions(ds, cat, ind.Code) {
			checkRender(p, ind.Code+"/"+panel.ID, panel.Figure)
		}
	}
	return p
}

func checkRender(p *phase, name string, fig figure.Figure) {
	err := render.Render(io.Discard, fig, render.SVG, render.DefaultOptions)
	switch {
	case errors.Is(err, render.ErrNoData):
		p.errorf("%s: nothing to draw", name)
	case err != nil:
		p.errorf("%s: %v", name, err)
	}
}
