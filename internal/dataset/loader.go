// Package dataset loads the gallery CSV exports and keeps the current snapshot
// the dashboard draws from.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pmatran/vulnerapp/internal/domain"
)

// Files locates the three CSV exports.
type Files struct {
	Levels      string
	Flows       string
	Predictions string
}

// Column names of the exports.
const (
	LevelColumn = "n"
	FlowColumn  = "q"
)

var predictionColumns = []string{"indicator", "h_cdt", "n_gal", "h_riv", "q_pred", "value", "value_90"}

// Load reads all three exports into a fresh dataset snapshot.
func Load(files Files) (*domain.Dataset, error) {
	levels, err := LoadSeries(files.Levels, LevelColumn, "Niveaux", "mNGF")
	if err != nil {
		return nil, fmt.Errorf("levels: %w", err)
	}
	flows, err := LoadSeries(files.Flows, FlowColumn, "Debits", "m3/h")
	if err != nil {
		return nil, fmt.Errorf("flows: %w", err)
	}
	predictions, err := LoadPredictions(files.Predictions)
	if err != nil {
		return nil, fmt.Errorf("predictions: %w", err)
	}
	return &domain.Dataset{
		Levels:      levels,
		Flows:       flows,
		Predictions: predictions,
		LoadedAt:    domain.Now(),
	}, nil
}

// LoadSeries reads a date-indexed CSV and returns the named column as a sorted series.
func LoadSeries(path, column, name, unit string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, err
	}
	defer f.Close()

	s, err := ReadSeries(f, column, name, unit)
	if err != nil {
		return domain.Series{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadSeries parses a date-indexed CSV. The first column holds the dates.
func ReadSeries(r io.Reader, column, name, unit string) (domain.Series, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		return domain.Series{}, fmt.Errorf("read header: %w", err)
	}
	idx := columnIndex(header)
	col, ok := idx[column]
	if !ok {
		return domain.Series{}, fmt.Errorf("missing column %q", column)
	}
	if col == 0 {
		return domain.Series{}, fmt.Errorf("column %q is the date index", column)
	}

	s := domain.Series{Name: name, Unit: unit}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Series{}, err
		}
		line, _ := reader.FieldPos(0)

		t, err := domain.ParseDate(rec[0])
		if err != nil {
			return domain.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := parseValue(rec[col])
		if err != nil {
			return domain.Series{}, fmt.Errorf("line %d, column %q: %w", line, column, err)
		}
		s.Points = append(s.Points, domain.Observation{Time: t, Value: v})
	}
	s.Sort()
	return s, nil
}

// LoadPredictions reads the prediction export.
func LoadPredictions(path string) ([]domain.Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadPredictions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadPredictions parses prediction rows, keeping file order.
func ReadPredictions(r io.Reader) ([]domain.Prediction, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := columnIndex(header)
	for _, c := range predictionColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var rows []domain.Prediction
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		nums := make(map[string]float64, 5)
		for _, c := range predictionColumns[2:] {
			v, err := parseValue(rec[idx[c]])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, c, err)
			}
			nums[c] = v
		}
		rows = append(rows, domain.Prediction{
			Indicator:    strings.TrimSpace(rec[idx["indicator"]]),
			Condition:    strings.TrimSpace(rec[idx["h_cdt"]]),
			GalleryLevel: nums["n_gal"],
			RiverLevel:   nums["h_riv"],
			FlowRate:     nums["q_pred"],
			Value:        nums["value"],
			Value90:      nums["value_90"],
		})
	}
	return rows, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true
	return reader
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

// parseValue reads a numeric cell. Empty cells and NaN markers are missing values.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
