package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/pmatran/vulnerapp/internal/render"
)

var errUnknownChart = errors.New("unknown chart")

type windowLimits struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

type metaResponse struct {
	*domain.Catalog
	Years      domain.YearRange `json:"years"`
	YearMarks  []int            `json:"year_marks"`
	Window     windowLimits     `json:"window"`
	LoadedAt   time.Time        `json:"loaded_at"`
	LoadedAgo  string           `json:"loaded_ago"`
	Generation uint64           `json:"generation"`
}

type predictionSummary struct {
	Rows       int      `json:"rows"`
	Indicators []string `json:"indicators"`
	Conditions []string `json:"conditions"`
}

type summaryResponse struct {
	Levels      domain.Summary    `json:"levels"`
	Flows       domain.Summary    `json:"flows"`
	Predictions predictionSummary `json:"predictions"`
	LoadedAt    time.Time         `json:"loaded_at"`
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.snapshot(w)
	if !ok {
		return
	}
	years, err := ds.YearBounds()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metaResponse{
		Catalog:    s.deps.Catalog,
		Years:      years,
		YearMarks:  years.Years(),
		Window:     windowLimits{Min: domain.MinWindowDays, Max: domain.MaxWindowDays, Default: s.deps.DefaultWindow},
		LoadedAt:   ds.LoadedAt,
		LoadedAgo:  humanize.Time(ds.LoadedAt),
		Generation: s.deps.Store.Generation(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.snapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Levels: domain.Summarize(ds.Levels),
		Flows:  domain.Summarize(ds.Flows),
		Predictions: predictionSummary{
			Rows:       len(ds.Predictions),
			Indicators: domain.Indicators(ds.Predictions),
			Conditions: domain.Conditions(ds.Predictions),
		},
		LoadedAt: ds.LoadedAt,
	})
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	fig, err := s.historical(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fig)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	panels, err := s.deps.Figures.Predictions(r.Context(), r.URL.Query().Get("indicator"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panels)
}

// historical resolves the window and year range query parameters against the
// current dataset and builds the figure.
func (s *Server) historical(r *http.Request) (figure.Figure, error) {
	ds := s.deps.Store.Snapshot()
	if ds == nil {
		return figure.Figure{}, figure.ErrNotLoaded
	}
	bounds, err := ds.YearBounds()
	if err != nil {
		return figure.Figure{}, err
	}

	q := r.URL.Query()
	window, err := domain.ParseWindow(q.Get("window"), s.deps.DefaultWindow)
	if err != nil {
		return figure.Figure{}, err
	}
	years, err := domain.ResolveYearRange(q.Get("from"), q.Get("to"), bounds)
	if err != nil {
		return figure.Figure{}, err
	}
	return s.deps.Figures.Historical(r.Context(), figure.HistoricalQuery{WindowDays: window, Years: years})
}

func (s *Server) snapshot(w http.ResponseWriter) (*domain.Dataset, bool) {
	ds := s.deps.Store.Snapshot()
	if ds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": figure.ErrNotLoaded.Error()})
		return nil, false
	}
	return ds, true
}

// writeError maps domain and rendering errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrUnknownIndicator),
		errors.Is(err, render.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, render.ErrNoData),
		errors.Is(err, domain.ErrEmptySeries),
		errors.Is(err, errUnknownChart):
		status = http.StatusNotFound
	case errors.Is(err, figure.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
