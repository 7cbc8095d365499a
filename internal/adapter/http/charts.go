package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/pmatran/vulnerapp/internal/render"
)

const historicalChart = "historical"

// handleChart renders /charts/{chart}.{format}: "historical" or a prediction
// panel named by its suffix (dh, lc, mc, hc).
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	fig, err := s.chartFigure(r, chi.URLParam(r, "chart"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := render.DefaultOptions
	if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v > 0 && v <= 4096 {
		opts.Width = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("height")); err == nil && v > 0 && v <= 4096 {
		opts.Height = v
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, fig, format, opts); err != nil {
		if !errors.Is(err, render.ErrNoData) {
			s.metrics.ChartRenderErrors.WithLabelValues(string(format)).Inc()
		}
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) chartFigure(r *http.Request, name string) (figure.Figure, error) {
	if name == historicalChart {
		return s.historical(r)
	}

	panels, err := s.deps.Figures.Predictions(r.Context(), r.URL.Query().Get("indicator"))
	if err != nil {
		return figure.Figure{}, err
	}
	id := figure.PanelID(name)
	for _, p := range panels {
		if p.ID == id {
			return p.Figure, nil
		}
	}
	return figure.Figure{}, fmt.Errorf("%w: %q", errUnknownChart, name)
}
