package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/figure"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageChart struct {
	ID     string
	Suffix string
}

type pageData struct {
	Catalog       *domain.Catalog
	Charts        []pageChart
	Indicator     string
	Window        int
	Years         domain.YearRange
	YearMarks     []int
	MinWindow     int
	MaxWindow     int
	DefaultWindow int
	LoadedAgo     string
	Loaded        bool
}

// handlePage renders the dashboard. The indicator, window and year range query
// parameters preselect the controls and feed the static image fallbacks, so the
// page also works as a plain form without JavaScript.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	indicator, err := s.deps.Catalog.ResolveIndicator(q.Get("indicator"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	window, err := domain.ParseWindow(q.Get("window"), s.deps.DefaultWindow)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := pageData{
		Catalog:       s.deps.Catalog,
		Indicator:     indicator,
		Window:        window,
		MinWindow:     domain.MinWindowDays,
		MaxWindow:     domain.MaxWindowDays,
		DefaultWindow: s.deps.DefaultWindow,
	}

	data.Charts = append(data.Charts, pageChart{ID: figure.HeadDifferenceID, Suffix: "dh"})
	for _, cdt := range s.deps.Catalog.Conditions {
		data.Charts = append(data.Charts, pageChart{ID: figure.PanelID(cdt.Code), Suffix: cdt.Code})
	}

	if ds := s.deps.Store.Snapshot(); ds != nil {
		data.Loaded = true
		data.LoadedAgo = humanize.Time(ds.LoadedAt)
		if bounds, err := ds.YearBounds(); err == nil {
			years, err := pageYears(q.Get("from"), q.Get("to"), bounds)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			data.Years = years
			data.YearMarks = bounds.Years()
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

// pageYears resolves the year selects. The bounds cannot cross: a start after
// the end pulls the end up to it.
func pageYears(from, to string, bounds domain.YearRange) (domain.YearRange, error) {
	years, err := domain.ResolveYearRange(from, to, bounds)
	if errors.Is(err, domain.ErrInvalidRange) {
		if _, toErr := domain.ResolveYearRange(to, to, bounds); toErr == nil {
			return domain.ResolveYearRange(from, from, bounds)
		}
	}
	return years, err
}
