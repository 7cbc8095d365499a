package figure

import (
	"fmt"
	"time"

	"github.com/pmatran/vulnerapp/internal/domain"
)

// Historical chart colors.
const (
	levelColor = "green"
	flowColor  = "blue"
)

// HistoricalQuery selects the rolling window and year range of the historical chart.
type HistoricalQuery struct {
	WindowDays int
	Years      domain.YearRange
}

// Key identifies the query in caches.
func (q HistoricalQuery) Key() string {
	return fmt.Sprintf("historical|w=%d|%d-%d", q.WindowDays, q.Years.From, q.Years.To)
}

// Historical slices both series to the requested years, smooths them with the
// rolling mean and plots levels on the left axis and flows on the right one.
func Historical(ds *domain.Dataset, q HistoricalQuery) (Figure, error) {
	if err := domain.ValidateWindow(q.WindowDays); err != nil {
		return Figure{}, err
	}
	window := domain.WindowDuration(q.WindowDays)

	levels, err := smooth(ds.Levels, q.Years, window)
	if err != nil {
		return Figure{}, fmt.Errorf("levels: %w", err)
	}
	flows, err := smooth(ds.Flows, q.Years, window)
	if err != nil {
		return Figure{}, fmt.Errorf("flows: %w", err)
	}

	fig := Figure{
		Data: []Trace{
			timeTrace("Niveaux", levels, levelColor, "y", "%{y:.2f} mNGF"),
			timeTrace("Debits", flows, flowColor, "y2", "%{y:.2f} m3/h"),
		},
		Layout: Layout{
			XAxis: &Axis{
				Title:    &Title{Text: "", Font: &Font{Size: 18}},
				TickFont: &Font{Size: 16},
				ShowLine: true,
				Ticks:    "outside",
			},
			YAxis: &Axis{
				Title:    &Title{Text: "Niveaux galerie (mNGF)", Font: &Font{Size: 18}},
				TickFont: &Font{Size: 16},
				ShowLine: true,
				Ticks:    "outside",
			},
			YAxis2: &Axis{
				Title:      &Title{Text: "Debits galerie (m3/h)", Font: &Font{Size: 18}},
				TickFont:   &Font{Size: 16},
				ShowLine:   true,
				Ticks:      "outside",
				Side:       "right",
				Overlaying: "y",
			},
			HoverMode:    "x unified",
			HoverLabel:   &HoverLabel{Font: &Font{Size: 16}},
			Legend:       &Legend{Font: &Font{Size: 22}},
			PaperBGColor: "white",
			PlotBGColor:  "white",
		},
	}
	return fig, nil
}

func smooth(s domain.Series, years domain.YearRange, window time.Duration) (domain.Series, error) {
	sliced, err := domain.SliceYears(s, years.From, years.To)
	if err != nil {
		return domain.Series{}, err
	}
	return domain.RollingMean(sliced, window)
}

func timeTrace(name string, s domain.Series, color, yaxis, hover string) Trace {
	times := s.Times()
	return Trace{
		Name:          name,
		Times:         times,
		Y:             s.Values(),
		YAxis:         yaxis,
		Mode:          "lines",
		Line:          &Line{Color: color, Width: 2, Dash: "solid"},
		ShowLegend:    true,
		HoverTemplate: hover,
	}
}
