// Package figure builds the dashboard charts as plotly-compatible figure
// models. Each figure encodes to the JSON plotly.js expects for
// Plotly.newPlot(el, fig.data, fig.layout).
package figure

import (
	"encoding/json"
	"time"

	"github.com/pmatran/vulnerapp/internal/domain"
)

// dateFormat is the x value layout of time traces.
const dateFormat = "2006-01-02"

// Figure is a chart: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Empty reports whether no trace carries a point.
func (f Figure) Empty() bool {
	for _, tr := range f.Data {
		if tr.Len() > 0 {
			return false
		}
	}
	return true
}

// Trace is a scatter trace. X holds numeric x values; Times holds dates for
// time series. Only one of the two is set.
type Trace struct {
	Name          string        `json:"name,omitempty"`
	X             []float64     `json:"-"`
	Times         []time.Time   `json:"-"`
	Y             domain.Floats `json:"y"`
	XAxis         string        `json:"xaxis,omitempty"`
	YAxis         string        `json:"yaxis,omitempty"`
	Mode          string        `json:"mode,omitempty"`
	Line          *Line         `json:"line,omitempty"`
	Fill          string        `json:"fill,omitempty"`
	FillColor     string        `json:"fillcolor,omitempty"`
	Opacity       *float64      `json:"opacity,omitempty"`
	ShowLegend    bool          `json:"showlegend"`
	HoverTemplate string        `json:"hovertemplate,omitempty"`
	HoverInfo     string        `json:"hoverinfo,omitempty"`
}

// Len returns the number of points.
func (t Trace) Len() int { return len(t.Y) }

// IsTime reports whether the trace is a time series.
func (t Trace) IsTime() bool { return t.Times != nil }

// Hidden reports whether the trace is drawn fully transparent.
func (t Trace) Hidden() bool { return t.Opacity != nil && *t.Opacity == 0 }

func (t Trace) MarshalJSON() ([]byte, error) {
	type plain Trace
	var x any = domain.Floats(t.X)
	if t.IsTime() {
		dates := make([]string, len(t.Times))
		for i, ts := range t.Times {
			dates[i] = ts.Format(dateFormat)
		}
		x = dates
	}
	return json.Marshal(struct {
		plain
		X any `json:"x"`
	}{plain: plain(t), X: x})
}

// Line styles a trace stroke.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

// Font sets text size and color.
type Font struct {
	Size  int    `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Title is a chart or axis title.
type Title struct {
	Text string `json:"text"`
	Font *Font  `json:"font,omitempty"`
}

// Axis configures an x or y axis.
type Axis struct {
	Title      *Title    `json:"title,omitempty"`
	TickFont   *Font     `json:"tickfont,omitempty"`
	Range      []float64 `json:"range,omitempty"`
	ShowGrid   bool      `json:"showgrid"`
	ShowLine   bool      `json:"showline"`
	Ticks      string    `json:"ticks,omitempty"`
	Side       string    `json:"side,omitempty"`
	Overlaying string    `json:"overlaying,omitempty"`
	AutoRange  any       `json:"autorange,omitempty"`
}

// Shape is a layout decoration such as a shaded band or a marker line.
type Shape struct {
	Type      string  `json:"type"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
	FillColor string  `json:"fillcolor,omitempty"`
	Opacity   float64 `json:"opacity,omitempty"`
	Layer     string  `json:"layer,omitempty"`
	Line      *Line   `json:"line,omitempty"`
}

// HoverLabel styles hover tooltips.
type HoverLabel struct {
	Font *Font `json:"font,omitempty"`
}

// Legend styles the legend.
type Legend struct {
	Font *Font `json:"font,omitempty"`
}

// Layout is the figure layout.
type Layout struct {
	Title        *Title      `json:"title,omitempty"`
	Font         *Font       `json:"font,omitempty"`
	XAxis        *Axis       `json:"xaxis,omitempty"`
	XAxis2       *Axis       `json:"xaxis2,omitempty"`
	YAxis        *Axis       `json:"yaxis,omitempty"`
	YAxis2       *Axis       `json:"yaxis2,omitempty"`
	Shapes       []Shape     `json:"shapes,omitempty"`
	HoverMode    string      `json:"hovermode,omitempty"`
	HoverLabel   *HoverLabel `json:"hoverlabel,omitempty"`
	Legend       *Legend     `json:"legend,omitempty"`
	PaperBGColor string      `json:"paper_bgcolor,omitempty"`
	PlotBGColor  string      `json:"plot_bgcolor,omitempty"`
}

// whiteAxis mirrors plotly's simple_white template: no grid, a solid axis
// line and outside ticks.
func whiteAxis(title string, size int) *Axis {
	a := &Axis{ShowLine: true, Ticks: "outside"}
	if title != "" {
		a.Title = &Title{Text: title, Font: &Font{Size: size}}
	}
	return a
}

func ptr[T any](v T) *T { return &v }
