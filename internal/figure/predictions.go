package figure

import (
	"math"

	"github.com/pmatran/vulnerapp/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// Prediction chart styling.
const (
	medianColor    = "green"
	confidentColor = "orange"
	bandColor      = "wheat"
	belowColor     = "#6495ED"
	aboveColor     = "#FF7F50"
)

// HeadDifferenceID is the panel plotting the general condition against the
// river-gallery head difference.
const HeadDifferenceID = "plt_dh"

// Panel is one prediction chart of the dashboard.
type Panel struct {
	ID        string `json:"id"`
	Condition string `json:"condition"`
	Figure    Figure `json:"figure"`
}

// PanelID returns the panel identifier for a condition code.
func PanelID(condition string) string { return "plt_" + condition }

// Predictions builds the head-difference panel followed by one panel per
// catalog condition, all for the given indicator. An empty indicator yields
// panels with empty traces. The indicator must already be resolved against
// the catalog.
func Predictions(ds *domain.Dataset, cat *domain.Catalog, indicator string) []Panel {
	panels := make([]Panel, 0, len(cat.Conditions)+1)

	general := domain.FilterPredictions(ds.Predictions, indicator, cat.GeneralCondition)
	panels = append(panels, Panel{
		ID:        HeadDifferenceID,
		Condition: cat.GeneralCondition,
		Figure:    headDifferenceFigure(general, cat.GeneralTitle),
	})

	for _, cdt := range cat.Conditions {
		rows := domain.FilterPredictions(ds.Predictions, indicator, cdt.Code)
		panels = append(panels, Panel{
			ID:        PanelID(cdt.Code),
			Condition: cdt.Code,
			Figure:    conditionFigure(rows, cdt.Name),
		})
	}
	return panels
}

func headDifferenceFigure(rows []domain.Prediction, title string) Figure {
	x := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.HeadDifference()
	}

	layout := predictionLayout(title, "Niveaux rivière - Niveaux galerie (m)", false)
	if lo, hi, ok := finiteBounds(x); ok {
		layout.Shapes = append(layout.Shapes,
			band(lo, belowColor),
			band(hi, aboveColor),
		)
	}
	layout.Shapes = append(layout.Shapes, Shape{
		Type: "line",
		XRef: "x", YRef: "paper",
		X0: 0, X1: 0, Y0: 0, Y1: 1,
		Opacity: 1,
		Line:    &Line{Color: "black", Width: 1.5},
	})

	return Figure{Data: predictionTraces(rows, x), Layout: layout}
}

func conditionFigure(rows []domain.Prediction, title string) Figure {
	x := make([]float64, len(rows))
	for i, r := range rows {
		x[i] = r.GalleryLevel
	}
	return Figure{
		Data:   predictionTraces(rows, x),
		Layout: predictionLayout(title, "Niveaux galerie (mNGF)", true),
	}
}

// predictionTraces draws the median prediction, the 84% prediction filled
// down to the median, and a transparent flow rate trace that gives the top
// axis its scale.
func predictionTraces(rows []domain.Prediction, x []float64) []Trace {
	value := make([]float64, len(rows))
	value90 := make([]float64, len(rows))
	flow := make([]float64, len(rows))
	for i, r := range rows {
		value[i] = r.Value
		value90[i] = r.Value90
		flow[i] = r.FlowRate
	}

	return []Trace{
		{
			Name:          "Prédiction",
			X:             x,
			Y:             value,
			Mode:          "lines",
			Line:          &Line{Color: medianColor, Width: 1.5, Dash: "solid"},
			HoverTemplate: "%{y:.2f}%",
		},
		{
			Name:          "Prédiction (84%)",
			X:             x,
			Y:             value90,
			Mode:          "lines",
			Fill:          "tonexty",
			FillColor:     bandColor,
			Line:          &Line{Color: confidentColor, Width: 1.5, Dash: "solid"},
			HoverTemplate: "%{y:.2f}%",
		},
		{
			X:         flow,
			Y:         value,
			XAxis:     "x2",
			Mode:      "lines",
			Opacity:   ptr(0.0),
			HoverInfo: "skip",
		},
	}
}

func predictionLayout(title, xTitle string, reverseFlow bool) Layout {
	xaxis := whiteAxis(xTitle, 16)
	xaxis.ShowGrid = true

	yaxis := whiteAxis("Indicateur", 16)
	yaxis.ShowGrid = true
	yaxis.Range = []float64{0, 100}

	xaxis2 := whiteAxis("Débits (m3/h)", 16)
	xaxis2.Side = "top"
	xaxis2.Overlaying = "x"
	if reverseFlow {
		xaxis2.AutoRange = "reversed"
	}

	return Layout{
		Title:        &Title{Text: "<b>" + title + "</b>"},
		Font:         &Font{Size: 16},
		XAxis:        xaxis,
		XAxis2:       xaxis2,
		YAxis:        yaxis,
		HoverMode:    "x unified",
		HoverLabel:   &HoverLabel{Font: &Font{Size: 16}},
		PaperBGColor: "white",
		PlotBGColor:  "white",
	}
}

// band shades the plot from x = 0 to edge over the full indicator range.
func band(edge float64, color string) Shape {
	return Shape{
		Type: "rect",
		XRef: "x", YRef: "y",
		X0: 0, Y0: 0,
		X1: edge, Y1: 100,
		FillColor: color,
		Opacity:   0.1,
		Layer:     "below",
		Line:      &Line{Color: "rgba(0,0,0,0)"},
	}
}

func finiteBounds(x []float64) (lo, hi float64, ok bool) {
	valid := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return 0, 0, false
	}
	return floats.Min(valid), floats.Max(valid), true
}
