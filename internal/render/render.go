// Package render draws dashboard figures as static SVG or PNG images, for
// clients without JavaScript and for offline export.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	// ErrNoData is returned when a figure has no drawable point.
	ErrNoData = errors.New("figure has no data to draw")

	// ErrUnsupportedFormat is returned for image formats other than svg and png.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Format is an image format.
type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

// ParseFormat validates an image format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case SVG, PNG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Options sizes the rendered image in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions matches the dashboard chart proportions.
var DefaultOptions = Options{Width: 1024, Height: 512}

// Render draws fig to w. Traces with time x values produce a time chart with
// an optional secondary y axis; numeric traces produce a prediction chart.
// Missing values are skipped.
func Render(w io.Writer, fig figure.Figure, format Format, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultOptions
	}

	var (
		c   chart.Chart
		err error
	)
	timed := isTimeFigure(fig)
	if timed {
		c, err = timeChart(fig)
	} else {
		c, err = numericChart(fig)
	}
	if err != nil {
		return err
	}
	if timed {
		c.Elements = []chart.Renderable{chart.Legend(&c)}
	}
	c.Width, c.Height = opts.Width, opts.Height
	c.Background = chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
	if fig.Layout.Title != nil {
		c.Title = stripTags(fig.Layout.Title.Text)
	}

	provider := chart.SVG
	if format == PNG {
		provider = chart.PNG
	}
	if err := c.Render(provider, w); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}

func isTimeFigure(fig figure.Figure) bool {
	for _, tr := range fig.Data {
		if tr.IsTime() {
			return true
		}
	}
	return false
}

func timeChart(fig figure.Figure) (chart.Chart, error) {
	var (
		series          []chart.Series
		xr, yr, y2r     bounds
		hasPrimary, has bool
	)
	for _, tr := range fig.Data {
		times, ys := finiteTimePoints(tr)
		if len(ys) == 0 {
			continue
		}
		has = true

		s := chart.TimeSeries{
			Name:    tr.Name,
			XValues: times,
			YValues: ys,
			Style:   chart.Style{StrokeColor: traceColor(tr), StrokeWidth: 2},
		}
		for _, t := range times {
			xr.add(chart.TimeToFloat64(t))
		}
		if tr.YAxis == "y2" {
			s.YAxis = chart.YAxisSecondary
			y2r.addAll(ys)
		} else {
			hasPrimary = true
			yr.addAll(ys)
		}
		series = append(series, s)
	}
	if !has {
		return chart.Chart{}, ErrNoData
	}

	c := chart.Chart{
		XAxis: chart.XAxis{
			ValueFormatter: dateFormatter,
			Range:          xr.rangeOf(float64(24 * time.Hour)),
		},
		Series: series,
	}
	// The primary axis always needs a valid range, even when only the
	// secondary one carries data.
	primary := yr
	if !hasPrimary {
		primary = y2r
	}
	c.YAxis = chart.YAxis{
		Name:           axisTitle(fig.Layout.YAxis),
		ValueFormatter: numberFormatter,
		Range:          primary.rangeOf(1),
	}
	if !y2r.empty() {
		c.YAxisSecondary = chart.YAxis{
			Name:           axisTitle(fig.Layout.YAxis2),
			ValueFormatter: numberFormatter,
			Range:          y2r.rangeOf(1),
		}
	}
	return c, nil
}

// numericChart draws prediction panels. go-chart fills a series down to the
// bottom of the axis, so the confidence band is the filled upper trace masked
// by the filled median trace. Traces on the secondary x axis only scale that
// axis and are not drawn.
func numericChart(fig figure.Figure) (chart.Chart, error) {
	var (
		series []chart.Series
		xr, yr bounds
		prev   = -1
	)
	for _, tr := range fig.Data {
		if tr.XAxis == "x2" || tr.Hidden() {
			continue
		}
		xs, ys := finitePoints(tr)
		if len(ys) == 0 {
			continue
		}
		xr.addAll(xs)
		yr.addAll(ys)

		s := chart.ContinuousSeries{
			Name:    tr.Name,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: traceColor(tr), StrokeWidth: lineWidth(tr)},
		}
		if tr.Fill == "tonexty" && prev >= 0 {
			mask := series[prev].(chart.ContinuousSeries)
			mask.Style.FillColor = drawing.ColorWhite
			s.Style.FillColor = parseColor(tr.FillColor)
			series[prev] = s
			series = append(series, mask)
			prev = -1
			continue
		}
		series = append(series, s)
		prev = len(series) - 1
	}
	if len(series) == 0 {
		return chart.Chart{}, ErrNoData
	}

	for _, sh := range fig.Layout.Shapes {
		switch sh.Type {
		case "rect":
			series = append(series, chart.ContinuousSeries{
				XValues: []float64{sh.X0, sh.X1},
				YValues: []float64{sh.Y1, sh.Y1},
				Style: chart.Style{
					StrokeColor: drawing.ColorTransparent,
					StrokeWidth: 1,
					FillColor:   parseColor(sh.FillColor).WithAlpha(uint8(sh.Opacity * 255)),
				},
			})
			xr.add(sh.X0)
			xr.add(sh.X1)
		case "line":
			series = append(series, chart.ContinuousSeries{
				XValues: []float64{sh.X0, sh.X1},
				YValues: []float64{0, 100},
				Style:   chart.Style{StrokeColor: shapeColor(sh), StrokeWidth: 1.5},
			})
			xr.add(sh.X0)
		}
	}

	yRange := yr.rangeOf(1)
	if ax := fig.Layout.YAxis; ax != nil && len(ax.Range) == 2 {
		yRange = &chart.ContinuousRange{Min: ax.Range[0], Max: ax.Range[1]}
	}
	return chart.Chart{
		XAxis: chart.XAxis{
			Name:           axisTitle(fig.Layout.XAxis),
			ValueFormatter: numberFormatter,
			Range:          xr.rangeOf(1),
		},
		YAxis: chart.YAxis{
			Name:           axisTitle(fig.Layout.YAxis),
			ValueFormatter: numberFormatter,
			Range:          yRange,
		},
		Series: series,
	}, nil
}
