package render

import (
	"math"
	"regexp"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// cssColors extends the basic colors go-chart knows by name.
var cssColors = map[string]drawing.Color{
	"orange": drawing.ColorFromHex("FFA500"),
	"wheat":  drawing.ColorFromHex("F5DEB3"),
	"coral":  drawing.ColorFromHex("FF7F50"),
	"grey":   drawing.ColorFromHex("808080"),
	"gray":   drawing.ColorFromHex("808080"),
}

var fallbackColor = drawing.ColorFromHex("505050")

func parseColor(s string) drawing.Color {
	if c, ok := cssColors[s]; ok {
		return c
	}
	if c := drawing.ParseColor(s); !c.IsZero() {
		return c
	}
	return fallbackColor
}

func traceColor(tr figure.Trace) drawing.Color {
	if tr.Line == nil {
		return fallbackColor
	}
	return parseColor(tr.Line.Color)
}

func shapeColor(sh figure.Shape) drawing.Color {
	if sh.Line == nil {
		return drawing.ColorBlack
	}
	return parseColor(sh.Line.Color)
}

func lineWidth(tr figure.Trace) float64 {
	if tr.Line == nil || tr.Line.Width <= 0 {
		return 2
	}
	return tr.Line.Width
}

func axisTitle(ax *figure.Axis) string {
	if ax == nil || ax.Title == nil {
		return ""
	}
	return stripTags(ax.Title.Text)
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

func dateFormatter(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("2006-01-02")
	case float64:
		return time.Unix(0, int64(t)).UTC().Format("2006-01-02")
	default:
		return ""
	}
}

func numberFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return humanize.FormatFloat("#,###.##", f)
}

// finitePoints drops points where x or y is missing.
func finitePoints(tr figure.Trace) (xs, ys []float64) {
	for i, y := range tr.Y {
		if i >= len(tr.X) {
			break
		}
		if finite(tr.X[i]) && finite(y) {
			xs = append(xs, tr.X[i])
			ys = append(ys, y)
		}
	}
	return xs, ys
}

func finiteTimePoints(tr figure.Trace) (ts []time.Time, ys []float64) {
	for i, y := range tr.Y {
		if i >= len(tr.Times) {
			break
		}
		if finite(y) {
			ts = append(ts, tr.Times[i])
			ys = append(ys, y)
		}
	}
	return ts, ys
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// bounds accumulates the extent of plotted values.
type bounds struct {
	min, max float64
	n        int
}

func (b *bounds) add(v float64) {
	if b.n == 0 {
		b.min, b.max = v, v
	} else {
		b.min = math.Min(b.min, v)
		b.max = math.Max(b.max, v)
	}
	b.n++
}

func (b *bounds) addAll(vs []float64) {
	for _, v := range vs {
		b.add(v)
	}
}

func (b bounds) empty() bool { return b.n == 0 }

// rangeOf returns the extent as a chart range, widened by pad on both sides
// when it collapses to a single value. go-chart rejects zero-width ranges.
func (b bounds) rangeOf(pad float64) *chart.ContinuousRange {
	lo, hi := b.min, b.max
	if hi <= lo {
		lo, hi = lo-pad, hi+pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
