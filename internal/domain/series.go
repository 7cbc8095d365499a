package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Observation is a single dated measurement. Value is NaN when missing.
type Observation struct {
	Time  time.Time
	Value float64
}

// Series is a named time series sorted by time ascending.
type Series struct {
	Name   string
	Unit   string
	Points []Observation
}

// Len returns the number of points, including missing values.
func (s Series) Len() int { return len(s.Points) }

// Times returns the point timestamps.
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Time
	}
	return out
}

// Values returns the point values, NaN for missing.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Sort orders points by time. Points sharing a timestamp keep their relative order.
func (s Series) Sort() {
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Time.Before(s.Points[j].Time)
	})
}

// With returns a copy of the series with extra points merged in time order.
// The receiver is left untouched.
func (s Series) With(points ...Observation) Series {
	merged := make([]Observation, 0, len(s.Points)+len(points))
	merged = append(merged, s.Points...)
	merged = append(merged, points...)
	out := Series{Name: s.Name, Unit: s.Unit, Points: merged}
	out.Sort()
	return out
}

// RollingMean averages each point with the valid values of the trailing window
// (t - window, t]. The result has the same timestamps as the input; a window
// holding only missing values yields NaN. The input must be sorted.
func RollingMean(s Series, window time.Duration) (Series, error) {
	if window <= 0 {
		return Series{}, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}

	n := len(s.Points)
	out := Series{Name: s.Name, Unit: s.Unit, Points: make([]Observation, n)}
	if n == 0 {
		return out, nil
	}

	vals := make([]float64, n)
	valid := make([]float64, n)
	for i, p := range s.Points {
		if math.IsNaN(p.Value) {
			continue
		}
		vals[i] = p.Value
		valid[i] = 1
	}
	sums := floats.CumSum(make([]float64, n), vals)
	counts := floats.CumSum(make([]float64, n), valid)

	lo := 0
	for i, p := range s.Points {
		start := p.Time.Add(-window)
		for !s.Points[lo].Time.After(start) {
			lo++
		}

		sum, count := sums[i], counts[i]
		if lo > 0 {
			sum -= sums[lo-1]
			count -= counts[lo-1]
		}

		mean := math.NaN()
		if count > 0 {
			mean = sum / count
		}
		out.Points[i] = Observation{Time: p.Time, Value: mean}
	}
	return out, nil
}

// SliceYears keeps the points from January 1st of from through December 31st
// of to, both inclusive. The input must be sorted.
func SliceYears(s Series, from, to int) (Series, error) {
	if from > to {
		return Series{}, fmt.Errorf("%w: %d > %d", ErrInvalidRange, from, to)
	}
	start := time.Date(from, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	lo := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Time.Before(start) })
	hi := sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Time.Before(end) })

	points := make([]Observation, hi-lo)
	copy(points, s.Points[lo:hi])
	return Series{Name: s.Name, Unit: s.Unit, Points: points}, nil
}

// YearBounds returns the earliest and latest calendar years across all points.
func YearBounds(series ...Series) (minYear, maxYear int, err error) {
	found := false
	for _, s := range series {
		for _, p := range s.Points {
			y := p.Time.Year()
			if !found {
				minYear, maxYear, found = y, y, true
				continue
			}
			minYear = min(minYear, y)
			maxYear = max(maxYear, y)
		}
	}
	if !found {
		return 0, 0, ErrEmptySeries
	}
	return minYear, maxYear, nil
}

// Summary describes a series at a glance.
type Summary struct {
	Name   string    `json:"name"`
	Unit   string    `json:"unit"`
	Count  int       `json:"count"`
	Valid  int       `json:"valid"`
	Min    Float     `json:"min"`
	Max    Float     `json:"max"`
	Mean   Float     `json:"mean"`
	StdDev Float     `json:"std_dev"`
	First  time.Time `json:"first"`
	Last   time.Time `json:"last"`
}

// Summarize computes point counts and statistics over the valid values.
// Statistics are NaN when no value is valid; StdDev is the sample deviation.
func Summarize(s Series) Summary {
	sum := Summary{Name: s.Name, Unit: s.Unit, Count: len(s.Points)}
	if len(s.Points) > 0 {
		sum.First = s.Points[0].Time
		sum.Last = s.Points[len(s.Points)-1].Time
	}

	valid := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if !math.IsNaN(p.Value) {
			valid = append(valid, p.Value)
		}
	}
	sum.Valid = len(valid)

	nan := Float(math.NaN())
	switch len(valid) {
	case 0:
		sum.Min, sum.Max, sum.Mean, sum.StdDev = nan, nan, nan, nan
	case 1:
		v := Float(valid[0])
		sum.Min, sum.Max, sum.Mean, sum.StdDev = v, v, v, nan
	default:
		mean, std := stat.MeanStdDev(valid, nil)
		sum.Min = Float(floats.Min(valid))
		sum.Max = Float(floats.Max(valid))
		sum.Mean, sum.StdDev = Float(mean), Float(std)
	}
	return sum
}
