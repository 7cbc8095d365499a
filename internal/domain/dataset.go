package domain

import (
	"math"
	"time"
)

// Dataset is an immutable snapshot of everything the dashboard draws from.
type Dataset struct {
	Levels      Series
	Flows       Series
	Predictions []Prediction
	LoadedAt    time.Time
}

// YearBounds returns the calendar years covered by the level and flow series.
func (d *Dataset) YearBounds() (YearRange, error) {
	lo, hi, err := YearBounds(d.Levels, d.Flows)
	if err != nil {
		return YearRange{}, err
	}
	return YearRange{From: lo, To: hi}, nil
}

// WithMeasurements returns a copy of the dataset with live measurements merged
// into the level and flow series. Missing readings are not added.
func (d *Dataset) WithMeasurements(ms []Measurement) *Dataset {
	if len(ms) == 0 {
		return d
	}
	var levels, flows []Observation
	for _, m := range ms {
		if m.HasLevel() {
			levels = append(levels, Observation{Time: m.Time, Value: m.Level})
		}
		if m.HasFlow() {
			flows = append(flows, Observation{Time: m.Time, Value: m.Flow})
		}
	}
	out := *d
	if len(levels) > 0 {
		out.Levels = d.Levels.With(levels...)
	}
	if len(flows) > 0 {
		out.Flows = d.Flows.With(flows...)
	}
	return &out
}

// Fresh masks the readings of m that the dataset already covers: a level at or
// before the last level point, a flow at or before the last flow point. It
// reports false when nothing new remains.
func (d *Dataset) Fresh(m Measurement) (Measurement, bool) {
	if m.HasLevel() && !m.Time.After(lastTime(d.Levels)) {
		m.Level = math.NaN()
	}
	if m.HasFlow() && !m.Time.After(lastTime(d.Flows)) {
		m.Flow = math.NaN()
	}
	return m, m.HasLevel() || m.HasFlow()
}

func lastTime(s Series) time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Time
}
