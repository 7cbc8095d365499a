package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// RawMessage is an unprocessed message from the measurement topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// measurementRecord is the JSON payload published by the gallery station.
type measurementRecord struct {
	Time  string   `json:"time"`
	Level *float64 `json:"level"`
	Flow  *float64 `json:"flow"`
}

// Measurement is a live gallery reading. Level and Flow are NaN when absent.
type Measurement struct {
	Time       time.Time
	Level      float64 // mNGF
	Flow       float64 // m3/h
	ReceivedAt time.Time
}

func (m Measurement) HasLevel() bool { return !math.IsNaN(m.Level) }
func (m Measurement) HasFlow() bool  { return !math.IsNaN(m.Flow) }

// ParseMeasurement decodes a raw message into a Measurement. A payload without
// a time takes the message timestamp.
func ParseMeasurement(raw RawMessage) (Measurement, error) {
	var rec measurementRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Measurement{}, fmt.Errorf("parse measurement: %w", err)
	}

	var (
		t   time.Time
		err error
	)
	if strings.TrimSpace(rec.Time) == "" {
		t = raw.Timestamp.UTC()
	} else {
		t, err = ParseDate(rec.Time)
		if err != nil {
			return Measurement{}, fmt.Errorf("parse measurement: %w", err)
		}
	}
	if t.IsZero() {
		return Measurement{}, errors.New("parse measurement: missing time")
	}

	m := Measurement{Time: t, Level: math.NaN(), Flow: math.NaN(), ReceivedAt: clock.Now()}
	if rec.Level != nil {
		m.Level = *rec.Level
	}
	if rec.Flow != nil {
		m.Flow = *rec.Flow
	}
	if !m.HasLevel() && !m.HasFlow() {
		return Measurement{}, errors.New("parse measurement: neither level nor flow present")
	}
	return m, nil
}

// MergeMeasurements folds readings sharing a timestamp into one, later
// non-missing values overriding earlier ones, and returns them in time order.
func MergeMeasurements(ms []Measurement) []Measurement {
	if len(ms) < 2 {
		return ms
	}
	out := make([]Measurement, 0, len(ms))
	at := make(map[int64]int, len(ms))
	for _, m := range ms {
		key := m.Time.UnixNano()
		i, seen := at[key]
		if !seen {
			at[key] = len(out)
			out = append(out, m)
			continue
		}
		if m.HasLevel() {
			out[i].Level = m.Level
		}
		if m.HasFlow() {
			out[i].Flow = m.Flow
		}
		out[i].ReceivedAt = m.ReceivedAt
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
}

// ParseDate parses the date formats found in the gallery CSV exports. Times
// without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
