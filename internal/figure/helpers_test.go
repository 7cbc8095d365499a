package figure

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/pmatran/vulnerapp/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// testDataset spans 2015 to 2016 with a missing level and two indicators.
func testDataset() *domain.Dataset {
	levels := domain.Series{Name: "n", Unit: "mNGF", Points: []domain.Observation{
		{Time: day(2015, time.December, 30), Value: 10},
		{Time: day(2015, time.December, 31), Value: 12},
		{Time: day(2016, time.January, 1), Value: 14},
		{Time: day(2016, time.January, 2), Value: math.NaN()},
		{Time: day(2016, time.January, 3), Value: 18},
	}}
	flows := domain.Series{Name: "q", Unit: "m3/h", Points: []domain.Observation{
		{Time: day(2015, time.December, 31), Value: 100},
		{Time: day(2016, time.January, 1), Value: 200},
	}}
	preds := []domain.Prediction{
		{Indicator: "alpha", Condition: "mc", GalleryLevel: 5, RiverLevel: 4, FlowRate: 50, Value: 10, Value90: 20},
		{Indicator: "alpha", Condition: "mc", GalleryLevel: 5, RiverLevel: 7, FlowRate: 30, Value: 40, Value90: 55},
		{Indicator: "alpha", Condition: "lc", GalleryLevel: 3, RiverLevel: 2, FlowRate: 60, Value: 15, Value90: 25},
		{Indicator: "alpha", Condition: "hc", GalleryLevel: 8, RiverLevel: 9, FlowRate: 20, Value: 70, Value90: 85},
		{Indicator: "iota_ag", Condition: "mc", GalleryLevel: 5, RiverLevel: 6, FlowRate: 40, Value: 33, Value90: 44},
	}
	return &domain.Dataset{Levels: levels, Flows: flows, Predictions: preds, LoadedAt: day(2024, time.May, 1)}
}

// fakeSource serves a fixed dataset with a settable generation.
type fakeSource struct {
	ds  *domain.Dataset
	gen atomic.Uint64
}

func (f *fakeSource) Snapshot() *domain.Dataset { return f.ds }
func (f *fakeSource) Generation() uint64        { return f.gen.Load() }
