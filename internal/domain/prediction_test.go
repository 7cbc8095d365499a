package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func testPredictions() []Prediction {
	return []Prediction{
		{Indicator: "alpha", Condition: "lc", GalleryLevel: 10, RiverLevel: 9, Value: 1},
		{Indicator: "alpha", Condition: "mc", GalleryLevel: 10, RiverLevel: 11, Value: 2},
		{Indicator: "iota_ag", Condition: "mc", GalleryLevel: 10, RiverLevel: 12, Value: 3},
		{Indicator: "alpha", Condition: "mc", GalleryLevel: 11, RiverLevel: 11, Value: 4},
		{Indicator: "alpha", Condition: "hc", GalleryLevel: 12, RiverLevel: 13, Value: 5},
	}
}

func TestFilterPredictions(t *testing.T) {
	rows := testPredictions()

	got := FilterPredictions(rows, "alpha", "mc")

	want := []Prediction{rows[1], rows[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterPredictions mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, FilterPredictions(rows, "", "mc"))
	assert.Empty(t, FilterPredictions(rows, "alpha", "zz"))
}

func TestConditionsAndIndicators(t *testing.T) {
	rows := testPredictions()

	assert.Equal(t, []string{"lc", "mc", "hc"}, Conditions(rows))
	assert.Equal(t, []string{"alpha", "iota_ag"}, Indicators(rows))
	assert.Empty(t, Conditions(nil))
}

func TestHeadDifference(t *testing.T) {
	assert.InDelta(t, -1.0, testPredictions()[0].HeadDifference(), 1e-9)
	assert.InDelta(t, 2.0, testPredictions()[2].HeadDifference(), 1e-9)
}
