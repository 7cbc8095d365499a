package figure

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	cat, err := domain.DefaultCatalog()
	require.NoError(t, err)
	return cat
}

func TestPredictions_PanelOrder(t *testing.T) {
	panels := Predictions(testDataset(), testCatalog(t), "alpha")

	var ids, conds []string
	for _, p := range panels {
		ids = append(ids, p.ID)
		conds = append(conds, p.Condition)
	}
	assert.Equal(t, []string{"plt_dh", "plt_lc", "plt_mc", "plt_hc"}, ids)
	assert.Equal(t, []string{"mc", "lc", "mc", "hc"}, conds)
}

func TestPredictions_HeadDifferencePanel(t *testing.T) {
	dh := Predictions(testDataset(), testCatalog(t), "alpha")[0].Figure

	require.Len(t, dh.Data, 3)
	median, confident, shadow := dh.Data[0], dh.Data[1], dh.Data[2]

	if diff := cmp.Diff([]float64{-1, 2}, median.X); diff != "" {
		t.Errorf("head difference x mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Prédiction", median.Name)
	assert.Equal(t, "green", median.Line.Color)
	assert.Equal(t, []float64{10, 40}, []float64(median.Y))

	assert.Equal(t, "Prédiction (84%)", confident.Name)
	assert.Equal(t, "orange", confident.Line.Color)
	assert.Equal(t, "tonexty", confident.Fill)
	assert.Equal(t, "wheat", confident.FillColor)
	assert.Equal(t, []float64{20, 55}, []float64(confident.Y))

	assert.Equal(t, "x2", shadow.XAxis)
	assert.Equal(t, []float64{50, 30}, shadow.X)
	assert.True(t, shadow.Hidden())
	assert.Equal(t, "skip", shadow.HoverInfo)
	assert.False(t, shadow.ShowLegend)

	assert.Equal(t, "<b>Conditions Générales</b>", dh.Layout.Title.Text)
	assert.Equal(t, []float64{0, 100}, dh.Layout.YAxis.Range)
	assert.Equal(t, "top", dh.Layout.XAxis2.Side)
	assert.Nil(t, dh.Layout.XAxis2.AutoRange)

	require.Len(t, dh.Layout.Shapes, 3)
	below, above, zero := dh.Layout.Shapes[0], dh.Layout.Shapes[1], dh.Layout.Shapes[2]
	assert.Equal(t, "rect", below.Type)
	assert.InDelta(t, -1, below.X1, 1e-9)
	assert.Equal(t, "#6495ED", below.FillColor)
	assert.InDelta(t, 2, above.X1, 1e-9)
	assert.Equal(t, "#FF7F50", above.FillColor)
	assert.Equal(t, "line", zero.Type)
	assert.Zero(t, zero.X0)
	assert.Equal(t, "black", zero.Line.Color)
}

func TestPredictions_ConditionPanels(t *testing.T) {
	panels := Predictions(testDataset(), testCatalog(t), "alpha")

	lc := panels[1].Figure
	assert.Equal(t, "<b>Conditions Basses Eaux</b>", lc.Layout.Title.Text)
	assert.Equal(t, "Niveaux galerie (mNGF)", lc.Layout.XAxis.Title.Text)
	assert.Equal(t, "reversed", lc.Layout.XAxis2.AutoRange)
	assert.Empty(t, lc.Layout.Shapes)
	assert.Equal(t, []float64{3}, lc.Data[0].X)

	mc := panels[2].Figure
	assert.Equal(t, []float64{5, 5}, mc.Data[0].X)

	hc := panels[3].Figure
	assert.Equal(t, []float64{85}, []float64(hc.Data[1].Y))
}

func TestPredictions_EmptyIndicator(t *testing.T) {
	panels := Predictions(testDataset(), testCatalog(t), "")

	require.Len(t, panels, 4)
	for _, p := range panels {
		assert.True(t, p.Figure.Empty(), p.ID)
		assert.NotNil(t, p.Figure.Layout.Title, p.ID)
	}
	// Only the zero line remains when there is nothing to shade.
	require.Len(t, panels[0].Figure.Layout.Shapes, 1)
	assert.Equal(t, "line", panels[0].Figure.Layout.Shapes[0].Type)
}

func TestPredictions_FiltersByIndicator(t *testing.T) {
	panels := Predictions(testDataset(), testCatalog(t), "iota_ag")
	assert.Equal(t, []float64{1}, panels[0].Figure.Data[0].X)
	assert.True(t, panels[1].Figure.Empty())
}
