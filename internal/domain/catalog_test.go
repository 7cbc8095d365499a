package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.Equal(t, "Galerie de Caupian", c.Site.Title)
	assert.Equal(t, "mc", c.GeneralCondition)

	codes := make([]string, 0, len(c.Indicators))
	for _, ind := range c.Indicators {
		codes = append(codes, ind.Code)
	}
	assert.Equal(t, []string{"alpha", "iota_ag", "iota_fdc", "iota_ga"}, codes)

	ind, ok := c.Indicator("iota_fdc")
	require.True(t, ok)
	assert.Equal(t, "Indice de mélange (Fief de Candale)", ind.Name)
	assert.Equal(t, `$\iota_{FDC}$`, ind.Symbol)

	cdt, ok := c.Condition("lc")
	require.True(t, ok)
	assert.Equal(t, "Conditions Basses Eaux", cdt.Name)
}

func TestCatalogResolveIndicator(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	code, err := c.ResolveIndicator("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", code)

	code, err = c.ResolveIndicator("")
	require.NoError(t, err)
	assert.Empty(t, code)

	_, err = c.ResolveIndicator("beta")
	require.ErrorIs(t, err, ErrUnknownIndicator)
}

func TestParseCatalog_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{name: "malformed", yaml: "indicators: [", want: "parse catalog"},
		{name: "no indicators", yaml: "conditions: [{code: mc}]\ngeneral_condition: mc", want: "no indicators"},
		{name: "no conditions", yaml: "indicators: [{code: alpha}]", want: "no conditions"},
		{
			name: "duplicate indicator",
			yaml: "indicators: [{code: alpha}, {code: alpha}]\nconditions: [{code: mc}]\ngeneral_condition: mc",
			want: "duplicate indicator",
		},
		{
			name: "unknown general condition",
			yaml: "indicators: [{code: alpha}]\nconditions: [{code: lc}]\ngeneral_condition: mc",
			want: "general condition",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "site: {title: Test}\ngeneral_condition: mc\nindicators: [{code: alpha, name: A}]\nconditions: [{code: mc, name: M}]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "Test", c.Site.Title)
	assert.Len(t, c.Indicators, 1)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
