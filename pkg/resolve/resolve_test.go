package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcristia/CGA/pkg/apperr"
	"github.com/jcristia/CGA/pkg/bioregion"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestScalingPrecedence(t *testing.T) {
	s, err := NewScaling("", map[string]string{"mpatt_eco_fish_reef_data": "density"})
	require.NoError(t, err)
	assert.Equal(t, "density", s.Attribute("mpatt_eco_fish_reef_data_HG", "mpatt_eco_fish_reef_data"))
	assert.Equal(t, "", s.Attribute("mpatt_hu_trawl_data"))

	g, err := NewScaling("og", nil)
	require.NoError(t, err)
	assert.Equal(t, "og", g.Attribute("anything"))
}

func TestScalingBothSourcesIsConfigurationError(t *testing.T) {
	_, err := NewScaling("og", map[string]string{"a": "b"})
	assert.True(t, apperr.IsConfiguration(err))

	_, err = LoadScaling("og", "scaling.csv")
	assert.True(t, apperr.IsConfiguration(err))
}

func TestLoadScalingFile(t *testing.T) {
	s, err := LoadScaling("", writeFile(t, "mpatt_eco_birds_puffin_colonies,count\n"))
	require.NoError(t, err)
	assert.Equal(t, "count", s.Attribute("mpatt_eco_birds_puffin_colonies"))
}

func TestScalingValue(t *testing.T) {
	v, ok := Value("", map[string]interface{}{"og": 3.0})
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = Value("og", map[string]interface{}{"og": 2.5})
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	v, ok = Value("og", map[string]interface{}{"og": "0.5"})
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	v, ok = Value("og", map[string]interface{}{})
	assert.False(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = Value("og", map[string]interface{}{"og": "high"})
	assert.False(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestThresholds(t *testing.T) {
	th, err := NewThresholds(0.05, 0.1, map[string]float64{"mpatt_hu_trawl_data": 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0.3, th.For(bioregion.KindHU, "mpatt_hu_trawl_data"))
	assert.Equal(t, 0.1, th.For(bioregion.KindHU, "mpatt_hu_longline_data"))
	assert.Equal(t, 0.05, th.For(bioregion.KindCP, "mpatt_eco_fish_reef_data"))
}

func TestThresholdsOutOfRange(t *testing.T) {
	_, err := NewThresholds(1.2, 0.05, nil)
	assert.True(t, apperr.IsConfiguration(err))

	_, err = LoadThresholds(0.05, 0.05, writeFile(t, "mpatt_hu_trawl_data,-1\n"))
	assert.True(t, apperr.IsConfiguration(err))

	_, err = LoadThresholds(0.05, 0.05, writeFile(t, "mpatt_hu_trawl_data,lots\n"))
	assert.True(t, apperr.IsConfiguration(err))
}

func TestLoadThresholdsFile(t *testing.T) {
	th, err := LoadThresholds(0.05, 0.05, writeFile(t, "mpatt_eco_fish_reef_data,0.2\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.2, th.For(bioregion.KindCP, "mpatt_eco_fish_reef_data"))
}
