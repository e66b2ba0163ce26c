package sim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigLayersOverDefaults(t *testing.T) {
	in := `{"network_file":"net.csv","demand_file":"demand.csv","until":500}`
	cfg, err := LoadConfig(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "net.csv", cfg.NetworkFile)
	assert.Equal(t, 500, cfg.Until)
	// Untouched fields keep their defaults.
	assert.Equal(t, 100, cfg.EachBlockLength)
	assert.Equal(t, 500, cfg.DedicatedLaneLength)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	_, err := LoadConfig(strings.NewReader(`{"network":"oops.csv"}`))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorContains(t, cfg.Validate(), "network_file")

	cfg.NetworkFile = "net.csv"
	assert.ErrorContains(t, cfg.Validate(), "demand_file")

	cfg.DemandFile = "demand.csv"
	cfg.Until = 0
	assert.ErrorContains(t, cfg.Validate(), "until")

	cfg.Until = 100
	cfg.EachBlockLength = 0
	assert.ErrorContains(t, cfg.Validate(), "block length")
}
