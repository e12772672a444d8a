package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
simulation:
  runtime: 600
  area: 1000
  area_selection: all
  scenario: berlin
  discovery_protocol: baseline
  seed: 1
map:
  x_min: 0
  x_max: 1000
  y_min: 0
  y_max: 1000
clients:
  path: clients.csv
nodes:
  path: nodes.csv
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.005, cfg.Clients.LatencyThreshold)
	assert.Equal(t, 1.2, cfg.Clients.RoundtripThreshold)
	assert.Equal(t, 0.1, cfg.Clients.TimeoutThreshold)
	assert.Equal(t, 1.0, cfg.Nodes.SlotScaler)
}

func TestLoadRejectsUnknownProtocol(t *testing.T) {
	path := writeConfig(t, `
simulation:
  runtime: 600
  area_selection: all
  scenario: berlin
  discovery_protocol: telepathy
map:
  x_min: 0
  x_max: 1
  y_min: 0
  y_max: 1
clients:
  path: c.csv
nodes:
  path: n.csv
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvertedMapBounds(t *testing.T) {
	path := writeConfig(t, `
simulation:
  runtime: 600
  area_selection: all
  scenario: berlin
  discovery_protocol: baseline
map:
  x_min: 10
  x_max: 0
  y_min: 0
  y_max: 1
clients:
  path: c.csv
nodes:
  path: n.csv
`)
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileReturnsFatalConfigError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
