// Package config loads and validates the simulator's YAML configuration.
// Unknown keys, missing required values and unrecognized enums are fatal
// configuration errors: they abort before scheduling starts.
package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/protocol"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
)

type AreaSelection string

const (
	AreaCenter AreaSelection = "center"
	AreaRandom AreaSelection = "random"
	AreaAll    AreaSelection = "all"
)

type Scenario string

const (
	ScenarioBerlin  Scenario = "berlin"
	ScenarioGermany Scenario = "germany"
)

// Simulation holds the `simulation` config section.
type Simulation struct {
	Runtime           float64       `yaml:"runtime"`
	Area              float64       `yaml:"area"`
	AreaSelection     AreaSelection `yaml:"area_selection"`
	Scenario          Scenario      `yaml:"scenario"`
	DiscoveryProtocol protocol.Kind `yaml:"discovery_protocol"`
	Verbose           bool          `yaml:"verbose"`
	Seed              int64         `yaml:"seed"`
}

// Map holds the `map` config section: the projected-coordinate bounding box.
type Map struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

// Clients holds the `clients` config section.
type Clients struct {
	Path               string  `yaml:"path"`
	MaxClients         *int    `yaml:"max_clients"`
	ClientRatio        float64 `yaml:"client_ratio"`
	LatencyThreshold   float64 `yaml:"latency_threshold"`
	RoundtripThreshold float64 `yaml:"roundtrip_threshold"`
	TimeoutThreshold   float64 `yaml:"timeout_threshold"`
}

// Nodes holds the `nodes` config section.
type Nodes struct {
	Path               string  `yaml:"path"`
	MinNodes           int     `yaml:"min_nodes"`
	MaxNodes           *int    `yaml:"max_nodes"`
	SlotScaler         float64 `yaml:"slot_scaler"`
	UnlimitedBandwidth bool    `yaml:"unlimited_bandwidth"`
}

// Config is the full parsed and validated configuration tree.
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Map        Map        `yaml:"map"`
	Clients    Clients    `yaml:"clients"`
	Nodes      Nodes      `yaml:"nodes"`
}

// Load reads and parses path, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.ErrConfig("reading config file", err)
	}
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, simerr.ErrConfig("parsing config yaml", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Clients.LatencyThreshold == 0 {
		cfg.Clients.LatencyThreshold = 0.005
	}
	if cfg.Clients.RoundtripThreshold == 0 {
		cfg.Clients.RoundtripThreshold = 1.2
	}
	if cfg.Clients.TimeoutThreshold == 0 {
		cfg.Clients.TimeoutThreshold = 0.1
	}
	if cfg.Nodes.SlotScaler == 0 {
		cfg.Nodes.SlotScaler = 1.0
	}
}

// Validate checks every required field and enum
// "Fatal configuration".
func (c *Config) Validate() error {
	if c.Simulation.Runtime <= 0 {
		return simerr.ErrConfig("simulation.runtime must be > 0", nil)
	}
	switch c.Simulation.AreaSelection {
	case AreaCenter, AreaRandom, AreaAll:
	default:
		return simerr.ErrConfig("unknown area_selection: "+string(c.Simulation.AreaSelection), nil)
	}
	switch c.Simulation.Scenario {
	case ScenarioBerlin, ScenarioGermany:
	default:
		return simerr.ErrConfig("unknown scenario: "+string(c.Simulation.Scenario), nil)
	}
	if !c.Simulation.DiscoveryProtocol.Valid() {
		return simerr.ErrConfig("unknown discovery_protocol: "+string(c.Simulation.DiscoveryProtocol), nil)
	}
	if c.Map.XMax <= c.Map.XMin || c.Map.YMax <= c.Map.YMin {
		return simerr.ErrConfig("map bounds must satisfy x_min<x_max and y_min<y_max", nil)
	}
	if c.Clients.Path == "" {
		return simerr.ErrConfig("clients.path is required", nil)
	}
	if c.Nodes.Path == "" {
		return simerr.ErrConfig("nodes.path is required", nil)
	}
	return nil
}
