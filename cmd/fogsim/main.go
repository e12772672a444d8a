// Command fogsim runs one fog-node discovery simulation from a YAML
// config: it loads trip plans and node locations, drives
// the scheduler to completion, and writes the three metrics CSVs.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/arena"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/client"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/config"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/idgen"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/input"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/metrics"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/node"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/scenario"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the simulation config file")
	outDir := flag.String("out", ".", "directory metrics CSVs are written to")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fogsim:", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Simulation.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, *outDir, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, outDir string, logger *slog.Logger) error {
	nodeLocations, err := input.LoadNodeLocations(cfg.Nodes.Path)
	if err != nil {
		return err
	}
	tripPlans, err := input.LoadTripPlans(cfg.Clients.Path)
	if err != nil {
		return err
	}

	towers := scenario.Towers(cfg.Map)
	selectedNodes := scenario.SelectNodes(nodeLocations, cfg.Simulation, cfg.Map, cfg.Nodes)
	if len(selectedNodes) == 0 {
		return fmt.Errorf("no nodes selected from %s", cfg.Nodes.Path)
	}

	sched := simtime.New(logger)
	a := arena.New(sched, towers, logger)

	ringK, ringL := ringCapacities(len(selectedNodes))
	area := geo.Rect{XMin: cfg.Map.XMin, XMax: cfg.Map.XMax, YMin: cfg.Map.YMin, YMax: cfg.Map.YMax}

	totalSlots := 0
	for i, loc := range selectedNodes {
		slots := loc.Slots(cfg.Nodes.SlotScaler, cfg.Nodes.UnlimitedBandwidth)
		totalSlots += slots
		n := node.New(node.Config{
			ID:        idgen.New(cfg.Simulation.Seed, idgen.KindNode, i),
			Position:  loc.Position,
			Slots:     slots,
			HWTier:    1,
			Protocol:  cfg.Simulation.DiscoveryProtocol,
			Towers:    towers,
			Seed:      cfg.Simulation.Seed + int64(i),
			RingK:     ringK,
			RingL:     ringL,
			RingAlpha: 1,
			RingScale: 1.5,
		}, a.Bus(), sched, logger)
		a.AddNode(n)
	}

	selectedClients := scenario.SelectClients(tripPlans, cfg.Simulation, cfg.Map, cfg.Clients, totalSlots)
	for i, plan := range selectedClients {
		if len(plan.Legs) == 0 {
			continue
		}
		c := client.New(client.Config{
			ID:                 idgen.New(cfg.Simulation.Seed, idgen.KindClient, i),
			Plan:               plan.Legs,
			Protocol:           cfg.Simulation.DiscoveryProtocol,
			Towers:             towers,
			Area:               area,
			Seed:               cfg.Simulation.Seed + int64(len(selectedNodes)) + int64(i),
			LatencyThreshold:   cfg.Clients.LatencyThreshold,
			RoundtripThreshold: cfg.Clients.RoundtripThreshold,
			TimeoutThreshold:   cfg.Clients.TimeoutThreshold,
		}, a.Bus(), sched, logger)
		a.AddClient(c)
	}

	registry := metrics.NewRegistry(prometheus.DefaultRegisterer)
	ticker := metrics.NewTickAggregator()

	start := time.Now()
	var lastSent, lastReconnections int
	a.Start()
	a.Run(simtime.Time(cfg.Simulation.Runtime), func(t simtime.Time) {
		clients := a.Clients()
		sent := a.Bus().TotalSent()

		active := 0
		reconnections := 0
		for _, c := range clients {
			if !c.Stopped {
				active++
			}
			reconnections += c.Reconnections
		}
		registry.MessagesSent.Add(float64(sent - lastSent))
		registry.ActiveClients.Set(float64(active))
		registry.Reconnections.Add(float64(reconnections - lastReconnections))
		lastSent = sent
		lastReconnections = reconnections

		ticker.Sample(float64(t), clients, sent)
		fmt.Printf("Runtime: %.0f/%.0f in %s with %d messages\n", float64(t), cfg.Simulation.Runtime, time.Since(start).Round(time.Millisecond), sent)
	})

	return writeMetrics(outDir, a, ticker)
}

// ringCapacities computes the Meridian primary/secondary ring capacities:
// k = ceil(log_1.6(N)), l defaults to N-k.
func ringCapacities(n int) (k, l int) {
	if n <= 1 {
		return 1, 0
	}
	k = int(math.Ceil(math.Log(float64(n)) / math.Log(1.6)))
	if k < 1 {
		k = 1
	}
	l = n - k
	if l < 0 {
		l = 0
	}
	return k, l
}

func writeMetrics(outDir string, a *arena.Arena, ticker *metrics.TickAggregator) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	clientRows := make([]metrics.ClientMetrics, 0, len(a.Clients()))
	for _, c := range a.Clients() {
		clientRows = append(clientRows, metrics.Client(c))
	}
	if err := metrics.WriteClientCSV(filepath.Join(outDir, "client_metrics.csv"), clientRows); err != nil {
		return err
	}

	nodeRows := make([]metrics.NodeMetrics, 0, len(a.Nodes()))
	for _, n := range a.Nodes() {
		outMsgs := len(a.Bus().OutHistory(n.ID))
		nodeRows = append(nodeRows, metrics.Node(n, outMsgs))
	}
	if err := metrics.WriteNodeCSV(filepath.Join(outDir, "node_metrics.csv"), nodeRows); err != nil {
		return err
	}

	return metrics.WriteTickCSV(filepath.Join(outDir, "tick_metrics.csv"), ticker.Ticks())
}
