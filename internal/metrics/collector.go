// Package metrics implements the post-run aggregation and CSV export
// contract, plus live Prometheus counters surfaced during the run.
package metrics

import (
	"math"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics is one row of the per-client CSV.
type ClientMetrics struct {
	ClientID      uuid.UUID
	Reconnections int
	LatMean       float64
	LatMax        float64
	LatMin        float64
	TotalMsgs     int
	OutMsgs       int
	InMsgs        int
	LostMsgs      int
	ActiveTime    float64
	RTTRMSE       float64
	OptRate       float64
	DiscoveryRMSE float64
	DiscoveryRate float64
}

// NodeMetrics is one row of the per-node CSV.
type NodeMetrics struct {
	NodeID       uuid.UUID
	AvgWorkload  float64
	MinWorkload  float64
	MaxWorkload  float64
	AvgClients   float64
	MinClients   float64
	MaxClients   float64
	AvgBandwidth float64
	MinBandwidth float64
	MaxBandwidth float64
	TotalMsgs    int
	OutMsgs      int
	InMsgs       int
}

// TickMetrics is one row of the per-tick time-series CSV.
type TickMetrics struct {
	Tick              float64
	UniqueDiscoveries int
	OptChoice         int
	TotalMessages     int
}

// Registry exposes the live Prometheus instruments read during a run,
// in addition to the CSVs written at the end of one.
type Registry struct {
	MessagesSent  prometheus.Counter
	ActiveClients prometheus.Gauge
	Reconnections prometheus.Counter
	DiscoveryReqs prometheus.Counter
}

// NewRegistry constructs and registers the live instruments against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fogsim_messages_sent_total",
			Help: "Total messages sent through the bus.",
		}),
		ActiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fogsim_active_clients",
			Help: "Clients currently running.",
		}),
		Reconnections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fogsim_reconnections_total",
			Help: "Total client reconnection events.",
		}),
		DiscoveryReqs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fogsim_discovery_requests_total",
			Help: "Total type-2 discovery requests issued.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.MessagesSent, r.ActiveClients, r.Reconnections, r.DiscoveryReqs)
	}
	return r
}

// RMSE computes the root-mean-square error between observed and expected
// paired samples.
func RMSE(observed, expected []float64) float64 {
	if len(observed) == 0 || len(observed) != len(expected) {
		return 0
	}
	var sumSq float64
	for i := range observed {
		d := observed[i] - expected[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(observed)))
}

// Mean returns the arithmetic mean of vals, or 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// MinMax returns the minimum and maximum of vals, or (0, 0) for an empty
// slice.
func MinMax(vals []float64) (min, max float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	min, max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
