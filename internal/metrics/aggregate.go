package metrics

import (
	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/client"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/latency"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/node"
)

// Client computes one client's full metrics row from its histories.
// "Lost" means an outbound task whose id never appears as any inbound
// prev_msg — the recipient was saturated and dropped it.
func Client(c *client.Client) ClientMetrics {
	var lat, rttObserved, rttExpected, discObserved, discExpected []float64
	var optHits, optTotal, discHits, discTotal, lost int

	answeredIDs := make(map[string]bool)
	for _, in := range c.InHistory {
		if in.PrevMsg != nil {
			answeredIDs[in.PrevMsg.ID.String()] = true
		}
		if in.Type == bus.TypeTask {
			lat = append(lat, in.Latency)
			if in.PrevMsg != nil {
				rtt := in.Timestamp - in.PrevMsg.Timestamp + in.Latency
				rttObserved = append(rttObserved, rtt)
				rttExpected = append(rttExpected, in.PrevMsg.Latency*2)
			}
		}
		if in.Type == bus.TypeDiscoveryRequest && in.PrevMsg != nil && in.PrevMsg.HasOpt {
			resp, ok := in.Body.(node.DiscoveryResponse)
			if !ok || !resp.Found {
				continue
			}
			discTotal++
			optTotal++
			discExpected = append(discExpected, in.PrevMsg.OptLatency)
			if resp.ChosenNode == *in.PrevMsg.OptNode {
				optHits++
				discHits++
				discObserved = append(discObserved, in.PrevMsg.OptLatency)
			} else {
				discObserved = append(discObserved, in.Latency)
			}
		}
	}

	for _, out := range c.OutHistory {
		if out.Type == bus.TypeTask && !answeredIDs[out.ID.String()] {
			lost++
		}
	}

	latMean, latMax, latMin := Mean(lat), 0.0, 0.0
	if len(lat) > 0 {
		latMin, latMax = MinMax(lat)
	}

	optRate := 0.0
	if optTotal > 0 {
		optRate = float64(optHits) / float64(optTotal)
	}
	discRate := 0.0
	if discTotal > 0 {
		discRate = float64(discHits) / float64(discTotal)
	}

	return ClientMetrics{
		ClientID:      c.ID,
		Reconnections: c.Reconnections,
		LatMean:       latMean,
		LatMax:        latMax,
		LatMin:        latMin,
		TotalMsgs:     len(c.OutHistory) + len(c.InHistory),
		OutMsgs:       len(c.OutHistory),
		InMsgs:        len(c.InHistory),
		LostMsgs:      lost,
		ActiveTime:    activeTime(c),
		RTTRMSE:       RMSE(rttObserved, rttExpected),
		OptRate:       optRate,
		DiscoveryRMSE: RMSE(discObserved, discExpected),
		DiscoveryRate: discRate,
	}
}

func activeTime(c *client.Client) float64 {
	var last float64
	for _, m := range c.OutHistory {
		if m.Timestamp > last {
			last = m.Timestamp
		}
	}
	for _, m := range c.InHistory {
		if m.Timestamp+m.Latency > last {
			last = m.Timestamp + m.Latency
		}
	}
	return last
}

// Node computes one node's full metrics row from its workload history.
func Node(n *node.Node, outMsgs int) NodeMetrics {
	inMsgs := len(n.InHistory)
	var workloads, clients, bandwidths []float64
	for _, w := range n.Workload {
		workloads = append(workloads, w.Utilization)
		clients = append(clients, float64(w.NumClients))
		bandwidths = append(bandwidths, latency.NodeBandwidth(w.NumClients, n.Slots))
	}

	avgW, minW, maxW := Mean(workloads), 0.0, 0.0
	if len(workloads) > 0 {
		minW, maxW = MinMax(workloads)
	}
	avgC, minC, maxC := Mean(clients), 0.0, 0.0
	if len(clients) > 0 {
		minC, maxC = MinMax(clients)
	}
	avgB, minB, maxB := Mean(bandwidths), 0.0, 0.0
	if len(bandwidths) > 0 {
		minB, maxB = MinMax(bandwidths)
	}

	return NodeMetrics{
		NodeID:       n.ID,
		AvgWorkload:  avgW,
		MinWorkload:  minW,
		MaxWorkload:  maxW,
		AvgClients:   avgC,
		MinClients:   minC,
		MaxClients:   maxC,
		AvgBandwidth: avgB,
		MinBandwidth: minB,
		MaxBandwidth: maxB,
		TotalMsgs:    outMsgs + inMsgs,
		OutMsgs:      outMsgs,
		InMsgs:       inMsgs,
	}
}

// TickAggregator accumulates the per-second time series by
// watching each client's histories grow, tick over tick.
type TickAggregator struct {
	lastOut map[string]int
	lastIn  map[string]int
	ticks   []TickMetrics
}

// NewTickAggregator constructs an empty aggregator.
func NewTickAggregator() *TickAggregator {
	return &TickAggregator{lastOut: make(map[string]int), lastIn: make(map[string]int)}
}

// Sample records one tick's worth of new discovery traffic across clients.
func (a *TickAggregator) Sample(tick float64, clients []*client.Client, totalSent int) {
	uniqueDiscoveries := 0
	optChoice := 0
	for _, c := range clients {
		key := c.ID.String()
		newOut := c.OutHistory[a.lastOut[key]:]
		a.lastOut[key] = len(c.OutHistory)
		sawDiscovery := false
		for _, m := range newOut {
			if m.Type == bus.TypeDiscoveryRequest {
				sawDiscovery = true
			}
		}
		if sawDiscovery {
			uniqueDiscoveries++
		}

		newIn := c.InHistory[a.lastIn[key]:]
		a.lastIn[key] = len(c.InHistory)
		for _, m := range newIn {
			if m.Type != bus.TypeDiscoveryRequest || m.PrevMsg == nil || !m.PrevMsg.HasOpt {
				continue
			}
			resp, ok := m.Body.(node.DiscoveryResponse)
			if ok && resp.Found && resp.ChosenNode == *m.PrevMsg.OptNode {
				optChoice++
			}
		}
	}
	a.ticks = append(a.ticks, TickMetrics{
		Tick:              tick,
		UniqueDiscoveries: uniqueDiscoveries,
		OptChoice:         optChoice,
		TotalMessages:     totalSent,
	})
}

// Ticks returns every sampled tick row.
func (a *TickAggregator) Ticks() []TickMetrics { return a.ticks }
