package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteClientCSV writes the per-client metrics CSV.
func WriteClientCSV(path string, rows []ClientMetrics) error {
	header := []string{
		"client_id", "reconnections", "lat_mean", "lat_max", "lat_min",
		"total_msgs", "out_msgs", "in_msgs", "lost_msgs", "active_time",
		"rtt_rmse", "opt_rate", "discovery_rmse", "discovery_rate",
	}
	return writeCSV(path, header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.ClientID.String(),
			itoa(r.Reconnections),
			ftoa(r.LatMean), ftoa(r.LatMax), ftoa(r.LatMin),
			itoa(r.TotalMsgs), itoa(r.OutMsgs), itoa(r.InMsgs), itoa(r.LostMsgs),
			ftoa(r.ActiveTime), ftoa(r.RTTRMSE), ftoa(r.OptRate),
			ftoa(r.DiscoveryRMSE), ftoa(r.DiscoveryRate),
		}
	})
}

// WriteNodeCSV writes the per-node metrics CSV.
func WriteNodeCSV(path string, rows []NodeMetrics) error {
	header := []string{
		"node_id", "avg_workload", "min_workload", "max_workload",
		"avg_clients", "min_clients", "max_clients",
		"avg_bandwidth", "min_bandwidth", "max_bandwidth",
		"total_msgs", "out_msgs", "in_msgs",
	}
	return writeCSV(path, header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.NodeID.String(),
			ftoa(r.AvgWorkload), ftoa(r.MinWorkload), ftoa(r.MaxWorkload),
			ftoa(r.AvgClients), ftoa(r.MinClients), ftoa(r.MaxClients),
			ftoa(r.AvgBandwidth), ftoa(r.MinBandwidth), ftoa(r.MaxBandwidth),
			itoa(r.TotalMsgs), itoa(r.OutMsgs), itoa(r.InMsgs),
		}
	})
}

// WriteTickCSV writes the per-tick time-series CSV.
func WriteTickCSV(path string, rows []TickMetrics) error {
	header := []string{"tick", "unique_discoveries", "opt_choice", "total_messages"}
	return writeCSV(path, header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{ftoa(r.Tick), itoa(r.UniqueDiscoveries), itoa(r.OptChoice), itoa(r.TotalMessages)}
	})
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	return w.Error()
}

func itoa(v int) string     { return fmt.Sprintf("%d", v) }
func ftoa(v float64) string { return fmt.Sprintf("%.6f", v) }
