package node

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// newAdmissionBreaker wraps a node's task-admission path in a circuit
// breaker: after at least 5 admission attempts in a 10s window with 80% or
// more failing, it opens and rejects admissions for 5s, mirroring the
// reference mesh's ErrCodeCircuitOpen handling in core/mesh/errors.go.
// Selectors do not consult the breaker; they see only a node's free-slot
// count.
func newAdmissionBreaker(nodeID string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "admission:" + nodeID,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
	})
}

var errSaturated = errors.New("node saturated")

// admit attempts to reserve a slot through the breaker. It reports true if
// the task was admitted (breaker closed/half-open and a slot was free).
func admit(cb *gobreaker.CircuitBreaker, tryAdmit func() bool) bool {
	_, err := cb.Execute(func() (any, error) {
		if tryAdmit() {
			return nil, nil
		}
		return nil, errSaturated
	})
	return err == nil
}
