package node

import (
	"time"

	"github.com/yasserelgammal/rate-limiter/limiter"
	"github.com/yasserelgammal/rate-limiter/store"
)

// newProbeLimiter throttles a node's outbound probe emission, the same
// token-bucket construction as the reference gossip manager's
// checkRateLimit (core/mesh/routing/gossip.go).
func newProbeLimiter(ratePerSecond int, burst int) *limiter.TokenBucket {
	memStore := store.NewMemoryStore(time.Minute)
	tb, err := limiter.NewTokenBucket(limiter.Config{
		Rate:     int64(ratePerSecond),
		Duration: time.Second,
		Burst:    int64(burst),
	}, memStore)
	if err != nil {
		return nil
	}
	return tb
}

func allowProbe(tb *limiter.TokenBucket, key string) bool {
	if tb == nil {
		return true
	}
	return tb.Allow(key)
}
