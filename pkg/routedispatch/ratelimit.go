package routedispatch

import (
	"sync"
	"time"
)

// rateLimitWindow is the sliding window width every client/tier pair is
// measured against (§12).
const rateLimitWindow = 60 * time.Second

// DefaultLimits are the per-tier request budgets within rateLimitWindow.
// Inference routes (chat/generate/embeddings) are capped tighter than
// standard bookkeeping routes.
var DefaultLimits = map[string]int{
	"inference": 30,
	"standard":  120,
}

type clientWindow struct {
	resetAt time.Time
	count   int
}

// RateLimiter tracks request counts per (client_id, tier) over a 60-second
// sliding window, resetting and sweeping stale entries on every check
// (§12, from native-messaging/src/middleware.rs).
type RateLimiter struct {
	mu      sync.Mutex
	limits  map[string]int
	windows map[string]*clientWindow
}

// NewRateLimiter constructs a RateLimiter with the given per-tier limits.
// A nil or partial map falls back to DefaultLimits for missing tiers.
func NewRateLimiter(limits map[string]int) *RateLimiter {
	merged := make(map[string]int, len(DefaultLimits))
	for k, v := range DefaultLimits {
		merged[k] = v
	}
	for k, v := range limits {
		merged[k] = v
	}
	return &RateLimiter{limits: merged, windows: make(map[string]*clientWindow)}
}

func rateLimitKey(clientID, tier string) string {
	return clientID + "\x00" + tier
}

// Allow reports whether one more request from (clientID, tier) fits within
// its current window, incrementing the count as a side effect.
func (rl *RateLimiter) Allow(clientID, tier string) bool {
	limit, ok := rl.limits[tier]
	if !ok {
		limit = rl.limits["standard"]
	}

	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	key := rateLimitKey(clientID, tier)
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.resetAt) >= rateLimitWindow {
		w = &clientWindow{resetAt: now, count: 0}
		rl.windows[key] = w
	}

	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

// sweep removes windows that have aged out, keeping the map from growing
// unbounded across many distinct clients (§12).
func (rl *RateLimiter) sweep(now time.Time) {
	for key, w := range rl.windows {
		if now.Sub(w.resetAt) >= rateLimitWindow {
			delete(rl.windows, key)
		}
	}
}
