package validation

import (
	"sync"
	"time"
)

// RateLimiter caps how many messages each client may send per window.
// The server consults it before dispatching control inputs and chat so
// a misbehaving client cannot saturate the simulation loop.
//
// Buckets refill continuously at budget/window rather than in whole
// window steps, so a client that briefly bursts recovers smoothly.
type RateLimiter struct {
	budget float64
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*messageBucket

	// now is swapped out in tests to replay long traffic patterns
	// without sleeping.
	now func() time.Time

	cleanupTick *time.Ticker
	stop        chan struct{}
	stopOnce    sync.Once
}

type messageBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter returns a limiter allowing maxMessages per client per
// window. Idle clients are evicted in the background until Close.
func NewRateLimiter(maxMessages int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		budget:      float64(maxMessages),
		window:      window,
		buckets:     make(map[string]*messageBucket),
		now:         time.Now,
		cleanupTick: time.NewTicker(window),
		stop:        make(chan struct{}),
	}
	go rl.evictIdleClients()
	return rl
}

// Allow reports whether the client may send another message now. A
// first-seen client starts with a full budget.
func (rl *RateLimiter) Allow(clientID string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[clientID]
	if !ok {
		b = &messageBucket{tokens: rl.budget, lastSeen: now}
		rl.buckets[clientID] = b
	} else {
		refill := rl.budget * float64(now.Sub(b.lastSeen)) / float64(rl.window)
		b.tokens += refill
		if b.tokens > rl.budget {
			b.tokens = rl.budget
		}
		b.lastSeen = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) evictIdleClients() {
	for {
		select {
		case <-rl.cleanupTick.C:
			cutoff := time.Now().Add(-2 * rl.window)
			rl.mu.Lock()
			for clientID, b := range rl.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(rl.buckets, clientID)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// Close stops the background eviction. Allow keeps working after
// Close; only idle-client cleanup stops.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
		rl.cleanupTick.Stop()
	})
}
