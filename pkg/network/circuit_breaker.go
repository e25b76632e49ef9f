// Package network carries the simulation link between server and
// clients. This file guards client-side operations with a circuit
// breaker so a flapping server does not turn into a reconnect storm.
package network

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/logging"
)

// LinkGuard wraps simulation link operations with a gobreaker circuit
// breaker and bounded retry. While the breaker is open every call
// fails fast, which keeps a client from hammering a dead server.
type LinkGuard struct {
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.Logger
	maxRetries int
	baseDelay  time.Duration
}

// LinkOperation is a single attempt at a link operation, typically a
// dial or a framed write.
type LinkOperation func() error

// NewLinkGuard builds a LinkGuard from the environment-derived breaker
// settings. The breaker trips on consecutive failures and recovers
// through gobreaker's half-open probing.
func NewLinkGuard(envConfig *config.EnvironmentConfig) *LinkGuard {
	logger := logging.NewLogger()

	settings := gobreaker.Settings{
		Name:        "skyward-link",
		MaxRequests: uint32(envConfig.CircuitBreakerMaxRequests),
		Interval:    envConfig.CircuitBreakerInterval,
		Timeout:     envConfig.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(envConfig.CircuitBreakerMaxConsecutiveFails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "link breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &LinkGuard{
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
		maxRetries: 3,
		baseDelay:  time.Second,
	}
}

// Run executes one operation through the breaker. An open breaker
// rejects immediately without invoking op.
func (g *LinkGuard) Run(ctx context.Context, op LinkOperation) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if err != nil {
		g.logger.Error(ctx, "link operation failed", err,
			"state", g.breaker.State().String(),
		)
		return fmt.Errorf("link guard: %w", err)
	}
	return nil
}

// RunWithRetry executes op through the breaker with linear backoff
// between attempts. It gives up early when the breaker opens, since
// further attempts would be rejected anyway, and respects context
// cancellation during the backoff sleeps.
func (g *LinkGuard) RunWithRetry(ctx context.Context, op LinkOperation) error {
	var lastErr error

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		lastErr = g.Run(ctx, op)
		if lastErr == nil {
			return nil
		}

		if g.breaker.State() == gobreaker.StateOpen {
			g.logger.Warn(ctx, "link breaker open, abandoning retries",
				"attempt", attempt,
				"max_retries", g.maxRetries,
			)
			return lastErr
		}

		if attempt == g.maxRetries {
			break
		}

		delay := time.Duration(attempt) * g.baseDelay
		g.logger.Warn(ctx, "link operation failed, retrying",
			"attempt", attempt,
			"max_retries", g.maxRetries,
			"delay", delay,
			"error", lastErr.Error(),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	g.logger.Error(ctx, "all link retry attempts failed", lastErr,
		"attempts", g.maxRetries,
	)
	return fmt.Errorf("max retries (%d) exceeded: %w", g.maxRetries, lastErr)
}

// State exposes the breaker state for monitoring.
func (g *LinkGuard) State() gobreaker.State {
	return g.breaker.State()
}

// Counts exposes the breaker's success and failure counters.
func (g *LinkGuard) Counts() gobreaker.Counts {
	return g.breaker.Counts()
}
