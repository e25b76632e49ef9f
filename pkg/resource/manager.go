// Package resource enforces the simulation server's runtime
// guardrails: a memory watermark, a ceiling on tracked goroutines,
// and a bounded drain on shutdown.
package resource

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/logging"
)

// Manager watches the server process and refuses work past its
// configured limits. Client handlers and broadcast workers run through
// Go so they are counted and drained together on shutdown.
type Manager struct {
	maxMemoryMB     int64
	maxGoroutines   int64
	shutdownTimeout time.Duration
	checkInterval   time.Duration

	tracked  int64
	memoryMB int64

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.RWMutex
	running bool
	logger  *logging.Logger

	lastMemoryCheck time.Time
}

// NewManager builds a Manager from the environment-derived limits.
func NewManager(envConfig *config.EnvironmentConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		maxMemoryMB:     envConfig.MaxMemoryMB,
		maxGoroutines:   int64(envConfig.MaxGoroutines),
		shutdownTimeout: envConfig.ShutdownTimeout,
		checkInterval:   envConfig.ResourceCheckInterval,
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
		logger:          logging.NewLogger(),
		lastMemoryCheck: time.Now(),
	}
}

// Start launches the periodic watch loop. Calling Start twice is an
// error.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	m.running = true
	m.mu.Unlock()

	go m.watch()

	m.logger.Info(m.ctx, "resource guard started",
		"max_memory_mb", m.maxMemoryMB,
		"max_goroutines", m.maxGoroutines,
		"check_interval", m.checkInterval,
	)
	return nil
}

// Go runs fn on a tracked goroutine. It fails when the goroutine
// ceiling is reached, and recovers panics so one misbehaving handler
// cannot take the server down.
func (m *Manager) Go(ctx context.Context, name string, fn func(context.Context)) error {
	if current := atomic.LoadInt64(&m.tracked); current >= m.maxGoroutines {
		m.logger.Warn(ctx, "goroutine ceiling reached",
			"current", current,
			"limit", m.maxGoroutines,
			"name", name,
		)
		return fmt.Errorf("goroutine limit exceeded: %d/%d", current, m.maxGoroutines)
	}

	atomic.AddInt64(&m.tracked, 1)
	go func() {
		defer atomic.AddInt64(&m.tracked, -1)
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error(ctx, "tracked goroutine panicked",
					fmt.Errorf("panic: %v", r),
					"name", name,
				)
			}
		}()
		fn(ctx)
	}()
	return nil
}

// CheckMemory samples heap usage and compares it to the watermark.
func (m *Manager) CheckMemory() error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	currentMB := int64(ms.Alloc / 1024 / 1024)
	atomic.StoreInt64(&m.memoryMB, currentMB)
	m.lastMemoryCheck = time.Now()

	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// TrackedGoroutines returns the number of goroutines started through
// Go that have not yet finished.
func (m *Manager) TrackedGoroutines() int64 {
	return atomic.LoadInt64(&m.tracked)
}

// MemoryUsageMB returns the heap usage from the most recent sample.
func (m *Manager) MemoryUsageMB() int64 {
	return atomic.LoadInt64(&m.memoryMB)
}

// Stats is a point-in-time view of the guardrails for health checks.
type Stats struct {
	TrackedGoroutines int64     `json:"tracked_goroutines"`
	MaxGoroutines     int64     `json:"max_goroutines"`
	MemoryUsageMB     int64     `json:"memory_usage_mb"`
	MaxMemoryMB       int64     `json:"max_memory_mb"`
	LastMemoryCheck   time.Time `json:"last_memory_check"`
}

// Stats returns current usage against the configured limits.
func (m *Manager) Stats() Stats {
	return Stats{
		TrackedGoroutines: m.TrackedGoroutines(),
		MaxGoroutines:     m.maxGoroutines,
		MemoryUsageMB:     m.MemoryUsageMB(),
		MaxMemoryMB:       m.maxMemoryMB,
		LastMemoryCheck:   m.lastMemoryCheck,
	}
}

// Shutdown stops the watch loop and waits for tracked goroutines to
// drain, up to the configured shutdown timeout. A second Shutdown is
// a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	m.logger.Info(ctx, "resource guard shutting down")
	m.cancel()

	drainCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
	defer cancel()

	select {
	case <-m.done:
	case <-drainCtx.Done():
		m.logger.Warn(ctx, "watch loop did not stop before timeout")
	}

	return m.drain(drainCtx)
}

// drain polls until every tracked goroutine has finished or the
// context expires.
func (m *Manager) drain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		remaining := m.TrackedGoroutines()
		if remaining == 0 {
			m.logger.Info(ctx, "all tracked goroutines drained")
			return nil
		}

		select {
		case <-ticker.C:
			m.logger.Debug(ctx, "waiting for tracked goroutines", "remaining", remaining)
		case <-ctx.Done():
			remaining = m.TrackedGoroutines()
			m.logger.Warn(ctx, "shutdown timeout with goroutines still running",
				"remaining", remaining,
			)
			return fmt.Errorf("shutdown timeout: %d goroutines still running", remaining)
		}
	}
}

// watch runs the periodic memory check until Shutdown.
func (m *Manager) watch() {
	defer close(m.done)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.CheckMemory(); err != nil {
				m.logger.Error(m.ctx, "memory watermark exceeded", err,
					"current_mb", m.MemoryUsageMB(),
					"limit_mb", m.maxMemoryMB,
				)
			}
			m.logger.Debug(m.ctx, "resource check",
				"goroutines", m.TrackedGoroutines(),
				"max_goroutines", m.maxGoroutines,
				"memory_mb", m.MemoryUsageMB(),
				"max_memory_mb", m.maxMemoryMB,
			)
		case <-m.ctx.Done():
			m.logger.Info(m.ctx, "resource watch loop stopping")
			return
		}
	}
}
