// Package health exposes liveness and readiness probes for the
// simulation server. Components register a Check; the readiness
// endpoint aggregates them into one pass/fail report.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Check is one component's health probe.
type Check interface {
	// Name uniquely identifies the check in the report.
	Name() string
	// Check returns an error when the component is unhealthy.
	Check(ctx context.Context) error
}

// Report aggregates every registered check's outcome.
type Report struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentStatus `json:"checks"`
}

// ComponentStatus is a single check's outcome within a Report.
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker holds the registered checks and serves the probe endpoints.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a check, replacing any previous check with the same
// name.
func (c *Checker) Register(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// Deregister removes a check by name.
func (c *Checker) Deregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Run executes every registered check. The report is "healthy" only
// when all checks pass.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report := Report{
		Status: "healthy",
		Checks: make(map[string]ComponentStatus),
	}

	for name, check := range c.checks {
		if err := check.Check(ctx); err != nil {
			report.Status = "unhealthy"
			report.Checks[name] = ComponentStatus{Status: "unhealthy", Message: err.Error()}
		} else {
			report.Checks[name] = ComponentStatus{Status: "healthy"}
		}
	}

	return report
}

// LivenessHandler answers 200 whenever the process can serve HTTP.
// Orchestrators restart the server when this stops responding.
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs every check and answers 200 or 503. Load
// balancers use it to decide whether to route players here. Checks
// get a five second budget so a stuck component cannot wedge the
// probe.
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	report := c.Run(ctx)

	w.Header().Set("Content-Type", "application/json")
	if report.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(report)
}

// SimLoopCheck reports whether the simulation loop is ticking.
type SimLoopCheck struct {
	running func() bool
}

// NewSimLoopCheck builds a check from a loop-state probe, usually
// SimServer.GetSimRunning.
func NewSimLoopCheck(running func() bool) *SimLoopCheck {
	return &SimLoopCheck{running: running}
}

func (s *SimLoopCheck) Name() string { return "sim_loop" }

func (s *SimLoopCheck) Check(ctx context.Context) error {
	if !s.running() {
		return fmt.Errorf("simulation loop is not running")
	}
	return nil
}

// ListenerCheck reports whether the TCP listener is accepting
// connections.
type ListenerCheck struct {
	addr func() string
}

// NewListenerCheck builds a check from an address probe, usually
// SimServer.GetListenerAddress.
func NewListenerCheck(addr func() string) *ListenerCheck {
	return &ListenerCheck{addr: addr}
}

func (l *ListenerCheck) Name() string { return "listener" }

func (l *ListenerCheck) Check(ctx context.Context) error {
	if l.addr() == "" {
		return fmt.Errorf("listener is not active")
	}
	return nil
}

// MemoryCheck compares sampled heap usage to a watermark.
type MemoryCheck struct {
	maxMemoryMB int64
	usageMB     func() int64
}

// NewMemoryCheck builds a memory watermark check from a usage probe.
func NewMemoryCheck(maxMemoryMB int64, usageMB func() int64) *MemoryCheck {
	return &MemoryCheck{maxMemoryMB: maxMemoryMB, usageMB: usageMB}
}

func (m *MemoryCheck) Name() string { return "memory" }

func (m *MemoryCheck) Check(ctx context.Context) error {
	if current := m.usageMB(); current > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", current, m.maxMemoryMB)
	}
	return nil
}
