package resource

import (
	"context"
	"fmt"
)

// HealthCheck reports the resource guard's view of the process for the
// readiness endpoint.
type HealthCheck struct {
	manager *Manager
}

// NewHealthCheck wraps a Manager as a health check.
func NewHealthCheck(manager *Manager) *HealthCheck {
	return &HealthCheck{manager: manager}
}

// Name identifies this check in health reports.
func (h *HealthCheck) Name() string {
	return "resource"
}

// Check fails when memory is over the watermark or tracked goroutines
// pass 80% of their ceiling. The early goroutine threshold gives
// operators warning before Go starts refusing client handlers.
func (h *HealthCheck) Check(ctx context.Context) error {
	stats := h.manager.Stats()

	if stats.MemoryUsageMB > stats.MaxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB",
			stats.MemoryUsageMB, stats.MaxMemoryMB)
	}

	threshold := int64(float64(stats.MaxGoroutines) * 0.8)
	if stats.TrackedGoroutines > threshold {
		return fmt.Errorf("goroutine count %d exceeds 80%% threshold (%d/%d)",
			stats.TrackedGoroutines, threshold, stats.MaxGoroutines)
	}

	return nil
}
