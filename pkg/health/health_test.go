package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubCheck struct {
	name    string
	healthy bool
}

func (s *stubCheck) Name() string { return s.name }

func (s *stubCheck) Check(ctx context.Context) error {
	if !s.healthy {
		return fmt.Errorf("%s failed", s.name)
	}
	return nil
}

type slowCheck struct {
	name  string
	delay time.Duration
}

func (s *slowCheck) Name() string { return s.name }

func (s *slowCheck) Check(ctx context.Context) error {
	select {
	case <-time.After(s.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestNewChecker(t *testing.T) {
	c := NewChecker()
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if c.checks == nil {
		t.Error("checks map not initialized")
	}
}

func TestChecker_RegisterDeregister(t *testing.T) {
	c := NewChecker()

	check := &stubCheck{name: "listener", healthy: true}
	c.Register(check)
	if len(c.checks) != 1 || c.checks["listener"] != check {
		t.Fatalf("Register() did not store the check: %v", c.checks)
	}

	c.Deregister("listener")
	if len(c.checks) != 0 {
		t.Errorf("Deregister() left %d checks", len(c.checks))
	}
}

func TestChecker_Run(t *testing.T) {
	tests := []struct {
		name   string
		checks []*stubCheck
		want   string
	}{
		{"no checks", nil, "healthy"},
		{"all pass", []*stubCheck{
			{name: "sim_loop", healthy: true},
			{name: "listener", healthy: true},
		}, "healthy"},
		{"one fails", []*stubCheck{
			{name: "sim_loop", healthy: true},
			{name: "listener", healthy: false},
		}, "unhealthy"},
		{"all fail", []*stubCheck{
			{name: "sim_loop", healthy: false},
			{name: "listener", healthy: false},
		}, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for _, check := range tt.checks {
				c.Register(check)
			}

			report := c.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("report.Status = %q, want %q", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("len(report.Checks) = %d, want %d", len(report.Checks), len(tt.checks))
			}

			for _, check := range tt.checks {
				got, ok := report.Checks[check.name]
				if !ok {
					t.Errorf("no result for %q", check.name)
					continue
				}
				want := "healthy"
				if !check.healthy {
					want = "unhealthy"
				}
				if got.Status != want {
					t.Errorf("check %q = %q, want %q", check.name, got.Status, want)
				}
			}
		})
	}
}

func TestChecker_RunRespectsContextDeadline(t *testing.T) {
	c := NewChecker()
	c.Register(&slowCheck{name: "slow", delay: 100 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report := c.Run(ctx)
	if report.Status != "unhealthy" {
		t.Errorf("report.Status = %q, want unhealthy on deadline", report.Status)
	}
	if got := report.Checks["slow"]; got.Status != "unhealthy" {
		t.Errorf("slow check status = %q, want unhealthy", got.Status)
	}
}

func TestChecker_LivenessHandler(t *testing.T) {
	c := NewChecker()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	c.LivenessHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("status = %q, want alive", body["status"])
	}
}

func TestChecker_ReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     []*stubCheck
		wantCode   int
		wantStatus string
	}{
		{"ready", []*stubCheck{{name: "sim_loop", healthy: true}}, http.StatusOK, "healthy"},
		{"not ready", []*stubCheck{{name: "sim_loop", healthy: false}}, http.StatusServiceUnavailable, "unhealthy"},
		{"no checks", nil, http.StatusOK, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for _, check := range tt.checks {
				c.Register(check)
			}

			req := httptest.NewRequest("GET", "/ready", nil)
			w := httptest.NewRecorder()
			c.ReadinessHandler(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}

			var report Report
			if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
				t.Fatalf("decoding report: %v", err)
			}
			if report.Status != tt.wantStatus {
				t.Errorf("report.Status = %q, want %q", report.Status, tt.wantStatus)
			}
		})
	}
}

func TestSimLoopCheck(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		wantErr bool
	}{
		{"loop ticking", true, false},
		{"loop stopped", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewSimLoopCheck(func() bool { return tt.running })
			if check.Name() != "sim_loop" {
				t.Errorf("Name() = %q, want sim_loop", check.Name())
			}
			err := check.Check(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestListenerCheck(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"listening", "127.0.0.1:4566", false},
		{"no listener", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewListenerCheck(func() string { return tt.addr })
			if check.Name() != "listener" {
				t.Errorf("Name() = %q, want listener", check.Name())
			}
			err := check.Check(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryCheck(t *testing.T) {
	tests := []struct {
		name    string
		limit   int64
		usage   int64
		wantErr bool
	}{
		{"under watermark", 100, 50, false},
		{"at watermark", 100, 100, false},
		{"over watermark", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewMemoryCheck(tt.limit, func() int64 { return tt.usage })
			if check.Name() != "memory" {
				t.Errorf("Name() = %q, want memory", check.Name())
			}
			err := check.Check(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func BenchmarkChecker_Run(b *testing.B) {
	c := NewChecker()
	for i := 0; i < 10; i++ {
		c.Register(&stubCheck{name: fmt.Sprintf("check%d", i), healthy: true})
	}

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Run(ctx)
	}
}
