package config

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if cfg.ServerAddr != "localhost" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "localhost")
	}
	if cfg.ServerPort != 4566 {
		t.Errorf("ServerPort = %d, want 4566", cfg.ServerPort)
	}
	if cfg.MaxClients != 32 {
		t.Errorf("MaxClients = %d, want 32", cfg.MaxClients)
	}
	if cfg.UpdateRate != 20 {
		t.Errorf("UpdateRate = %d, want 20", cfg.UpdateRate)
	}
	if cfg.TicksPerState != 3 {
		t.Errorf("TicksPerState = %d, want 3", cfg.TicksPerState)
	}
	if !cfg.UsePartialState {
		t.Error("UsePartialState = false, want true")
	}
	if cfg.WorldSize != 10000.0 {
		t.Errorf("WorldSize = %v, want 10000", cfg.WorldSize)
	}
	if cfg.MaxMemoryMB != 500 {
		t.Errorf("MaxMemoryMB = %d, want 500", cfg.MaxMemoryMB)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("SKYWARD_SERVER_ADDR", "0.0.0.0")
	t.Setenv("SKYWARD_SERVER_PORT", "9000")
	t.Setenv("SKYWARD_MAX_CLIENTS", "64")
	t.Setenv("SKYWARD_UPDATE_RATE", "60")
	t.Setenv("SKYWARD_USE_PARTIAL_STATE", "false")
	t.Setenv("SKYWARD_WORLD_SIZE", "50000")
	t.Setenv("SKYWARD_READ_TIMEOUT", "5s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if cfg.ServerAddr != "0.0.0.0" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, "0.0.0.0")
	}
	if cfg.ServerPort != 9000 {
		t.Errorf("ServerPort = %d, want 9000", cfg.ServerPort)
	}
	if cfg.MaxClients != 64 {
		t.Errorf("MaxClients = %d, want 64", cfg.MaxClients)
	}
	if cfg.UpdateRate != 60 {
		t.Errorf("UpdateRate = %d, want 60", cfg.UpdateRate)
	}
	if cfg.UsePartialState {
		t.Error("UsePartialState = true, want false")
	}
	if cfg.WorldSize != 50000.0 {
		t.Errorf("WorldSize = %v, want 50000", cfg.WorldSize)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
}

func TestLoadConfigFromEnvInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SKYWARD_SERVER_PORT", "not-a-number")
	t.Setenv("SKYWARD_WORLD_SIZE", "huge")
	t.Setenv("SKYWARD_READ_TIMEOUT", "forever")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	if cfg.ServerPort != 4566 {
		t.Errorf("ServerPort = %d, want default 4566", cfg.ServerPort)
	}
	if cfg.WorldSize != 10000.0 {
		t.Errorf("WorldSize = %v, want default 10000", cfg.WorldSize)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want default 30s", cfg.ReadTimeout)
	}
}

func TestEnvironmentConfigValidate(t *testing.T) {
	valid := func() *EnvironmentConfig {
		return &EnvironmentConfig{
			ServerAddr:                        "localhost",
			ServerPort:                        4566,
			MaxClients:                        32,
			ReadTimeout:                       30 * time.Second,
			WriteTimeout:                      30 * time.Second,
			UpdateRate:                        20,
			TicksPerState:                     3,
			UsePartialState:                   true,
			WorldSize:                         10000,
			CircuitBreakerMaxRequests:         3,
			CircuitBreakerInterval:            60 * time.Second,
			CircuitBreakerTimeout:             30 * time.Second,
			CircuitBreakerMaxConsecutiveFails: 5,
			MaxMemoryMB:                       500,
			MaxGoroutines:                     100,
			ShutdownTimeout:                   30 * time.Second,
			ResourceCheckInterval:             10 * time.Second,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*EnvironmentConfig)
	}{
		{"empty addr", func(c *EnvironmentConfig) { c.ServerAddr = "" }},
		{"port too low", func(c *EnvironmentConfig) { c.ServerPort = 80 }},
		{"port too high", func(c *EnvironmentConfig) { c.ServerPort = 70000 }},
		{"zero clients", func(c *EnvironmentConfig) { c.MaxClients = 0 }},
		{"too many clients", func(c *EnvironmentConfig) { c.MaxClients = 5000 }},
		{"read timeout too short", func(c *EnvironmentConfig) { c.ReadTimeout = 100 * time.Millisecond }},
		{"write timeout too long", func(c *EnvironmentConfig) { c.WriteTimeout = 5 * time.Minute }},
		{"zero update rate", func(c *EnvironmentConfig) { c.UpdateRate = 0 }},
		{"update rate too high", func(c *EnvironmentConfig) { c.UpdateRate = 500 }},
		{"world too small", func(c *EnvironmentConfig) { c.WorldSize = 10 }},
		{"world too large", func(c *EnvironmentConfig) { c.WorldSize = 1e7 }},
		{"zero breaker requests", func(c *EnvironmentConfig) { c.CircuitBreakerMaxRequests = 0 }},
		{"zero memory limit", func(c *EnvironmentConfig) { c.MaxMemoryMB = 0 }},
		{"zero goroutine limit", func(c *EnvironmentConfig) { c.MaxGoroutines = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	t.Setenv("SKYWARD_SERVER_ADDR", "testhost")
	t.Setenv("SKYWARD_SERVER_PORT", "9999")
	t.Setenv("SKYWARD_MAX_CLIENTS", "100")
	t.Setenv("SKYWARD_UPDATE_RATE", "50")
	t.Setenv("SKYWARD_WORLD_SIZE", "20000")

	cfg := DefaultConfig()
	if err := ApplyEnvironmentOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvironmentOverrides failed: %v", err)
	}

	if cfg.NetworkConfig.ServerAddress != "testhost:9999" {
		t.Errorf("ServerAddress = %q, want %q", cfg.NetworkConfig.ServerAddress, "testhost:9999")
	}
	if cfg.NetworkConfig.ServerPort != 9999 {
		t.Errorf("ServerPort = %d, want 9999", cfg.NetworkConfig.ServerPort)
	}
	if cfg.MaxPlayers != 100 {
		t.Errorf("MaxPlayers = %d, want 100", cfg.MaxPlayers)
	}
	if cfg.NetworkConfig.UpdateRate != 50 {
		t.Errorf("UpdateRate = %d, want 50", cfg.NetworkConfig.UpdateRate)
	}
	if cfg.WorldHalfSize != 10000 {
		t.Errorf("WorldHalfSize = %v, want 10000", cfg.WorldHalfSize)
	}
}

func TestApplyEnvironmentOverrides_LeavesFileValuesWhenUnset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NetworkConfig.ServerAddress = "fromfile:4000"
	cfg.MaxPlayers = 7

	if err := ApplyEnvironmentOverrides(cfg); err != nil {
		t.Fatalf("ApplyEnvironmentOverrides failed: %v", err)
	}

	if cfg.NetworkConfig.ServerAddress != "fromfile:4000" {
		t.Errorf("ServerAddress = %q, want %q", cfg.NetworkConfig.ServerAddress, "fromfile:4000")
	}
	if cfg.MaxPlayers != 7 {
		t.Errorf("MaxPlayers = %d, want 7", cfg.MaxPlayers)
	}
}

func TestApplyEnvironmentOverrides_InvalidPort(t *testing.T) {
	t.Setenv("SKYWARD_SERVER_PORT", "not-a-port")

	cfg := DefaultConfig()
	if err := ApplyEnvironmentOverrides(cfg); err == nil {
		t.Error("expected error for invalid port, got nil")
	}
}
