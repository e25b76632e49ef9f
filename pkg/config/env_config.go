// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvironmentConfig holds the deployment-level settings for a sim
// server, loaded from SKYWARD_* environment variables with sensible
// defaults. It is validated before use; LoadConfigFromEnv never
// returns an unvalidated config.
type EnvironmentConfig struct {
	ServerAddr      string
	ServerPort      int
	MaxClients      int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	UpdateRate      int
	TicksPerState   int
	UsePartialState bool
	WorldSize       float64

	// Circuit breaker configuration for the network client
	CircuitBreakerMaxRequests         int
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails int

	// Resource management configuration
	MaxMemoryMB           int64
	MaxGoroutines         int
	ShutdownTimeout       time.Duration
	ResourceCheckInterval time.Duration
}

// LoadConfigFromEnv builds an EnvironmentConfig from the process
// environment, applying defaults for unset variables, and validates it.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	config := &EnvironmentConfig{
		ServerAddr:      getEnvString("SKYWARD_SERVER_ADDR", "localhost"),
		ServerPort:      getEnvInt("SKYWARD_SERVER_PORT", 4566),
		MaxClients:      getEnvInt("SKYWARD_MAX_CLIENTS", 32),
		ReadTimeout:     getEnvDuration("SKYWARD_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvDuration("SKYWARD_WRITE_TIMEOUT", 30*time.Second),
		UpdateRate:      getEnvInt("SKYWARD_UPDATE_RATE", 20),
		TicksPerState:   getEnvInt("SKYWARD_TICKS_PER_STATE", 3),
		UsePartialState: getEnvBool("SKYWARD_USE_PARTIAL_STATE", true),
		WorldSize:       getEnvFloat("SKYWARD_WORLD_SIZE", 10000.0),

		CircuitBreakerMaxRequests:         getEnvInt("SKYWARD_CB_MAX_REQUESTS", 3),
		CircuitBreakerInterval:            getEnvDuration("SKYWARD_CB_INTERVAL", 60*time.Second),
		CircuitBreakerTimeout:             getEnvDuration("SKYWARD_CB_TIMEOUT", 30*time.Second),
		CircuitBreakerMaxConsecutiveFails: getEnvInt("SKYWARD_CB_MAX_CONSECUTIVE_FAILS", 5),

		MaxMemoryMB:           int64(getEnvInt("SKYWARD_MAX_MEMORY_MB", 500)),
		MaxGoroutines:         getEnvInt("SKYWARD_MAX_GOROUTINES", 100),
		ShutdownTimeout:       getEnvDuration("SKYWARD_SHUTDOWN_TIMEOUT", 30*time.Second),
		ResourceCheckInterval: getEnvDuration("SKYWARD_RESOURCE_CHECK_INTERVAL", 10*time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid environment configuration: %w", err)
	}

	return config, nil
}

// Validate checks every field against its allowed range and names the
// offending field in the returned error.
func (c *EnvironmentConfig) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("ServerAddr must not be empty")
	}
	if c.ServerPort < 1024 || c.ServerPort > 65535 {
		return fmt.Errorf("ServerPort must be in [1024,65535], got %d", c.ServerPort)
	}
	if c.MaxClients < 1 || c.MaxClients > 1000 {
		return fmt.Errorf("MaxClients must be in [1,1000], got %d", c.MaxClients)
	}
	if c.ReadTimeout < time.Second || c.ReadTimeout > time.Minute {
		return fmt.Errorf("ReadTimeout must be in [1s,1m], got %v", c.ReadTimeout)
	}
	if c.WriteTimeout < time.Second || c.WriteTimeout > time.Minute {
		return fmt.Errorf("WriteTimeout must be in [1s,1m], got %v", c.WriteTimeout)
	}
	if c.UpdateRate < 1 || c.UpdateRate > 100 {
		return fmt.Errorf("UpdateRate must be in [1,100], got %d", c.UpdateRate)
	}
	if c.TicksPerState < 1 || c.TicksPerState > 60 {
		return fmt.Errorf("TicksPerState must be in [1,60], got %d", c.TicksPerState)
	}
	if c.WorldSize < 1000 || c.WorldSize > 100000 {
		return fmt.Errorf("WorldSize must be in [1000,100000], got %v", c.WorldSize)
	}
	if c.CircuitBreakerMaxRequests < 1 {
		return fmt.Errorf("CircuitBreakerMaxRequests must be positive, got %d", c.CircuitBreakerMaxRequests)
	}
	if c.CircuitBreakerMaxConsecutiveFails < 1 {
		return fmt.Errorf("CircuitBreakerMaxConsecutiveFails must be positive, got %d", c.CircuitBreakerMaxConsecutiveFails)
	}
	if c.MaxMemoryMB < 1 {
		return fmt.Errorf("MaxMemoryMB must be positive, got %d", c.MaxMemoryMB)
	}
	if c.MaxGoroutines < 1 {
		return fmt.Errorf("MaxGoroutines must be positive, got %d", c.MaxGoroutines)
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("ShutdownTimeout must be at least 1s, got %v", c.ShutdownTimeout)
	}
	if c.ResourceCheckInterval < time.Second {
		return fmt.Errorf("ResourceCheckInterval must be at least 1s, got %v", c.ResourceCheckInterval)
	}
	return nil
}

// ApplyEnvironmentOverrides overlays SKYWARD_* environment variables
// onto an existing sim config. Only variables that are actually set
// take effect; file values survive otherwise.
func ApplyEnvironmentOverrides(cfg *SimConfig) error {
	host := ""
	if v := os.Getenv("SKYWARD_SERVER_ADDR"); v != "" {
		host = v
	}
	if v := os.Getenv("SKYWARD_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKYWARD_SERVER_PORT: %w", err)
		}
		cfg.NetworkConfig.ServerPort = port
	}
	if host != "" {
		cfg.NetworkConfig.ServerAddress = fmt.Sprintf("%s:%d", host, cfg.NetworkConfig.ServerPort)
	}
	if v := os.Getenv("SKYWARD_MAX_CLIENTS"); v != "" {
		max, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKYWARD_MAX_CLIENTS: %w", err)
		}
		cfg.MaxPlayers = max
	}
	if v := os.Getenv("SKYWARD_UPDATE_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKYWARD_UPDATE_RATE: %w", err)
		}
		cfg.NetworkConfig.UpdateRate = rate
	}
	if v := os.Getenv("SKYWARD_TICKS_PER_STATE"); v != "" {
		ticks, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKYWARD_TICKS_PER_STATE: %w", err)
		}
		cfg.NetworkConfig.TicksPerState = ticks
	}
	if v := os.Getenv("SKYWARD_USE_PARTIAL_STATE"); v != "" {
		partial, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SKYWARD_USE_PARTIAL_STATE: %w", err)
		}
		cfg.NetworkConfig.UsePartialState = partial
	}
	if v := os.Getenv("SKYWARD_WORLD_SIZE"); v != "" {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SKYWARD_WORLD_SIZE: %w", err)
		}
		// The environment variable names the full world extent
		cfg.WorldHalfSize = size / 2
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
