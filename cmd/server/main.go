// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/health"
	"github.com/skyward-arcade/go-skyward/pkg/logging"
	"github.com/skyward-arcade/go-skyward/pkg/network"
	"github.com/skyward-arcade/go-skyward/pkg/resource"
)

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithSession(context.Background(), "")

	configPath := flag.String("config", "config.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file", "config_path", *configPath)
		return
	}

	simConfig := loadSimConfig(ctx, logger, *configPath)

	sim := engine.NewSimulation(simConfig)
	if err := sim.InitializeResourceManager(); err != nil {
		logger.Error(ctx, "Failed to initialize resource manager", err)
		os.Exit(1)
	}

	server := network.NewSimServer(sim, simConfig.MaxPlayers)

	healthChecker := health.NewChecker()
	healthChecker.Register(health.NewSimLoopCheck(
		func() bool { return server.GetSimRunning() },
	))
	healthChecker.Register(health.NewListenerCheck(
		func() string { return server.GetListenerAddress() },
	))
	// Memory watermark: 500MB
	healthChecker.Register(health.NewMemoryCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))
	healthChecker.Register(resource.NewHealthCheck(sim.Resources))

	healthServer := startHealthServer(ctx, logger, healthChecker)

	serverAddr := simConfig.NetworkConfig.ServerAddress
	if serverAddr == "" {
		logger.Error(ctx, "Server address not configured", nil,
			"message", "Set SKYWARD_SERVER_ADDR and SKYWARD_SERVER_PORT environment variables or provide in config file",
		)
		os.Exit(1)
	}

	logger.Info(ctx, "Starting server",
		"address", serverAddr,
		"max_players", simConfig.MaxPlayers,
	)
	if err := server.Start(serverAddr); err != nil {
		logger.Error(ctx, "Failed to start server", err, "address", serverAddr)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Health check server shutdown failed", err)
	}

	// Stop the sim server first so no new work lands on the resource
	// guard while it drains.
	server.Stop()

	if err := sim.Resources.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Resource guard shutdown failed", err)
	}
}

// loadSimConfig reads the config file, falling back to defaults when
// the file is absent, then layers environment overrides on top.
func loadSimConfig(ctx context.Context, logger *logging.Logger, path string) *config.SimConfig {
	var simConfig *config.SimConfig

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration", "config_path", path)
		simConfig = config.DefaultConfig()
	} else {
		simConfig, err = config.LoadConfig(path)
		if err != nil {
			logger.Error(ctx, "Failed to load configuration", err, "config_path", path)
			os.Exit(1)
		}
	}

	if err := config.ApplyEnvironmentOverrides(simConfig); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}
	return simConfig
}

// startHealthServer exposes the liveness and readiness probes over
// HTTP on SKYWARD_HEALTH_PORT (default 8080).
func startHealthServer(ctx context.Context, logger *logging.Logger, checker *health.Checker) *http.Server {
	port := "8080"
	if envPort := os.Getenv("SKYWARD_HEALTH_PORT"); envPort != "" {
		if _, err := strconv.Atoi(envPort); err == nil {
			port = envPort
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.LivenessHandler)
	mux.HandleFunc("/ready", checker.ReadinessHandler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting health check server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return srv
}
