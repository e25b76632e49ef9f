// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/skyward-arcade/go-skyward/pkg/physics"
)

// SimConfig contains configuration for a simulation world
type SimConfig struct {
	// WorldHalfSize bounds aircraft X/Z positions; crossing an edge
	// wraps to the opposite one.
	WorldHalfSize float64              `json:"worldHalfSize"`
	TickRate      int                  `json:"tickRate"`
	MaxPlayers    int                  `json:"maxPlayers"`
	Airfields     []AirfieldConfig     `json:"airfields"`
	AircraftTypes []AircraftTypeConfig `json:"aircraftTypes"`
	NetworkConfig NetworkConfig        `json:"network"`
}

// AirfieldConfig is a named spawn location on the ground plane
type AirfieldConfig struct {
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Z       float64 `json:"z"`
	Heading float64 `json:"heading"` // radians from +Z
}

// AircraftTypeConfig binds a named aircraft type to its flight tuning
type AircraftTypeConfig struct {
	Name   string               `json:"name"`
	Class  string               `json:"class"`
	Flight physics.FlightConfig `json:"flight"`
}

// NetworkConfig contains network-related configuration
type NetworkConfig struct {
	UpdateRate      int    `json:"updateRate"`
	TicksPerState   int    `json:"ticksPerState"`
	UsePartialState bool   `json:"usePartialState"`
	ServerPort      int    `json:"serverPort"`
	ServerAddress   string `json:"serverAddress"`
}

// LoadConfig loads a configuration from a file
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config SimConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *SimConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default simulation configuration
func DefaultConfig() *SimConfig {
	trainer := physics.DefaultFlightConfig()

	fighter := physics.DefaultFlightConfig()
	fighter.MaxThrustAccel = 95
	fighter.PitchRate = 1.4
	fighter.RollRate = 3.0
	fighter.YawRate = 0.7
	fighter.TurningRate = 2.6

	return &SimConfig{
		WorldHalfSize: 4096,
		TickRate:      60,
		MaxPlayers:    16,
		Airfields: []AirfieldConfig{
			{Name: "North Field", X: 0, Z: 2000, Heading: 3.14159265},
			{Name: "South Field", X: 0, Z: -2000, Heading: 0},
		},
		AircraftTypes: []AircraftTypeConfig{
			{Name: "Trainer", Class: "Trainer", Flight: trainer},
			{Name: "Fighter", Class: "Fighter", Flight: fighter},
		},
		NetworkConfig: NetworkConfig{
			UpdateRate:      20,
			TicksPerState:   3,
			UsePartialState: true,
			ServerPort:      4566,
			ServerAddress:   "localhost:4566",
		},
	}
}
