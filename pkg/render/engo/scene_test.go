// pkg/render/engo/scene_test.go
package engo

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
	"github.com/skyward-arcade/go-skyward/pkg/event"
	"github.com/skyward-arcade/go-skyward/pkg/network"
)

// TestNewFlightScene tests the creation of a new flight scene
func TestNewFlightScene(t *testing.T) {
	client := network.NewSimClient(event.NewEventBus())
	eventBus := event.NewEventBus()
	playerID := entity.ID(123)

	scene := NewFlightScene(client, eventBus, playerID)
	if scene == nil {
		t.Fatal("NewFlightScene() returned nil")
	}

	if scene.client != client {
		t.Error("client not wired into scene")
	}
	if scene.eventBus != eventBus {
		t.Error("event bus not wired into scene")
	}
	if scene.playerID != playerID {
		t.Errorf("playerID = %d, want %d", scene.playerID, playerID)
	}
	if scene.world == nil {
		t.Error("ECS world not initialized")
	}
}

// TestFlightScene_Type tests the Type method
func TestFlightScene_Type(t *testing.T) {
	scene := NewFlightScene(network.NewSimClient(event.NewEventBus()), event.NewEventBus(), 123)
	if got := scene.Type(); got != "FlightScene" {
		t.Errorf("Type() = %q, want %q", got, "FlightScene")
	}
}

// TestGroundPosition tests the projection of world positions onto the map plane
func TestGroundPosition(t *testing.T) {
	tests := []struct {
		name     string
		worldPos mgl64.Vec3
		expected mgl64.Vec2
	}{
		{
			name:     "origin",
			worldPos: mgl64.Vec3{0, 0, 0},
			expected: mgl64.Vec2{0, 0},
		},
		{
			name:     "altitude_ignored",
			worldPos: mgl64.Vec3{100, 2500, 200},
			expected: mgl64.Vec2{100, 200},
		},
		{
			name:     "negative_coordinates",
			worldPos: mgl64.Vec3{-50, 300, -75},
			expected: mgl64.Vec2{-50, -75},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := groundPosition(tt.worldPos)

			if result != tt.expected {
				t.Errorf("groundPosition(%v) = %v, want %v", tt.worldPos, result, tt.expected)
			}
		})
	}
}

// TestFlightScene_IsOwnAircraft tests own-aircraft identification
func TestFlightScene_IsOwnAircraft(t *testing.T) {
	tests := []struct {
		name     string
		playerID entity.ID
		pilotID  entity.ID
		expected bool
	}{
		{
			name:     "is_own_aircraft",
			playerID: 123,
			pilotID:  123,
			expected: true,
		},
		{
			name:     "is_other_aircraft",
			playerID: 123,
			pilotID:  456,
			expected: false,
		},
		{
			name:     "zero_pilot_id",
			playerID: 0,
			pilotID:  0,
			expected: true,
		},
	}

	client := network.NewSimClient(event.NewEventBus())
	eventBus := event.NewEventBus()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene := NewFlightScene(client, eventBus, tt.playerID)
			state := engine.AircraftState{
				ID:      entity.ID(1),
				PilotID: tt.pilotID,
			}

			result := scene.isOwnAircraft(state)

			if result != tt.expected {
				t.Errorf("Expected isOwnAircraft(pilot %d) to return %t, got %t", tt.pilotID, tt.expected, result)
			}
		})
	}
}

// TestFlightScene_Preload tests the Preload method
func TestFlightScene_Preload(t *testing.T) {
	client := network.NewSimClient(event.NewEventBus())
	eventBus := event.NewEventBus()
	scene := NewFlightScene(client, eventBus, 123)

	// Preload should not panic or error
	scene.Preload()

	// Since Preload is currently a no-op, just verify it doesn't crash
	// In a real implementation, this would verify asset loading
}

// TestFlightScene_Exit tests the Exit method
func TestFlightScene_Exit(t *testing.T) {
	client := network.NewSimClient(event.NewEventBus())
	eventBus := event.NewEventBus()
	scene := NewFlightScene(client, eventBus, 123)

	// Exit should not panic or error
	scene.Exit()

	// Since Exit is currently a no-op, just verify it doesn't crash
	// In a real implementation, this would verify cleanup
}
