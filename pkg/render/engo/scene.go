// pkg/render/engo/scene.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
	"github.com/skyward-arcade/go-skyward/pkg/event"
	"github.com/skyward-arcade/go-skyward/pkg/network"
)

// FlightScene represents the main flight scene in Engo
type FlightScene struct {
	world *ecs.World

	// Network components
	client   *network.SimClient
	eventBus *event.Bus

	// Rendering components
	renderer *EngoRenderer
	camera   *CameraSystem
	input    *InputSystem
	hud      *HUDSystem

	// Simulation state
	simState *engine.SimState
	playerID entity.ID

	// Aircraft drawn last frame, for removing vanished ones
	drawn map[entity.ID]bool
}

// NewFlightScene creates a new flight scene
func NewFlightScene(client *network.SimClient, eventBus *event.Bus, playerID entity.ID) *FlightScene {
	return &FlightScene{
		client:   client,
		eventBus: eventBus,
		playerID: playerID,
		world:    &ecs.World{},
		drawn:    make(map[entity.ID]bool),
	}
}

// Type returns the scene type (required by Engo)
func (scene *FlightScene) Type() string {
	return "FlightScene"
}

// Preload is called before the scene starts (required by Engo)
func (scene *FlightScene) Preload() {
	// Load any assets here
}

// Setup is called when the scene starts (required by Engo)
func (scene *FlightScene) Setup(u engo.Updater) {
	scene.world = &ecs.World{}
	scene.world.AddSystem(&common.RenderSystem{})
	scene.world.AddSystem(&common.MouseSystem{})

	scene.renderer = NewEngoRenderer(scene.world)
	if err := scene.renderer.Initialize(); err != nil {
		// There is no recovering from a dead renderer inside engo's
		// scene lifecycle.
		panic("Failed to initialize renderer: " + err.Error())
	}

	scene.camera = NewCameraSystem()
	scene.input = NewInputSystem(scene.client)
	scene.hud = NewHUDSystem()
	scene.hud.SetRenderTarget(scene.renderer.renderSystem)
	for _, sys := range []ecs.System{scene.camera, scene.input, scene.hud} {
		scene.world.AddSystem(sys)
	}

	// Airfields are static for the life of the connection; draw their
	// markers once.
	for _, field := range scene.client.Airfields() {
		scene.renderer.RenderAirfield(field.Name, field.X, field.Z)
	}

	go scene.handleSimStateUpdates()
	scene.subscribeToEvents()
}

// subscribeToEvents sets up event handlers
func (scene *FlightScene) subscribeToEvents() {
	scene.eventBus.Subscribe(event.StallWarning, func(e event.Event) {
		scene.hud.AddChatMessage("System", "Stall warning")
	})

	scene.eventBus.Subscribe(event.AircraftLanded, func(e event.Event) {
		scene.hud.AddChatMessage("System", "Aircraft landed")
	})
}

// handleSimStateUpdates processes simulation state updates from the client
func (scene *FlightScene) handleSimStateUpdates() {
	for simState := range scene.client.GetSimStateChannel() {
		scene.simState = simState
		scene.updateFrame(simState)
	}
}

// updateFrame renders the current simulation state
func (scene *FlightScene) updateFrame(simState *engine.SimState) {
	// Clear the previous frame
	scene.renderer.Clear()

	// Render aircraft
	for id, aircraftState := range simState.Aircraft {
		scene.renderer.RenderAircraftState(aircraftState)
		scene.drawn[id] = true

		// Follow the player's own aircraft with the camera
		if scene.isOwnAircraft(aircraftState) {
			scene.camera.SetTarget(groundPosition(aircraftState.Position))
		}
	}

	// Drop render entities for aircraft that left the simulation
	for id := range scene.drawn {
		if _, present := simState.Aircraft[id]; !present {
			scene.renderer.RemoveAircraft(id)
			delete(scene.drawn, id)
		}
	}

	// Update HUD with current simulation state
	scene.hud.UpdateSimState(simState, scene.playerID)

	// Present the rendered frame
	scene.renderer.Present()
}

// groundPosition projects a world position onto the east/north map plane
func groundPosition(pos mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{pos.X(), pos.Z()}
}

// isOwnAircraft checks whether an aircraft belongs to the current player
func (scene *FlightScene) isOwnAircraft(state engine.AircraftState) bool {
	return state.PilotID == scene.playerID
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *FlightScene) Exit() {
	// Clean up resources
}
