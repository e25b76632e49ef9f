// pkg/entity/aircraft.go
package entity

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/skyward-arcade/go-skyward/pkg/physics"
)

// AircraftClass defines the type of aircraft and its flight tuning
type AircraftClass int

const (
	Trainer AircraftClass = iota
	Fighter
	Interceptor
)

// Aircraft represents one pilot's aircraft in the simulation. The
// rigid body state and control inputs are shared with the flight
// model, which mutates them in place once per tick.
type Aircraft struct {
	BaseEntity
	Class    AircraftClass
	PilotID  ID
	Callsign string

	Body     physics.RigidBodyState
	Controls physics.ControlInputs

	model *physics.ArcadeFlightModel
}

// NewAircraft creates an aircraft of the given class at a spawn
// position, resting on the ground facing the given heading.
func NewAircraft(id ID, class AircraftClass, position mgl64.Vec3, heading float64) *Aircraft {
	a := &Aircraft{
		BaseEntity: BaseEntity{ID: id, Active: true},
		Class:      class,
		Body:       physics.NewRigidBodyState(),
	}
	a.Body.Position = position
	a.Body.RotateWorld(mgl64.Vec3{0, 1, 0}, heading)

	a.model = physics.NewArcadeFlightModel(classTuning(class), &a.Body, &a.Controls)
	a.model.SpawnGrounded()
	return a
}

// NewAircraftWithTuning creates an aircraft using an explicit flight
// configuration instead of the built-in class presets.
func NewAircraftWithTuning(id ID, class AircraftClass, tuning physics.FlightConfig, position mgl64.Vec3, heading float64) *Aircraft {
	a := &Aircraft{
		BaseEntity: BaseEntity{ID: id, Active: true},
		Class:      class,
		Body:       physics.NewRigidBodyState(),
	}
	a.Body.Position = position
	a.Body.RotateWorld(mgl64.Vec3{0, 1, 0}, heading)

	a.model = physics.NewArcadeFlightModel(tuning, &a.Body, &a.Controls)
	a.model.SpawnGrounded()
	return a
}

// Update advances the aircraft by one simulation tick.
func (a *Aircraft) Update(deltaTime float64) {
	a.model.Step(deltaTime)
}

// GetPosition returns the aircraft's world position.
func (a *Aircraft) GetPosition() mgl64.Vec3 {
	return a.Body.Position
}

// StallStatus returns the current stall index in [-1,1], for stall
// warnings and AI cues.
func (a *Aircraft) StallStatus() float64 {
	return a.model.StallStatus()
}

// Landed reports whether the aircraft is in ground contact.
func (a *Aircraft) Landed() bool {
	return a.model.Landed()
}

// FlightState returns a copy of the persistent flight state.
func (a *Aircraft) FlightState() physics.FlightState {
	return a.model.State()
}

// Tuning returns the flight configuration for the aircraft's class.
func (a *Aircraft) Tuning() physics.FlightConfig {
	return a.model.Config()
}

// SetControls replaces the control inputs read by the next tick.
// Values are expected to be pre-validated by the caller.
func (a *Aircraft) SetControls(c physics.ControlInputs) {
	a.Controls = c
}

// Render draws the aircraft through the given renderer.
func (a *Aircraft) Render(r Renderer) {
	r.RenderAircraft(a)
}

// classTuning returns the flight configuration for an aircraft class.
// All classes share the default airframe with class-specific rates.
func classTuning(class AircraftClass) physics.FlightConfig {
	cfg := physics.DefaultFlightConfig()
	switch class {
	case Fighter:
		cfg.MaxThrustAccel = 95
		cfg.PitchRate = 1.4
		cfg.RollRate = 3.0
		cfg.YawRate = 0.7
		cfg.TurningRate = 2.6
	case Interceptor:
		cfg.MaxThrustAccel = 120
		cfg.Mass = 12
		cfg.WingArea = 3.2
		cfg.PitchRate = 1.1
		cfg.RollRate = 2.6
		cfg.MinLiftFactor = 2.4
	}
	return cfg
}

// AircraftClassFromString converts a string to an AircraftClass value.
func AircraftClassFromString(s string) AircraftClass {
	switch s {
	case "Fighter":
		return Fighter
	case "Interceptor":
		return Interceptor
	default:
		return Trainer
	}
}

// String returns the class name used in configuration files.
func (c AircraftClass) String() string {
	switch c {
	case Fighter:
		return "Fighter"
	case Interceptor:
		return "Interceptor"
	default:
		return "Trainer"
	}
}
