// pkg/physics/state.go
package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Body-frame canonical axes. The aircraft flies along +Z with +Y up
// and +X out the right wing; the triad is right-handed (X cross Y = Z).
var (
	axisForward = mgl64.Vec3{0, 0, 1}
	axisUp      = mgl64.Vec3{0, 1, 0}
	axisRight   = mgl64.Vec3{1, 0, 0}
)

// RigidBodyState is the mutable kinematic state of one aircraft. The
// flight model mutates it in place every tick; position Y is altitude
// and velocity is expressed in the world frame.
type RigidBodyState struct {
	Orientation mgl64.Quat
	Position    mgl64.Vec3
	Velocity    mgl64.Vec3
}

// NewRigidBodyState returns a body at rest at the origin with an
// identity orientation.
func NewRigidBodyState() RigidBodyState {
	return RigidBodyState{Orientation: mgl64.QuatIdent()}
}

// Forward returns the body forward axis in world coordinates.
func (b *RigidBodyState) Forward() mgl64.Vec3 {
	return b.Orientation.Rotate(axisForward)
}

// Up returns the body up axis in world coordinates.
func (b *RigidBodyState) Up() mgl64.Vec3 {
	return b.Orientation.Rotate(axisUp)
}

// Right returns the body right axis in world coordinates.
func (b *RigidBodyState) Right() mgl64.Vec3 {
	return b.Orientation.Rotate(axisRight)
}

// RotateLocal applies an incremental rotation of angle radians about a
// body-frame axis.
func (b *RigidBodyState) RotateLocal(axis mgl64.Vec3, angle float64) {
	b.Orientation = b.Orientation.Mul(mgl64.QuatRotate(angle, axis)).Normalize()
}

// RotateWorld applies an incremental rotation of angle radians about an
// arbitrary world-frame axis.
func (b *RigidBodyState) RotateWorld(axis mgl64.Vec3, angle float64) {
	b.Orientation = mgl64.QuatRotate(angle, axis).Mul(b.Orientation).Normalize()
}

// Speed returns the magnitude of the velocity vector.
func (b *RigidBodyState) Speed() float64 {
	return b.Velocity.Len()
}

// Altitude returns the vertical position of the body.
func (b *RigidBodyState) Altitude() float64 {
	return b.Position.Y()
}

// ControlInputs are the per-tick pilot (or AI) commands. They are set
// by an input layer before each tick and are read-only to the flight
// model. Roll, Pitch and Yaw are in [-1,1]; Pitch > 0 pulls the nose
// up. Throttle is in [0,1].
type ControlInputs struct {
	Roll     float64 `json:"roll"`
	Pitch    float64 `json:"pitch"`
	Yaw      float64 `json:"yaw"`
	Throttle float64 `json:"throttle"`
}

// FlightState is the persistent flight condition owned and exclusively
// mutated by the flight model.
type FlightState struct {
	// Stall is a continuous index in [-1,1]; values >= 0 mean the wing
	// is not producing enough lift.
	Stall float64 `json:"stall"`
	// Landed is true while the aircraft is in ground contact.
	Landed bool `json:"landed"`
}
