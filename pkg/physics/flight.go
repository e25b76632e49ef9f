// pkg/physics/flight.go

// Package physics implements the arcade flight dynamics used by the
// simulation. The model is a deliberately simplified, hand-tuned
// approximation built for game feel rather than aerodynamic fidelity:
// thrust, exponent-amplified drag, a heuristic stall index, a
// speed-blended weight force, velocity bending toward the nose, a
// static/kinetic ground friction state machine and a toroidal world
// boundary.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// atmosphereScaleHeight drives the exponential air density falloff.
	atmosphereScaleHeight = 8000.0
	// speedScale normalizes airspeed in the lift and weight heuristics.
	speedScale = 256.0

	// nearVerticalY disables the coordinated turn when the nose points
	// almost straight up or down.
	nearVerticalY = 0.99
	// noseDownLimitY stops the stall recovery once the nose is already
	// steeply below the horizon.
	noseDownLimitY = -0.8
	// aoaLiftKnee switches the AoA lift term between its small-angle
	// and large-angle curves, measured from either pole (0 or pi).
	aoaLiftKnee = math.Pi / 8

	speedEpsilon = 1e-6
	forceEpsilon = 1e-3
	accelEpsilon = 1e-4

	// Position integration snaps sub-epsilon velocity to zero; the
	// threshold is looser with the throttle closed so a parked
	// aircraft cannot creep.
	velocityEpsilonPowered = 0.01
	velocityEpsilonIdle    = 0.1
)

var worldUp = mgl64.Vec3{0, 1, 0}

// FlightModel advances one aircraft's state by a single simulated time
// step. Implementations mutate the rigid body and flight state they
// were constructed around and must be ticked at most once per
// simulation step. Different entities' models are independent and may
// be stepped in parallel with each other.
type FlightModel interface {
	Step(delta float64)
}

// ArcadeFlightModel is the arcade implementation of FlightModel. It
// shares the rigid body state and control inputs with its owner and
// exclusively owns the flight state.
type ArcadeFlightModel struct {
	cfg      FlightConfig
	body     *RigidBodyState
	controls *ControlInputs
	state    FlightState
}

// NewArcadeFlightModel wires a flight model to the body it advances and
// the control inputs it reads. Both pointers must stay valid for the
// life of the model.
func NewArcadeFlightModel(cfg FlightConfig, body *RigidBodyState, controls *ControlInputs) *ArcadeFlightModel {
	return &ArcadeFlightModel{
		cfg:      cfg,
		body:     body,
		controls: controls,
		state:    FlightState{Stall: -1},
	}
}

// SpawnGrounded puts the model into the resting ground state used when
// an aircraft starts on the runway: altitude pinned at the ground
// clearance, zero velocity, landed with the stall index at its floor.
func (m *ArcadeFlightModel) SpawnGrounded() {
	m.body.Position[1] = m.cfg.GroundClearance
	m.body.Velocity = mgl64.Vec3{}
	m.state = FlightState{Stall: -1, Landed: true}
}

// StallStatus returns the current stall index in [-1,1]. Values >= 0
// mean insufficient lift; UI layers use it for stall warnings.
func (m *ArcadeFlightModel) StallStatus() float64 {
	return m.state.Stall
}

// Landed reports whether the aircraft was in ground contact at the end
// of the last tick.
func (m *ArcadeFlightModel) Landed() bool {
	return m.state.Landed
}

// State returns a copy of the persistent flight state.
func (m *ArcadeFlightModel) State() FlightState {
	return m.state
}

// Config returns the tuning bundle the model was built with.
func (m *ArcadeFlightModel) Config() FlightConfig {
	return m.cfg
}

// tickBasis is the per-tick scratch derived from the state at the start
// of the step. Every sub-step reads from it, so rotations applied
// mid-tick do not feed back into the same tick's force model. It lives
// on the stack of Step, keeping concurrent models for different
// entities free of aliasing.
type tickBasis struct {
	forward    mgl64.Vec3
	up         mgl64.Vec3
	right      mgl64.Vec3
	prjForward mgl64.Vec3 // forward with the vertical component removed
	velDir     mgl64.Vec3 // zero when speed is (near) zero
	speed      float64
	airDensity float64
	aoa        float64 // signed angle of attack, radians
}

// Step advances orientation, position, velocity and the persistent
// flight state by delta seconds. delta is assumed finite and positive;
// validating it is the caller's responsibility.
func (m *ArcadeFlightModel) Step(delta float64) {
	b := m.captureBasis()

	m.applyRotationControls(delta, &b)
	forces := m.computeForces(&b)
	m.bendVelocity(delta, &b)
	m.integrate(delta, &b, forces)
	m.resolveGroundContact()
	m.wrapPosition()
}

// captureBasis snapshots the kinematic quantities the rest of the tick
// is computed from.
func (m *ArcadeFlightModel) captureBasis() tickBasis {
	b := tickBasis{
		forward: m.body.Forward(),
		up:      m.body.Up(),
		right:   m.body.Right(),
		speed:   m.body.Velocity.Len(),
	}
	b.prjForward = Horizontal(b.forward)
	if b.speed > speedEpsilon {
		b.velDir = m.body.Velocity.Mul(1 / b.speed)
	}
	b.airDensity = m.cfg.SeaLevelDensity * math.Exp(-m.body.Position.Y()/atmosphereScaleHeight)
	b.aoa = angleOfAttack(b.forward, b.right, b.velDir, b.speed)
	return b
}

// angleOfAttack is the signed angle between the velocity direction
// projected onto the wing plane and the nose. Positive when the nose
// is above the airflow.
func angleOfAttack(forward, right, velDir mgl64.Vec3, speed float64) float64 {
	if speed <= speedEpsilon {
		return 0
	}
	prj := ProjectOnPlane(velDir, right)
	if prj.Len() < speedEpsilon {
		return 0
	}
	prj = prj.Normalize()
	aoa := math.Acos(mgl64.Clamp(prj.Dot(forward), -1, 1))
	if prj.Cross(forward).Dot(right) > 0 {
		aoa = -aoa
	}
	return aoa
}

// applyRotationControls turns the pilot inputs and the two automatic
// aids into incremental rotations. Order matters: each rotation
// mutates the orientation, but all of them read the basis captured at
// the start of the tick.
func (m *ArcadeFlightModel) applyRotationControls(delta float64, b *tickBasis) {
	ctl := m.controls
	cfg := &m.cfg

	if ctl.Roll != 0 && !m.state.Landed {
		m.body.RotateWorld(b.forward, ctl.Roll*cfg.RollRate*delta)
	}

	if ctl.Pitch != 0 {
		// A stopped aircraft cannot nose into the runway, and pitch
		// that would deepen an active stall is blocked. The disjuncts
		// are deliberately literal; see the stall gate tests.
		intoGround := m.state.Landed && ctl.Pitch < 0
		allowed := m.state.Stall < 0 ||
			(ctl.Pitch < 0 && b.forward.Y() > 0) ||
			(ctl.Pitch > 0 && b.forward.Y() < 0)
		if !intoGround && allowed {
			m.body.RotateWorld(b.right, -ctl.Pitch*cfg.PitchRate*delta)
		}
	}

	if ctl.Yaw != 0 && b.speed > speedEpsilon {
		m.body.RotateWorld(b.up, -ctl.Yaw*cfg.YawRate*delta)
	}

	m.applyCoordinatedTurn(delta, b)
	m.applyStallRecovery(delta, b)
}

// applyCoordinatedTurn yaws the aircraft around the world vertical in
// proportion to its bank, so banking alone produces a turn without
// rudder input. Skipped when flying nearly straight up or down.
func (m *ArcadeFlightModel) applyCoordinatedTurn(delta float64, b *tickBasis) {
	if b.forward.Y() <= -nearVerticalY || b.forward.Y() >= nearVerticalY {
		return
	}
	prjUp := ProjectOnPlane(b.up, b.prjForward)
	prjUp[1] = 0

	// Horizontal 2D cross picks the turn direction from the bank side.
	cross := b.prjForward.Z()*prjUp.X() - b.prjForward.X()*prjUp.Z()
	sign := 1.0
	if cross < 0 {
		sign = -1.0
	}

	turn := sign * prjUp.Dot(prjUp) * b.prjForward.Len() * 2 * m.cfg.YawRate * delta
	if turn != 0 {
		m.body.RotateWorld(worldUp, turn)
	}
}

// applyStallRecovery pushes the nose toward the ground while the
// aircraft is stalling, unless it is already pointing steeply down.
func (m *ArcadeFlightModel) applyStallRecovery(delta float64, b *tickBasis) {
	if m.state.Stall < 0 || m.state.Landed || b.forward.Y() <= noseDownLimitY {
		return
	}
	axis := b.forward.Cross(b.prjForward)
	if axis.Len() < speedEpsilon {
		return
	}
	angle := m.cfg.StallRate * delta
	if b.forward.Y() < 0 {
		angle = -angle
	}
	m.body.RotateWorld(axis.Normalize(), angle)
}

// computeForces evaluates thrust, drag and weight from the tick-start
// basis and updates the stall index as a side effect. Sub-epsilon
// force components are snapped to zero.
func (m *ArcadeFlightModel) computeForces(b *tickBasis) mgl64.Vec3 {
	cfg := &m.cfg

	thrust := b.forward.Mul(b.airDensity * cfg.MaxThrustAccel * m.controls.Throttle * cfg.Mass)
	thrust = RoundToZero(thrust, forceEpsilon)

	var drag mgl64.Vec3
	if b.speed > speedEpsilon {
		inducedAlign := b.forward.Dot(b.velDir)
		liftInducedDrag := 1 - math.Cos(2*b.aoa)
		rollDrag := math.Abs(b.right.Y())

		base := 0.5 * (cfg.DragCoefficient + liftInducedDrag) * b.airDensity * b.speed * b.speed * cfg.WingArea
		// Sideslip and AoA misalignment amplify drag through the
		// exponent, not the base.
		exponent := 1 + cfg.InducedDragFactor*(1-inducedAlign) + cfg.RollDragFactor*rollDrag
		drag = b.velDir.Mul(-math.Pow(base, exponent))
		drag = RoundToZero(drag, forceEpsilon)
	}

	m.updateStall(b)

	weight := m.weightForce(b)

	return thrust.Add(drag).Add(weight)
}

// updateStall recomputes the stall heuristic. This is not a physical
// lift equation; it exists to gate pitch input and trigger the nose
// down recovery, and is clamped to [-1,1] every tick.
func (m *ArcadeFlightModel) updateStall(b *tickBasis) {
	fwdY := b.forward.Y()
	rightY := math.Abs(b.right.Y())

	var aoaLift float64
	if math.Abs(b.aoa) < aoaLiftKnee || math.Abs(b.aoa) > math.Pi-aoaLiftKnee {
		aoaLift = 0.2 * math.Sin(6*b.aoa)
	} else {
		aoaLift = 0.2 * math.Sin(2*b.aoa)
	}

	attitude := (-0.5*fwdY+1.5)*(-0.5*rightY+1.5) + (-0.5*rightY + 1.5)
	liftFactor := 2 * (b.speed / speedScale) * attitude * b.airDensity

	m.state.Stall = -mgl64.Clamp(liftFactor/m.cfg.MinLiftFactor+aoaLift*(1-rightY)-1, -1, 1)
}

// weightForce blends gravity between "straight down the body up axis"
// at low speed and "along the body forward axis" in fast level flight,
// approximating lift compensation without a separate lift force.
func (m *ArcadeFlightModel) weightForce(b *tickBasis) mgl64.Vec3 {
	fwdY := b.forward.Y()
	rightY := math.Abs(b.right.Y())

	blend := mgl64.Clamp((b.speed/speedScale)*(1-math.Abs(fwdY)*(1-rightY)), 0, 1)
	downFactor := -EaseOutCirc(1 - blend)
	fwdFactor := -fwdY

	weight := b.up.Mul(downFactor).Add(b.forward.Mul(fwdFactor)).Mul(m.cfg.Mass * m.cfg.Gravity)
	return RoundToZero(weight, forceEpsilon)
}

// bendVelocity rotates the velocity direction toward the nose by a
// bounded fraction of the angle between them, preserving speed. This
// is what makes the aircraft fly along its nose instead of obeying
// pure momentum. On the ground the velocity follows the nose exactly.
func (m *ArcadeFlightModel) bendVelocity(delta float64, b *tickBasis) {
	if b.speed <= speedEpsilon {
		return
	}
	if m.state.Landed {
		m.body.Velocity = b.forward.Mul(b.speed)
		return
	}

	alpha := math.Acos(mgl64.Clamp(b.velDir.Dot(b.forward), -1, 1))
	if alpha < 1e-9 {
		return
	}
	axis := b.velDir.Cross(b.forward)
	if axis.Len() < speedEpsilon {
		// Velocity is exactly opposite the nose; swing through the
		// vertical plane.
		axis = b.up
	}

	step := alpha * m.cfg.TurningRate * delta
	if step > alpha {
		step = alpha
	}
	rotated := mgl64.QuatRotate(step, axis.Normalize()).Rotate(b.velDir)
	m.body.Velocity = rotated.Mul(b.speed)
}

// integrate applies the combined forces plus ground friction to the
// velocity, then advances the position with creep suppression.
func (m *ArcadeFlightModel) integrate(delta float64, b *tickBasis, forces mgl64.Vec3) {
	forces = forces.Add(m.frictionForce(b, forces))

	accel := RoundToZero(forces.Mul(1/m.cfg.Mass), accelEpsilon)
	m.body.Velocity = m.body.Velocity.Add(accel.Mul(delta))
	if m.state.Landed && m.body.Velocity.Y() < 0 {
		m.body.Velocity[1] = 0
	}

	eps := velocityEpsilonIdle
	if m.controls.Throttle > 0 {
		eps = velocityEpsilonPowered
	}
	m.body.Position = m.body.Position.Add(RoundToZero(m.body.Velocity, eps).Mul(delta))
}

// frictionForce models ground contact: below the static threshold the
// horizontal force is cancelled exactly (the aircraft sticks), above
// it kinetic friction opposes motion at constant magnitude. Zero when
// airborne.
func (m *ArcadeFlightModel) frictionForce(b *tickBasis, forces mgl64.Vec3) mgl64.Vec3 {
	if !m.state.Landed {
		return mgl64.Vec3{}
	}
	weightMag := m.cfg.Mass * m.cfg.Gravity
	horizontal := Horizontal(forces)

	if b.speed <= speedEpsilon && horizontal.Len() < m.cfg.StaticFriction*weightMag {
		return horizontal.Mul(-1)
	}

	dir := Horizontal(b.velDir)
	if l := dir.Len(); l > speedEpsilon {
		return dir.Mul(-m.cfg.KineticFriction * weightMag / l)
	}
	return mgl64.Vec3{}
}

// resolveGroundContact runs the Airborne/Landed state machine after the
// position update. Touching down clamps the altitude, levels a nose
// aimed into the ground, kills vertical velocity and resets the stall
// index; climbing above the clearance releases the landed flag.
func (m *ArcadeFlightModel) resolveGroundContact() {
	alt := m.body.Position.Y()
	clearance := m.cfg.GroundClearance

	switch {
	case alt < clearance:
		m.body.Position[1] = clearance
		forward := m.body.Forward()
		if forward.Y() < 0 {
			m.levelHeading(forward)
		}
		m.body.Velocity[1] = 0
		m.state.Stall = -1
		m.state.Landed = true
	case alt > clearance:
		m.state.Landed = false
	}

	// While grounded the vertical velocity stays exactly zero, even
	// when sub-epsilon creep kept the altitude pinned at the clearance.
	if m.state.Landed {
		m.body.Velocity[1] = 0
	}
}

// levelHeading replaces the orientation with a wings-level attitude
// along the horizontal projection of the given forward direction.
func (m *ArcadeFlightModel) levelHeading(forward mgl64.Vec3) {
	h := Horizontal(forward)
	if h.Len() < speedEpsilon {
		return
	}
	heading := math.Atan2(h.X(), h.Z())
	m.body.Orientation = mgl64.QuatRotate(heading, worldUp)
}

// wrapPosition teleports the aircraft across the world edge it crossed;
// X and Z wrap independently and velocity is untouched.
func (m *ArcadeFlightModel) wrapPosition() {
	half := m.cfg.WorldHalfSize
	for _, i := range [2]int{0, 2} {
		if m.body.Position[i] > half {
			m.body.Position[i] = -half
		} else if m.body.Position[i] < -half {
			m.body.Position[i] = half
		}
	}
}
