// pkg/physics/tuning.go
package physics

// FlightConfig is the immutable tuning bundle for one aircraft type.
// It is supplied at construction and never mutated afterwards, so a
// single value can be shared between every aircraft of the same type.
type FlightConfig struct {
	// TurningRate is the fraction per second by which the velocity
	// direction is bent toward the nose while airborne.
	TurningRate float64 `json:"turningRate"`
	// StallRate is the automatic nose-down recovery rate in rad/s.
	StallRate float64 `json:"stallRate"`

	InducedDragFactor float64 `json:"inducedDragFactor"`
	RollDragFactor    float64 `json:"rollDragFactor"`

	StaticFriction  float64 `json:"staticFriction"`
	KineticFriction float64 `json:"kineticFriction"`

	// MaxThrustAccel is the full-throttle acceleration per unit air
	// density, in m/s^2.
	MaxThrustAccel  float64 `json:"maxThrustAccel"`
	Mass            float64 `json:"mass"`
	WingArea        float64 `json:"wingArea"`
	SeaLevelDensity float64 `json:"seaLevelDensity"`
	Gravity         float64 `json:"gravity"`
	DragCoefficient float64 `json:"dragCoefficient"`

	PitchRate float64 `json:"pitchRate"` // rad/s at full stick
	RollRate  float64 `json:"rollRate"`
	YawRate   float64 `json:"yawRate"`

	// GroundClearance is the altitude of the resting aircraft; below
	// it the ground contact state machine engages.
	GroundClearance float64 `json:"groundClearance"`
	// WorldHalfSize bounds position X/Z; crossing an edge wraps to the
	// opposite one.
	WorldHalfSize float64 `json:"worldHalfSize"`

	// MinLiftFactor is the lift reference against which the stall
	// index is normalized. Higher values raise the stall speed.
	MinLiftFactor float64 `json:"minLiftFactor"`
}

// DefaultFlightConfig returns the baseline trainer tuning. Top speed
// works out to roughly 180 m/s at sea level with a stall speed near 55.
func DefaultFlightConfig() FlightConfig {
	return FlightConfig{
		TurningRate:       2.0,
		StallRate:         0.6,
		InducedDragFactor: 0.3,
		RollDragFactor:    0.2,
		StaticFriction:    0.5,
		KineticFriction:   0.35,
		MaxThrustAccel:    80.0,
		Mass:              10.0,
		WingArea:          4.0,
		SeaLevelDensity:   1.225,
		Gravity:           9.81,
		DragCoefficient:   0.012,
		PitchRate:         1.0,
		RollRate:          2.2,
		YawRate:           0.6,
		GroundClearance:   1.2,
		WorldHalfSize:     4096.0,
		MinLiftFactor:     2.0,
	}
}
