// pkg/physics/scalar.go
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Numerical hygiene helpers for the flight model. The vector and
// quaternion algebra comes from mathgl; these cover the handful of
// game-feel utilities it does not ship.

// EaseOutCirc maps t in [0,1] onto the upper-right quarter of a unit
// circle: fast at the start, flat at the end.
func EaseOutCirc(t float64) float64 {
	return math.Sqrt(1 - (t-1)*(t-1))
}

// NearZero reports whether x is within eps of zero.
func NearZero(x, eps float64) bool {
	return math.Abs(x) < eps
}

// RoundToZero snaps every component of v with magnitude below eps to
// exactly zero, preventing residual numerical creep.
func RoundToZero(v mgl64.Vec3, eps float64) mgl64.Vec3 {
	for i := range v {
		if math.Abs(v[i]) < eps {
			v[i] = 0
		}
	}
	return v
}

// Horizontal returns v with its vertical component removed.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], 0, v[2]}
}

// ProjectOnPlane projects v onto the plane whose normal is n. The
// normal does not need to be unit length; a degenerate normal leaves v
// unchanged.
func ProjectOnPlane(v, n mgl64.Vec3) mgl64.Vec3 {
	nn := n.Dot(n)
	if nn < 1e-12 {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n) / nn))
}
