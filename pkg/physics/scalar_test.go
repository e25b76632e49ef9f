// pkg/physics/scalar_test.go
package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEaseOutCirc(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		want float64
	}{
		{"start", 0, 0},
		{"end", 1, 1},
		{"midpoint", 0.5, math.Sqrt(0.75)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EaseOutCirc(tt.t); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("EaseOutCirc(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestEaseOutCirc_Monotonic(t *testing.T) {
	prev := -1.0
	for i := 0; i <= 100; i++ {
		v := EaseOutCirc(float64(i) / 100)
		if v < prev {
			t.Fatalf("EaseOutCirc not monotonic at t=%v", float64(i)/100)
		}
		prev = v
	}
}

func TestRoundToZero(t *testing.T) {
	tests := []struct {
		name string
		v    mgl64.Vec3
		eps  float64
		want mgl64.Vec3
	}{
		{"all_below", mgl64.Vec3{0.001, -0.002, 0.003}, 0.01, mgl64.Vec3{}},
		{"mixed", mgl64.Vec3{0.001, 5, -0.002}, 0.01, mgl64.Vec3{0, 5, 0}},
		{"none_below", mgl64.Vec3{1, -2, 3}, 0.01, mgl64.Vec3{1, -2, 3}},
		{"exact_threshold_kept", mgl64.Vec3{0.01, 0, 0}, 0.01, mgl64.Vec3{0.01, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundToZero(tt.v, tt.eps); got != tt.want {
				t.Errorf("RoundToZero(%v, %v) = %v, want %v", tt.v, tt.eps, got, tt.want)
			}
		})
	}
}

func TestNearZero(t *testing.T) {
	if !NearZero(1e-9, 1e-6) {
		t.Error("1e-9 should be near zero at eps 1e-6")
	}
	if NearZero(0.5, 1e-6) {
		t.Error("0.5 should not be near zero")
	}
}

func TestHorizontal(t *testing.T) {
	got := Horizontal(mgl64.Vec3{3, 7, -2})
	want := mgl64.Vec3{3, 0, -2}
	if got != want {
		t.Errorf("Horizontal = %v, want %v", got, want)
	}
}

func TestProjectOnPlane(t *testing.T) {
	tests := []struct {
		name string
		v    mgl64.Vec3
		n    mgl64.Vec3
		want mgl64.Vec3
	}{
		{"onto_horizontal", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 3}},
		{"already_in_plane", mgl64.Vec3{1, 0, 3}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 3}},
		{"non_unit_normal", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{1, 0, 3}},
		{"degenerate_normal", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{}, mgl64.Vec3{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectOnPlane(tt.v, tt.n)
			if !vecApproxEqual(got, tt.want, 1e-12) {
				t.Errorf("ProjectOnPlane(%v, %v) = %v, want %v", tt.v, tt.n, got, tt.want)
			}
		})
	}
}
