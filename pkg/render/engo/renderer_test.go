// pkg/render/engo/renderer_test.go
package engo

import (
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestHeadingDegrees(t *testing.T) {
	tests := []struct {
		name    string
		yawRad  float64
		wantDeg float64
	}{
		{"north", 0, 0},
		{"east", math.Pi / 2, 90},
		{"west", -math.Pi / 2, -90},
		{"northeast", math.Pi / 4, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mgl64.QuatRotate(tt.yawRad, mgl64.Vec3{0, 1, 0})
			got := headingDegrees(q)
			if math.Abs(got-tt.wantDeg) > 1e-6 {
				t.Errorf("headingDegrees(yaw=%.3f) = %.3f, want %.3f", tt.yawRad, got, tt.wantDeg)
			}
		})
	}
}

func TestFlightStateColor(t *testing.T) {
	tests := []struct {
		name   string
		stall  float64
		landed bool
		want   color.Color
	}{
		{"landed", 0, true, color.RGBA{160, 160, 160, 255}},
		{"landed overrides stall", 0.9, true, color.RGBA{160, 160, 160, 255}},
		{"deep stall", 0.8, false, color.RGBA{255, 64, 64, 255}},
		{"approaching stall", 0.2, false, color.RGBA{255, 180, 64, 255}},
		{"normal flight", 0, false, color.RGBA{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flightStateColor(tt.stall, tt.landed); got != tt.want {
				t.Errorf("flightStateColor(%.1f, %v) = %v, want %v", tt.stall, tt.landed, got, tt.want)
			}
		})
	}
}
