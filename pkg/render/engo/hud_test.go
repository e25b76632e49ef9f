// pkg/render/engo/hud_test.go
package engo

import (
	"image/color"
	"testing"

	"github.com/EngoEngine/engo/common"
)

func TestNewHUDSystem(t *testing.T) {
	hud := NewHUDSystem()
	if hud == nil {
		t.Fatal("NewHUDSystem() returned nil")
	}
	if hud.connectionStatus != "Connected" {
		t.Errorf("connectionStatus = %q, want %q", hud.connectionStatus, "Connected")
	}
	if !hud.MinimapEnabled() {
		t.Error("minimap should default to enabled")
	}
}

func TestHUDSystem_QueueEntityKeepsComponents(t *testing.T) {
	hud := NewHUDSystem()

	hud.drawBox(10, 20, 100, 50, color.RGBA{255, 0, 0, 255}, false)

	if len(hud.overlay) != 1 {
		t.Fatalf("overlay has %d entities, want 1", len(hud.overlay))
	}

	re := hud.overlay[0]
	if re.render.Drawable == nil {
		t.Error("queued entity lost its drawable")
	}
	if re.render.Color != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("queued entity color = %v, want red", re.render.Color)
	}
	if re.space.Position.X != 10 || re.space.Position.Y != 20 {
		t.Errorf("queued entity at (%v, %v), want (10, 20)", re.space.Position.X, re.space.Position.Y)
	}
	if re.space.Width != 100 || re.space.Height != 50 {
		t.Errorf("queued entity size %vx%v, want 100x50", re.space.Width, re.space.Height)
	}
}

func TestHUDSystem_DrawBoxOutline(t *testing.T) {
	hud := NewHUDSystem()

	hud.drawBox(0, 0, 40, 40, color.RGBA{0, 255, 0, 255}, true)

	re := hud.overlay[0]
	rect, ok := re.render.Drawable.(common.Rectangle)
	if !ok {
		t.Fatalf("drawable is %T, want common.Rectangle", re.render.Drawable)
	}
	if rect.BorderWidth == 0 {
		t.Error("outline box should have a border")
	}
	if re.render.Color != color.Transparent {
		t.Error("outline box should not be filled")
	}
}

func TestHUDSystem_UpdateRebuildsOverlay(t *testing.T) {
	hud := NewHUDSystem()
	hud.AddChatMessage("tower", "cleared for takeoff")

	hud.Update(0.016)
	first := len(hud.overlay)
	if first == 0 {
		t.Fatal("Update produced no overlay entities")
	}

	// A second frame must replace, not accumulate.
	hud.Update(0.016)
	if len(hud.overlay) != first {
		t.Errorf("overlay grew from %d to %d entities across frames", first, len(hud.overlay))
	}
}

func TestFormatFlightTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{60, "01:00"},
		{605, "10:05"},
	}

	for _, tt := range tests {
		if got := formatFlightTime(tt.seconds); got != tt.want {
			t.Errorf("formatFlightTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
