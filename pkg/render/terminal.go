package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/skyward-arcade/go-skyward/pkg/entity"
)

// TerminalRenderer provides a simple ASCII-based top-down map for terminals.
// Aircraft are projected onto the horizontal plane; the vertical axis is
// reported through the HUD instead.
type TerminalRenderer struct {
	width     int
	height    int
	buffer    [][]rune
	scale     float64
	centerPos mgl64.Vec3
	hudLines  []string
}

// NewTerminalRenderer creates a new terminal renderer with the specified dimensions
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	return &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
	}
}

// SetCenter sets the world position at the center of the view.
// Only the horizontal components are used.
func (r *TerminalRenderer) SetCenter(pos mgl64.Vec3) {
	r.centerPos = pos
}

// worldToScreen converts a world position to screen coordinates.
// X maps to columns, Z maps to rows with north up.
func (r *TerminalRenderer) worldToScreen(pos mgl64.Vec3) (int, int) {
	screenX := int((pos.X()-r.centerPos.X())/r.scale + float64(r.width)/2)
	screenY := int((r.centerPos.Z()-pos.Z())/r.scale + float64(r.height)/2)
	return screenX, screenY
}

// Clear implements entity.Renderer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = ' '
		}
	}
	r.hudLines = r.hudLines[:0]
}

// Present implements entity.Renderer
func (r *TerminalRenderer) Present() {
	// Clear terminal
	fmt.Print("\033[H\033[2J")

	// Draw border
	fmt.Println("+" + strings.Repeat("-", r.width) + "+")

	// Draw buffer
	for y := range r.buffer {
		fmt.Print("|")
		for x := range r.buffer[y] {
			fmt.Print(string(r.buffer[y][x]))
		}
		fmt.Println("|")
	}

	// Draw border
	fmt.Println("+" + strings.Repeat("-", r.width) + "+")

	// Draw HUD lines below the map
	for _, line := range r.hudLines {
		fmt.Println(line)
	}
}

// RenderAircraft implements entity.Renderer
func (r *TerminalRenderer) RenderAircraft(aircraft *entity.Aircraft) {
	if aircraft == nil {
		return
	}
	x, y := r.worldToScreen(aircraft.GetPosition())

	// Check if within bounds
	if x >= 0 && x < r.width && y >= 0 && y < r.height {
		r.buffer[y][x] = classSymbol(aircraft.Class)
	}

	r.hudLines = append(r.hudLines, formatHUDLine(aircraft))
}

// classSymbol returns the map marker for an aircraft class.
func classSymbol(class entity.AircraftClass) rune {
	switch class {
	case entity.Fighter:
		return 'F'
	case entity.Interceptor:
		return 'I'
	default:
		return 'T'
	}
}

// formatHUDLine builds the flight data line shown under the map.
func formatHUDLine(aircraft *entity.Aircraft) string {
	state := "AIRBORNE"
	if aircraft.Landed() {
		state = "ON GROUND"
	}
	stall := ""
	if !aircraft.Landed() && aircraft.StallStatus() > 0 {
		stall = "  STALL"
	}
	return fmt.Sprintf("%-10s ALT %6.0fm  SPD %5.1fm/s  THR %3.0f%%  %s%s",
		aircraft.Callsign,
		aircraft.Body.Altitude(),
		aircraft.Body.Speed(),
		aircraft.Controls.Throttle*100,
		state,
		stall,
	)
}
