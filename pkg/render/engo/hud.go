// pkg/render/engo/hud.go
package engo

import (
	"fmt"
	"image/color"
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
)

const (
	chatWindowWidth   = 400
	chatWindowHeight  = 150
	chatLineHeight    = 15
	rosterLineHeight  = 20
	defaultChatLines  = 10
	defaultMinimapPx  = 200.0
	instrumentPadding = 10
)

// HUDSystem draws the overlay layer: flight instruments, chat, the
// pilot roster, connection status and the minimap.
type HUDSystem struct {
	overlay []*renderEntity

	// renderSystem receives the overlay entities. Nil until the scene
	// wires the HUD into a live window; drawing degrades to a no-op.
	renderSystem *common.RenderSystem

	connectionStatus string

	chatMessages []ChatMessage
	maxChatLines int

	// Instrument panel source. Nil until the first state update that
	// contains the player's own aircraft.
	ownAircraft *engine.AircraftState

	playerStates map[entity.ID]engine.PlayerState

	minimapEnabled bool
	minimapSize    float32

	font *common.Font

	hudColor     color.Color
	okColor      color.Color
	warnColor    color.Color
	neutralColor color.Color
}

// ChatMessage is one line in the HUD chat window.
type ChatMessage struct {
	Sender    string
	Message   string
	Timestamp time.Time
	Color     color.Color
}

func NewHUDSystem() *HUDSystem {
	return &HUDSystem{
		connectionStatus: "Connected",
		maxChatLines:     defaultChatLines,
		minimapEnabled:   true,
		minimapSize:      defaultMinimapPx,
		playerStates:     make(map[entity.ID]engine.PlayerState),
		hudColor:         color.RGBA{255, 255, 255, 255},
		okColor:          color.RGBA{0, 255, 0, 255},
		warnColor:        color.RGBA{255, 0, 0, 255},
		neutralColor:     color.RGBA{128, 128, 128, 255},
	}
}

// Add satisfies ecs.System. HUD entities are created during Update.
func (hud *HUDSystem) Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent) {
}

// Remove satisfies ecs.System.
func (hud *HUDSystem) Remove(basic ecs.BasicEntity) {}

// SetRenderTarget points the HUD at the render system that will draw
// its overlay entities.
func (hud *HUDSystem) SetRenderTarget(rs *common.RenderSystem) {
	hud.renderSystem = rs
}

// Update rebuilds the overlay for this frame.
func (hud *HUDSystem) Update(dt float32) {
	if hud.renderSystem != nil {
		for _, re := range hud.overlay {
			hud.renderSystem.Remove(re.basic)
		}
	}
	hud.overlay = hud.overlay[:0]

	hud.drawInstrumentPanel()
	hud.drawChatWindow()
	hud.drawPilotRoster()
	hud.drawConnectionStatus()
	if hud.minimapEnabled {
		hud.drawMinimap()
	}
}

// drawInstrumentPanel shows altitude, speed, throttle and flight
// condition for the player's own aircraft, top-left.
func (hud *HUDSystem) drawInstrumentPanel() {
	ac := hud.ownAircraft
	if ac == nil {
		return
	}

	panel := fmt.Sprintf(
		"ALT: %.0f m\nSPD: %.1f m/s\nTHR: %.0f%%\n%s",
		ac.Position.Y(),
		ac.Velocity.Len(),
		ac.Throttle*100,
		flightStatusLine(ac),
	)

	panelColor := hud.hudColor
	if !ac.Landed && ac.Stall > 0 {
		panelColor = hud.warnColor
	}
	hud.drawText(panel, instrumentPadding, instrumentPadding, panelColor)
}

func flightStatusLine(ac *engine.AircraftState) string {
	switch {
	case ac.Landed:
		return "ON GROUND"
	case ac.Stall > 0:
		return fmt.Sprintf("STALL %.0f%%", ac.Stall*100)
	default:
		return "AIRBORNE"
	}
}

// drawChatWindow shows the newest chat lines above a translucent
// backdrop in the bottom-left corner.
func (hud *HUDSystem) drawChatWindow() {
	top := float32(engo.GameHeight()) - 200

	hud.drawBox(10, top, chatWindowWidth, chatWindowHeight, color.RGBA{0, 0, 0, 128}, false)

	y := top + 10
	oldest := len(hud.chatMessages) - hud.maxChatLines
	for i := len(hud.chatMessages) - 1; i >= 0 && i >= oldest; i-- {
		msg := hud.chatMessages[i]
		hud.drawText(fmt.Sprintf("[%s]: %s", msg.Sender, msg.Message), 15, y, msg.Color)
		y += chatLineHeight
	}
}

// drawPilotRoster lists connected pilots with flight time and landing
// counts. Disconnected pilots stay listed but greyed out.
func (hud *HUDSystem) drawPilotRoster() {
	y := float32(100)
	for _, ps := range hud.playerStates {
		line := fmt.Sprintf("%s: Flight %s, Landings %d", ps.Name, formatFlightTime(ps.FlightTime), ps.Landings)

		lineColor := hud.hudColor
		if !ps.Connected {
			lineColor = hud.neutralColor
		}
		hud.drawText(line, instrumentPadding, y, lineColor)
		y += rosterLineHeight
	}
}

// formatFlightTime renders seconds of flight time as mm:ss.
func formatFlightTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func (hud *HUDSystem) drawConnectionStatus() {
	statusColor := hud.okColor
	if hud.connectionStatus != "Connected" {
		statusColor = hud.warnColor
	}
	hud.drawText("Status: "+hud.connectionStatus, float32(engo.GameWidth())-150, instrumentPadding, statusColor)
}

// drawMinimap draws the minimap frame in the top-right corner. Airfield
// and traffic markers are plotted by the scene from the current state.
func (hud *HUDSystem) drawMinimap() {
	x := float32(engo.GameWidth()) - hud.minimapSize - 10
	y := float32(instrumentPadding)

	hud.drawBox(x, y, hud.minimapSize, hud.minimapSize, color.RGBA{0, 0, 0, 128}, false)
	hud.drawBox(x, y, hud.minimapSize, hud.minimapSize, hud.hudColor, true)
}

// drawText queues a text entity for this frame.
func (hud *HUDSystem) drawText(text string, x, y float32, textColor color.Color) {
	drawable := common.Text{Font: hud.font, Text: text}
	// Rough glyph metrics keep layout stable until the font reports
	// real extents.
	hud.queueEntity(drawable, x, y, float32(len(text)*8), 16, textColor)
}

// drawBox queues a rectangle, filled or outline only.
func (hud *HUDSystem) drawBox(x, y, width, height float32, boxColor color.Color, outline bool) {
	rect := common.Rectangle{BorderWidth: 0, BorderColor: color.Transparent}
	fill := boxColor
	if outline {
		rect = common.Rectangle{BorderWidth: 2, BorderColor: boxColor}
		fill = color.Transparent
	}
	hud.queueEntity(rect, x, y, width, height, fill)
}

// queueEntity records one overlay entity for the frame and, when the
// scene has wired a render target, registers it for drawing.
func (hud *HUDSystem) queueEntity(drawable common.Drawable, x, y, width, height float32, c color.Color) {
	re := &renderEntity{
		basic:  ecs.NewBasic(),
		render: common.RenderComponent{Drawable: drawable, Color: c},
		space: common.SpaceComponent{
			Position: engo.Point{X: x, Y: y},
			Width:    width,
			Height:   height,
		},
	}
	hud.overlay = append(hud.overlay, re)
	if hud.renderSystem != nil {
		hud.renderSystem.Add(&re.basic, &re.render, &re.space)
	}
}

// AddChatMessage appends a line to the chat window, trimming history
// once it grows to twice the visible line count.
func (hud *HUDSystem) AddChatMessage(sender, message string) {
	hud.chatMessages = append(hud.chatMessages, ChatMessage{
		Sender:    sender,
		Message:   message,
		Timestamp: time.Now(),
		Color:     hud.hudColor,
	})
	if len(hud.chatMessages) > hud.maxChatLines*2 {
		hud.chatMessages = hud.chatMessages[len(hud.chatMessages)-hud.maxChatLines:]
	}
}

// SetConnectionStatus changes the status line. Anything other than
// "Connected" is drawn in the warning color.
func (hud *HUDSystem) SetConnectionStatus(status string) {
	hud.connectionStatus = status
}

// UpdateSimState refreshes the roster and locates the player's own
// aircraft for the instrument panel.
func (hud *HUDSystem) UpdateSimState(state *engine.SimState, playerID entity.ID) {
	hud.playerStates = state.Players

	hud.ownAircraft = nil
	for _, aircraftState := range state.Aircraft {
		if aircraftState.PilotID == playerID {
			ac := aircraftState
			hud.ownAircraft = &ac
			break
		}
	}
}

func (hud *HUDSystem) SetMinimapEnabled(enabled bool) { hud.minimapEnabled = enabled }
func (hud *HUDSystem) MinimapEnabled() bool           { return hud.minimapEnabled }

func (hud *HUDSystem) SetMinimapSize(size float32) { hud.minimapSize = size }
func (hud *HUDSystem) MinimapSize() float32        { return hud.minimapSize }

// SetFont sets the font used for all HUD text.
func (hud *HUDSystem) SetFont(font *common.Font) { hud.font = font }

// ChatMessages returns the retained chat history, oldest first.
func (hud *HUDSystem) ChatMessages() []ChatMessage { return hud.chatMessages }

// ClearChatMessages empties the chat window.
func (hud *HUDSystem) ClearChatMessages() { hud.chatMessages = hud.chatMessages[:0] }
