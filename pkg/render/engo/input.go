// pkg/render/engo/input.go
package engo

import (
	"time"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/skyward-arcade/go-skyward/pkg/network"
)

// InputSystem handles keyboard and mouse input for the flight client
type InputSystem struct {
	client *network.SimClient

	// Control state
	roll     float64
	pitch    float64
	yaw      float64
	throttle float64

	// Input timing
	lastInputSent time.Time
	inputDelay    time.Duration

	// Chat state
	chatActive bool
	chatBuffer string
	chatCursor int
}

// NewInputSystem creates a new input system
func NewInputSystem(client *network.SimClient) *InputSystem {
	return &InputSystem{
		client:     client,
		inputDelay: time.Millisecond * 50, // Send input every 50ms
	}
}

// Add satisfies the ecs.System interface
func (is *InputSystem) Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent) {
	// Not used for input system
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {
	// Not used for input system
}

// Update processes input and sends control state to the server
func (is *InputSystem) Update(dt float32) {
	// Handle chat input if chat is active
	if is.chatActive {
		is.handleChatInput()
		return
	}

	// Handle flight input
	is.handleFlightInput(float64(dt))

	// Send input to server if enough time has passed
	if time.Since(is.lastInputSent) >= is.inputDelay {
		is.sendInputToServer()
		is.lastInputSent = time.Now()
	}
}

// handleFlightInput samples the stick axes and throttle keys
func (is *InputSystem) handleFlightInput(dt float64) {
	is.roll = axisValue("rollLeft", "rollRight")
	is.pitch = axisValue("pitchDown", "pitchUp")
	is.yaw = axisValue("yawLeft", "yawRight")

	// Throttle ramps while held rather than snapping
	if engo.Input.Button("throttleUp").Down() {
		is.throttle = clampUnit(is.throttle + dt)
	}
	if engo.Input.Button("throttleDown").Down() {
		is.throttle = clampUnit(is.throttle - dt)
	}

	// Respawn
	if engo.Input.Button("respawn").JustPressed() {
		is.sendRespawnRequest()
	}

	// Chat activation
	if engo.Input.Button("chat").JustPressed() {
		is.setChatActive(true)
	}
}

// axisValue reads a pair of opposing buttons as a [-1, 1] axis
func axisValue(negative, positive string) float64 {
	value := 0.0
	if engo.Input.Button(negative).Down() {
		value -= 1
	}
	if engo.Input.Button(positive).Down() {
		value += 1
	}
	return value
}

// clampUnit clamps v to [0, 1]
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// handleChatInput runs while the chat line is open. Engo has no text
// input events, so editing is limited to backspace; Enter sends and
// Escape discards.
func (is *InputSystem) handleChatInput() {
	switch {
	case engo.Input.Button("enter").JustPressed():
		if len(is.chatBuffer) > 0 {
			// Delivery failure is invisible to the pilot; the message
			// simply never echoes back from the server.
			_ = is.client.SendChatMessage(is.chatBuffer)
		}
		is.setChatActive(false)
	case engo.Input.Button("backspace").JustPressed():
		if is.chatCursor > 0 && len(is.chatBuffer) > 0 {
			is.chatBuffer = is.chatBuffer[:is.chatCursor-1] + is.chatBuffer[is.chatCursor:]
			is.chatCursor--
		}
	}

	if engo.Input.Button("escape").JustPressed() {
		is.setChatActive(false)
	}
}

// sendInputToServer ships the sampled control state. A failed send is
// not fatal; the next tick retries with fresher state anyway.
func (is *InputSystem) sendInputToServer() {
	_ = is.client.SendInput(is.roll, is.pitch, is.yaw, is.throttle)
}

func (is *InputSystem) sendRespawnRequest() {
	_ = is.client.SendRespawnRequest()
}

// setChatActive opens or closes the chat line, clearing the buffer
// either way.
func (is *InputSystem) setChatActive(active bool) {
	is.chatActive = active
	is.chatBuffer = ""
	is.chatCursor = 0
}

func (is *InputSystem) IsChatActive() bool    { return is.chatActive }
func (is *InputSystem) GetChatBuffer() string { return is.chatBuffer }
func (is *InputSystem) GetChatCursor() int    { return is.chatCursor }
func (is *InputSystem) GetThrottle() float64  { return is.throttle }

// SetupInputBindings sets up the key bindings for flight controls
func SetupInputBindings() {
	// Stick axes
	engo.Input.RegisterButton("pitchUp", engo.KeyS, engo.KeyArrowDown)
	engo.Input.RegisterButton("pitchDown", engo.KeyW, engo.KeyArrowUp)
	engo.Input.RegisterButton("rollLeft", engo.KeyA, engo.KeyArrowLeft)
	engo.Input.RegisterButton("rollRight", engo.KeyD, engo.KeyArrowRight)
	engo.Input.RegisterButton("yawLeft", engo.KeyQ)
	engo.Input.RegisterButton("yawRight", engo.KeyE)

	// Throttle
	engo.Input.RegisterButton("throttleUp", engo.KeyLeftShift)
	engo.Input.RegisterButton("throttleDown", engo.KeyLeftControl)

	// Actions
	engo.Input.RegisterButton("respawn", engo.KeyR)

	// UI keys
	engo.Input.RegisterButton("chat", engo.KeyEnter)
	engo.Input.RegisterButton("escape", engo.KeyEscape)
	engo.Input.RegisterButton("backspace", engo.KeyBackspace)
	engo.Input.RegisterButton("enter", engo.KeyEnter)
}
