// Package validation sanitizes everything that crosses the network
// boundary before it reaches the simulation: frames, callsigns, chat
// text, control inputs, and tick deltas.
package validation

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/skyward-arcade/go-skyward/pkg/physics"
)

const (
	MaxMessageSize    = 64 * 1024
	MaxPlayerNameLen  = 32
	MaxChatMessageLen = 256
	// Clients stream control input every frame (20 msgs/s for the GUI
	// client), so the budget must sit well above the steady cadence.
	MaxMessagesPerSec = 120
	MaxTickDelta      = 1.0 // seconds
)

// Callsigns allow alphanumerics, spaces, and the punctuation pilots
// actually put in names. Everything else is rejected rather than
// stripped so a player sees their name unchanged or not at all.
var callsignPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.<>()]+$`)

// MessageValidator screens raw frames before they are dispatched:
// size cap, JSON well-formedness, and a per-client rate limit.
type MessageValidator struct {
	limiter *RateLimiter
}

// NewMessageValidator returns a validator with the default per-client
// message budget.
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{
		limiter: NewRateLimiter(MaxMessagesPerSec, time.Second),
	}
}

// Close stops the rate limiter's background eviction.
func (v *MessageValidator) Close() {
	if v.limiter != nil {
		v.limiter.Close()
	}
}

// ValidateMessage screens one raw frame from clientID.
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), MaxMessageSize)
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}
	if !v.limiter.Allow(clientID) {
		return fmt.Errorf("rate limit exceeded: max %d messages per second", MaxMessagesPerSec)
	}
	return nil
}

// normalizeText applies the checks shared by every player-supplied
// string: non-empty, bounded, valid UTF-8, and not pure whitespace.
// It returns the trimmed text.
func normalizeText(raw, what string, maxLen int) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("%s cannot be empty", what)
	}
	if len(raw) > maxLen {
		return "", fmt.Errorf("%s too long: %d characters (max %d)", what, len(raw), maxLen)
	}
	if !utf8.ValidString(raw) {
		return "", fmt.Errorf("%s contains invalid UTF-8 characters", what)
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%s cannot be only whitespace", what)
	}
	return trimmed, nil
}

// ValidatePlayerName sanitizes a pilot's callsign. The result is
// HTML-escaped so it is safe to echo into any client surface.
func ValidatePlayerName(name string) (string, error) {
	trimmed, err := normalizeText(name, "player name", MaxPlayerNameLen)
	if err != nil {
		return "", err
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("player name contains control characters")
		}
	}
	if !callsignPattern.MatchString(trimmed) {
		return "", fmt.Errorf("player name contains invalid characters (only alphanumeric, spaces, hyphens, underscores, and basic punctuation allowed)")
	}

	return html.EscapeString(trimmed), nil
}

// ValidateChatMessage sanitizes chat text. Unlike callsigns, chat
// keeps newlines and tabs and silently drops other control runes.
func ValidateChatMessage(message string) (string, error) {
	trimmed, err := normalizeText(message, "chat message", MaxChatMessageLen)
	if err != nil {
		return "", err
	}

	filtered := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, trimmed)

	return html.EscapeString(filtered), nil
}

// ValidateControlInputs rejects non-finite control values and clamps each
// axis to its legal range: roll, pitch and yaw to [-1, 1], throttle to
// [0, 1]. The inputs are modified in place.
func ValidateControlInputs(controls *physics.ControlInputs) error {
	values := []struct {
		name  string
		value float64
	}{
		{"roll", controls.Roll},
		{"pitch", controls.Pitch},
		{"yaw", controls.Yaw},
		{"throttle", controls.Throttle},
	}
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("control input %s is not finite: %v", v.name, v.value)
		}
	}

	controls.Roll = clamp(controls.Roll, -1, 1)
	controls.Pitch = clamp(controls.Pitch, -1, 1)
	controls.Yaw = clamp(controls.Yaw, -1, 1)
	controls.Throttle = clamp(controls.Throttle, 0, 1)

	return nil
}

// ValidateTickDelta checks a simulation time step for sanity before it is
// fed to the flight integrator.
func ValidateTickDelta(delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("tick delta is not finite: %v", delta)
	}
	if delta <= 0 {
		return fmt.Errorf("tick delta must be positive: %v", delta)
	}
	if delta > MaxTickDelta {
		return fmt.Errorf("tick delta too large: %v (max %v)", delta, MaxTickDelta)
	}
	return nil
}

func clamp(v, low, high float64) float64 {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
