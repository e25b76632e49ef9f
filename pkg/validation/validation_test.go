package validation

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/skyward-arcade/go-skyward/pkg/physics"
)

func TestValidatePlayerName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantErr     bool
		errContains string
	}{
		{name: "plain callsign", input: "Maverick", want: "Maverick"},
		{name: "callsign with digits", input: "SKW-101", want: "SKW-101"},
		{name: "spaces allowed", input: "Red Baron", want: "Red Baron"},
		{name: "underscore allowed", input: "night_owl", want: "night_owl"},
		{name: "surrounding whitespace trimmed", input: "  Maverick  ", want: "Maverick"},
		{name: "angle brackets escaped", input: "Ace<1>", want: "Ace&lt;1&gt;"},
		{name: "empty", input: "", wantErr: true, errContains: "cannot be empty"},
		{name: "whitespace only", input: " \t ", wantErr: true, errContains: "only whitespace"},
		{
			name:        "over length limit",
			input:       strings.Repeat("x", MaxPlayerNameLen+1),
			wantErr:     true,
			errContains: "too long",
		},
		{name: "shell metacharacters", input: "pilot$%&", wantErr: true, errContains: "invalid characters"},
		{name: "embedded NUL", input: "pi\x00lot", wantErr: true, errContains: "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePlayerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePlayerName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q should contain %q", err, tt.errContains)
			}
			if got != tt.want {
				t.Errorf("ValidatePlayerName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateChatMessage(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantErr     bool
		errContains string
	}{
		{name: "plain text", input: "Wheels up!", want: "Wheels up!"},
		{name: "newlines kept", input: "line one\nline two", want: "line one\nline two"},
		{name: "tabs kept", input: "alt\t2500", want: "alt\t2500"},
		{
			name:  "other control runes stripped",
			input: "clear\x00ed for\ntake\toff",
			want:  "cleared for\ntake\toff",
		},
		{
			name:  "markup escaped",
			input: "<b>landed</b>",
			want:  "&lt;b&gt;landed&lt;/b&gt;",
		},
		{name: "empty", input: "", wantErr: true, errContains: "cannot be empty"},
		{name: "whitespace only", input: "   ", wantErr: true, errContains: "only whitespace"},
		{
			name:        "over length limit",
			input:       strings.Repeat("x", MaxChatMessageLen+1),
			wantErr:     true,
			errContains: "too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateChatMessage(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateChatMessage(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q should contain %q", err, tt.errContains)
			}
			if got != tt.want {
				t.Errorf("ValidateChatMessage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateControlInputs(t *testing.T) {
	tests := []struct {
		name    string
		input   physics.ControlInputs
		want    physics.ControlInputs
		wantErr bool
	}{
		{
			name:  "valid inputs unchanged",
			input: physics.ControlInputs{Roll: 0.5, Pitch: -0.3, Yaw: 1, Throttle: 0.7},
			want:  physics.ControlInputs{Roll: 0.5, Pitch: -0.3, Yaw: 1, Throttle: 0.7},
		},
		{
			name:  "axes clamped to unit range",
			input: physics.ControlInputs{Roll: 2.5, Pitch: -7, Yaw: 1.1, Throttle: 0.5},
			want:  physics.ControlInputs{Roll: 1, Pitch: -1, Yaw: 1, Throttle: 0.5},
		},
		{
			name:  "throttle clamped to non-negative",
			input: physics.ControlInputs{Throttle: -0.4},
			want:  physics.ControlInputs{Throttle: 0},
		},
		{
			name:  "throttle clamped to one",
			input: physics.ControlInputs{Throttle: 3},
			want:  physics.ControlInputs{Throttle: 1},
		},
		{
			name:    "NaN pitch rejected",
			input:   physics.ControlInputs{Pitch: math.NaN()},
			wantErr: true,
		},
		{
			name:    "infinite throttle rejected",
			input:   physics.ControlInputs{Throttle: math.Inf(1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controls := tt.input
			err := ValidateControlInputs(&controls)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateControlInputs() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && controls != tt.want {
				t.Errorf("ValidateControlInputs() result = %+v, want %+v", controls, tt.want)
			}
		})
	}
}

func TestValidateTickDelta(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"typical 60hz step", 1.0 / 60.0, false},
		{"typical 20hz step", 0.05, false},
		{"max allowed", MaxTickDelta, false},
		{"zero", 0, true},
		{"negative", -0.01, true},
		{"too large", MaxTickDelta + 0.1, true},
		{"NaN", math.NaN(), true},
		{"infinity", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTickDelta(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTickDelta() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageValidator_ValidateMessage(t *testing.T) {
	validator := NewMessageValidator()
	defer validator.Close()

	tests := []struct {
		name        string
		data        []byte
		wantErr     bool
		errContains string
	}{
		{name: "well-formed frame", data: []byte(`{"roll":0.2,"throttle":1}`)},
		{name: "null payload", data: []byte(`null`)},
		{
			name:        "oversized frame",
			data:        make([]byte, MaxMessageSize+1),
			wantErr:     true,
			errContains: "too large",
		},
		{
			name:        "truncated JSON",
			data:        []byte(`{"roll":`),
			wantErr:     true,
			errContains: "invalid JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateMessage(tt.data, "client-1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q should contain %q", err, tt.errContains)
			}
		})
	}
}

func TestMessageValidator_SustainsControlInputStream(t *testing.T) {
	validator := NewMessageValidator()
	defer validator.Close()

	clock := time.Now()
	validator.limiter.now = func() time.Time { return clock }

	// 15 seconds of the GUI client's 50ms control cadence. Every
	// frame must clear the validator or flight controls go dead.
	frame := []byte(`{"roll":0.1,"pitch":0,"yaw":0,"throttle":0.8}`)
	for i := 0; i < 300; i++ {
		if err := validator.ValidateMessage(frame, "pilot-1"); err != nil {
			t.Fatalf("frame %d rejected: %v", i+1, err)
		}
		clock = clock.Add(50 * time.Millisecond)
	}
}

func TestMessageValidator_RateLimits(t *testing.T) {
	validator := &MessageValidator{limiter: NewRateLimiter(2, time.Minute)}
	defer validator.Close()

	frame := []byte(`{}`)
	for i := 0; i < 2; i++ {
		if err := validator.ValidateMessage(frame, "chatty"); err != nil {
			t.Fatalf("frame %d rejected: %v", i+1, err)
		}
	}

	err := validator.ValidateMessage(frame, "chatty")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("ValidateMessage() = %v, want rate limit error", err)
	}

	if err := validator.ValidateMessage(frame, "quiet"); err != nil {
		t.Errorf("other client rejected: %v", err)
	}
}
