package network

import (
	"context"
	"encoding/binary"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/event"
)

func newPipeServer(t *testing.T, maxClients int) *SimServer {
	t.Helper()
	simConfig := config.DefaultConfig()
	simConfig.NetworkConfig.UpdateRate = 20
	simConfig.NetworkConfig.TicksPerState = 3
	simConfig.NetworkConfig.UsePartialState = true
	return NewSimServer(engine.NewSimulation(simConfig), maxClients)
}

func writeTestFrame(conn net.Conn, msgType MessageType, payload []byte) {
	binary.Write(conn, binary.BigEndian, msgType)
	binary.Write(conn, binary.BigEndian, uint16(len(payload)))
	conn.Write(payload)
}

func TestServerReadMessage_WithinDeadline(t *testing.T) {
	server := newPipeServer(t, 2)
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		writeTestFrame(clientConn, PlayerInput, []byte(`{"roll":0.1}`))
	}()

	msgType, data, err := server.readMessage(ctx, serverConn)
	if err != nil {
		t.Fatalf("readMessage() = %v, want nil", err)
	}
	if msgType != PlayerInput {
		t.Errorf("msgType = %d, want %d", msgType, PlayerInput)
	}
	if string(data) != `{"roll":0.1}` {
		t.Errorf("data = %q", data)
	}
}

func TestServerReadMessage_DeadlineExceeded(t *testing.T) {
	server := newPipeServer(t, 2)
	server.readTimeout = 100 * time.Millisecond

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	// Nothing is ever written, so the read must fail at the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := server.readMessage(ctx, serverConn)
	if err == nil {
		t.Fatal("readMessage() = nil on silent connection, want deadline error")
	}
	msg := err.Error()
	if msg != "context deadline exceeded" && !strings.Contains(msg, "i/o timeout") {
		t.Errorf("readMessage() error = %q, want deadline or timeout", msg)
	}
}

func TestServerReadMessage_ContextCancelled(t *testing.T) {
	server := newPipeServer(t, 1)
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, _, err := server.readMessage(ctx, serverConn)
		errCh <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("readMessage() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("readMessage() did not return after cancellation")
	}
}

func TestServerSendMessage_RejectsOversizedPayload(t *testing.T) {
	server := newPipeServer(t, 1)
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	// The length prefix is a uint16, so anything past 65535 bytes
	// cannot be framed.
	payload := map[string]string{"data": strings.Repeat("x", 100000)}

	err := server.sendMessage(context.Background(), serverConn, ChatMessage, payload)
	if err == nil {
		t.Fatal("sendMessage() = nil for oversized payload, want error")
	}
	if !strings.Contains(err.Error(), "message too large") {
		t.Errorf("sendMessage() error = %q, want size error", err)
	}
}

func TestClientConnectTimeout(t *testing.T) {
	client := NewSimClient(event.NewEventBus())
	client.connectionTimeout = 10 * time.Millisecond

	// Nothing listens on this port; the dial must give up at the
	// connection timeout instead of hanging.
	start := time.Now()
	err := client.Connect("localhost:9999", "TestPilot", "")
	if err == nil {
		t.Fatal("Connect() to dead port = nil, want error")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Connect() took %v, want prompt timeout", elapsed)
	}
}
