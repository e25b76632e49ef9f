// pkg/network/client.go
package network

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
	"github.com/skyward-arcade/go-skyward/pkg/event"
)

// SimClient handles network communication with the server
type SimClient struct {
	conn                 net.Conn
	clientID             entity.ID
	playerID             entity.ID
	serverAddress        string
	playerName           string
	aircraftType         string
	connected            bool
	airfields            []config.AirfieldConfig
	receivedStates       chan *engine.SimState
	eventBus             *event.Bus
	mu                   sync.Mutex
	latency              time.Duration
	lastPingTime         time.Time
	pingInterval         time.Duration
	reconnectDelay       time.Duration
	reconnectAttempts    int
	maxReconnectAttempts int
	linkGuard            *LinkGuard

	ctx               context.Context
	cancel            context.CancelFunc
	connectionTimeout time.Duration
	readTimeout       time.Duration
	writeTimeout      time.Duration
}

// NewSimClient creates a new simulation client
func NewSimClient(eventBus *event.Bus) *SimClient {
	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		envConfig = &config.EnvironmentConfig{
			ReadTimeout:                       30 * time.Second,
			WriteTimeout:                      30 * time.Second,
			CircuitBreakerMaxRequests:         3,
			CircuitBreakerInterval:            60 * time.Second,
			CircuitBreakerTimeout:             30 * time.Second,
			CircuitBreakerMaxConsecutiveFails: 5,
		}
	}

	return &SimClient{
		receivedStates:       make(chan *engine.SimState, 10),
		eventBus:             eventBus,
		pingInterval:         time.Second * 5,
		reconnectDelay:       time.Second * 3,
		maxReconnectAttempts: 5,
		linkGuard:            NewLinkGuard(envConfig),
		connectionTimeout:    30 * time.Second,
		readTimeout:          envConfig.ReadTimeout,
		writeTimeout:         envConfig.WriteTimeout,
	}
}

// Connect dials the simulation server, performs the join handshake and
// starts the message and ping loops.
func (c *SimClient) Connect(address, playerName, aircraftType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ctx, c.cancel = context.WithCancel(context.Background())

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.serverAddress = address
	c.playerName = playerName
	c.aircraftType = aircraftType

	if err := c.dial(address); err != nil {
		return err
	}
	if err := c.handshake(playerName, aircraftType); err != nil {
		return err
	}

	go c.messageLoop()
	go c.pingLoop()
	return nil
}

// dial opens the TCP connection. The dial goes through the link guard
// so repeated server outages fail fast instead of piling up retries.
func (c *SimClient) dial(address string) error {
	ctx, cancel := context.WithTimeout(c.ctx, c.connectionTimeout)
	defer cancel()

	err := c.linkGuard.RunWithRetry(ctx, func() error {
		dialer := &net.Dialer{}
		conn, dialErr := dialer.DialContext(ctx, "tcp", address)
		if dialErr != nil {
			return dialErr
		}
		c.conn = conn
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	return nil
}

// handshake sends the join request and consumes the server's verdict.
func (c *SimClient) handshake(playerName, aircraftType string) error {
	joinReq := struct {
		PlayerName   string `json:"playerName"`
		AircraftType string `json:"aircraftType"`
	}{playerName, aircraftType}

	ctx, cancel := context.WithTimeout(c.ctx, c.connectionTimeout)
	defer cancel()

	// Connect still holds c.mu and the link is not yet marked
	// connected, so this bypasses sendMessage deliberately.
	if err := c.writeFrame(ctx, ConnectRequest, joinReq); err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to send connect request: %w", err)
	}

	msgType, data, err := c.readMessage(ctx)
	if err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to read connect response: %w", err)
	}
	if msgType != ConnectResponse {
		c.cleanupConnection()
		return fmt.Errorf("unexpected response type: %d", msgType)
	}

	var resp struct {
		Success   bool                    `json:"success"`
		Error     string                  `json:"error"`
		PlayerID  entity.ID               `json:"playerID"`
		ClientID  entity.ID               `json:"clientID"`
		Airfields []config.AirfieldConfig `json:"airfields"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		c.cleanupConnection()
		return fmt.Errorf("failed to parse connect response: %w", err)
	}
	if !resp.Success {
		c.cleanupConnection()
		return fmt.Errorf("server rejected connection: %s", resp.Error)
	}

	c.playerID = resp.PlayerID
	c.clientID = resp.ClientID
	c.airfields = resp.Airfields
	c.connected = true
	return nil
}

// cleanupConnection closes the connection and resets state. Caller must
// hold the lock.
func (c *SimClient) cleanupConnection() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Disconnect disconnects from the simulation server
func (c *SimClient) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	// Best-effort notification; the server also detects the closed
	// socket on its own.
	ctx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	c.writeFrame(ctx, DisconnectNotification, nil)
	cancel()

	c.cleanupConnection()
	return nil
}

// PlayerID returns the server-assigned player ID after a successful connect
func (c *SimClient) PlayerID() entity.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Airfields returns the airfield list received during the connect
// handshake. Empty until Connect succeeds.
func (c *SimClient) Airfields() []config.AirfieldConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.airfields
}

// SendInput sends control inputs to the server
func (c *SimClient) SendInput(roll, pitch, yaw, throttle float64) error {
	if !c.connected {
		return errors.New("not connected")
	}

	input := PlayerInputData{
		Roll:     roll,
		Pitch:    pitch,
		Yaw:      yaw,
		Throttle: throttle,
	}
	return c.sendMessage(PlayerInput, input)
}

// SendRespawnRequest asks the server for a fresh aircraft at an airfield
func (c *SimClient) SendRespawnRequest() error {
	if !c.connected {
		return errors.New("not connected")
	}
	return c.sendMessage(RespawnRequest, nil)
}

// SendChatMessage sends a chat message to the server
func (c *SimClient) SendChatMessage(message string) error {
	if !c.connected {
		return errors.New("not connected")
	}

	chatMsg := struct {
		Message string `json:"message"`
	}{message}
	return c.sendMessage(ChatMessage, chatMsg)
}

// GetLatency returns the current latency to the server
func (c *SimClient) GetLatency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

// GetSimStateChannel returns the channel for receiving simulation states
func (c *SimClient) GetSimStateChannel() <-chan *engine.SimState {
	return c.receivedStates
}

// messageLoop handles incoming messages from the server
func (c *SimClient) messageLoop() {
	for c.connected {
		ctx, cancel := context.WithTimeout(c.ctx, c.readTimeout)
		msgType, data, err := c.readMessage(ctx)
		cancel()

		if err != nil {
			if c.connected && err != context.DeadlineExceeded && err != context.Canceled {
				c.handleDisconnect(err)
			}
			return
		}

		switch msgType {
		case SimStateUpdate:
			c.handleSimStateUpdate(data)
		case ChatMessage:
			c.handleChatMessage(data)
		case PingResponse:
			c.handlePingResponse(data)
		default:
			// Unknown message types are ignored.
		}
	}
}

// handleSimStateUpdate hands a state snapshot to whoever is draining
// the channel. A full channel means the consumer is behind; stale
// snapshots are dropped rather than queued.
func (c *SimClient) handleSimStateUpdate(data []byte) {
	var simState engine.SimState
	if err := json.Unmarshal(data, &simState); err != nil {
		return
	}

	select {
	case c.receivedStates <- &simState:
	default:
	}
}

func (c *SimClient) handleChatMessage(data []byte) {
	var chatMsg struct {
		SenderID   entity.ID `json:"senderID"`
		SenderName string    `json:"senderName"`
		Message    string    `json:"message"`
	}
	if err := json.Unmarshal(data, &chatMsg); err != nil {
		return
	}

	c.eventBus.Publish(&ChatEvent{
		BaseEvent: event.BaseEvent{
			EventType: ChatMessageReceived,
			Source:    c,
		},
		SenderID:   chatMsg.SenderID,
		SenderName: chatMsg.SenderName,
		Message:    chatMsg.Message,
	})
}

// handlePingResponse computes latency from the echoed send time.
func (c *SimClient) handlePingResponse(data []byte) {
	var pingTime time.Time
	if err := json.Unmarshal(data, &pingTime); err != nil {
		return
	}

	c.mu.Lock()
	c.latency = time.Since(pingTime)
	c.mu.Unlock()
}

// pingLoop periodically sends ping requests to the server
func (c *SimClient) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for c.connected {
		<-ticker.C

		c.mu.Lock()
		c.lastPingTime = time.Now()
		pingTime := c.lastPingTime
		c.mu.Unlock()

		c.sendMessage(PingRequest, pingTime)
	}
}

// handleDisconnect reacts to an unexpected drop: publish the event and
// kick off reconnection in the background.
func (c *SimClient) handleDisconnect(err error) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if !wasConnected {
		return
	}

	c.eventBus.Publish(&event.BaseEvent{
		EventType: ClientDisconnected,
		Source:    c,
	})

	go c.attemptReconnect()
}

// attemptReconnect retries Connect with the original player identity
// until it succeeds or the attempt budget runs out.
func (c *SimClient) attemptReconnect() {
	c.reconnectAttempts = 0

	for c.reconnectAttempts < c.maxReconnectAttempts {
		c.reconnectAttempts++
		time.Sleep(c.reconnectDelay)

		if err := c.Connect(c.serverAddress, c.playerName, c.aircraftType); err == nil {
			c.eventBus.Publish(&event.BaseEvent{
				EventType: ClientReconnected,
				Source:    c,
			})
			return
		}
	}

	c.eventBus.Publish(&event.BaseEvent{
		EventType: ClientReconnectFailed,
		Source:    c,
	})
}

// readResult carries one framed message out of the reader goroutine.
type readResult struct {
	msgType MessageType
	data    []byte
	err     error
}

// readMessage reads one framed message, honoring the context deadline.
// The read itself runs in a goroutine; if the context expires first the
// connection is closed to unblock it.
func (c *SimClient) readMessage(ctx context.Context) (MessageType, []byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	} else {
		c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	defer c.conn.SetReadDeadline(time.Time{})

	resultChan := make(chan readResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- readResult{err: fmt.Errorf("panic during read: %v", r)}
			}
		}()
		msgType, data, err := c.readFrame()
		resultChan <- readResult{msgType: msgType, data: data, err: err}
	}()

	select {
	case result := <-resultChan:
		return result.msgType, result.data, result.err
	case <-ctx.Done():
		c.conn.Close()
		return 0, nil, ctx.Err()
	}
}

// readFrame reads the type byte, length prefix and payload.
func (c *SimClient) readFrame() (MessageType, []byte, error) {
	var msgType MessageType
	if err := binary.Read(c.conn, binary.BigEndian, &msgType); err != nil {
		return 0, nil, err
	}

	var msgLen uint16
	if err := binary.Read(c.conn, binary.BigEndian, &msgLen); err != nil {
		return 0, nil, err
	}

	data := make([]byte, msgLen)
	if _, err := io.ReadFull(c.conn, data); err != nil {
		return 0, nil, err
	}
	return msgType, data, nil
}

// sendMessage sends a message using the client's own context.
func (c *SimClient) sendMessage(msgType MessageType, msg interface{}) error {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return c.sendMessageWithContext(ctx, msgType, msg)
}

// sendMessageWithContext frames and sends one message on an established
// connection.
func (c *SimClient) sendMessageWithContext(ctx context.Context, msgType MessageType, msg interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return errors.New("not connected")
	}
	return c.writeFrame(ctx, msgType, msg)
}

// writeFrame marshals, frames and writes one message. The whole frame
// is assembled first so the connection sees a single write. The caller
// must hold c.mu (or have exclusive access during connect).
func (c *SimClient) writeFrame(ctx context.Context, msgType MessageType, msg interface{}) error {
	payload := []byte{}
	if msg != nil {
		var err error
		if payload, err = json.Marshal(msg); err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
	}
	if len(payload) > 65535 {
		return errors.New("message too large")
	}

	var frame bytes.Buffer
	frame.WriteByte(byte(msgType))
	binary.Write(&frame, binary.BigEndian, uint16(len(payload)))
	frame.Write(payload)

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	} else {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	defer c.conn.SetWriteDeadline(time.Time{})

	resultChan := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- fmt.Errorf("panic during write: %v", r)
			}
		}()
		_, err := c.conn.Write(frame.Bytes())
		resultChan <- err
	}()

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		c.conn.Close()
		return ctx.Err()
	}
}

// Client event types
const (
	ChatMessageReceived   event.Type = "chat_message_received"
	ClientDisconnected    event.Type = "client_disconnected"
	ClientReconnected     event.Type = "client_reconnected"
	ClientReconnectFailed event.Type = "client_reconnect_failed"
)

// ChatEvent contains information about a received chat message
type ChatEvent struct {
	event.BaseEvent
	SenderID   entity.ID
	SenderName string
	Message    string
}
