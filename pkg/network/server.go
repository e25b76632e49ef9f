// pkg/network/server.go
package network

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/engine"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
	"github.com/skyward-arcade/go-skyward/pkg/physics"
	"github.com/skyward-arcade/go-skyward/pkg/validation"
)

// MessageType defines the type of network message
type MessageType byte

const (
	ConnectRequest MessageType = iota
	ConnectResponse
	DisconnectNotification
	SimStateUpdate
	PlayerInput
	ChatMessage
	PingRequest
	PingResponse
	RespawnRequest
)

// SimServer handles network communication and simulation state
type SimServer struct {
	listener      net.Listener
	sim           *engine.Simulation
	clients       map[entity.ID]*Client
	clientsLock   sync.RWMutex
	running       bool
	updateRate    time.Duration
	maxClients    int
	ticksPerState int  // How many sim ticks between full state updates
	partialState  bool // Whether to send partial updates between full updates
	readTimeout   time.Duration
	writeTimeout  time.Duration
	validator     *validation.MessageValidator
}

// Client represents a connected client
type Client struct {
	ID         entity.ID
	Conn       net.Conn
	PlayerID   entity.ID
	PlayerName string
	Connected  bool
	LastInput  time.Time
	Latency    time.Duration
}

// NewSimServer creates a new simulation server
func NewSimServer(sim *engine.Simulation, maxClients int) *SimServer {
	nc := sim.Config.NetworkConfig
	return &SimServer{
		sim:           sim,
		clients:       make(map[entity.ID]*Client),
		running:       false,
		updateRate:    time.Second / time.Duration(nc.UpdateRate),
		maxClients:    maxClients,
		ticksPerState: nc.TicksPerState,
		partialState:  nc.UsePartialState,
		readTimeout:   30 * time.Second,
		writeTimeout:  30 * time.Second,
		validator:     validation.NewMessageValidator(),
	}
}

// Start starts the simulation server
func (s *SimServer) Start(address string) error {
	var err error
	s.listener, err = net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.running = true

	// Start simulation
	s.sim.Start()

	// Start accepting connections
	go s.acceptConnections()

	// Start simulation update loop
	go s.simLoop()

	log.Printf("Simulation server started on %s", address)
	return nil
}

// Stop stops the simulation server. Closing the listener unblocks the
// accept loop; closing client connections unblocks their read loops.
func (s *SimServer) Stop() {
	s.running = false

	s.clientsLock.Lock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.clientsLock.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}

	s.sim.Stop()
	s.validator.Close()

	log.Println("Simulation server stopped")
}

// acceptConnections accepts new client connections until Stop closes
// the listener. Connections past the client cap are refused outright.
func (s *SimServer) acceptConnections() {
	for s.running {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running {
				log.Printf("Error accepting connection: %v", err)
			}
			continue
		}

		if s.atCapacity() {
			log.Printf("Rejecting connection, server full")
			conn.Close()
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *SimServer) atCapacity() bool {
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	return len(s.clients) >= s.maxClients
}

// handleConnection handles a new client connection
func (s *SimServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	ctx := context.Background()

	// Wait for connect request
	msgType, data, err := s.readMessage(ctx, conn)
	if err != nil {
		log.Printf("Error reading connect request: %v", err)
		return
	}

	if msgType != ConnectRequest {
		log.Printf("Expected connect request, got %d", msgType)
		return
	}

	// Parse connect request
	var connectReq struct {
		PlayerName   string `json:"playerName"`
		AircraftType string `json:"aircraftType"`
	}

	if err := json.Unmarshal(data, &connectReq); err != nil {
		log.Printf("Error parsing connect request: %v", err)
		return
	}

	playerName, err := validation.ValidatePlayerName(connectReq.PlayerName)
	if err != nil {
		log.Printf("Rejecting connection, invalid player name: %v", err)
		s.sendErrorResponse(conn, err)
		return
	}

	// Add player to simulation
	playerID, err := s.sim.AddPlayer(playerName, connectReq.AircraftType)
	if err != nil {
		log.Printf("Error adding player: %v", err)
		s.sendErrorResponse(conn, err)
		return
	}

	client := &Client{
		ID:         entity.GenerateID(),
		Conn:       conn,
		PlayerID:   playerID,
		PlayerName: playerName,
		Connected:  true,
		LastInput:  time.Now(),
	}

	s.clientsLock.Lock()
	s.clients[client.ID] = client
	s.clientsLock.Unlock()

	// The airfield list rides along so the client can draw map markers
	// without a separate world-description exchange.
	s.sendMessage(ctx, conn, ConnectResponse, struct {
		Success   bool                    `json:"success"`
		PlayerID  entity.ID               `json:"playerID"`
		ClientID  entity.ID               `json:"clientID"`
		Airfields []config.AirfieldConfig `json:"airfields"`
	}{true, playerID, client.ID, s.sim.Config.Airfields})

	s.handleClientMessages(client)
}

// sendErrorResponse sends a failed connect response to a client
func (s *SimServer) sendErrorResponse(conn net.Conn, err error) {
	errorResp := struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{
		Success: false,
		Error:   err.Error(),
	}
	s.sendMessage(context.Background(), conn, ConnectResponse, errorResp)
}

// handleClientMessages processes messages from a connected client
func (s *SimServer) handleClientMessages(client *Client) {
	ctx := context.Background()
	validatorKey := fmt.Sprintf("client-%d", client.ID)
	for client.Connected && s.running {
		msgType, data, err := s.readMessage(ctx, client.Conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("Error reading message from client %d: %v", client.ID, err)
			}
			break
		}

		if err := s.validator.ValidateMessage(data, validatorKey); err != nil {
			log.Printf("Dropping message type %d from client %d: %v", msgType, client.ID, err)
			continue
		}

		switch msgType {
		case PlayerInput:
			s.handlePlayerInput(client, data)
		case RespawnRequest:
			if err := s.sim.RespawnAircraft(client.PlayerID); err != nil {
				log.Printf("Error respawning aircraft for client %d: %v", client.ID, err)
			}
		case PingRequest:
			// Echo the payload back verbatim so the client can compute
			// latency from its own timestamp.
			s.sendMessage(ctx, client.Conn, PingResponse, json.RawMessage(data))
		case ChatMessage:
			s.broadcastChatMessage(client, data)
		case DisconnectNotification:
			log.Printf("Client %d disconnecting", client.ID)
			client.Connected = false
		default:
			log.Printf("Unknown message type %d from client %d", msgType, client.ID)
		}
	}

	s.removeClient(client)
}

// PlayerInputData represents the structure of player input messages
type PlayerInputData struct {
	Roll     float64 `json:"roll"`
	Pitch    float64 `json:"pitch"`
	Yaw      float64 `json:"yaw"`
	Throttle float64 `json:"throttle"`
}

// handlePlayerInput processes player input messages
func (s *SimServer) handlePlayerInput(client *Client, data []byte) {
	input, err := s.parsePlayerInput(data)
	if err != nil {
		log.Printf("Error parsing player input: %v", err)
		return
	}

	client.LastInput = time.Now()

	controls := physics.ControlInputs{
		Roll:     input.Roll,
		Pitch:    input.Pitch,
		Yaw:      input.Yaw,
		Throttle: input.Throttle,
	}
	if err := validation.ValidateControlInputs(&controls); err != nil {
		log.Printf("Dropping invalid input from client %d: %v", client.ID, err)
		return
	}

	if err := s.sim.SetControls(client.PlayerID, controls); err != nil {
		log.Printf("Error applying input for client %d: %v", client.ID, err)
	}
}

// parsePlayerInput deserializes the player input data from JSON bytes
func (s *SimServer) parsePlayerInput(data []byte) (*PlayerInputData, error) {
	var input PlayerInputData
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// broadcastChatMessage sends a chat message to all connected clients
func (s *SimServer) broadcastChatMessage(sender *Client, data []byte) {
	var chatMsg struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(data, &chatMsg); err != nil {
		log.Printf("Error parsing chat message: %v", err)
		return
	}

	message, err := validation.ValidateChatMessage(chatMsg.Message)
	if err != nil {
		log.Printf("Dropping invalid chat message from client %d: %v", sender.ID, err)
		return
	}

	// Create message with sender info
	broadcastMsg := struct {
		SenderID   entity.ID `json:"senderID"`
		SenderName string    `json:"senderName"`
		Message    string    `json:"message"`
	}{
		SenderID:   sender.PlayerID,
		SenderName: sender.PlayerName,
		Message:    message,
	}

	// Broadcast to all clients
	ctx := context.Background()
	s.clientsLock.RLock()
	for _, client := range s.clients {
		if client.Connected {
			s.sendMessage(ctx, client.Conn, ChatMessage, broadcastMsg)
		}
	}
	s.clientsLock.RUnlock()
}

// removeClient removes a client from the server
func (s *SimServer) removeClient(client *Client) {
	s.clientsLock.Lock()
	delete(s.clients, client.ID)
	s.clientsLock.Unlock()

	// Remove player from simulation
	s.sim.RemovePlayer(client.PlayerID)

	log.Printf("Client %d removed", client.ID)
}

// simLoop runs the main simulation loop
func (s *SimServer) simLoop() {
	ticker := time.NewTicker(s.updateRate)
	defer ticker.Stop()

	for s.running {
		<-ticker.C

		// Update simulation state
		s.sim.Update()

		// Send updates to clients
		if s.sim.CurrentTick%uint64(s.ticksPerState) == 0 {
			// Full state update
			s.sendFullStateUpdate()
		} else if s.partialState {
			// Partial state update
			s.sendPartialStateUpdate()
		}
	}
}

// sendFullStateUpdate sends a complete simulation state to all clients
func (s *SimServer) sendFullStateUpdate() {
	simState := s.sim.GetSimState()

	ctx := context.Background()
	s.clientsLock.RLock()
	for _, client := range s.clients {
		if client.Connected {
			s.sendMessage(ctx, client.Conn, SimStateUpdate, simState)
		}
	}
	s.clientsLock.RUnlock()
}

// sendPartialStateUpdate sends only nearby aircraft to each client
func (s *SimServer) sendPartialStateUpdate() {
	currentState := s.sim.GetSimState()

	ctx := context.Background()
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()

	for _, client := range s.clients {
		if !client.Connected {
			continue
		}

		partialState := s.createPartialStateForClient(client, currentState)
		s.sendMessage(ctx, client.Conn, SimStateUpdate, partialState)
	}
}

// createPartialStateForClient creates a partial state containing only
// aircraft near the client's own aircraft. Player summaries are always
// included.
func (s *SimServer) createPartialStateForClient(client *Client, currentState *engine.SimState) *engine.SimState {
	partialState := &engine.SimState{
		Tick:     currentState.Tick,
		Aircraft: make(map[entity.ID]engine.AircraftState),
		Players:  currentState.Players,
	}

	ownPos, ok := s.findPlayerAircraftPosition(client, currentState)
	if !ok {
		return partialState
	}

	viewRadius := 3000.0
	for id, aircraft := range currentState.Aircraft {
		if aircraft.Position.Sub(ownPos).Len() <= viewRadius {
			partialState.Aircraft[id] = aircraft
		}
	}

	return partialState
}

// findPlayerAircraftPosition locates the client's own aircraft position
// for visibility calculations.
func (s *SimServer) findPlayerAircraftPosition(client *Client, currentState *engine.SimState) (mgl64.Vec3, bool) {
	player, ok := currentState.Players[client.PlayerID]
	if !ok {
		return mgl64.Vec3{}, false
	}
	aircraft, ok := currentState.Aircraft[player.AircraftID]
	if !ok {
		return mgl64.Vec3{}, false
	}
	return aircraft.Position, true
}

// GetSimRunning reports whether the server's simulation loop is active.
func (s *SimServer) GetSimRunning() bool {
	return s.running
}

// GetListenerAddress returns the address the server is listening on,
// or an empty string when the listener is not active.
func (s *SimServer) GetListenerAddress() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// serverReadResult carries a frame read off a client connection.
type serverReadResult struct {
	msgType MessageType
	data    []byte
	err     error
}

// readMessage reads a message from a connection with context timeout support
func (s *SimServer) readMessage(ctx context.Context, conn net.Conn) (MessageType, []byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	} else {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	defer conn.SetReadDeadline(time.Time{})

	resultChan := make(chan serverReadResult, 1)
	go func() {
		msgType, data, err := readFrame(conn)
		resultChan <- serverReadResult{msgType: msgType, data: data, err: err}
	}()

	select {
	case result := <-resultChan:
		return result.msgType, result.data, result.err
	case <-ctx.Done():
		// Force the blocked read to fail
		conn.Close()
		return 0, nil, ctx.Err()
	}
}

// readFrame reads one framed message: a type byte, a big-endian uint16
// length, then the payload.
func readFrame(conn net.Conn) (MessageType, []byte, error) {
	var header [3]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return 0, nil, err
	}

	msgLen := binary.BigEndian.Uint16(header[1:3])
	data := make([]byte, msgLen)
	if _, err := io.ReadFull(conn, data); err != nil {
		return 0, nil, err
	}
	return MessageType(header[0]), data, nil
}

// sendMessage sends a message to a connection with context timeout support
func (s *SimServer) sendMessage(ctx context.Context, conn net.Conn, msgType MessageType, msg interface{}) error {
	// Serialize message
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// Check message size
	if len(data) > 65535 {
		return fmt.Errorf("message too large: %d bytes (max 65535)", len(data))
	}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	defer conn.SetWriteDeadline(time.Time{})

	errChan := make(chan error, 1)
	go func() {
		errChan <- writeFrame(conn, msgType, data)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}
}

// writeFrame assembles the whole frame first so the connection sees a
// single write.
func writeFrame(conn net.Conn, msgType MessageType, data []byte) error {
	frame := make([]byte, 3+len(data))
	frame[0] = byte(msgType)
	binary.BigEndian.PutUint16(frame[1:3], uint16(len(data)))
	copy(frame[3:], data)

	_, err := conn.Write(frame)
	return err
}
