// pkg/engine/simulation.go
package engine

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
	"github.com/skyward-arcade/go-skyward/pkg/event"
	"github.com/skyward-arcade/go-skyward/pkg/physics"
	"github.com/skyward-arcade/go-skyward/pkg/resource"
	"github.com/skyward-arcade/go-skyward/pkg/validation"
)

type SimStatus int

const (
	SimStatusWaiting SimStatus = iota
	SimStatusActive
	SimStatusStopped
)

// Simulation owns the authoritative world state: all aircraft, the
// players flying them, and the per-tick flight dynamics update.
type Simulation struct {
	Config      *config.SimConfig
	Aircraft    map[entity.ID]*entity.Aircraft
	Players     map[entity.ID]*Player
	EntityLock  sync.RWMutex
	Running     bool
	TimeStep    float64 // Seconds per simulation tick
	CurrentTick uint64
	LastUpdate  time.Time
	EventBus    *event.Bus
	Status      SimStatus
	StartTime   time.Time
	ElapsedTime float64 // seconds

	// wasLanded tracks each aircraft's ground state from the previous
	// tick so takeoff and landing transitions publish exactly once.
	wasLanded map[entity.ID]bool

	// nextSpawn rotates new aircraft across the configured airfields.
	nextSpawn int

	// Runtime guardrails for the hosting server
	Resources *resource.Manager
}

// Player represents a connected player
type Player struct {
	ID         entity.ID
	Name       string
	AircraftID entity.ID
	Connected  bool
	FlightTime float64 // seconds airborne
	Landings   int
	Takeoffs   int
}

// NewSimulation creates a new simulation with the specified configuration
func NewSimulation(cfg *config.SimConfig) *Simulation {
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}

	sim := &Simulation{
		Config:      cfg,
		Aircraft:    make(map[entity.ID]*entity.Aircraft),
		Players:     make(map[entity.ID]*Player),
		TimeStep:    1.0 / float64(tickRate),
		CurrentTick: 0,
		LastUpdate:  time.Now(),
		EventBus:    event.NewEventBus(),
		wasLanded:   make(map[entity.ID]bool),
	}

	return sim
}

// InitializeResourceManager initializes the resource manager with environment
// configuration. This is called separately to avoid circular dependencies
// during simulation creation.
func (s *Simulation) InitializeResourceManager() error {
	envConfig, err := config.LoadConfigFromEnv()
	if err != nil {
		// Use safe defaults if environment config fails
		envConfig = &config.EnvironmentConfig{
			MaxMemoryMB:           500,
			MaxGoroutines:         1000,
			ShutdownTimeout:       30 * time.Second,
			ResourceCheckInterval: 10 * time.Second,
		}
	}
	s.Resources = resource.NewManager(envConfig)
	return s.Resources.Start()
}

// Start begins the simulation update loop
func (s *Simulation) Start() {
	s.Running = true
	s.Status = SimStatusActive
	s.StartTime = time.Now()
	s.LastUpdate = time.Now()
	s.EventBus.Publish(&event.BaseEvent{
		EventType: event.SimStarted,
		Source:    s,
	})
}

// Stop halts the simulation update loop
func (s *Simulation) Stop() {
	s.Running = false
	s.Status = SimStatusStopped
	s.EventBus.Publish(&event.BaseEvent{
		EventType: event.SimStopped,
		Source:    s,
	})
}

// Update advances the simulation state by one tick using wall-clock time
func (s *Simulation) Update() {
	s.Advance(s.calculateDeltaTime())
}

// Advance advances the simulation state by an explicit time step.
// Steps that fail sanity checks are dropped; a zero step only advances
// the tick counter.
func (s *Simulation) Advance(deltaTime float64) {
	if deltaTime != 0 {
		if err := validation.ValidateTickDelta(deltaTime); err != nil {
			return
		}
	}

	// Lock the entire update to ensure consistency across all entity operations
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	if s.Status == SimStatusActive {
		s.ElapsedTime = time.Since(s.StartTime).Seconds()
	}

	s.updateAircraft(deltaTime)
	s.CurrentTick++
}

// calculateDeltaTime calculates the time since the last update and caps it.
func (s *Simulation) calculateDeltaTime() float64 {
	now := time.Now()
	deltaTime := now.Sub(s.LastUpdate).Seconds()
	s.LastUpdate = now

	// Cap delta time to prevent physics issues
	if deltaTime > 0.1 {
		deltaTime = 0.1
	}
	return deltaTime
}

// updateAircraft steps every active aircraft's flight model and publishes
// ground transition and stall events.
func (s *Simulation) updateAircraft(deltaTime float64) {
	// Note: Called from within locked context in Update()
	for id, aircraft := range s.Aircraft {
		if !aircraft.Active {
			continue
		}

		aircraft.Update(deltaTime)

		landed := aircraft.Landed()
		if prev, ok := s.wasLanded[id]; ok && prev != landed {
			s.publishGroundTransition(aircraft, landed)
		}
		s.wasLanded[id] = landed

		if !landed {
			s.trackAirborneAircraft(aircraft, deltaTime)
		}
	}
}

// publishGroundTransition publishes a takeoff or landing event and updates
// the pilot's counters.
func (s *Simulation) publishGroundTransition(aircraft *entity.Aircraft, landed bool) {
	eventType := event.AircraftTookOff
	if landed {
		eventType = event.AircraftLanded
	}

	if player, ok := s.Players[aircraft.PilotID]; ok {
		if landed {
			player.Landings++
		} else {
			player.Takeoffs++
		}
	}

	s.EventBus.Publish(event.NewAircraftEvent(
		eventType,
		s,
		uint64(aircraft.ID),
		uint64(aircraft.PilotID),
	))
}

// trackAirborneAircraft accumulates flight time and raises stall warnings.
// Warnings only fire while airborne; on the ground the stall index is
// pinned and carries no information.
func (s *Simulation) trackAirborneAircraft(aircraft *entity.Aircraft, deltaTime float64) {
	if player, ok := s.Players[aircraft.PilotID]; ok {
		player.FlightTime += deltaTime
	}

	if stall := aircraft.StallStatus(); stall > 0 {
		s.EventBus.Publish(event.NewStallEvent(
			s,
			uint64(aircraft.ID),
			stall,
			aircraft.GetPosition().Y(),
		))
	}
}

// AddPlayer adds a new player to the simulation and spawns an aircraft
// of the named type for them.
func (s *Simulation) AddPlayer(name, aircraftType string) (entity.ID, error) {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	if s.Config.MaxPlayers > 0 && len(s.Players) >= s.Config.MaxPlayers {
		return 0, errors.New("simulation is full")
	}

	typeConfig, err := s.findAircraftType(aircraftType)
	if err != nil {
		return 0, err
	}

	player := &Player{
		ID:        entity.GenerateID(),
		Name:      name,
		Connected: true,
	}
	s.Players[player.ID] = player

	aircraft := s.spawnAircraftForPlayer(player, typeConfig)

	s.EventBus.Publish(event.NewPlayerEvent(event.PlayerJoined, s, uint64(player.ID), player.Name))
	s.EventBus.Publish(event.NewAircraftEvent(
		event.AircraftSpawned,
		s,
		uint64(aircraft.ID),
		uint64(player.ID),
	))

	return player.ID, nil
}

// findAircraftType looks up an aircraft type from the configuration.
// An empty name selects the first configured type.
func (s *Simulation) findAircraftType(name string) (*config.AircraftTypeConfig, error) {
	if len(s.Config.AircraftTypes) == 0 {
		return nil, errors.New("no aircraft types configured")
	}
	if name == "" {
		return &s.Config.AircraftTypes[0], nil
	}
	for i := range s.Config.AircraftTypes {
		if s.Config.AircraftTypes[i].Name == name {
			return &s.Config.AircraftTypes[i], nil
		}
	}
	return nil, errors.New("unknown aircraft type")
}

// spawnAircraftForPlayer creates an aircraft at the next airfield and
// registers it. Must be called with the entity lock held.
func (s *Simulation) spawnAircraftForPlayer(player *Player, typeConfig *config.AircraftTypeConfig) *entity.Aircraft {
	position, heading := s.findSpawnPoint()

	// The world extent is a sim-level setting; overlay it onto the
	// per-type tuning so every aircraft wraps at the configured edge.
	tuning := typeConfig.Flight
	if s.Config.WorldHalfSize > 0 {
		tuning.WorldHalfSize = s.Config.WorldHalfSize
	}

	aircraft := entity.NewAircraftWithTuning(
		entity.GenerateID(),
		entity.AircraftClassFromString(typeConfig.Class),
		tuning,
		position,
		heading,
	)
	aircraft.PilotID = player.ID
	aircraft.Callsign = player.Name

	s.Aircraft[aircraft.ID] = aircraft
	s.wasLanded[aircraft.ID] = aircraft.Landed()
	player.AircraftID = aircraft.ID

	return aircraft
}

// findSpawnPoint returns the next airfield's position and runway heading,
// with a small lateral offset so consecutive spawns do not overlap.
func (s *Simulation) findSpawnPoint() (mgl64.Vec3, float64) {
	if len(s.Config.Airfields) == 0 {
		half := s.Config.WorldHalfSize
		return mgl64.Vec3{
			rand.Float64()*half - half/2,
			0,
			rand.Float64()*half - half/2,
		}, 0
	}

	field := s.Config.Airfields[s.nextSpawn%len(s.Config.Airfields)]
	offset := float64(s.nextSpawn/len(s.Config.Airfields)) * 15.0
	s.nextSpawn++

	return mgl64.Vec3{field.X + offset, 0, field.Z}, field.Heading
}

// RemovePlayer removes a player from the simulation
func (s *Simulation) RemovePlayer(playerID entity.ID) error {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	player, ok := s.Players[playerID]
	if !ok {
		return errors.New("player not found")
	}

	if aircraft, ok := s.Aircraft[player.AircraftID]; ok {
		aircraft.Active = false
		delete(s.Aircraft, aircraft.ID)
		delete(s.wasLanded, aircraft.ID)

		s.EventBus.Publish(event.NewAircraftEvent(
			event.AircraftRemoved,
			s,
			uint64(aircraft.ID),
			uint64(player.ID),
		))
	}

	delete(s.Players, playerID)

	s.EventBus.Publish(event.NewPlayerEvent(event.PlayerLeft, s, uint64(player.ID), player.Name))

	return nil
}

// RespawnAircraft replaces a player's aircraft with a fresh one at an
// airfield. The old aircraft is removed.
func (s *Simulation) RespawnAircraft(playerID entity.ID) error {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	player, ok := s.Players[playerID]
	if !ok {
		return errors.New("player not found")
	}

	var typeConfig *config.AircraftTypeConfig
	if old, ok := s.Aircraft[player.AircraftID]; ok {
		typeConfig = s.findTypeForClass(old.Class)
		delete(s.Aircraft, old.ID)
		delete(s.wasLanded, old.ID)
	}
	if typeConfig == nil {
		var err error
		typeConfig, err = s.findAircraftType("")
		if err != nil {
			return err
		}
	}

	aircraft := s.spawnAircraftForPlayer(player, typeConfig)

	s.EventBus.Publish(event.NewAircraftEvent(
		event.AircraftSpawned,
		s,
		uint64(aircraft.ID),
		uint64(player.ID),
	))

	return nil
}

// findTypeForClass returns the first configured type matching a class,
// or nil if none matches.
func (s *Simulation) findTypeForClass(class entity.AircraftClass) *config.AircraftTypeConfig {
	for i := range s.Config.AircraftTypes {
		if entity.AircraftClassFromString(s.Config.AircraftTypes[i].Class) == class {
			return &s.Config.AircraftTypes[i]
		}
	}
	return nil
}

// SetControls applies a player's control inputs to their aircraft.
func (s *Simulation) SetControls(playerID entity.ID, controls physics.ControlInputs) error {
	s.EntityLock.Lock()
	defer s.EntityLock.Unlock()

	player, ok := s.Players[playerID]
	if !ok {
		return errors.New("player not found")
	}

	aircraft, ok := s.Aircraft[player.AircraftID]
	if !ok || !aircraft.Active {
		return errors.New("player has no active aircraft")
	}

	aircraft.SetControls(controls)
	return nil
}

// GetSimState returns a snapshot of the current simulation state
func (s *Simulation) GetSimState() *SimState {
	s.EntityLock.RLock()
	defer s.EntityLock.RUnlock()

	return &SimState{
		Tick:     s.CurrentTick,
		Aircraft: s.getAircraftStates(),
		Players:  s.getPlayerStates(),
	}
}

// getAircraftStates creates a snapshot of the current aircraft states.
func (s *Simulation) getAircraftStates() map[entity.ID]AircraftState {
	states := make(map[entity.ID]AircraftState)
	for id, aircraft := range s.Aircraft {
		if !aircraft.Active {
			continue
		}
		flight := aircraft.FlightState()
		states[id] = AircraftState{
			ID:          id,
			PilotID:     aircraft.PilotID,
			Callsign:    aircraft.Callsign,
			Class:       aircraft.Class,
			Position:    aircraft.Body.Position,
			Orientation: aircraft.Body.Orientation,
			Velocity:    aircraft.Body.Velocity,
			Throttle:    aircraft.Controls.Throttle,
			Stall:       flight.Stall,
			Landed:      flight.Landed,
		}
	}
	return states
}

// getPlayerStates creates a snapshot of the current player states.
func (s *Simulation) getPlayerStates() map[entity.ID]PlayerState {
	states := make(map[entity.ID]PlayerState)
	for id, player := range s.Players {
		states[id] = PlayerState{
			ID:         id,
			Name:       player.Name,
			AircraftID: player.AircraftID,
			Connected:  player.Connected,
			FlightTime: player.FlightTime,
			Landings:   player.Landings,
			Takeoffs:   player.Takeoffs,
		}
	}
	return states
}

// SimState represents a snapshot of the simulation state
type SimState struct {
	Tick     uint64                        `json:"tick"`
	Aircraft map[entity.ID]AircraftState   `json:"aircraft"`
	Players  map[entity.ID]PlayerState     `json:"players"`
}

// AircraftState represents a snapshot of an aircraft's state
type AircraftState struct {
	ID          entity.ID            `json:"id"`
	PilotID     entity.ID            `json:"pilotId"`
	Callsign    string               `json:"callsign"`
	Class       entity.AircraftClass `json:"class"`
	Position    mgl64.Vec3           `json:"position"`
	Orientation mgl64.Quat           `json:"orientation"`
	Velocity    mgl64.Vec3           `json:"velocity"`
	Throttle    float64              `json:"throttle"`
	Stall       float64              `json:"stall"`
	Landed      bool                 `json:"landed"`
}

// PlayerState represents a snapshot of a player's state
type PlayerState struct {
	ID         entity.ID `json:"id"`
	Name       string    `json:"name"`
	AircraftID entity.ID `json:"aircraftId"`
	Connected  bool      `json:"connected"`
	FlightTime float64   `json:"flightTime"`
	Landings   int       `json:"landings"`
	Takeoffs   int       `json:"takeoffs"`
}
