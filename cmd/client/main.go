// cmd/client/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EngoEngine/engo"

	"github.com/skyward-arcade/go-skyward/pkg/config"
	"github.com/skyward-arcade/go-skyward/pkg/entity"
	"github.com/skyward-arcade/go-skyward/pkg/event"
	"github.com/skyward-arcade/go-skyward/pkg/network"
	engorender "github.com/skyward-arcade/go-skyward/pkg/render/engo"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	serverAddr := flag.String("server", "", "Server address (overrides config)")
	callsign := flag.String("callsign", "Pilot", "Pilot callsign")
	aircraftType := flag.String("aircraft", "Trainer", "Aircraft type: 'Trainer', 'Fighter' or 'Interceptor'")
	renderer := flag.String("renderer", "terminal", "Renderer type: 'terminal' or 'engo'")
	fullscreen := flag.Bool("fullscreen", false, "Run in fullscreen mode (Engo only)")
	width := flag.Int("width", 1024, "Window width (Engo only)")
	height := flag.Int("height", 768, "Window height (Engo only)")
	flag.Parse()

	// Load configuration
	var simConfig *config.SimConfig

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		log.Printf("Configuration file not found, using default configuration")
		simConfig = config.DefaultConfig()
	} else {
		simConfig, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}

	// Use server address from command line if provided
	if *serverAddr == "" {
		*serverAddr = simConfig.NetworkConfig.ServerAddress
	}

	// Create event bus
	eventBus := event.NewEventBus()

	// Create client
	client := network.NewSimClient(eventBus)

	subscribeLinkEvents(eventBus)

	log.Printf("Connecting to server at %s", *serverAddr)
	if err := client.Connect(*serverAddr, *callsign, *aircraftType); err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	log.Printf("Connected to server")

	switch *renderer {
	case "engo":
		startEngoRenderer(client, eventBus, client.PlayerID(), *width, *height, *fullscreen)
	default:
		startTerminalRenderer(client, eventBus)
	}
}

// subscribeLinkEvents prints chat and connection lifecycle events. A
// final reconnect failure exits the client; there is nothing left to
// fly.
func subscribeLinkEvents(eventBus *event.Bus) {
	eventBus.Subscribe(network.ChatMessageReceived, func(e event.Event) {
		if chatEvent, ok := e.(*network.ChatEvent); ok {
			fmt.Printf("[%s]: %s\n", chatEvent.SenderName, chatEvent.Message)
		}
	})
	eventBus.Subscribe(network.ClientDisconnected, func(event.Event) {
		log.Printf("Disconnected from server")
	})
	eventBus.Subscribe(network.ClientReconnected, func(event.Event) {
		log.Printf("Reconnected to server")
	})
	eventBus.Subscribe(network.ClientReconnectFailed, func(event.Event) {
		log.Printf("Failed to reconnect to server")
		os.Exit(1)
	})
}

// startEngoRenderer starts the Engo GUI client
func startEngoRenderer(client *network.SimClient, eventBus *event.Bus, playerID entity.ID, width, height int, fullscreen bool) {
	// Create the flight scene
	scene := engorender.NewFlightScene(client, eventBus, playerID)

	// Configure Engo options
	opts := engo.RunOptions{
		Title:      "Skyward",
		Width:      width,
		Height:     height,
		Fullscreen: fullscreen,
		VSync:      true,
	}

	// Run Engo with the flight scene
	engo.Run(opts, scene)
}

// startTerminalRenderer starts the terminal-based client
func startTerminalRenderer(client *network.SimClient, eventBus *event.Bus) {
	// Handle sim state updates
	go func() {
		for simState := range client.GetSimStateChannel() {
			// Process sim state
			// In a real client, this would update the flight view
			log.Printf("Received sim state update: tick=%d aircraft=%d players=%d",
				simState.Tick, len(simState.Aircraft), len(simState.Players))
		}
	}()

	// Example input loop (in a real client, this would be based on user input)
	go func() {
		throttle := 0.0
		for {
			// Send input every 100ms
			time.Sleep(100 * time.Millisecond)

			// Spool the throttle up and hold a gentle climb
			if throttle < 1 {
				throttle += 0.05
			}
			client.SendInput(0, 0.2, 0, throttle)
		}
	}()

	// Example chat message
	go func() {
		time.Sleep(3 * time.Second)
		log.Printf("Sending chat message")
		client.SendChatMessage("Wheels up!")
	}()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Disconnecting from server...")
	client.Disconnect()
}
