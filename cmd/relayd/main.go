package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opfskit/bridge/internal/infrastructure/config"
	"github.com/opfskit/bridge/internal/relay"
)

func main() {
	// Parse flags
	port := flag.String("port", "", "Relay port (overrides env)")
	configFile := flag.String("config", "", "Optional YAML config file")
	backend := flag.String("store", "", "Backing store: memory or disk (overrides env)")
	flag.Parse()

	// Env first, then file overlay, then flags.
	cfg := config.LoadOrDefault()
	if *configFile != "" {
		if err := config.LoadFile(cfg, *configFile); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}

	// Create server
	srv, err := relay.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create relay: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Relay error: %v", err)
	}
}
