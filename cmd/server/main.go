package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/respkv/respkv/internal/server"
	"github.com/respkv/respkv/pkg/config"
)

func main() {
	cfg := config.LoadServerConfig()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Start logs the bound address once the listener is up, which matters
	// when running with -port 0.
	srv := server.New(cfg)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received %v, shutting down...", sig)

	if err := srv.Stop(); err != nil {
		log.Printf("Error stopping server: %v", err)
	}

	log.Println("Server stopped")
}
