// Package main runs the portal MCP server over stdio. It needs only the AI
// backend URL; everything else has defaults.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cancer-ai-portal/internal/config"
	"github.com/cancer-ai-portal/internal/mcp"
)

func main() {
	cfg := config.LoadLiteConfig()

	// stdout carries the protocol, so diagnostics go to stderr
	log.SetOutput(os.Stderr)
	log.Printf("Starting Cancer AI Portal MCP server, backend: %s", cfg.BackendURL)

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("Cancer AI Portal MCP server stopped")
}
