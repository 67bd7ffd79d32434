// Package main is the production entry point for the GoVis visualizer.
//
// GoVis is an audio-reactive visualizer with clean architecture:
// - Event-driven communication (no callbacks)
// - Dependency injection for testability
// - MVP pattern for UI decoupling
// - Repository pattern for settings persistence
//
// Build:
//
//	go build -o build/govis ./cmd
//
// Run:
//
//	./build/govis run track.mp3
//	./build/govis run --demo --mode particles
//	./build/govis render --mode 3d --frames 120 --out-dir frames
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
