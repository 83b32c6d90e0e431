// Package main implements the entry point for the assessment engine server:
// it loads configuration, connects to the database, applies migrations,
// wires the quota, review, and exam services, and runs the session-expiry
// watchdog until the process is signalled to stop.
package main

import (
	"log"

	"github.com/toeicprep/engine/internal/config"
	"github.com/toeicprep/engine/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server.LogLevel)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("server exited with error", "error", err)
		log.Fatalf("server exited with error: %v", err)
	}
}
