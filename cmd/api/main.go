package main

import (
	"ledger-api/internal/pkg/components"
	"ledger-api/internal/pkg/logging"
	"log"
)

func main() {
	container, err := components.New()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	logging.Info("Ledger API initialized successfully", map[string]interface{}{
		"version": "1.0.0",
		"port":    container.GetConfig().Server.Port,
	})

	if err := container.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
