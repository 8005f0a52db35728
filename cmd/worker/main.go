package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"lifeflow-be/internal/config"
	"lifeflow-be/internal/pkg/logger"
	"lifeflow-be/pkg/events"
	pktNats "lifeflow-be/pkg/nats"
)

// Audit worker: drains pipeline events from the EVENTS stream into the
// structured log so there is a durable record of everything the processing
// loop did, independent of the API process.
func main() {
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Unable to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe("events.>", "pipeline-audit", func(_ context.Context, event events.Event) error {
		sysLogger.Info("EventAudit", event.EventType(), event.Payload())
		return nil
	})
	if err != nil {
		log.Fatalf("Unable to subscribe: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Worker shutting down")
}
