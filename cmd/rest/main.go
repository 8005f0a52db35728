package main

import (
	"context"
	"log"

	"lifeflow-be/internal/bootstrap"
	"lifeflow-be/internal/config"
	"lifeflow-be/internal/server"
	"lifeflow-be/internal/tracer"
	"lifeflow-be/pkg/database"
)

func main() {
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)

	// Background processing loop
	if err := container.Daemon.Start(context.Background()); err != nil {
		log.Printf("Background daemon error: %v", err)
	}
	defer container.Daemon.Stop()

	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}
