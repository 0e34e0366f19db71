package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"seedprocure-backend/internal/config"
	"seedprocure-backend/internal/database"
	"seedprocure-backend/internal/logger"
	"seedprocure-backend/internal/metrics"
	"seedprocure-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		lg.Fatal("database connection failed", "driver", cfg.DatabaseDriver, "error", err)
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("migration failed", "error", err)
	}

	app := server.NewApp(server.Deps{
		Config:  cfg,
		DB:      db,
		Log:     lg,
		Metrics: metrics.New(),
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		lg.Info("shutting down")
		_ = app.Shutdown()
	}()

	lg.Info("server listening", "port", cfg.HTTPPort, "driver", cfg.DatabaseDriver)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		lg.Fatal("listen failed", "error", err)
	}
}
