package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/pkg/config"
	"github.com/noah-isme/room-booking-api/pkg/database"
	"github.com/noah-isme/room-booking-api/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 1, "number of migrations to roll back with -direction=down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	switch *direction {
	case "up":
		err = database.Migrate(cfg.Database)
	case "down":
		err = database.Rollback(cfg.Database, *steps)
	default:
		logr.Fatal("unknown migration direction", zap.String("direction", *direction))
	}
	if err != nil {
		logr.Fatal("migration failed", zap.String("direction", *direction), zap.Error(err))
	}
	logr.Info("migration complete", zap.String("direction", *direction), zap.String("source", cfg.Database.MigrationsPath))
}
