package main

import (
	"context"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/richard-sim/internal/services"
	"github.com/stitts-dev/richard-sim/pkg/config"
	"github.com/stitts-dev/richard-sim/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|purge]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := db.Migrate(); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := db.DropAll(); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "purge":
		n, err := services.NewDiskCache(db.DB).DeleteExpired(context.Background())
		if err != nil {
			logrus.Fatalf("Failed to purge cache: %v", err)
		}
		logrus.Infof("Purged %d expired cache entries", n)

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}
