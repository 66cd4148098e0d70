package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/auth"
	"github.com/taskcrew-dev/taskcrew/internal/config"
	"github.com/taskcrew-dev/taskcrew/internal/router"
	"github.com/taskcrew-dev/taskcrew/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenLifetime)

	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	store, err := storage.NewStore(cfg.UploadDir, cfg.UploadMaxBytes)

	if err != nil {
		log.Fatalf("Failed to initialize upload store: %v", err)
	}

	r := router.New(cfg, tokens, store)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
