package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/clipguard/videofp/internal/config"
	"github.com/clipguard/videofp/internal/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	log.Println("connecting to database...")
	if err := database.Initialize(cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migrations completed successfully")
}
