package main

import (
	"log"

	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/model"
	"glassfactory-chat/pkg/chat/storage"
	"glassfactory-chat/pkg/database"

	gormlogger "gorm.io/gorm/logger"
)

// migrate prepares a postgres database for the turn archive and the shared
// client storage backend. The proxy also migrates the archive on start, so
// this is only needed when the schema has to exist ahead of time.
func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, gormlogger.Info)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Turn archive
	log.Println("Step 1: Migrating chat_turns...")
	if err := database.Migrate(db, &model.ChatTurn{}); err != nil {
		log.Fatal("Error: ", err)
	}

	// 4. Client storage table
	log.Println("Step 2: Migrating client_storage...")
	if _, err := storage.NewGormStore(db); err != nil {
		log.Fatal("Error: ", err)
	}

	log.Println("Migration completed successfully.")
}
