package main

import (
	"context"
	"log"
	"os"

	"asyncaccess/internal/config"
	"asyncaccess/internal/database"
	"asyncaccess/internal/validation"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	checker := validation.NewLedgerChecker(db)
	report, err := checker.Check(context.Background())
	if err != nil {
		log.Fatalf("Audit failed to run: %v", err)
	}

	report.Log()
	if !report.OK() {
		os.Exit(1)
	}
}
