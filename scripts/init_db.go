package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"matrimony-match-engine/internal/services/database"
)

func main() {
	fmt.Println("=== Database Initialization Script ===")
	fmt.Println()

	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Could not load .env file: %v\n", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Println("DATABASE_URL environment variable not set")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := ensureDatabase(ctx, databaseURL); err != nil {
		fmt.Printf("Failed to prepare database: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewFromURL(databaseURL)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("Applying schema...")
	if err := db.Migrate(ctx); err != nil {
		fmt.Printf("Failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Verifying tables...")
	for _, table := range []string{"profiles", "user_preferences", "proposals", "shortlist"} {
		var count int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			fmt.Printf("  %-17s error: %v\n", table, err)
			continue
		}
		fmt.Printf("  %-17s %d rows\n", table, count)
	}

	active, err := database.NewProfileRepository(db).CountActive(ctx)
	if err != nil {
		fmt.Printf("Warning: Could not count active profiles: %v\n", err)
	} else {
		fmt.Printf("  %-17s %d\n", "active profiles", active)
	}

	fmt.Println()
	fmt.Println("Database initialization completed successfully!")
}

// ensureDatabase creates the target database through the postgres
// maintenance database when it does not exist yet.
func ensureDatabase(ctx context.Context, databaseURL string) error {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	name := cfg.Database
	cfg.Database = "postgres"

	admin, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer admin.Close(ctx)

	var exists bool
	if err := admin.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		fmt.Printf("Database %q already exists\n", name)
		return nil
	}

	fmt.Printf("Creating database %q...\n", name)
	if _, err := admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}
