// Command migrator applies or rolls back the service's schema migrations.
// It reads the same CONFIG_PATH configuration as the server; the migration
// source directory and bookkeeping table come from MIGRATIONS_PATH and
// MIGRATIONS_TABLE.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/oa-labs/group-assessment-service/internal/config"
)

func main() {
	sourceURL, databaseURL, err := migrationURLs()
	if err != nil {
		log.Fatalf("failed to load migrator config: %v", err)
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "down":
		if err := rollBack(m); err != nil {
			log.Fatal(err)
		}

		fmt.Println("migrations rolled back successfully")
	case "up":
		if err := apply(m); err != nil {
			log.Fatal(err)
		}

		fmt.Println("migrations applied successfully")
	default:
		log.Fatalf("unknown command '%s', expected 'up' or 'down'", cmd)
	}
}

// migrationURLs builds the golang-migrate source and database URLs. The
// database URL reuses the server's connection string with the migration
// bookkeeping table appended.
func migrationURLs() (string, string, error) {
	configPath, err := requireEnv("CONFIG_PATH")
	if err != nil {
		return "", "", err
	}

	migrationsPath, err := requireEnv("MIGRATIONS_PATH")
	if err != nil {
		return "", "", err
	}

	migrationsTable, err := requireEnv("MIGRATIONS_TABLE")
	if err != nil {
		return "", "", err
	}

	var cfg config.Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return "", "", fmt.Errorf("failed to read config '%s': %w", configPath, err)
	}

	sourceURL := "file://" + migrationsPath
	databaseURL := fmt.Sprintf("%s&x-migrations-table=%s", cfg.Postgres.URL(), migrationsTable)

	return sourceURL, databaseURL, nil
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}

	return value, nil
}

func apply(m *migrate.Migrate) error {
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("no new migrations to apply")
			return nil
		}

		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func rollBack(m *migrate.Migrate) error {
	if err := m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return errors.New("no migrations to roll back")
		}

		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	return nil
}
