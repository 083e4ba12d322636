package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // PostgreSQL driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
)

const fileSourceScheme = "file://"

// RunMigrations applies every pending migration under migrationsPath (migrations/postgres by
// default) to the database at databaseURL. The path may carry the file:// scheme or not.
func RunMigrations(databaseURL string, migrationsPath string) error {
	sourceURL, err := migrationSourceURL(migrationsPath)
	if err != nil {
		return err
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance for %s: %w", sourceURL, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	return nil
}

func migrationSourceURL(migrationsPath string) (string, error) {
	path := strings.TrimPrefix(strings.TrimSpace(migrationsPath), fileSourceScheme)
	if path == "" {
		return "", errors.New("migrations path cannot be empty")
	}
	return fileSourceScheme + path, nil
}
