// Package db applies the SQL schema migrations shipped under migrations/.
package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate runs migrations found at sourceURL (e.g. file://migrations) against databaseURL.
// Steps limits how many migrations are applied; zero means all of them.
func Migrate(sourceURL, databaseURL string, dir Direction, steps int) error {
	if databaseURL == "" {
		return errors.New("db: database url is required")
	}
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return fmt.Errorf("db: open migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch {
	case steps > 0 && dir == Down:
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case dir == Down:
		err = m.Down()
	case dir == Up:
		err = m.Up()
	default:
		return fmt.Errorf("db: unknown direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db: migrate %s: %w", dir, err)
	}
	return nil
}

// Version reports the current schema version and whether the last migration left it dirty.
func Version(sourceURL, databaseURL string) (uint, bool, error) {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return 0, false, fmt.Errorf("db: open migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
