package database

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/noah-isme/room-booking-api/pkg/config"
)

// Migrate applies every pending migration found at cfg.MigrationsPath.
func Migrate(cfg config.DatabaseConfig) error {
	m, err := migrate.New(cfg.MigrationsPath, URL(cfg))
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}
	return nil
}

// Rollback reverts the given number of migrations.
func Rollback(cfg config.DatabaseConfig, steps int) error {
	m, err := migrate.New(cfg.MigrationsPath, URL(cfg))
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
