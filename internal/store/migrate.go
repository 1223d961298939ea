package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"

	"github.com/mohammad-safakhou/researcher/migrations"
)

func (s *Store) ensureSchema(ctx context.Context, dsn string) error {
	driver := s.driver
	if driver == "" {
		driver = DriverPostgres
	}
	err := runMigrations(ctx, s.DB, driver, dsn, "up", 0)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Migrate applies embedded migrations for driver at dsn.
// direction is "up" or "down"; steps 0 means all.
func Migrate(ctx context.Context, driver, dsn, direction string, steps int) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	return runMigrations(ctx, db, driver, dsn, direction, steps)
}

func runMigrations(_ context.Context, db *sql.DB, driver, dsn, direction string, steps int) error {
	src, err := migrations.Source(driver)
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	switch driver {
	case DriverPostgres:
		// postgres gets its own connection, closed with m
		m, err = migrate.NewWithSourceInstance("iofs", src, dsn)
		if err != nil {
			return err
		}
		defer m.Close()
	case DriverSQLite:
		// sqlite must share db: a second handle on ":memory:" is a different database.
		// m is not closed since that would close db.
		inst, ierr := sqlite.WithInstance(db, &sqlite.Config{})
		if ierr != nil {
			return ierr
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, inst)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", driver)
	}

	switch direction {
	case "up", "":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("unknown direction: %s", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
