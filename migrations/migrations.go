// Package migrations embeds the SQL schema for each supported storage driver.
package migrations

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Source returns the migration source for driver ("postgres" or "sqlite").
func Source(driver string) (source.Driver, error) {
	switch driver {
	case "postgres", "sqlite":
		return iofs.New(files, driver)
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}
