// Migrations are embedded SQL files applied once at startup.  Every
// column the application reads is guaranteed to exist after Migrate
// returns, so no code anywhere probes the schema at runtime.
package database

import (
    "database/sql"
    "embed"
    "errors"

    "github.com/golang-migrate/migrate/v4"
    migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
    "github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to the latest embedded version.  It is
// idempotent: an already-current schema is not an error.
func Migrate(db *sql.DB, dbName string) error {
    src, err := iofs.New(migrationsFS, "migrations")
    if err != nil {
        return err
    }
    driver, err := migratemysql.WithInstance(db, &migratemysql.Config{DatabaseName: dbName})
    if err != nil {
        return err
    }
    m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
    if err != nil {
        return err
    }
    if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
        return err
    }
    return nil
}
