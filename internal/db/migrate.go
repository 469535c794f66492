package db

import (
	"errors"
	"fmt"
	"log"

	migrate "github.com/golang-migrate/migrate/v4"
	// Register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/vidanatural/farmacia-web/internal/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for all models and checks the core tables exist.
func Migrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"employees", "invoices", "transactions", "line_items"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies ./migrations with golang-migrate against a PostgreSQL DSN.
func RunSQLMigrations(dsn, dir string) error {
	if dir == "" {
		dir = "migrations"
	}
	m, err := migrate.New("file://"+dir, ToURLDSN(NormalizeDSN(dsn)))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Println("[DB] SQL migrations applied")
	return nil
}
