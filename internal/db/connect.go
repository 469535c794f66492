// Package db opens the database, applies the schema and seeds baseline data.
package db

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/vidanatural/farmacia-web/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 10

// Connect opens a gorm connection for the configured driver.
// PostgreSQL connections are retried to let the database container start.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	if cfg.Driver == "sqlite" {
		log.Printf("[DB] Using sqlite database %s", cfg.SQLitePath)
		return OpenSQLite(cfg.SQLitePath, gcfg)
	}

	dsn := NormalizeDSN(cfg.DSN())
	var (
		conn *gorm.DB
		err  error
	)
	for i := 0; i < connectAttempts; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err == nil {
			break
		}
		log.Printf("[DB] attempt %d/%d failed, retrying: %v", i+1, connectAttempts, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Println("[DB] Using DSN:", MaskDSN(dsn))
	return conn, nil
}

// OpenSQLite opens a sqlite database limited to a single connection, with
// foreign keys enforced.
// SQLite allows one writer; a single connection keeps concurrent requests queued
// in the pool instead of failing with "database is locked".
func OpenSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{TranslateError: true}
	}
	conn, err := gorm.Open(sqlite.Open(withForeignKeys(path)), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

// withForeignKeys adds the driver option enabling foreign keys on every connection.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

var passwordKV = regexp.MustCompile(`(password=)([^\s]+)`)
var passwordURL = regexp.MustCompile(`(://[^:/@]+:)([^@]+)(@)`)

// MaskDSN hides the password of a key=value or URL DSN for logging.
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "password=") {
		return passwordKV.ReplaceAllString(dsn, `${1}***`)
	}
	return passwordURL.ReplaceAllString(dsn, `${1}***${3}`)
}
