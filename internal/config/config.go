// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Invoices InvoicesConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds database connection settings.
// Driver is "postgres" (default) or "sqlite".
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	RawDSN     string
	SQLitePath string
	Debug      bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev             bool
	Migrations      bool
	SQLMigrations   bool
	Seed            bool
	Metrics         bool
	AdminEmail      string
	AdminPassword   string
	AdminName       string
	AdminNationalID int64
}

// InvoicesConfig controls where invoice documents are written and which assets they embed.
type InvoicesConfig struct {
	FilesDir     string
	LogoPath     string
	FontPath     string
	Organization string
}

// DSN returns the PostgreSQL connection string in key=value format.
// An explicit DATABASE_DSN takes precedence.
func (d DatabaseConfig) DSN() string {
	if d.RawDSN != "" {
		return d.RawDSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// SalesDir is the directory receiving sale invoices.
func (c InvoicesConfig) SalesDir() string {
	return filepath.Join(c.FilesDir, "facturasVentas")
}

// PurchasesDir is the directory receiving purchase invoices.
func (c InvoicesConfig) PurchasesDir() string {
	return filepath.Join(c.FilesDir, "facturasCompras")
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "farmacia"),
			Password:   getEnv("DB_PASSWORD", "farmacia123"),
			DBName:     getEnv("DB_NAME", "farmacia"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			RawDSN:     os.Getenv("DATABASE_DSN"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "farmacia.db"),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:             getEnvBool("DEV", true),
			Migrations:      getEnvBool("MIGRATIONS", true),
			SQLMigrations:   getEnvBool("SQL_MIGRATIONS", false),
			Seed:            getEnvBool("DB_SEED", false),
			Metrics:         getEnvBool("METRICS_ENABLED", true),
			AdminEmail:      getEnv("ADMIN_EMAIL", "admin@farmacia.local"),
			AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
			AdminName:       getEnv("ADMIN_NAME", "Administrador"),
			AdminNationalID: int64(getEnvInt("ADMIN_NATIONAL_ID", 1)),
		},
		Invoices: InvoicesConfig{
			FilesDir:     getEnv("FILES_DIR", "archivos"),
			LogoPath:     getEnv("INVOICE_LOGO", filepath.Join("static", "imagenes", "logo_farmacia.png")),
			FontPath:     os.Getenv("INVOICE_FONT"),
			Organization: getEnv("ORGANIZATION_NAME", "Farmacia Vida Natural"),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
