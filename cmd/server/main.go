package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vidanatural/farmacia-web/auth"
	"github.com/vidanatural/farmacia-web/internal/config"
	"github.com/vidanatural/farmacia-web/internal/db"
	"github.com/vidanatural/farmacia-web/internal/pdf"
	"github.com/vidanatural/farmacia-web/internal/policy"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()

	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, dbConn); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, seedOptions(cfg.App)); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding completed successfully")
		return
	}

	if cfg.App.Migrations {
		if err := migrate(cfg, dbConn); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed")
	}

	if cfg.App.Seed {
		if err := db.Seed(dbConn, seedOptions(cfg.App)); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	assets := pdf.Assets{LogoPath: cfg.Invoices.LogoPath, FontPath: cfg.Invoices.FontPath}
	if err := assets.Check(); err != nil {
		// Sales and purchases fail until the assets are in place.
		log.Printf("WARNING: invoice assets unavailable: %v", err)
	}
	renderer := pdf.NewRenderer(cfg.Invoices.FilesDir, assets, cfg.Invoices.Organization)

	routerCfg := policy.NewRouterConfig(dbConn, renderer)
	auth.SetIdentityLoader(routerCfg.Accounts.Identity)

	if *backfillFlag {
		n, err := backfillInvoiceFiles(context.Background(), routerCfg.Transactions, renderer)
		if err != nil {
			log.Fatalf("Backfill failed: %v", err)
		}
		log.Printf("Backfill done: %d restored", n)
		return
	}

	appHandler := NewApp(dbConn, routerCfg, cfg.App.Metrics)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (dev=%v, driver=%s)", cfg.Server.Port, cfg.App.Dev, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// migrate applies the versioned SQL migrations when enabled for PostgreSQL,
// and AutoMigrate otherwise.
func migrate(cfg *config.Config, conn *gorm.DB) error {
	if cfg.App.SQLMigrations && cfg.Database.Driver != "sqlite" {
		return db.RunSQLMigrations(cfg.Database.DSN(), "migrations")
	}
	return db.Migrate(conn)
}

func seedOptions(app config.AppConfig) db.SeedOptions {
	return db.SeedOptions{
		AdminEmail:      app.AdminEmail,
		AdminPassword:   app.AdminPassword,
		AdminName:       app.AdminName,
		AdminNationalID: app.AdminNationalID,
	}
}
