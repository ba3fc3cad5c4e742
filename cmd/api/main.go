package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/auth"
	"github.com/01moynul/ecofinds-golang/internal/config"
	"github.com/01moynul/ecofinds-golang/internal/database"
	"github.com/01moynul/ecofinds-golang/internal/email"
	"github.com/01moynul/ecofinds-golang/internal/handlers"
	"github.com/01moynul/ecofinds-golang/internal/media"
	"github.com/01moynul/ecofinds-golang/internal/routes"
	"github.com/01moynul/ecofinds-golang/internal/services"
	"github.com/01moynul/ecofinds-golang/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	// Prices go out as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	// 1. --- Storage ---
	var st store.Store
	switch cfg.StoreDriver {
	case "memory":
		log.Println("WARNING: Using the in-memory store. Data is lost on restart.")
		st = store.NewMemory()
	default:
		db, err := database.OpenDB(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("Failed to connect to primary database: %v", err)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = database.Migrate(migrateCtx, db)
		cancel()
		if err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		st = store.NewMySQL(db)
	}

	// 2. --- Image storage ---
	images, err := media.NewLocal(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to prepare upload directory: %v", err)
	}

	// --- Application Setup ---
	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	svc := services.NewService(st, images, tokens, cfg.ShipAfter)
	if cfg.EmailHost != "" {
		svc.UseMailer(email.NewSMTP(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPass, cfg.EmailFrom))
	} else {
		log.Println("WARNING: EMAIL_HOST not set. Emails are written to the log.")
	}
	app := &handlers.Handlers{Service: svc, Config: cfg}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- 3. Background Worker: shipment simulator ---
	if cfg.ShipmentInterval > 0 {
		go runShipments(ctx, svc, cfg.ShipmentInterval)
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, tokens, cfg)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Start Server ---
	go func() {
		log.Printf("Starting EcoFinds API server on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}
	log.Println("Server shutdown complete")
}

// runShipments advances order fulfilment on every tick until ctx is done.
func runShipments(ctx context.Context, svc *services.Service, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	log.Printf("Background Worker Started: advancing shipments every %s", every)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			shipped, delivered, err := svc.AdvanceShipments(ctx, time.Now().UTC())
			if err != nil {
				log.Printf("ERROR: shipment worker: %v", err)
				continue
			}
			if shipped > 0 || delivered > 0 {
				log.Printf("Shipment worker: %d order(s) shipped, %d delivered", shipped, delivered)
			}
		}
	}
}
