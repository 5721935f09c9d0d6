// VenueFlow orchestrator server. It provides the HTTP API, routes inbound
// client messages through the booking workflow, and manages the
// human-in-the-loop approval queue.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/venueflow/venueflow/pkg/api"
	"github.com/venueflow/venueflow/pkg/compose"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/detect"
	"github.com/venueflow/venueflow/pkg/hil"
	"github.com/venueflow/venueflow/pkg/llm"
	"github.com/venueflow/venueflow/pkg/snapshot"
	"github.com/venueflow/venueflow/pkg/store"
	"github.com/venueflow/venueflow/pkg/store/jsonstore"
	"github.com/venueflow/venueflow/pkg/store/pgstore"
	"github.com/venueflow/venueflow/pkg/workflow"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// openStore selects the persistence backend. STORE_BACKEND=postgres uses
// PostgreSQL; anything else falls back to the JSON file store, which is
// the dev default.
func openStore(ctx context.Context) (store.TenantStore, error) {
	if getEnv("STORE_BACKEND", "json") == "postgres" {
		dbCfg, err := pgstore.LoadConfigFromEnv()
		if err != nil {
			return nil, err
		}
		return pgstore.New(ctx, dbCfg)
	}
	return jsonstore.New(getEnv("DATA_DIR", "./data"))
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	slog.Info("Starting VenueFlow", "http_port", httpPort, "config_dir", *configDir)

	ctx := context.Background()

	// 1. Initialize configuration
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. Open the tenant store
	st, err := openStore(ctx)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Error closing store", "error", err)
		}
	}()
	slog.Info("Store opened", "backend", getEnv("STORE_BACKEND", "json"))

	// 3. LLM gateway and providers
	gateway := llm.NewGateway(cfg.LLM)
	gateway.Register("stub", llm.NewStubProvider())
	slog.Info("LLM gateway initialized", "default_provider", cfg.LLM.DefaultProvider)

	// 4. Domain services
	snapshots := snapshot.NewStore(cfg.Snapshot.TTL)
	detector := detect.NewDetector(gateway)
	verbalizer := compose.NewVerbalizer(gateway, snapshots, cfg.Snapshot)
	locks := store.NewLockRegistry()
	queue := hil.NewQueue(st, locks, cfg.Queue.TaskRetention)

	// The calendar invalidates the router's catalog cache after writes; the
	// indirection breaks the construction cycle between the two.
	var router *workflow.Router
	cal := workflow.NewStoreCalendar(st, func(tenantID string) {
		if router != nil {
			router.InvalidateCatalog(tenantID)
		}
	})
	router = workflow.NewRouter(st, locks, detector, verbalizer, queue, cal, nil, cfg)
	queue.SetContinuer(router)
	slog.Info("Workflow router initialized")

	// 5. Background task cleanup
	janitor := hil.NewJanitor(queue, cfg.Queue.CleanupInterval)
	queue.SetObserver(janitor.Observe)
	janitor.Start(ctx)
	defer janitor.Stop()

	// 6. HTTP server
	engine := api.NewServer(router, queue, st, snapshots).Engine()
	httpServer := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("VenueFlow started successfully")

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Queue.GracefulShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
