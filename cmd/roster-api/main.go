// main is the entry point of the roster API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from the environment (and optional YAML file)
//  2. Initialise the logger
//  3. Resolve the configured sections
//  4. Watch for SIGINT/SIGTERM
//  5. Connect to the configured store, retrying with backoff
//  6. Build the HTTP server and register all routes
//  7. Start the HTTP server in a separate goroutine
//  8. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  9. Gracefully shut down: finish in-flight requests, close the store, exit
//
// RUNNING THE SERVER:
//
//	DB_URI=roster.db go run ./cmd/roster-api
//
// or with a config file:
//
//	go run ./cmd/roster-api --config=config/local.yaml
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/roster-api/internal/auth"
	"github.com/aanand-mishra/roster-api/internal/config"
	"github.com/aanand-mishra/roster-api/internal/http/router"
	"github.com/aanand-mishra/roster-api/internal/section"
	"github.com/aanand-mishra/roster-api/internal/storage/backend"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── 1. Load Config ───────────────────────────────────────────────────────
	// MustLoad exits the process when the config is unusable, so cfg is
	// valid from here on. An unset STORAGE_DRIVER is inferred from DB_URI.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ─────────────────────────────────────────────────
	// Everything below, including chi's request logger, writes through the
	// default slog logger.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting roster-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
		slog.Any("sections", cfg.Sections),
	)

	// ── 3. Resolve Sections ──────────────────────────────────────────────────
	// The set is fixed for the life of the process. Handlers reject any
	// section outside it with 400 Invalid section.
	sections, err := section.NewSet(cfg.Sections...)
	if err != nil {
		log.Error("invalid sections", slog.String("error", err.Error()))
		return 1
	}

	// ── 4. Watch for Shutdown Signals ────────────────────────────────────────
	// SIGINT/SIGTERM cancels ctx. Arriving during the connect loop below,
	// it aborts startup.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 5. Initialise Storage ────────────────────────────────────────────────
	// backend.Open picks sqlite or mongo from cfg.Storage.Driver and retries
	// the connection with backoff. Handlers only see storage.Storage.
	store, err := backend.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		return 1
	}
	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── 6. Create the HTTP Server ────────────────────────────────────────────
	// router.New registers every route plus the middleware chain:
	//   POST   /add-student            add a student to a section
	//   POST   /login                  check a PRN/password pair
	//   DELETE /remove-student/{prn}   remove one record from a section
	//   GET    /students               list a section, optionally filtered
	//   GET    /prns                   list a section's PRNs
	//   GET    /healthz                store connectivity
	server := &http.Server{
		Addr: cfg.HTTPServer.Addr,
		Handler: router.New(router.Deps{
			Store:    store,
			Sections: sections,
			Hasher:   auth.NewHasher(cfg.BcryptCost),
			Log:      log,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ── 7. Start Server in a Goroutine ───────────────────────────────────────
	// ListenAndServe blocks, so it runs off the main goroutine. A listen
	// failure cancels ctx and takes the normal shutdown path.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			stop()
		}
	}()

	// ── 8. Wait for Shutdown Signal ──────────────────────────────────────────
	<-ctx.Done()
	log.Info("shutting down")

	// ── 9. Graceful Shutdown ─────────────────────────────────────────────────
	// Shutdown stops accepting connections and waits for in-flight requests
	// up to ShutdownTimeout. The store is closed last, under the same deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		exitCode = 1
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error("failed to close storage", slog.String("error", err.Error()))
		exitCode = 1
	}

	log.Info("server stopped")
	return exitCode
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
