// main is the entry point of the student records service.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (environment variables override it)
//  2. Initialise the logger
//  3. Open the configured storage backend
//  4. Load every stored student into the record store, seeding if asked
//  5. Register all HTTP routes
//  6. Start the HTTP server in a separate goroutine
//  7. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  8. Gracefully shut down: finish in-flight requests, close storage, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/student-records --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-records
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/seed"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/postgres"
	"github.com/aanand-mishra/student-records/internal/storage/s3"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records/internal/store"
	"github.com/aanand-mishra/student-records/internal/validation"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// The store and handlers log through slog's default logger, so the
	// configured one is installed globally as well as passed down.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting student-records",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// Everything past this point only sees the storage.Storage interface.
	backend, err := openStorage(startCtx, cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if closer, ok := backend.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error("failed to close storage", slog.String("error", err.Error()))
			}
		}()
	}

	// ── 4. Build and Load the Record Store ────────────────────────────────
	validator := validation.New(validation.Rules{
		Departments: cfg.Validation.Departments,
		MinYear:     cfg.Validation.MinYear,
	})
	m := metrics.New()

	records := store.New(backend, validator,
		store.WithLogger(log),
		store.WithObserver(m),
	)
	if err := records.Load(startCtx); err != nil {
		log.Error("failed to load students", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.SeedPath != "" {
		inputs, err := seed.Read(cfg.SeedPath)
		if err != nil {
			log.Error("failed to read seed file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if _, err := seed.Apply(startCtx, records, inputs, log); err != nil {
			// Partial seeds are kept; the service is still usable.
			log.Warn("seeding finished with errors", slog.String("error", err.Error()))
		}
	}

	log.Info("record store ready", slog.Int("total", records.Len()))

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	// Route table:
	//   POST   /api/students          → create a new student
	//   GET    /api/students          → list / search students
	//   POST   /api/students/reload   → re-read every record from storage
	//   GET    /api/students/{id}     → get one student by ID
	//   PUT    /api/students/{id}     → replace a student
	//   DELETE /api/students/{id}     → delete a student
	//   GET    /api/departments       → department options and those in use
	//   GET    /metrics               → Prometheus exposition
	router := http.NewServeMux()
	student.Register(router, records, validator.Departments())
	router.Handle("GET /metrics", m.Handler())

	// ── 6. Create the HTTP Server ─────────────────────────────────────────
	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router,

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStorage builds the backend named by cfg.Storage.Driver.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.New(cfg)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Storage.PostgresDSN)
	case config.DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.Storage.S3.Bucket,
			Region:    cfg.Storage.S3.Region,
			Endpoint:  cfg.Storage.S3.Endpoint,
			Prefix:    cfg.Storage.S3.Prefix,
			PathStyle: cfg.Storage.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
