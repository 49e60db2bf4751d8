// main is the entry point of the Alunos API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration (YAML file, .env, environment)
//  2. Initialise the logger
//  3. Open SQLite; MongoDB is only dialled when a client selects it
//  4. Build the backend selector, record service and routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block the main goroutine until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close the backends
//
// RUNNING THE SERVER:
//
//	go run ./cmd/alunos-api --config=config/local.yaml
//
// or, with everything from the environment:
//
//	SQLITE_PATH=alunos.db MONGO_URI=mongodb://localhost:27017 go run ./cmd/alunos-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/alunos-api/internal/backend"
	"github.com/aanand-mishra/alunos-api/internal/config"
	"github.com/aanand-mishra/alunos-api/internal/http/handlers/database"
	"github.com/aanand-mishra/alunos-api/internal/http/router"
	"github.com/aanand-mishra/alunos-api/internal/records"
	"github.com/aanand-mishra/alunos-api/internal/storage"
	"github.com/aanand-mishra/alunos-api/internal/storage/mongodb"
	"github.com/aanand-mishra/alunos-api/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "alunos-api",
	Short: "Student records API over SQLite or MongoDB",
	Long: fmt.Sprintf(`alunos-api (v%s)

Serves CRUD operations for student records over HTTP. Clients choose the
storage backend at runtime with POST /select-db.`, database.Version),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of alunos-api",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "alunos-api v%s\n", database.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to the configuration YAML file (or CONFIG_PATH)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Handlers log through the slog default, so install ours as default.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting alunos-api",
		slog.String("env", cfg.Env),
		slog.String("version", database.Version),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// SQLite is a local file, so it is opened eagerly and a broken path
	// fails at boot. MongoDB is a network service; its connector runs on
	// the first POST /select-db {"database": "mongodb"}.
	relational, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		return err
	}
	log.Info("sqlite storage initialised", slog.String("path", cfg.SQLite.Path))

	selector := backend.NewSelector(map[backend.Kind]backend.Connector{
		backend.Relational: func(context.Context) (storage.Storage, error) {
			return relational, nil
		},
		backend.Document: func(ctx context.Context) (storage.Storage, error) {
			m, err := mongodb.Connect(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	}, log)

	// ── 4. Register HTTP Routes ───────────────────────────────────────────
	service := records.New(selector)

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: router.New(selector, service, log),

		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 5. Start Server in a Goroutine ────────────────────────────────────
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed after Shutdown;
		// that is the normal way out.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping server...")
	case err := <-serveErr:
		if err != nil {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			_ = errors.Join(selector.Close(context.Background()), relational.Close(context.Background()))
			return err
		}
	}

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return err
	}

	// Close every backend that was ever connected, plus SQLite even if no
	// client selected it.
	if err := errors.Join(selector.Close(shutdownCtx), relational.Close(shutdownCtx)); err != nil {
		log.Error("failed to close storage", slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
	return nil
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	default: // "dev" and anything unrecognised
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
}
