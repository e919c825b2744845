// Coachd is the AI workout coach backend.
//
// It exposes a single authenticated chat endpoint backed by an LLM
// tool-calling loop. The model reads and mutates the user's training
// data (exercises, templates, schedule, history) through a fixed tool
// registry, and the full conversation transcript is persisted per user.
// Configuration is loaded from a YAML file discovered automatically
// (see [config.DefaultSearchPaths]); secrets come from the environment.
//
// Usage:
//
//	coachd                   Start the API server
//	coachd -seed             Seed the global exercise catalog, then start
//	coachd -config <path>    Use an explicit config file
//	coachd -version          Print version and build information
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/forgefit/coach/internal/api"
	"github.com/forgefit/coach/internal/buildinfo"
	"github.com/forgefit/coach/internal/coach"
	"github.com/forgefit/coach/internal/config"
	"github.com/forgefit/coach/internal/llm"
	"github.com/forgefit/coach/internal/store"
	"github.com/forgefit/coach/internal/tools"
)

func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the coachd command. OS-level
// dependencies are injected so that tests can call it directly: ctx
// controls the process lifetime (cancelling it triggers graceful
// shutdown), stdout receives structured logs, stderr receives fatal
// error messages via main, and args is os.Args[1:].
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("coachd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (default: auto-discover)")
	seed := fs.Bool("seed", false, "seed the global exercise catalog before serving")
	version := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}

	// A .env file is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, cfgPath, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(stdout, parseLogLevel(cfg.LogLevel), cfg.LogFormat)
	logger.Info("starting coachd",
		"version", buildinfo.Version,
		"commit", buildinfo.GitCommit,
		"built", buildinfo.BuildTime,
	)
	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.OpenAI.Model,
		"database", cfg.Database.Path,
	)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if *seed {
		n, err := st.SeedExercises(ctx)
		if err != nil {
			return fmt.Errorf("seed exercises: %w", err)
		}
		logger.Info("exercise catalog seeded", "inserted", n)
	}

	client := llm.NewOpenAIClient(llm.Options{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.Model,
		Timeout:    time.Duration(cfg.OpenAI.TimeoutSec) * time.Second,
		MaxRetries: cfg.OpenAI.MaxRetries,
	})

	registry := tools.NewRegistry(st, logger)
	loop := coach.New(logger, client, registry, st, st, cfg.Chat.MaxToolRounds)

	addr := fmt.Sprintf("%s:%d", cfg.Listen.Address, cfg.Listen.Port)
	server := api.NewServer(logger, loop, addr, cfg.Auth.JWTSecret)

	// SIGINT/SIGTERM cancel the same ctx used by all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("coachd stopped")
	return nil
}

// loadConfig locates and parses the YAML configuration file. If explicit
// is non-empty, that exact path is used (and must exist). Otherwise
// [config.FindConfig] searches the default locations, and when nothing
// is found the built-in defaults apply so that a bare environment with
// the two required secrets is enough to start.
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		cfg, err := config.Default()
		if err != nil {
			return nil, "", err
		}
		return cfg, "(defaults)", nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	return cfg, cfgPath, nil
}

// newLogger creates a structured logger that writes to w at the given
// level, as JSON or human-readable text. All coachd output goes through
// slog.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
