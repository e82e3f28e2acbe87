package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	app "rfid-access-console/internal"
	"rfid-access-console/internal/config"
	"rfid-access-console/internal/jwt"
	"rfid-access-console/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the tracking API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return ServerMain(ctx)
	},
}

func parseLevel(raw string) (slog.Level, bool) {
	switch strings.ToUpper(raw) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Initialize logger
func initLogger(cfg *config.Config) *slog.Logger {
	level, ok := parseLevel(cfg.LogLevel)
	if !ok {
		println("Invalid log level in config, defaulting to INFO")
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

// CLI commands print their own output; only errors are logged.
func initCLILogger() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func ServerMain(ctx context.Context) error {
	t, err := newTracker()
	if err != nil {
		return err
	}

	// The first load may fail while the backend starts; the poller retries.
	if _, err := t.Refresh(ctx); err != nil {
		slog.Warn("Initial refresh failed", "error", err)
	}

	var poller *tracker.Poller
	if cfg.RefreshInterval != "" {
		poller, err = tracker.NewPoller(t, cfg.RefreshInterval, time.Duration(cfg.Backend.Timeout)*time.Second*2)
		if err != nil {
			return err
		}
		poller.Start()
	}

	signer, err := newSigner()
	if errors.Is(err, jwt.ErrMissingSecret) {
		slog.Warn("auth.secret is not set, card status changes are not authenticated")
	} else if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.HTTPServer(cfg, t, provider, signer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", cfg.ListenAddr, "backend", cfg.Backend.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if poller != nil {
		poller.Stop(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
