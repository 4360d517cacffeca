package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"devauth-go/internal/config"
	"devauth-go/internal/credential"
	"devauth-go/internal/flow"
	"devauth-go/internal/grant"
	"devauth-go/internal/httpapi"
	"devauth-go/internal/logs"
	"devauth-go/internal/registry"
	"devauth-go/internal/simulation"
)

var (
	configFile string
	listen     string
	jwtSecret  string
	logLevel   string
	logToFile  bool
	logDir     string

	version = "v0.1.0" // This will be injected by -ldflags during build
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "devauth",
		Short:   "DevAuth - Mock OAuth 2.0 provider for local development and testing",
		Version: version,
		RunE:    runServer,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&listen, "listen", "l", "", "Listen address (default :3000)")
	rootCmd.PersistentFlags().StringVar(&jwtSecret, "jwt-secret", "", "Bearer token signing secret (random per start when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", false, "Enable logging to file")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Custom log directory path (default: ~/.devauth/logs)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command-line flags win over file and environment.
	if listen != "" {
		cfg.Listen = listen
	}
	if jwtSecret != "" {
		cfg.JWTSecret = jwtSecret
	}
	if cfg.Logging == nil {
		cfg.Logging = &config.LogConfig{EnableConsole: true}
	}
	cfg.Logging.Level = logLevel
	if logToFile {
		cfg.Logging.EnableFile = true
	}
	if logDir != "" {
		cfg.Logging.LogDir = logDir
	}

	if err := cfg.EnsureJWTSecret(); err != nil {
		return err
	}

	zlogger, err := logs.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = zlogger.Sync()
	}()
	logger := zlogger.Sugar()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	providers := registry.NewRegistry()
	modes := simulation.NewRegistry()
	codes := grant.NewStore(cfg.CodeTTL())
	bus := flow.NewBus()

	bearer := flow.NewOrchestrator(providers, codes, modes,
		credential.NewBearerStrategy([]byte(cfg.JWTSecret), cfg.TokenTTL(), modes, providers), bus, logger)
	session := flow.NewOrchestrator(providers, codes, modes,
		credential.NewSessionStrategy(credential.NewSessionStore(), cfg.TokenTTL(), modes), bus, logger)

	go codes.RunSweeper(ctx, cfg.SweepInterval())

	srv := httpapi.NewServer(cfg, logger, providers, modes, bearer, session, bus)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("devauth listening",
			"addr", cfg.Listen, "providers", providers.IDs(), "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Infow("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
