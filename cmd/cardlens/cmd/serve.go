package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP scanning API",
	Long: `Serve starts an HTTP server exposing the scanning pipeline.

Endpoints:
  POST /scan/image  - Scan a single uploaded image
  POST /scan/batch  - Scan multiple uploaded images
  POST /scan/pdf    - Scan images embedded in an uploaded PDF
  GET  /ws/batch    - Batch scanning with websocket progress
  GET  /cards       - Card CRUD and search
  GET  /history     - Recent scan results
  GET  /engines     - Available recognition engines
  GET  /health      - Health check
  GET  /metrics     - Prometheus metrics

Examples:
  cardlens serve
  cardlens serve --port 3000 --host 0.0.0.0
  cardlens serve --rate-limit 60`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "host to bind")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on")
	serveCmd.Flags().String("cors-origin", "", "allowed CORS origin")
	serveCmd.Flags().Int("max-upload-size", 0, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 0, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 0, "graceful shutdown timeout in seconds")
	serveCmd.Flags().Int("rate-limit", 0, "requests per minute per client (0 disables)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}
	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}
	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	maxUploadMB := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
	}
	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}
	rateLimit := cfg.Server.RateLimitPerMin
	if cmd.Flags().Changed("rate-limit") {
		rateLimit, _ = cmd.Flags().GetInt("rate-limit")
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	scanner, cleanup, err := buildScanner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.NewServer(server.Config{
		Host:            host,
		Port:            port,
		CORSOrigin:      corsOrigin,
		MaxUploadMB:     int64(maxUploadMB),
		TimeoutSec:      timeout,
		RateLimitPerMin: rateLimit,
		ScanOptions:     scanOptions(cfg, true),
	}, scanner, slog.Default())

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(timeout) * time.Second,
		WriteTimeout:      time.Duration(timeout) * time.Second,
	}

	go func() {
		slog.Info("Starting server", "host", host, "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(shutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
