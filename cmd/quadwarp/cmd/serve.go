package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the warp API",
	Long: `Start an HTTP server that warps uploaded images and hosts interactive
drag sessions.

The server provides the following endpoints:
  POST /v1/warp    - Warp an uploaded image (multipart field "image")
  GET  /v1/session - Websocket drag session re-warping on every quad message
  GET  /v1/info    - Supported options and server defaults
  GET  /health     - Health check endpoint
  GET  /metrics    - Prometheus metrics

Examples:
  quadwarp serve
  quadwarp serve --port 8080
  quadwarp serve --host 0.0.0.0 --port 3000 --rate-limit-per-minute 60`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServeCommand,
}

// applyServerFlags copies explicitly set server flags over cfg.
func applyServerFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.Server.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		cfg.Server.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-upload-size") {
		cfg.Server.MaxUploadMB, _ = flags.GetInt("max-upload-size")
	}
	if flags.Changed("timeout") {
		cfg.Server.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		cfg.Server.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}
	if flags.Changed("max-dest-pixels") {
		cfg.Server.MaxDestPixels, _ = flags.GetInt("max-dest-pixels")
	}
	if flags.Changed("rate-limit-per-minute") {
		cfg.Server.RateLimitPerMinute, _ = flags.GetInt("rate-limit-per-minute")
	}
	if flags.Changed("rate-limit-per-hour") {
		cfg.Server.RateLimitPerHour, _ = flags.GetInt("rate-limit-per-hour")
	}
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyWarpOptionFlags(cmd, cfg)
	applyServerFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	serverConfig, err := server.ConfigFromApp(*cfg)
	if err != nil {
		return err
	}
	warpServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	return runHTTPServer(ctx, warpServer.HTTPServer(), shutdownTimeout)
}

// runHTTPServer serves until ctx is done or the listener fails, then shuts
// the server down within shutdownTimeout.
func runHTTPServer(ctx context.Context, httpServer *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting warp server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	case err, ok := <-errCh:
		if ok {
			slog.Error("Server error", "error", err)
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("Graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Int("max-dest-pixels", 4096*4096, "largest destination (width*height) a request may ask for")

	// Rate limiting flags
	serveCmd.Flags().Int("rate-limit-per-minute", 0, "maximum warp requests per minute per client (0 = unlimited)")
	serveCmd.Flags().Int("rate-limit-per-hour", 0, "maximum warp requests per hour per client (0 = unlimited)")

	// Default warp options for requests that do not set them
	addWarpOptionFlags(serveCmd)
}
