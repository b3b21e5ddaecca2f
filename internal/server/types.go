// Package server exposes the warp engine over HTTP: one-shot warps of
// uploaded images and websocket drag sessions that re-warp a kept source on
// every corner move.
package server

import (
	"fmt"
	"image/color"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/quadwarp/internal/config"
	"github.com/MeKo-Tech/quadwarp/internal/imageio"
	"github.com/MeKo-Tech/quadwarp/internal/pipeline"
	"github.com/MeKo-Tech/quadwarp/internal/texmap"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	base           *pipeline.Pipeline
	addr           string
	corsOrigin     string
	maxUploadMB    int64
	timeoutSec     int
	maxDestPixels  int
	outputFormat   imageio.Format
	overlayEnabled bool
	overlayColor   color.NRGBA
	rateLimiter    *RateLimiter
	upgrader       websocket.Upgrader
}

// Config holds server configuration.
type Config struct {
	Host          string
	Port          int
	CORSOrigin    string
	MaxUploadMB   int64
	TimeoutSec    int
	MaxDestPixels int

	RateLimitPerMinute int
	RateLimitPerHour   int

	// Defaults for requests that do not override them
	Warp           config.WarpOptions
	Engine         texmap.Config
	OutputFormat   imageio.Format
	OverlayEnabled bool
	OverlayColor   color.NRGBA
}

// ConfigFromApp converts the application configuration into a server Config.
func ConfigFromApp(app config.Config) (Config, error) {
	opts, err := app.ToWarpOptions()
	if err != nil {
		return Config{}, err
	}
	format := imageio.FormatPNG
	if app.Output.Format != "" {
		if format, err = imageio.ParseFormat(app.Output.Format); err != nil {
			return Config{}, err
		}
	}
	overlayColor := color.NRGBA{R: 255, A: 255}
	if app.Output.OverlayColor != "" {
		if overlayColor, err = imageio.ParseColor(app.Output.OverlayColor); err != nil {
			return Config{}, err
		}
	}
	return Config{
		Host:               app.Server.Host,
		Port:               app.Server.Port,
		CORSOrigin:         app.Server.CORSOrigin,
		MaxUploadMB:        int64(app.Server.MaxUploadMB),
		TimeoutSec:         app.Server.TimeoutSec,
		MaxDestPixels:      app.Server.MaxDestPixels,
		RateLimitPerMinute: app.Server.RateLimitPerMinute,
		RateLimitPerHour:   app.Server.RateLimitPerHour,
		Warp:               opts,
		Engine:             app.ToTexmapConfig(),
		OutputFormat:       format,
		OverlayEnabled:     app.Output.Overlay,
		OverlayColor:       overlayColor,
	}, nil
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type InfoResponse struct {
	Version       string                 `json:"version"`
	Resolvers     []string               `json:"resolvers"`
	OutOfQuad     []string               `json:"out_of_quad"`
	OutOfTexture  []string               `json:"out_of_texture"`
	Formats       []string               `json:"formats"`
	MaxUploadMB   int64                  `json:"max_upload_mb"`
	MaxDestPixels int                    `json:"max_dest_pixels"`
	Defaults      map[string]interface{} `json:"defaults"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a new warp server instance.
func NewServer(cfg Config) (*Server, error) {
	b := pipeline.NewBuilder().
		WithEngineConfig(cfg.Engine).
		WithAllocator(texmap.PoolAllocator{})
	if cfg.Warp.Resolver != nil {
		b = b.WithWarpOptions(cfg.Warp)
	}
	pl, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 50
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 30
	}
	if cfg.MaxDestPixels <= 0 {
		cfg.MaxDestPixels = 4096 * 4096
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = imageio.FormatPNG
	}
	if cfg.OverlayColor == (color.NRGBA{}) {
		cfg.OverlayColor = color.NRGBA{R: 255, A: 255}
	}

	s := &Server{
		base:           pl,
		addr:           net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		corsOrigin:     cfg.CORSOrigin,
		maxUploadMB:    cfg.MaxUploadMB,
		timeoutSec:     cfg.TimeoutSec,
		maxDestPixels:  cfg.MaxDestPixels,
		outputFormat:   cfg.OutputFormat,
		overlayEnabled: cfg.OverlayEnabled,
		overlayColor:   cfg.OverlayColor,
	}
	if cfg.RateLimitPerMinute > 0 || cfg.RateLimitPerHour > 0 {
		s.rateLimiter = NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerHour)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// checkOrigin accepts websocket upgrades from the configured CORS origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	if s.corsOrigin == "" || s.corsOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || strings.EqualFold(origin, s.corsOrigin)
}

// Pipeline returns the pipeline holding the server's default options.
func (s *Server) Pipeline() *pipeline.Pipeline { return s.base }

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/info", s.corsMiddleware(s.infoHandler))
	mux.HandleFunc("/v1/warp", s.corsMiddleware(s.rateLimitMiddleware(s.warpHandler)))
	// The session handler hijacks the connection, so it bypasses the
	// status-capturing middleware.
	mux.HandleFunc("/v1/session", s.sessionHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// HTTPServer returns an http.Server serving all routes on the configured address.
func (s *Server) HTTPServer() *http.Server {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	timeout := time.Duration(s.timeoutSec) * time.Second
	return &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
}
