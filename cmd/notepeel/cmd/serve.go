package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/notepeel/internal/server"
	"github.com/MeKo-Tech/notepeel/internal/version"
)

func (a *app) newServeCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP analysis server",
		Long: `Start an HTTP server that analyses documents on request.

The server provides the following endpoints:
  POST /analyze     - Analyze a JSON body or a multipart file upload
  GET  /ws/analyze  - Analyze over a WebSocket connection
  GET  /profiles    - List the detection profiles
  GET  /health      - Health check endpoint
  GET  /metrics     - Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  notepeel serve
  notepeel serve --port 8080
  notepeel serve --host 0.0.0.0 --rate-limit --requests-per-minute 30`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	f := c.Flags()
	f.String("host", "", "host to bind (default localhost)")
	f.Int("port", 0, "port to listen on (default 8080)")
	f.StringP("profile", "p", "", "default detection profile for requests that name none")
	f.String("cors-origin", "", "allowed CORS origin (default *)")
	f.Int("max-upload-mb", 0, "maximum request body size in MB (default 20)")
	f.Int("timeout", 0, "request timeout in seconds (default 30)")
	f.Int("shutdown-timeout", 0, "graceful shutdown timeout in seconds (default 10)")
	f.Bool("rate-limit", false, "enable per-client rate limiting")
	f.Int("requests-per-minute", 0, "rate limit: requests per minute per client (default 60)")
	f.Int("requests-per-hour", 0, "rate limit: requests per hour per client (default 1000)")
	f.Int("max-requests-per-day", 0, "daily quota: requests per client (default 10000)")
	f.Int64("max-data-per-day", 0, "daily quota: bytes per client (0 = unlimited)")

	a.bind(c, "host", "server.host")
	a.bind(c, "port", "server.port")
	a.bind(c, "profile", "analyzer.profile")
	a.bind(c, "cors-origin", "server.cors_origin")
	a.bind(c, "max-upload-mb", "server.max_upload_mb")
	a.bind(c, "timeout", "server.timeout_sec")
	a.bind(c, "shutdown-timeout", "server.shutdown_timeout")
	a.bind(c, "rate-limit", "server.rate_limit.enabled")
	a.bind(c, "requests-per-minute", "server.rate_limit.requests_per_minute")
	a.bind(c, "requests-per-hour", "server.rate_limit.requests_per_hour")
	a.bind(c, "max-requests-per-day", "server.rate_limit.max_requests_per_day")
	a.bind(c, "max-data-per-day", "server.rate_limit.max_data_per_day")
	return c
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	p, err := a.cfg.ResolveProfile()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg.Server
	slog.Info("Starting server",
		"host", cfg.Host,
		"port", cfg.Port,
		"profile", p.Name(),
		"rate_limit", cfg.RateLimit.Enabled,
		"version", version.Info().Version)
	return server.NewServer(cfg, p).ListenAndServe(ctx, cfg)
}
