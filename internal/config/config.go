package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/notepeel/internal/profile"
	"github.com/MeKo-Tech/notepeel/internal/render"
)

const (
	infoLevel = "info"
	jsonValue = "json"
)

var (
	validLogLevels  = []string{"debug", infoLevel, "warn", "error"}
	validLogFormats = []string{jsonValue, "text"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:  infoLevel,
		LogFormat: jsonValue,
		Verbose:   false,
		Analyzer: AnalyzerConfig{
			Profile: profile.Default,
		},
		Output: OutputConfig{
			Format: jsonValue,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 60,
				RequestsPerHour:   1000,
				MaxRequestsPerDay: 10000,
				MaxDataPerDay:     0,
			},
		},
		Batch: BatchConfig{
			Workers:         4,
			Recursive:       false,
			Include:         []string{"*.txt", "*.json", "*.pdf"},
			Exclude:         []string{},
			ContinueOnError: false,
		},
	}
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.LogFormat != "" && !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format: %s (must be one of: %s)", c.LogFormat, strings.Join(validLogFormats, ", "))
	}

	if !profile.IsRegistered(c.Analyzer.Profile) {
		return fmt.Errorf("invalid analyzer profile: %s (must be one of: %s)",
			c.Analyzer.Profile, strings.Join(profile.Names(), ", "))
	}

	if _, err := render.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("invalid output format: %w", err)
	}

	if err := c.Server.validate(); err != nil {
		return err
	}

	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	for _, pattern := range append(slices.Clone(c.Batch.Include), c.Batch.Exclude...) {
		if strings.TrimSpace(pattern) == "" {
			return errors.New("invalid batch pattern: empty glob")
		}
	}

	return nil
}

func (s *ServerConfig) validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", s.Port)
	}
	if s.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", s.MaxUploadMB)
	}
	if s.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", s.TimeoutSec)
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %d (must not be negative)", s.ShutdownTimeout)
	}

	rl := s.RateLimit
	for name, v := range map[string]int64{
		"requests_per_minute":  int64(rl.RequestsPerMinute),
		"requests_per_hour":    int64(rl.RequestsPerHour),
		"max_requests_per_day": int64(rl.MaxRequestsPerDay),
		"max_data_per_day":     rl.MaxDataPerDay,
	} {
		if v < 0 {
			return fmt.Errorf("invalid rate limit %s: %d (must not be negative)", name, v)
		}
	}
	return nil
}

// ResolveProfile returns the configured detection profile. When Analyzer.Debug
// is set it overrides the profile's debug toggle.
func (c *Config) ResolveProfile() (*profile.Profile, error) {
	p, err := profile.Lookup(c.Analyzer.Profile)
	if err != nil {
		return nil, err
	}
	if c.Analyzer.Debug == nil || *c.Analyzer.Debug == p.Debug() {
		return p, nil
	}
	s := p.Settings()
	s.Debug = *c.Analyzer.Debug
	return profile.New(s)
}

// OutputFormat returns the parsed output format, defaulting to JSON.
func (c *Config) OutputFormat() (render.Format, error) {
	return render.ParseFormat(c.Output.Format)
}
