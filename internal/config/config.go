// Package config loads the scenario engine's process-wide configuration
// from environment variables (spec §6 "Environment variables read at
// init"), with optional .env overrides for local runs and tests.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// searchPathSeparator is ':' on POSIX and ';' on Windows, matching the
// platform convention spec §6 calls out for the scenario search-path list.
func searchPathSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// Config holds everything the engine reads from the environment at init.
type Config struct {
	// ScenarioPathRaw is the colon/semicolon separated search-path list;
	// ScenarioPath is its parsed form (populated by Load).
	ScenarioPathRaw string `env:"GST_VALIDATE_SCENARIOS_PATH"`
	ScenarioPath    []string

	// ReportingPolicy is a string like "fatal_warnings+print_issues" (§4.3).
	ReportingPolicy string `env:"GST_VALIDATE_REPORTING_DETAILS"`

	// LogFilesRaw is a PATH:PATH:... list, plus "stdout"/"stderr" tokens.
	LogFilesRaw string `env:"GST_VALIDATE_LOG_FILES"`
	LogFiles    []string

	// RemoteURL is a "tcp://host:port" URL for the structured JSON stream.
	RemoteURL string `env:"GST_VALIDATE_REMOTE_URL"`

	// SessionUUID identifies this run to the remote controller; Load
	// generates one if unset.
	SessionUUID string `env:"GST_VALIDATE_SESSION_UUID"`

	// DotDir is the configured directory for .dot dumps. The dot-pipeline
	// action does not read it: it passes a bare "<name>.dot" path to
	// Pipeline.DumpDot.
	DotDir string `env:"GST_VALIDATE_DOT_DIR" env:"default=."`

	// WaitMultiplier is the wait-duration multiplier; Load keeps 0 and
	// resets negative values to 1. The engine does not apply it: `wait`
	// timers run for their unscaled duration.
	WaitMultiplier float64 `env:"GST_VALIDATE_WAIT_MULTIPLIER" env:"default=1.0"`

	// TickInterval is the engine's action-execution tick rate. Zero means
	// "schedule as idle work" (§4.6).
	TickInterval time.Duration `env:"GST_VALIDATE_TICK_INTERVAL" env:"default=10ms"`

	// Logging controls the ambient logger (internal/logging).
	LogLevel  string `env:"LOG_LEVEL" env:"default=info"`
	LogFormat string `env:"LOG_FORMAT" env:"default=text"`
}

// Load reads configuration from the environment, optionally seeded by a
// .env file in the current directory (ignored if absent).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DotDir:         ".",
		WaitMultiplier: 1.0,
		TickInterval:   10 * time.Millisecond,
		LogLevel:       "info",
		LogFormat:      "text",
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors out when none of the tagged fields are present
		// in the environment; treat that as "use defaults" so a host can
		// embed the engine without exporting anything.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode environment: %w", err)
		}
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.ScenarioPath = splitNonEmpty(c.ScenarioPathRaw, searchPathSeparator())
	c.LogFiles = splitNonEmpty(c.LogFilesRaw, ":")
	if c.WaitMultiplier <= 0 && c.WaitMultiplier != 0 {
		c.WaitMultiplier = 1.0
	}
	if strings.TrimSpace(c.SessionUUID) == "" {
		c.SessionUUID = uuid.NewString()
	}
}

func splitNonEmpty(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ResolveInclude resolves an `include, location=<path>` directive (spec
// §4.5): relative to fromDir first, then each ScenarioPath entry, then the
// user/system data directories.
func (c *Config) ResolveInclude(location, fromDir string) (string, bool) {
	if filepath.IsAbs(location) {
		if fileExists(location) {
			return location, true
		}
		return "", false
	}

	candidates := make([]string, 0, 2+len(c.ScenarioPath))
	if fromDir != "" {
		candidates = append(candidates, filepath.Join(fromDir, location))
	}
	for _, dir := range c.ScenarioPath {
		candidates = append(candidates, filepath.Join(dir, location))
	}
	if dataDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dataDir, "gstreamer-1.0", "validate", location))
	}
	candidates = append(candidates, filepath.Join("/usr/share/gstreamer-1.0/validate", location))

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
