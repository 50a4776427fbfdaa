package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the GophDrive CLI.
//
// Fields:
//   - ServerURL: base URL of the drive web server.
//   - StateDB: path of the local sqlite file holding the session.
//   - SearchDebounce: quiet period before a search-as-you-type lookup fires.
//   - DownloadDir: directory (relative to the working directory) for downloads.
//   - LogLevel: slog level name for the CLI's own diagnostics.
type Config struct {
	ServerURL      string
	StateDB        string
	SearchDebounce time.Duration
	DownloadDir    string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.StateDB = "gophdrive.db"
	c.SearchDebounce = 300 * time.Millisecond
	c.DownloadDir = "downloads"
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
