// Package config loads settings for the MarkPDF client: built-in defaults,
// then an optional JSON file given with -c or -config, then flags.
//
//	-a, --server string    base URL of the MarkPDF API
//	-f, --session string   file holding the signed-in session
//	-z, --scale float      initial viewer zoom
//	-o, --timeout duration per-request timeout
//
// JSON keys mirror the flags:
//
//	{
//	  "server_url": "http://127.0.0.1:5001",
//	  "session_file": "/home/me/.markpdf/session.toml",
//	  "scale": 1.5,
//	  "request_timeout": "15s"
//	}
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the client.
type Config struct {
	ServerURL      string
	SessionFile    string
	Scale          float64
	RequestTimeout time.Duration
}

// LoadDefaults populates c with defaults. The session file lives under the
// user's home directory, or the working directory when that is unknown.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5001"
	c.SessionFile = defaultSessionFile()
	c.Scale = 1.5
	c.RequestTimeout = 15 * time.Second
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".markpdf", "session.toml")
	}
	return filepath.Join(home, ".markpdf", "session.toml")
}

// LoadConfig builds a Config from defaults, the JSON file and args, later
// sources winning.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
