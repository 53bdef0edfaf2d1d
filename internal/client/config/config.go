package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the enclavechat CLI.
//
// Fields:
//   - ServerBaseURL: base URL of the remote inference service.
//   - Model: model identifier requested for chat and attestation.
//   - SigningAlgo: signing algorithm expected in attestation reports.
//   - APIKey: access credential sent as a bearer token.
//   - RequestTimeout: bound on non-streaming requests (attestation,
//     signature fetch). Streamed chats are bounded by context instead.
//   - SweepInterval: how often the retention sweeper runs.
//   - DatabasePath: path of the local SQLite vault database.
type Config struct {
	ServerBaseURL  string
	Model          string
	SigningAlgo    string
	APIKey         string
	RequestTimeout time.Duration
	SweepInterval  time.Duration
	DatabasePath   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080"
	c.Model = "llama-3.3-70b-instruct"
	c.SigningAlgo = "ecdsa"
	c.RequestTimeout = 15 * time.Second
	c.SweepInterval = time.Minute
	c.DatabasePath = "enclavechat.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), the environment, and command-line flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	if key := os.Getenv("ENCLAVECHAT_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	parseFlags(cfg)
	return cfg
}
