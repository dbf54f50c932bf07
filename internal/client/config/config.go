// Package config loads runtime settings for the FeedLine client: defaults,
// then a JSON file, then command-line flags, later sources winning.
package config

import "time"

// Config holds runtime settings for the FeedLine client.
//
// Fields:
//   - APIBaseURL: root of the backend HTTP API.
//   - RequestTimeout: overall per-request timeout.
//   - PageSize: records requested per collection page.
//   - SearchDebounce: pause after the last keystroke before a search fires.
//   - CredentialDB: path of the sqlite file persisting the bearer token.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	PageSize       int
	SearchDebounce time.Duration
	CredentialDB   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 60 * time.Second
	c.PageSize = 20
	c.SearchDebounce = 300 * time.Millisecond
	c.CredentialDB = "feedline.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
