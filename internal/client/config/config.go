// Package config holds settings for the clipvault operator CLI.
package config

import "time"

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerURL: base URL of the ClipVault HTTP API.
//   - OwnerID / DisplayName / Roles: identity sent in the X-Owner-* headers.
//   - RequestTimeout: bound on one API call. Uploads can take minutes.
//   - RetryMax: retries on connection errors.
type Config struct {
	ServerURL      string
	OwnerID        string
	DisplayName    string
	Roles          []string
	RequestTimeout time.Duration
	RetryMax       int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.OwnerID = "operator"
	c.DisplayName = "operator"
	c.Roles = []string{"admin"}
	c.RequestTimeout = 20 * time.Minute
	c.RetryMax = 3
}

// Load applies defaults and then the JSON file at path, when path is set.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
