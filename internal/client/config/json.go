package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/clipvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent fields
// keep their current value.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	OwnerID        string         `json:"owner_id"`
	DisplayName    string         `json:"display_name"`
	Roles          []string       `json:"roles"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	RetryMax       *int           `json:"retry_max"`
}

func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.OwnerID != "" {
		cfg.OwnerID = jc.OwnerID
	}
	if jc.DisplayName != "" {
		cfg.DisplayName = jc.DisplayName
	}
	if jc.Roles != nil {
		cfg.Roles = jc.Roles
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryMax != nil {
		cfg.RetryMax = *jc.RetryMax
	}
	return nil
}
