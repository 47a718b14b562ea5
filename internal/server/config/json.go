package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/clipvault/internal/flagx"
	"github.com/dmitrijs2005/clipvault/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "90s" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from an explicit zero.
type JsonConfig struct {
	EndpointAddrHTTP   string         `json:"endpoint_addr_http"`
	DatabaseDriver     string         `json:"database_driver"`
	DatabaseDSN        string         `json:"database_dsn"`
	S3AccessKey        string         `json:"s3_access_key"`
	S3SecretKey        string         `json:"s3_secret_key"`
	ObjectStore        string         `json:"object_store"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	PublicBaseURL      string         `json:"public_base_url"`
	KeyPrefix          *string        `json:"key_prefix"`
	DefaultUploadLimit *int           `json:"default_upload_limit"`
	Retention          timex.Duration `json:"retention"`
	ReconcileAt        string         `json:"reconcile_at"`
	ReconcileTimezone  string         `json:"reconcile_timezone"`
	OrphanSweep        *bool          `json:"orphan_sweep"`
	OrphanGrace        timex.Duration `json:"orphan_grace"`
	FetchTool          string         `json:"fetch_tool"`
	ProbeTool          string         `json:"probe_tool"`
	TranscodeTool      string         `json:"transcode_tool"`
	TargetFormat       string         `json:"target_format"`
	MaxHeight          int            `json:"max_height"`
	AllowedHosts       []string       `json:"allowed_hosts"`
	TempDir            string         `json:"temp_dir"`
	FetchTimeout       timex.Duration `json:"fetch_timeout"`
	StoreTimeout       timex.Duration `json:"store_timeout"`
	SubmitTimeout      timex.Duration `json:"submit_timeout"`
	FetchRetries       *int           `json:"fetch_retries"`
	PutRetries         *int           `json:"put_retries"`
	RetryBackoff       timex.Duration `json:"retry_backoff"`
	AdminRole          string         `json:"admin_role"`
	UploaderRole       string         `json:"uploader_role"`
	LogLevel           string         `json:"log_level"`
}

// parseJson overlays the JSON file named by -c/-config (or $CLIPVAULT_CONFIG)
// onto config. Absent keys keep their current value. No path means no-op.
func parseJson(config *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.ObjectStore, c.ObjectStore)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	if c.KeyPrefix != nil {
		config.KeyPrefix = *c.KeyPrefix
	}
	if c.DefaultUploadLimit != nil {
		config.DefaultUploadLimit = *c.DefaultUploadLimit
	}
	setDuration(&config.Retention, c.Retention)
	setString(&config.ReconcileAt, c.ReconcileAt)
	setString(&config.ReconcileTimezone, c.ReconcileTimezone)
	if c.OrphanSweep != nil {
		config.OrphanSweep = *c.OrphanSweep
	}
	setDuration(&config.OrphanGrace, c.OrphanGrace)
	setString(&config.FetchTool, c.FetchTool)
	setString(&config.ProbeTool, c.ProbeTool)
	setString(&config.TranscodeTool, c.TranscodeTool)
	setString(&config.TargetFormat, c.TargetFormat)
	if c.MaxHeight > 0 {
		config.MaxHeight = c.MaxHeight
	}
	if c.AllowedHosts != nil {
		config.AllowedHosts = c.AllowedHosts
	}
	setString(&config.TempDir, c.TempDir)
	setDuration(&config.FetchTimeout, c.FetchTimeout)
	setDuration(&config.StoreTimeout, c.StoreTimeout)
	setDuration(&config.SubmitTimeout, c.SubmitTimeout)
	if c.FetchRetries != nil {
		config.FetchRetries = *c.FetchRetries
	}
	if c.PutRetries != nil {
		config.PutRetries = *c.PutRetries
	}
	setDuration(&config.RetryBackoff, c.RetryBackoff)
	setString(&config.AdminRole, c.AdminRole)
	setString(&config.UploaderRole, c.UploaderRole)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
