// Package config handles configuration for the server component: defaults,
// a JSON overlay, CLIPVAULT_* environment variables and command-line flags,
// applied in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/clipvault/internal/dbx"
)

// Config holds runtime settings for the ClipVault server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" and its DSN.
//   - ObjectStore: "s3" or "memory" (in-process, lost on restart).
//   - S3AccessKey / S3SecretKey: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - PublicBaseURL: prefix of public object URLs; KeyPrefix: root of every key.
//   - DefaultUploadLimit: limit given to new owners, 0 means unlimited.
//   - Retention: age after which committed files are reclaimed.
//   - ReconcileAt / ReconcileTimezone: daily reconciler run time ("HH:MM").
//   - OrphanSweep / OrphanGrace: orphan pass toggle and minimum object age.
//   - FetchTool / ProbeTool / TranscodeTool: external media binaries.
//   - TargetFormat / MaxHeight / AllowedHosts: fetch constraints.
//   - TempDir: scratch directory for artifacts.
//   - FetchTimeout / StoreTimeout / SubmitTimeout: per-step and overall bounds.
//   - FetchRetries / PutRetries / RetryBackoff: retry budget after the first try.
//   - AdminRole / UploaderRole: role names the front end passes in X-Owner-Roles.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrHTTP   string
	DatabaseDriver     string
	DatabaseDSN        string
	ObjectStore        string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3Region           string
	S3BaseEndpoint     string
	PublicBaseURL      string
	KeyPrefix          string
	DefaultUploadLimit int
	Retention          time.Duration
	ReconcileAt        string
	ReconcileTimezone  string
	OrphanSweep        bool
	OrphanGrace        time.Duration
	FetchTool          string
	ProbeTool          string
	TranscodeTool      string
	TargetFormat       string
	MaxHeight          int
	AllowedHosts       []string
	TempDir            string
	FetchTimeout       time.Duration
	StoreTimeout       time.Duration
	SubmitTimeout      time.Duration
	FetchRetries       int
	PutRetries         int
	RetryBackoff       time.Duration
	AdminRole          string
	UploaderRole       string
	LogLevel           string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the S3 credentials are for a local MinIO and must be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDriver = string(dbx.DialectSQLite)
	c.DatabaseDSN = "file:clipvault.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	c.ObjectStore = "s3"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "clipvault"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.PublicBaseURL = "http://127.0.0.1:9000/clipvault"
	c.KeyPrefix = ""
	c.DefaultUploadLimit = 5
	c.Retention = 30 * 24 * time.Hour
	c.ReconcileAt = "00:00"
	c.ReconcileTimezone = "Asia/Tokyo"
	c.OrphanSweep = true
	c.OrphanGrace = time.Hour
	c.FetchTool = "yt-dlp"
	c.ProbeTool = "ffprobe"
	c.TranscodeTool = "ffmpeg"
	c.TargetFormat = "mp4"
	c.MaxHeight = 720
	c.AllowedHosts = nil
	c.TempDir = filepath.Join(os.TempDir(), "clipvault")
	c.FetchTimeout = 10 * time.Minute
	c.StoreTimeout = 2 * time.Minute
	c.SubmitTimeout = 15 * time.Minute
	c.FetchRetries = 2
	c.PutRetries = 2
	c.RetryBackoff = 2 * time.Second
	c.AdminRole = "admin"
	c.UploaderRole = "uploader"
	c.LogLevel = "info"
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if _, ok := dbx.ParseDialect(c.DatabaseDriver); !ok {
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if _, err := time.Parse("15:04", c.ReconcileAt); err != nil {
		return fmt.Errorf("reconcile_at %q: want HH:MM", c.ReconcileAt)
	}
	if _, err := time.LoadLocation(c.ReconcileTimezone); err != nil {
		return fmt.Errorf("reconcile_timezone: %w", err)
	}
	if c.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %s", c.Retention)
	}
	if c.DefaultUploadLimit < 0 {
		return fmt.Errorf("default_upload_limit must not be negative, got %d", c.DefaultUploadLimit)
	}
	if c.FetchRetries < 0 || c.PutRetries < 0 {
		return fmt.Errorf("retry counts must not be negative")
	}
	if c.ObjectStore != "s3" && c.ObjectStore != "memory" {
		return fmt.Errorf("object_store must be s3 or memory, got %q", c.ObjectStore)
	}
	if c.S3Bucket == "" {
		return fmt.Errorf("s3_bucket is required")
	}
	return nil
}

// Location returns the reconciler time zone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReconcileTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
