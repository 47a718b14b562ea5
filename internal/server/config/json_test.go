package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	t.Setenv("CLIPVAULT_CONFIG", "")

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":   "www.example:9000",
		"database_driver":      "pgx",
		"database_dsn":         "postgres://db",
		"s3_bucket":            "bucket",
		"public_base_url":      "https://pub.example",
		"key_prefix":           "",
		"default_upload_limit": 0,
		"retention":            "168h",
		"orphan_sweep":         false,
		"orphan_grace":         "30m",
		"allowed_hosts":        []string{"youtube.com", "youtu.be"},
		"fetch_timeout":        "240s",
		"fetch_retries":        0,
		"reconcile_timezone":   "UTC",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		cfg.KeyPrefix = "old"
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "pgx", cfg.DatabaseDriver)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "https://pub.example", cfg.PublicBaseURL)
		assert.Equal(t, "", cfg.KeyPrefix)
		assert.Equal(t, 0, cfg.DefaultUploadLimit)
		assert.Equal(t, 168*time.Hour, cfg.Retention)
		assert.False(t, cfg.OrphanSweep)
		assert.Equal(t, 30*time.Minute, cfg.OrphanGrace)
		assert.Equal(t, []string{"youtube.com", "youtu.be"}, cfg.AllowedHosts)
		assert.Equal(t, 240*time.Second, cfg.FetchTimeout)
		assert.Equal(t, 0, cfg.FetchRetries)
		assert.Equal(t, "UTC", cfg.ReconcileTimezone)

		// untouched keys keep defaults
		assert.Equal(t, 2, cfg.PutRetries)
		assert.Equal(t, "yt-dlp", cfg.FetchTool)
	})

	t.Run("path from environment", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("CLIPVAULT_CONFIG", pathFlag)

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
	})

	t.Run("no config → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("CLIPVAULT_CONFIG", "")

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", S3Bucket: "s3bucket"}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}
		require.Error(t, parseJson(&Config{}))
	})

	t.Run("missing file → error", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Error(t, parseJson(&Config{}))
	})
}
