package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by parseEnv.
const EnvPrefix = "CLIPVAULT_"

type lookupFunc func(string) (string, bool)

// parseEnv overlays CLIPVAULT_* variables onto config. Unset variables keep
// the current value; a malformed number, bool or duration is an error.
func parseEnv(config *Config, lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("ENDPOINT_ADDR_HTTP", &config.EndpointAddrHTTP)
	e.str("DATABASE_DRIVER", &config.DatabaseDriver)
	e.str("DATABASE_DSN", &config.DatabaseDSN)
	e.str("S3_ACCESS_KEY", &config.S3AccessKey)
	e.str("S3_SECRET_KEY", &config.S3SecretKey)
	e.str("OBJECT_STORE", &config.ObjectStore)
	e.str("S3_BUCKET", &config.S3Bucket)
	e.str("S3_REGION", &config.S3Region)
	e.str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	e.str("PUBLIC_BASE_URL", &config.PublicBaseURL)
	e.str("KEY_PREFIX", &config.KeyPrefix)
	e.int("DEFAULT_UPLOAD_LIMIT", &config.DefaultUploadLimit)
	e.duration("RETENTION", &config.Retention)
	e.str("RECONCILE_AT", &config.ReconcileAt)
	e.str("RECONCILE_TIMEZONE", &config.ReconcileTimezone)
	e.bool("ORPHAN_SWEEP", &config.OrphanSweep)
	e.duration("ORPHAN_GRACE", &config.OrphanGrace)
	e.str("FETCH_TOOL", &config.FetchTool)
	e.str("PROBE_TOOL", &config.ProbeTool)
	e.str("TRANSCODE_TOOL", &config.TranscodeTool)
	e.str("TARGET_FORMAT", &config.TargetFormat)
	e.int("MAX_HEIGHT", &config.MaxHeight)
	e.list("ALLOWED_HOSTS", &config.AllowedHosts)
	e.str("TEMP_DIR", &config.TempDir)
	e.duration("FETCH_TIMEOUT", &config.FetchTimeout)
	e.duration("STORE_TIMEOUT", &config.StoreTimeout)
	e.duration("SUBMIT_TIMEOUT", &config.SubmitTimeout)
	e.int("FETCH_RETRIES", &config.FetchRetries)
	e.int("PUT_RETRIES", &config.PutRetries)
	e.duration("RETRY_BACKOFF", &config.RetryBackoff)
	e.str("ADMIN_ROLE", &config.AdminRole)
	e.str("UPLOADER_ROLE", &config.UploaderRole)
	e.str("LOG_LEVEL", &config.LogLevel)

	return e.err
}

// envReader keeps the first conversion error so parseEnv reads as a flat list.
type envReader struct {
	lookup lookupFunc
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	return e.lookup(EnvPrefix + name)
}

func (e *envReader) fail(name, v string, err error) {
	e.err = fmt.Errorf("env %s%s=%q: %w", EnvPrefix, name, v, err)
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) int(name string, dst *int) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = n
}

func (e *envReader) bool(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = d
}

func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	*dst = splitList(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
