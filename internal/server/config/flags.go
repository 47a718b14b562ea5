package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/clipvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string           HTTP bind address (e.g. ":8080")
//	-driver string      database driver, "sqlite" or "pgx"
//	-d string           database DSN
//	-u string           S3 access key
//	-p string           S3 secret key
//	-b string           S3 bucket name
//	-g string           S3 region
//	-e string           S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-public-url string  public base URL of stored objects
//	-limit int          default upload limit for new owners (0 = unlimited)
//	-retention duration retention window (e.g. "720h")
//	-temp-dir string    scratch directory for downloads
//	-log-level string   debug, info, warn or error
//
// args is filtered with flagx.FilterArgs first, so flags belonging to other
// components (for example -c) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-driver", "-d", "-u", "-p", "-b", "-g", "-e",
		"-public-url", "-limit", "-retention", "-temp-dir", "-log-level",
	})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.ObjectStore, "store", config.ObjectStore, "object store backend: s3 or memory")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.PublicBaseURL, "public-url", config.PublicBaseURL, "public base URL")
	fs.IntVar(&config.DefaultUploadLimit, "limit", config.DefaultUploadLimit, "default upload limit (0 = unlimited)")
	fs.DurationVar(&config.Retention, "retention", config.Retention, "retention window")
	fs.StringVar(&config.TempDir, "temp-dir", config.TempDir, "scratch directory")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	return fs.Parse(args)
}
