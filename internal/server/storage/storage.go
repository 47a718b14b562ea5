// Package storage defines the object-store contract the pipeline and the
// reconciler consume, with an S3 implementation and an in-memory one.
package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"
)

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the narrow object-store surface used by ClipVault.
//
// Delete treats a missing object as success. PublicURL is deterministic and
// performs no I/O.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	PublicURL(key string) string
}

// PublicURL joins base and key, escaping each key segment.
func PublicURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}

// ContentType guesses the MIME type of an artifact from its extension.
func ContentType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp4", "m4v":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mkv":
		return "video/x-matroska"
	case "mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}
