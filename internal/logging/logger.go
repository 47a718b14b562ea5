// Package logging is the structured logger every ClipVault component takes as
// a dependency. Records carry the request context so handlers can pick up
// deadlines and trace values.
package logging

import "context"

// Logger writes leveled records made of a message and alternating key/value
// arguments:
//
//	log.Warn(ctx, "object not deleted", "key", key, "orphan", true)
//
// Pipeline and reconciler code log owner_id, job_id, key and stage on every
// record so a single upload can be followed through the log.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds args to every record of the returned logger.
	With(args ...any) Logger
}

var _ Logger = (*SlogLogger)(nil)
