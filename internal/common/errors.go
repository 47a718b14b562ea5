// Package common defines shared constants and sentinel errors used across
// ClipVault layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrForbidden  = errors.New("forbidden")

	// Validation errors.
	ErrInvalidName = errors.New("invalid name")
	ErrNameTaken   = errors.New("name already taken")

	// Pipeline errors.
	ErrBusy              = errors.New("owner already has an upload in progress")
	ErrQuotaExceeded     = errors.New("upload quota exceeded")
	ErrURLRejected       = errors.New("source url rejected")
	ErrTransientFailure  = errors.New("transient failure")
	ErrResourceExhausted = errors.New("resources exhausted")
	ErrUploadFailed      = errors.New("upload to object storage failed")
	ErrTimeout           = errors.New("timed out")
)
