package common

import (
	"context"
	"errors"
)

// Category values reported to callers. Each failure maps to exactly one.
const (
	CategoryInvalidName       = "invalid_name"
	CategoryNameTaken         = "name_taken"
	CategoryBusy              = "busy"
	CategoryQuotaExceeded     = "quota_exceeded"
	CategoryURLRejected       = "url_rejected"
	CategoryTransient         = "transient_failure"
	CategoryResourceExhausted = "resource_exhausted"
	CategoryUploadFailed      = "upload_failed"
	CategoryTimeout           = "timeout"
	CategoryNotFound          = "not_found"
	CategoryForbidden         = "forbidden"
	CategoryInternal          = "internal"
)

type category struct {
	err     error
	name    string
	message string
}

// Order matters: the first match wins.
var categories = []category{
	{ErrInvalidName, CategoryInvalidName, "Names may only contain letters, digits, '_' and '-' (max 64 characters)."},
	{ErrNameTaken, CategoryNameTaken, "A file with this name already exists. Choose another name."},
	{ErrBusy, CategoryBusy, "Another upload of yours is still running. Wait for it to finish."},
	{ErrQuotaExceeded, CategoryQuotaExceeded, "Upload limit reached. Delete old files first."},
	{ErrURLRejected, CategoryURLRejected, "The video URL is invalid, unsupported or unavailable."},
	{ErrResourceExhausted, CategoryResourceExhausted, "The server is out of resources. Try again later."},
	{ErrUploadFailed, CategoryUploadFailed, "Storing the video failed. Try again later."},
	{ErrTimeout, CategoryTimeout, "The operation took too long and was cancelled."},
	{context.DeadlineExceeded, CategoryTimeout, "The operation took too long and was cancelled."},
	{ErrTransientFailure, CategoryTransient, "Downloading the video failed. Try again later."},
	{ErrorNotFound, CategoryNotFound, "File not found."},
	{ErrForbidden, CategoryForbidden, "You are not allowed to do that."},
}

// Category returns the short machine-readable category for err.
// Unknown errors are reported as internal.
func Category(err error) string {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.name
		}
	}
	return CategoryInternal
}

// UserMessage returns a short user-facing message for err. It never includes
// the raw error text.
func UserMessage(err error) string {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.message
		}
	}
	return "Something went wrong. Try again later."
}

// Retryable reports whether retrying the same request later may succeed.
func Retryable(err error) bool {
	switch Category(err) {
	case CategoryTransient, CategoryUploadFailed, CategoryTimeout, CategoryResourceExhausted, CategoryBusy, CategoryInternal:
		return true
	}
	return false
}
