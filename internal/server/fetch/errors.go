package fetch

import (
	"fmt"
	"strings"
)

// Error is a classified fetch failure. Kind is one of common.ErrURLRejected,
// common.ErrTransientFailure, common.ErrResourceExhausted or common.ErrTimeout,
// so callers match it with errors.Is.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("fetch: %v", e.Kind)
	}
	return fmt.Sprintf("fetch: %v: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

const maxReason = 200

// lastLine returns the last non-empty line of tool output, shortened.
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			if len(l) > maxReason {
				l = l[:maxReason]
			}
			return l
		}
	}
	return ""
}
