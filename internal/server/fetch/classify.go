package fetch

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

// Lower-cased stderr fragments of yt-dlp and ffmpeg.
var (
	rejectedPatterns = []string{
		"unsupported url",
		"is not a valid url",
		"video unavailable",
		"private video",
		"this video is private",
		"has been removed",
		"not available in your country",
		"geo restricted",
		"geo-restricted",
		"sign in to confirm your age",
		"members-only",
		"http error 404",
		"http error 410",
		"no video formats found",
		"requested format is not available",
	}
	exhaustedPatterns = []string{
		"no space left on device",
		"enospc",
		"disk quota exceeded",
		"cannot allocate memory",
		"out of memory",
	}
)

// classify maps a failed tool run to a fetch Error. ctx is the context the
// tool ran under; its deadline wins over anything the tool printed.
func classify(ctx context.Context, stderr []byte, runErr error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return newError(common.ErrTimeout, "fetch tool exceeded its time limit", runErr)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(runErr, exec.ErrNotFound) {
		return newError(common.ErrResourceExhausted, "fetch tool is not installed", runErr)
	}

	reason := lastLine(stderr)
	out := strings.ToLower(string(stderr))
	for _, p := range exhaustedPatterns {
		if strings.Contains(out, p) {
			return newError(common.ErrResourceExhausted, reason, runErr)
		}
	}
	for _, p := range rejectedPatterns {
		if strings.Contains(out, p) {
			return newError(common.ErrURLRejected, reason, runErr)
		}
	}
	if reason == "" && runErr != nil {
		reason = runErr.Error()
	}
	return newError(common.ErrTransientFailure, reason, runErr)
}
