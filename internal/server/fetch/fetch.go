// Package fetch downloads remote videos with yt-dlp, checks their codecs
// with ffprobe and transcodes them to H.264/AAC with ffmpeg when needed.
//
// Every tool runs as a subprocess bounded by a context deadline. Failures
// are classified into the common sentinel errors, and partial files are
// removed before an error is returned.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/dmitrijs2005/clipvault/internal/filex"
	"github.com/dmitrijs2005/clipvault/internal/logging"
	"github.com/google/uuid"
)

const (
	defaultTimeout      = 10 * time.Minute
	defaultTitleTimeout = 30 * time.Second
	defaultMaxHeight    = 720
)

// Options configures an Adapter.
type Options struct {
	FetchTool     string
	ProbeTool     string
	TranscodeTool string
	TempDir       string
	MaxHeight     int
	AllowedHosts  []string
	Timeout       time.Duration
	TitleTimeout  time.Duration
}

// Artifact is a finished, playable local file. The caller owns Path.
type Artifact struct {
	Path       string
	Size       int64
	Title      string
	VideoCodec string
	AudioCodec string
}

// Adapter fetches videos through external tools.
type Adapter struct {
	opts  Options
	run   Runner
	log   logging.Logger
	newID func() string
}

func NewAdapter(opts Options, run Runner, log logging.Logger) *Adapter {
	if opts.FetchTool == "" {
		opts.FetchTool = "yt-dlp"
	}
	if opts.ProbeTool == "" {
		opts.ProbeTool = "ffprobe"
	}
	if opts.TranscodeTool == "" {
		opts.TranscodeTool = "ffmpeg"
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = defaultMaxHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TitleTimeout <= 0 {
		opts.TitleTimeout = defaultTitleTimeout
	}
	return &Adapter{opts: opts, run: run, log: log, newID: uuid.NewString}
}

// FormatSpec is the yt-dlp format selector: H.264/AAC in mp4 first, then
// any H.264/AAC, then mp4, then anything, all capped at maxHeight.
func FormatSpec(maxHeight int) string {
	h := strconv.Itoa(maxHeight)
	return "bestvideo[height<=" + h + "][vcodec^=avc][ext=mp4]+bestaudio[acodec=aac][ext=m4a]/" +
		"bestvideo[height<=" + h + "][vcodec^=avc]+bestaudio[acodec=aac]/" +
		"best[height<=" + h + "][ext=mp4]/" +
		"best[height<=" + h + "]"
}

// Fetch downloads sourceURL into a fresh file under TempDir with the given
// container format. On error no file created by this call is left behind.
func (a *Adapter) Fetch(ctx context.Context, sourceURL, format string) (*Artifact, error) {
	target, err := CheckURL(sourceURL, a.opts.AllowedHosts)
	if err != nil {
		return nil, err
	}
	format = strings.TrimPrefix(strings.ToLower(format), ".")
	if format == "" {
		format = common.DefaultExtension
	}

	dir, err := filex.EnsureDir(a.opts.TempDir)
	if err != nil {
		return nil, newError(common.ErrResourceExhausted, "cannot create temp dir", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	base := filepath.Join(dir, a.newID())
	out := base + "." + format

	art, err := a.fetch(ctx, target, base, out, format)
	if err != nil {
		if n := filex.RemovePrefixed(base); n > 0 {
			a.log.Debug(ctx, "partial files removed", "base", base, "count", n)
		}
		return nil, err
	}
	return art, nil
}

func (a *Adapter) fetch(ctx context.Context, target, base, out, format string) (*Artifact, error) {
	title := a.title(ctx, target)

	_, stderr, err := a.run.Run(ctx, a.opts.FetchTool,
		"-f", FormatSpec(a.opts.MaxHeight),
		"--merge-output-format", format,
		"--no-playlist",
		"--no-progress",
		"-o", out,
		target,
	)
	if err != nil {
		cerr := classify(ctx, stderr, err)
		a.log.Warn(ctx, "fetch tool failed", "url", target, "error", cerr)
		return nil, cerr
	}
	if _, err := os.Stat(out); err != nil {
		return nil, newError(common.ErrTransientFailure, "fetch tool produced no file", err)
	}

	video, audio := a.probe(ctx, out)
	if video != "h264" {
		a.log.Info(ctx, "transcoding to h264", "codec", video, "path", out)
		if err := a.transcode(ctx, base, out, format); err != nil {
			if ctx.Err() != nil {
				return nil, classify(ctx, nil, err)
			}
			a.log.Warn(ctx, "transcode failed, keeping original", "error", err)
		} else {
			video, audio = a.probe(ctx, out)
		}
	}

	st, err := os.Stat(out)
	if err != nil {
		return nil, newError(common.ErrTransientFailure, "artifact vanished", err)
	}
	if st.Size() == 0 {
		return nil, newError(common.ErrTransientFailure, "empty artifact", nil)
	}

	return &Artifact{Path: out, Size: st.Size(), Title: title, VideoCodec: video, AudioCodec: audio}, nil
}

// title asks the fetch tool for the video title. Failure is not fatal.
func (a *Adapter) title(ctx context.Context, target string) string {
	ctx, cancel := context.WithTimeout(ctx, a.opts.TitleTimeout)
	defer cancel()

	stdout, _, err := a.run.Run(ctx, a.opts.FetchTool, "--get-title", "--no-playlist", target)
	if err != nil {
		a.log.Debug(ctx, "title lookup failed", "url", target, "error", err)
		return ""
	}
	return strings.TrimSpace(firstLine(stdout))
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// probe returns the first video and audio codec names, "unknown" when absent.
func (a *Adapter) probe(ctx context.Context, path string) (video, audio string) {
	video, audio = "unknown", "unknown"

	stdout, _, err := a.run.Run(ctx, a.opts.ProbeTool, "-v", "quiet", "-print_format", "json", "-show_streams", path)
	if err != nil {
		a.log.Warn(ctx, "codec probe failed", "path", path, "error", err)
		return
	}
	var p probeOutput
	if err := json.Unmarshal(stdout, &p); err != nil {
		a.log.Warn(ctx, "codec probe output unreadable", "path", path, "error", err)
		return
	}
	for _, s := range p.Streams {
		switch s.CodecType {
		case "video":
			if video == "unknown" {
				video = s.CodecName
			}
		case "audio":
			if audio == "unknown" {
				audio = s.CodecName
			}
		}
	}
	return video, audio
}

// transcode rewrites out as H.264/AAC. On failure out holds the original.
func (a *Adapter) transcode(ctx context.Context, base, out, format string) error {
	orig := base + ".original"
	tmp := base + ".temp." + format

	if err := os.Rename(out, orig); err != nil {
		return fmt.Errorf("stash original: %w", err)
	}

	_, stderr, err := a.run.Run(ctx, a.opts.TranscodeTool,
		"-i", orig,
		"-c:v", "libx264", "-crf", "23",
		"-c:a", "aac", "-b:a", "128k",
		"-movflags", "+faststart",
		"-y", tmp,
	)
	if err == nil {
		err = os.Rename(tmp, out)
	} else {
		err = fmt.Errorf("%w: %s", err, lastLine(stderr))
	}

	if err != nil {
		_ = filex.Remove(tmp)
		if rerr := os.Rename(orig, out); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	_ = filex.Remove(orig)
	return nil
}

func firstLine(b []byte) string {
	s := string(b)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
