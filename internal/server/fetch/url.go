package fetch

import (
	"net/url"
	"strings"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

var youtubeHosts = map[string]bool{
	"youtube.com": true,
	"youtu.be":    true,
}

// CheckURL validates and normalizes a source URL. A missing scheme means
// https. When allowed is non-empty the host must be one of them or a
// subdomain. YouTube short, shorts and playlist-bearing links are rewritten
// to the single-video watch URL.
func CheckURL(raw string, allowed []string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", newError(common.ErrURLRejected, "empty url", nil)
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", newError(common.ErrURLRejected, "malformed url", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", newError(common.ErrURLRejected, "unsupported scheme "+u.Scheme, nil)
	}
	host := bareHost(u.Hostname())
	if host == "" {
		return "", newError(common.ErrURLRejected, "missing host", nil)
	}
	if len(allowed) > 0 && !hostAllowed(host, allowed) {
		return "", newError(common.ErrURLRejected, "host "+host+" is not allowed", nil)
	}

	if youtubeHosts[host] {
		return normalizeYouTube(u, host)
	}
	return u.String(), nil
}

func bareHost(h string) string {
	h = strings.ToLower(strings.TrimSuffix(h, "."))
	for _, p := range []string{"www.", "m.", "music."} {
		h = strings.TrimPrefix(h, p)
	}
	return h
}

func hostAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		a = bareHost(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func normalizeYouTube(u *url.URL, host string) (string, error) {
	var id string
	switch {
	case host == "youtu.be":
		id = strings.Trim(u.Path, "/")
	case strings.HasPrefix(u.Path, "/shorts/"):
		id = strings.Trim(strings.TrimPrefix(u.Path, "/shorts/"), "/")
	case u.Path == "/watch":
		id = u.Query().Get("v")
	default:
		return "", newError(common.ErrURLRejected, "not a single video link", nil)
	}
	if !validVideoID(id) {
		return "", newError(common.ErrURLRejected, "missing or malformed video id", nil)
	}
	return "https://www.youtube.com/watch?v=" + id, nil
}

func validVideoID(id string) bool {
	if id == "" || len(id) > 32 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
