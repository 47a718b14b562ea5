// Package naming validates user-supplied folder and file names and derives
// object-store keys from them. Every function here is pure and deterministic.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

// MaxLength is the longest accepted name.
const MaxLength = 64

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Validate trims surrounding whitespace and returns the normalized name, or
// common.ErrInvalidName when the result is empty, too long or contains
// characters outside [A-Za-z0-9_-].
func Validate(s string) (string, error) {
	n := strings.TrimSpace(s)
	if !validName.MatchString(n) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidName, s)
	}
	return n, nil
}

// ValidateNames validates a folder and file name pair.
func ValidateNames(folder, file string) (string, string, error) {
	f, err := Validate(folder)
	if err != nil {
		return "", "", fmt.Errorf("folder: %w", err)
	}
	n, err := Validate(file)
	if err != nil {
		return "", "", fmt.Errorf("file: %w", err)
	}
	return f, n, nil
}

// ValidatePath validates an admin-supplied folder path made of
// '/'-separated segments. Leading and trailing slashes are dropped.
func ValidatePath(p string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(p), "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", common.ErrInvalidName)
	}
	segs := strings.Split(trimmed, "/")
	for i, s := range segs {
		v, err := Validate(s)
		if err != nil {
			return "", err
		}
		segs[i] = v
	}
	return strings.Join(segs, "/"), nil
}

// FolderFromOwner derives the default folder from the owner id. Ids that are
// already valid names are used as is; any other id maps to "u-" followed by
// a hash of the id, so distinct owners never share a default folder.
func FolderFromOwner(ownerID string) string {
	id := strings.TrimSpace(ownerID)
	if validName.MatchString(id) {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return "u-" + hex.EncodeToString(sum[:12])
}

// StorageKey builds the object key "prefix/folder/name.ext". An empty prefix
// is omitted. The folder may contain '/' for admin paths.
func StorageKey(prefix, folder, name, ext string) string {
	file := name
	if ext != "" {
		file = name + "." + strings.TrimPrefix(ext, ".")
	}
	if prefix == "" {
		return folder + "/" + file
	}
	return strings.Trim(prefix, "/") + "/" + folder + "/" + file
}

// ParseStorageKey splits a key produced by StorageKey back into folder and
// name. ok is false when key does not live under prefix or is malformed.
func ParseStorageKey(prefix, key string) (folder, name string, ok bool) {
	rest := key
	if p := strings.Trim(prefix, "/"); p != "" {
		var found bool
		rest, found = strings.CutPrefix(key, p+"/")
		if !found {
			return "", "", false
		}
	}
	dir, file := path.Split(rest)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || file == "" {
		return "", "", false
	}
	name = strings.TrimSuffix(file, path.Ext(file))
	if name == "" {
		return "", "", false
	}
	return dir, name, true
}
