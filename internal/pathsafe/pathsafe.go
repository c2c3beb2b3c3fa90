// Package pathsafe canonicalizes caller-supplied path fragments and bounds
// them to a base directory. Every filesystem-backed adapter operation goes
// through Resolve; any doubt about a path means rejection, never a
// best-effort partial path.
package pathsafe

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ErrRejected indicates the fragment failed sanitization. Callers must not
// touch the filesystem with any part of a rejected fragment.
var ErrRejected = errors.New("path rejected")

// maxDecodeRounds bounds repeated percent-decoding. Real references need at
// most one round; attackers stack encodings.
const maxDecodeRounds = 5

// Resolve canonicalizes fragment against base and returns the absolute
// path, or ErrRejected. The checks, in order: repeated percent-decoding
// until stable, null-byte rejection, lexical containment of the cleaned
// join, then symlink resolution with a second containment check.
func Resolve(base, fragment string) (string, error) {
	decoded, err := decodeStable(fragment)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if strings.ContainsRune(decoded, 0) {
		return "", fmt.Errorf("%w: embedded null byte", ErrRejected)
	}
	if filepath.IsAbs(decoded) {
		return "", fmt.Errorf("%w: absolute fragment", ErrRejected)
	}

	cleanBase := filepath.Clean(base)
	joined := filepath.Clean(filepath.Join(cleanBase, decoded))
	if !contained(cleanBase, joined) {
		return "", fmt.Errorf("%w: escapes base", ErrRejected)
	}

	// The lexical check alone is defeated by symlinks under base pointing
	// outside it. Canonicalize the deepest existing ancestor and re-verify
	// against the canonicalized base.
	realBase, err := filepath.EvalSymlinks(cleanBase)
	if err != nil {
		return "", fmt.Errorf("%w: base: %v", ErrRejected, err)
	}
	realPath, err := evalExisting(joined)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if !contained(realBase, realPath) {
		return "", fmt.Errorf("%w: symlink escapes base", ErrRejected)
	}
	return joined, nil
}

// decodeStable percent-decodes s until a round changes nothing. A fragment
// that was never valid percent-encoding is taken literally, so filenames
// with a bare '%' stay reachable; the containment and symlink checks still
// apply to the literal. A decode failure after a successful round means a
// crafted stacked encoding and rejects.
func decodeStable(s string) (string, error) {
	for round := range maxDecodeRounds {
		dec, err := url.PathUnescape(s)
		if err != nil {
			if round > 0 {
				return "", fmt.Errorf("bad percent-encoding")
			}
			return s, nil
		}
		if dec == s {
			return s, nil
		}
		s = dec
	}
	return "", fmt.Errorf("percent-encoding did not stabilize")
}

// contained reports whether path is base or inside base. Both arguments
// must already be cleaned; comparison is component-wise via a separator
// prefix, never a naive string prefix.
func contained(base, path string) bool {
	if path == base {
		return true
	}
	if !strings.HasSuffix(base, string(filepath.Separator)) {
		base += string(filepath.Separator)
	}
	return strings.HasPrefix(path, base)
}

// evalExisting resolves symlinks for the deepest existing ancestor of path
// and rejoins the non-existing remainder, so not-yet-created targets still
// get their parents verified.
func evalExisting(path string) (string, error) {
	var tail []string
	cur := path
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			if len(tail) == 0 {
				return resolved, nil
			}
			parts := append([]string{resolved}, tail...)
			return filepath.Join(parts...), nil
		}
		if !os.IsNotExist(err) && !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}
