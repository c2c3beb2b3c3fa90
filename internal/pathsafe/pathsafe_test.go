package pathsafe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBase(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "music", "ambient"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "music", "ambient", "rain.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "music", "100% mix.mp3"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "movie.mkv"), []byte("x"), 0o644))
	return base
}

func TestResolveAcceptsLegitimatePaths(t *testing.T) {
	base := setupBase(t)

	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"top-level file", "movie.mkv", filepath.Join(base, "movie.mkv")},
		{"nested file", "music/ambient/rain.mp3", filepath.Join(base, "music", "ambient", "rain.mp3")},
		{"directory", "music/ambient", filepath.Join(base, "music", "ambient")},
		{"percent-encoded dot", "music/ambient/rain%2Emp3", filepath.Join(base, "music", "ambient", "rain.mp3")},
		{"literal percent in name", "music/100% mix.mp3", filepath.Join(base, "music", "100% mix.mp3")},
		{"not yet existing under base", "music/new.mp3", filepath.Join(base, "music", "new.mp3")},
		{"dot segment", "./music/ambient", filepath.Join(base, "music", "ambient")},
		{"empty fragment is base", "", base},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(base, tt.fragment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	base := setupBase(t)

	tests := []struct {
		name     string
		fragment string
	}{
		{"plain dotdot", "../etc/passwd"},
		{"nested dotdot", "music/../../etc/passwd"},
		{"deep dotdot", "music/ambient/../../../etc/passwd"},
		{"encoded dotdot", "%2e%2e/etc/passwd"},
		{"double-encoded dotdot", "%252e%252e/etc/passwd"},
		{"encoded slash traversal", "..%2fetc%2fpasswd"},
		{"double-encoded slash", "..%252f..%252fetc"},
		{"null byte", "music/rain.mp3\x00.jpg"},
		{"encoded null byte", "music/rain.mp3%00.jpg"},
		{"absolute path", "/etc/passwd"},
		{"dotdot only", ".."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(base, tt.fragment)
			assert.ErrorIs(t, err, ErrRejected, "Resolve(%q)", tt.fragment)
		})
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	base := setupBase(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(base, "escape")))

	_, err := Resolve(base, "escape/secret.txt")
	assert.ErrorIs(t, err, ErrRejected)

	// A symlink that stays inside the base is fine.
	require.NoError(t, os.Symlink(filepath.Join(base, "music"), filepath.Join(base, "tunes")))
	got, err := Resolve(base, "tunes/ambient/rain.mp3")
	require.NoError(t, err)
	assert.Contains(t, got, base)
}

func TestResolveNeverReturnsPartialPath(t *testing.T) {
	base := setupBase(t)

	// Decodes cleanly once, then fails: a stacked encoding, not a literal.
	got, err := Resolve(base, "music/%25zz/broken")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Empty(t, got)
}
