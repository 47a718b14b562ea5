package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_Relative(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("scratch/nested")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(filepath.Join(tmp, "scratch", "nested"))
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotReal)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	// idempotent
	_, err = EnsureDir("scratch/nested")
	require.NoError(t, err)
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := EnsureDir(filepath.Join(blocker, "sub"))
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.mp4")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	require.NoError(t, Remove(p))
	require.NoError(t, Remove(p), "already gone")
	require.NoError(t, Remove(""))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))
}

func TestRemovePrefixed(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"job1.mp4", "job1.original", "job1.temp.mp4", "job2.mp4", "[x]job1.mp4"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}

	assert.Equal(t, 3, RemovePrefixed(filepath.Join(dir, "job1")))

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range left {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"job2.mp4", "[x]job1.mp4"}, names)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "[x]job1.part"), []byte("x"), 0o600))
	assert.Equal(t, 2, RemovePrefixed(filepath.Join(dir, "[x]job1")))
}
