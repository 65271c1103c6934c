package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDirFor_CreatesParentDirectory(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDirFor(filepath.Join("state", "affinity.db"))
	require.NoError(t, err)

	wantDir, err := filepath.EvalSymlinks(filepath.Join(tmp, "state"))
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(filepath.Dir(got))
	require.NoError(t, err)
	require.Equal(t, wantDir, gotDir)
	require.Equal(t, "affinity.db", filepath.Base(got))
	require.True(t, filepath.IsAbs(got))

	fi, err := os.Stat(wantDir)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDirFor_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "a", "b", "db.sqlite")

	first, err := EnsureDirFor(p)
	require.NoError(t, err)

	second, err := EnsureDirFor(p)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureDirFor_FailsIfFileBlocksDirectory(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "state")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := EnsureDirFor(filepath.Join(blocker, "affinity.db"))
	require.Error(t, err, "should fail when a file sits where the directory should be")
}
