package repocache

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newLocalOrigin creates a throwaway git repository with one commit that
// Sync can clone from a plain filesystem path, so tests never touch the
// network.
func newLocalOrigin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func commitMore(t *testing.T, origin string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = origin
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	require.NoError(t, os.WriteFile(filepath.Join(origin, "more.txt"), []byte("more"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "second")
}

func TestOpen_CreatesIndexAndRoot(t *testing.T) {
	root := t.TempDir()
	c, err := Open(root)
	require.NoError(t, err)
	defer c.Close()

	require.DirExists(t, filepath.Join(root, "repos"))
	require.FileExists(t, filepath.Join(root, ".index.bbolt"))
}

func TestSanitize_ReplacesSlash(t *testing.T) {
	require.Equal(t, "acme__widgets", sanitize("acme/widgets"))
}

func TestSync_ClonesOnFirstCall(t *testing.T) {
	origin := newLocalOrigin(t)
	root := t.TempDir()
	c, err := Open(root)
	require.NoError(t, err)
	defer c.Close()

	path, changed, err := c.Sync(context.Background(), "acme/widgets", origin)
	require.NoError(t, err)
	require.True(t, changed)
	require.FileExists(t, filepath.Join(path, "README.md"))

	entry, ok, err := c.Lookup("acme/widgets")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, entry.LastSHA)
}

func TestSync_SkipsWhenShaUnchanged(t *testing.T) {
	origin := newLocalOrigin(t)
	root := t.TempDir()
	c, err := Open(root)
	require.NoError(t, err)
	defer c.Close()

	_, changed, err := c.Sync(context.Background(), "acme/widgets", origin)
	require.NoError(t, err)
	require.True(t, changed)

	_, changed, err = c.Sync(context.Background(), "acme/widgets", origin)
	require.NoError(t, err)
	require.False(t, changed)
}

func TestSync_PullsWhenOriginAdvances(t *testing.T) {
	origin := newLocalOrigin(t)
	root := t.TempDir()
	c, err := Open(root)
	require.NoError(t, err)
	defer c.Close()

	path, _, err := c.Sync(context.Background(), "acme/widgets", origin)
	require.NoError(t, err)

	commitMore(t, origin)

	path2, changed, err := c.Sync(context.Background(), "acme/widgets", origin)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, path, path2)
	require.FileExists(t, filepath.Join(path2, "more.txt"))
}

func TestEvict_RemovesCloneAndIndexEntry(t *testing.T) {
	origin := newLocalOrigin(t)
	root := t.TempDir()
	c, err := Open(root)
	require.NoError(t, err)
	defer c.Close()

	path, _, err := c.Sync(context.Background(), "acme/widgets", origin)
	require.NoError(t, err)

	require.NoError(t, c.Evict("acme/widgets"))
	require.NoDirExists(t, path)

	_, ok, err := c.Lookup("acme/widgets")
	require.NoError(t, err)
	require.False(t, ok)
}
