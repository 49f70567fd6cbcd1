package repofile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogersnm/docsync/internal/config"
)

func touch(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://x\n"), 0644))
	return path
}

func TestFind_CurrentDir(t *testing.T) {
	dir := t.TempDir()
	want := touch(t, dir)

	got, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFind_ParentDir(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "sub", "deep")
	require.NoError(t, os.MkdirAll(child, 0755))
	want := touch(t, parent)

	got, err := Find(child)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFind_IgnoresDirectoryNamedLikeConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, config.FileName), 0755))

	ok, err := Exists(dir)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFind_NotFound(t *testing.T) {
	dir := t.TempDir()
	got, err := Find(dir)
	require.NoError(t, err)
	// Only meaningful when no ancestor of the temp dir carries a config.
	if got != "" {
		assert.NotContains(t, got, dir)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()

	got, err := Resolve("", dir)
	require.NoError(t, err)
	if got != filepath.Join(dir, config.FileName) {
		// An ancestor config exists on this machine; it must still be outside dir.
		assert.NotContains(t, got, dir)
	}

	explicit := filepath.Join(dir, "other.yaml")
	got, err = Resolve(explicit, dir)
	require.NoError(t, err)
	assert.Equal(t, explicit, got)

	want := touch(t, dir)
	got, err = Resolve("", filepath.Join(dir))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
