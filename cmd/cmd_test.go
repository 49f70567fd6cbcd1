package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogersnm/docsync/internal/config"
	"github.com/rogersnm/docsync/internal/markdown"
	"github.com/rogersnm/docsync/internal/model"
	"github.com/rogersnm/docsync/internal/outline"
)

const (
	welcomeID = "3b2f1c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	createdID = "9d8c7b6a-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

// memRemote serves a "Handbook" collection holding a single Welcome page.
type memRemote struct {
	mu      sync.Mutex
	created []outline.CreateParams
}

func (m *memRemote) ListCollections(context.Context) ([]outline.Collection, error) {
	return []outline.Collection{
		{ID: "c1", URLID: "handbook-1", Name: "Handbook"},
		{ID: "c2", URLID: "policies-2", Name: "Policies"},
	}, nil
}

func (m *memRemote) FetchCollectionHierarchy(_ context.Context, collectionID string) ([]outline.NavigationNode, error) {
	if collectionID != "c1" {
		return nil, nil
	}
	return []outline.NavigationNode{{ID: welcomeID, Title: "Welcome"}}, nil
}

func (m *memRemote) FetchDocument(_ context.Context, id string) (*outline.Document, error) {
	if id != welcomeID {
		return nil, &outline.RemoteError{Op: "documents.info", Status: 404}
	}
	return &outline.Document{ID: welcomeID, URLID: "welcome-x", Title: "Welcome", Text: "Hello **team**", CollectionID: "c1"}, nil
}

func (m *memRemote) CreateDocument(_ context.Context, p outline.CreateParams) (*outline.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, p)
	return &outline.Document{ID: createdID, Title: p.Title, Text: p.Text, CollectionID: p.CollectionID}, nil
}

func (m *memRemote) UpdateDocument(_ context.Context, id string, p outline.UpdateParams) (*outline.Document, error) {
	return &outline.Document{ID: id, Text: *p.Text}, nil
}

func (m *memRemote) MoveDocument(context.Context, string, string, string, int) error { return nil }

func (m *memRemote) UploadAttachment(context.Context, string, string) (string, error) {
	return "", errors.New("not supported")
}

func (m *memRemote) DownloadAttachmentToDirectory(context.Context, string, string) (string, error) {
	return "", errors.New("not supported")
}

// setupEnv writes a config into a temp dir and points the client at an
// in-memory remote. It returns the config path and the remote.
func setupEnv(t *testing.T) (string, *memRemote) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	c := config.Default()
	c.APIURL = "https://docs.example.com"
	c.APIKey = "secret-key-123"
	c.Collections = []config.Collection{
		{ID: "c1", Name: "Handbook"},
		{ID: "c2", Name: "Policies", Sync: config.SyncPolicy{ReadOnly: true}},
	}
	require.NoError(t, config.Save(path, c))

	remote := &memRemote{}
	prev := newClient
	newClient = func(*config.Config) remoteClient { return remote }
	t.Cleanup(func() { newClient = prev })
	return path, remote
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI and returns its stdout. Flag values are reset first
// since cobra keeps them on the shared command tree.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDownload_WritesCollection(t *testing.T) {
	path, _ := setupEnv(t)

	out, err := run(t, "download", "--config", path, "--collections", "handbook")
	require.NoError(t, err)
	assert.Contains(t, out, "Handbook")

	meta, body, err := markdown.ReadFile(filepath.Join(filepath.Dir(path), "docs", "handbook", "welcome.md"))
	require.NoError(t, err)
	assert.Equal(t, welcomeID, meta.RemoteID)
	assert.Equal(t, "Hello **team**", body)
}

func TestDownload_DirFlagOverridesConfig(t *testing.T) {
	path, _ := setupEnv(t)
	dir := t.TempDir()

	_, err := run(t, "download", "--config", path, "--dir", dir, "--collections", "c1")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "handbook", "welcome.md"))
}

func TestDownload_UnknownCollection(t *testing.T) {
	path, _ := setupEnv(t)
	_, err := run(t, "download", "--config", path, "--collections", "nope")
	assert.ErrorContains(t, err, "nope")
}

func TestDownload_RequiresAPIURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.Save(path, config.Default()))
	t.Setenv("DOCSYNC_API_URL", "")

	_, err := run(t, "download", "--config", path)
	assert.ErrorContains(t, err, "api_url is required")
}

func TestUpload_CreatesAndSkipsReadOnly(t *testing.T) {
	path, remote := setupEnv(t)
	root := filepath.Join(filepath.Dir(path), "docs")
	require.NoError(t, markdown.WriteFile(filepath.Join(root, "handbook", "new.md"), "draft", &model.Frontmatter{Title: "New page"}))
	require.NoError(t, markdown.WriteFile(filepath.Join(root, "policies", "rule.md"), "fixed", &model.Frontmatter{Title: "Rule"}))

	out, err := run(t, "upload", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Handbook")
	assert.NotContains(t, out, "Policies")

	require.Len(t, remote.created, 1)
	assert.Equal(t, "New page", remote.created[0].Title)
	meta, _, err := markdown.ReadFile(filepath.Join(root, "handbook", "new.md"))
	require.NoError(t, err)
	assert.Equal(t, createdID, meta.RemoteID)
}

func TestUpload_UpdateOnly(t *testing.T) {
	path, remote := setupEnv(t)
	root := filepath.Join(filepath.Dir(path), "docs")
	require.NoError(t, markdown.WriteFile(filepath.Join(root, "handbook", "new.md"), "draft", &model.Frontmatter{Title: "New page"}))

	_, err := run(t, "upload", "--config", path, "--update-only")
	require.NoError(t, err)
	assert.Empty(t, remote.created)
}

func TestSearchTreeShow(t *testing.T) {
	path, _ := setupEnv(t)
	_, err := run(t, "download", "--config", path, "--collections", "c1")
	require.NoError(t, err)

	out, err := run(t, "search", "team", "--config", path, "--collections", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome")
	assert.Contains(t, out, "welcome.md")

	out, err = run(t, "tree", "--config", path, "--collections", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome")

	out, err = run(t, "show", welcomeID, "--config", path, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome")
	assert.Contains(t, out, "Hello **team**")

	out, err = run(t, "show", "welcome-x", "--config", path, "--raw")
	require.NoError(t, err)
	assert.Contains(t, out, welcomeID)

	_, err = run(t, "show", "missing-doc", "--config", path)
	assert.ErrorContains(t, err, "not found")
}

func TestEdit_ValidatesFrontmatter(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script editor")
	}
	path, _ := setupEnv(t)
	_, err := run(t, "download", "--config", path, "--collections", "c1")
	require.NoError(t, err)

	script := filepath.Join(t.TempDir(), "break")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat > \"$1\" <<'EOF'\n---\ndescription: no title\n---\nbody\nEOF\n"), 0755))
	t.Setenv("DOCSYNC_EDITOR", script)

	_, err = run(t, "edit", welcomeID, "--config", path)
	assert.ErrorContains(t, err, "title is required")
}

func TestConfigInit_NonInteractive(t *testing.T) {
	path, _ := setupEnv(t)
	fresh := filepath.Join(t.TempDir(), config.FileName)

	out, err := run(t, "config", "init", "--config", fresh,
		"--api-url", "https://wiki.example.com", "--api-key", "k", "--collections", "policies-2,Handbook")
	require.NoError(t, err)
	assert.Contains(t, out, "2 collection(s)")

	c, err := config.Load(fresh)
	require.NoError(t, err)
	assert.Equal(t, "https://wiki.example.com", c.APIURL)
	require.Len(t, c.Collections, 2)
	assert.Equal(t, "c2", c.Collections[0].ID)
	assert.Equal(t, "Policies", c.Collections[0].Name)
	assert.Equal(t, "c1", c.Collections[1].ID)
	assert.NotEqual(t, path, fresh)
}

func TestConfigInit_KeepsExistingCollectionSettings(t *testing.T) {
	path, _ := setupEnv(t)

	_, err := run(t, "config", "init", "--config", path, "--api-url", "https://docs.example.com", "--collections", "c2")
	require.NoError(t, err)

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, c.Collections, 1)
	assert.True(t, c.Collections[0].Sync.ReadOnly)
	assert.Equal(t, "secret-key-123", c.APIKey)
}

func TestConfigShow(t *testing.T) {
	path, _ := setupEnv(t)
	out, err := run(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "https://docs.example.com")
	assert.Contains(t, out, "secret-k...")
	assert.NotContains(t, out, "secret-key-123")
	assert.Contains(t, out, "read-only")
}

func TestCollections(t *testing.T) {
	path, _ := setupEnv(t)
	out, err := run(t, "collections", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Handbook")
	assert.Contains(t, out, "policies-2")
}

func TestNewLogger_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "docsync.log")
	logFile = logPath
	t.Cleanup(func() { logFile = "" })

	newLogger(os.Stderr).Info("hello", "k", "v")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
}

func TestMergeCollections(t *testing.T) {
	remote := []outline.Collection{{ID: "c1", Name: "A"}, {ID: "c2", URLID: "b-2", Name: "B"}}
	existing := []config.Collection{{ID: "c1", Name: "A", OutputDirectory: "custom"}}

	got := mergeCollections(existing, remote, []string{"A", "b-2", "c1", "zzz"})
	require.Len(t, got, 2)
	assert.Equal(t, "custom", got[0].OutputDirectory)
	assert.Equal(t, "B", got[1].Name)
}
