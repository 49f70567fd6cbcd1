package mcpserver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogersnm/docsync/internal/config"
	"github.com/rogersnm/docsync/internal/markdown"
	"github.com/rogersnm/docsync/internal/model"
	"github.com/rogersnm/docsync/internal/outline"
	"github.com/rogersnm/docsync/internal/syncer"
)

const remoteDoc = "3b2f1c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"

// stubRemote serves one collection holding one document.
type stubRemote struct {
	created []string
}

func (s *stubRemote) FetchCollectionHierarchy(_ context.Context, collectionID string) ([]outline.NavigationNode, error) {
	if collectionID != "c1" {
		return nil, &outline.RemoteError{Op: "collections.documents", Status: 404}
	}
	return []outline.NavigationNode{{ID: remoteDoc, Title: "Welcome"}}, nil
}

func (s *stubRemote) FetchDocument(_ context.Context, id string) (*outline.Document, error) {
	return &outline.Document{ID: id, Title: "Welcome", Text: "Hello from remote", CollectionID: "c1"}, nil
}

func (s *stubRemote) CreateDocument(_ context.Context, p outline.CreateParams) (*outline.Document, error) {
	s.created = append(s.created, p.Title)
	return &outline.Document{ID: "9d8c7b6a-5e4f-4a3b-8c2d-1e0f9a8b7c6d", Title: p.Title, Text: p.Text, CollectionID: p.CollectionID}, nil
}

func (s *stubRemote) UpdateDocument(_ context.Context, id string, p outline.UpdateParams) (*outline.Document, error) {
	return &outline.Document{ID: id, Text: *p.Text}, nil
}

func (s *stubRemote) MoveDocument(context.Context, string, string, string, int) error { return nil }

func (s *stubRemote) UploadAttachment(context.Context, string, string) (string, error) {
	return "", errors.New("not supported")
}

func (s *stubRemote) DownloadAttachmentToDirectory(context.Context, string, string) (string, error) {
	return "", errors.New("not supported")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = "https://docs.example.com"
	cfg.OutputDir = t.TempDir()
	cfg.Collections = []config.Collection{
		{ID: "c1", Name: "Handbook"},
		{ID: "c2", Name: "Policies", Sync: config.SyncPolicy{ReadOnly: true}},
	}
	return cfg
}

func writeDoc(t *testing.T, path, title, body string) {
	t.Helper()
	require.NoError(t, markdown.WriteFile(path, body, &model.Frontmatter{Title: title}))
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestListCollections(t *testing.T) {
	cfg := testConfig(t)
	out, isErr := call(t, listCollectionsHandler(cfg), nil)
	assert.False(t, isErr)
	assert.Contains(t, out, "Handbook")
	assert.Contains(t, out, "read-only")
	assert.Contains(t, out, filepath.Join(cfg.OutputDir, "policies"))
}

func TestListAndReadDocuments(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Join(cfg.OutputDir, "handbook")
	writeDoc(t, filepath.Join(dir, "guide", "index.md"), "Guide", "guide body")
	writeDoc(t, filepath.Join(dir, "guide", "setup.md"), "Setup", "setup body")

	out, isErr := call(t, listDocumentsHandler(cfg), map[string]any{"collection": "handbook"})
	assert.False(t, isErr)
	assert.Contains(t, out, "guide/index.md  Guide  (new)")
	assert.Contains(t, out, "guide/setup.md  Setup  (new)")

	out, isErr = call(t, readDocumentHandler(cfg), map[string]any{"collection": "c1", "path": "guide/setup.md"})
	assert.False(t, isErr)
	assert.Contains(t, out, "title: Setup")
	assert.Contains(t, out, "setup body")
}

func TestReadDocument_RejectsEscape(t *testing.T) {
	cfg := testConfig(t)
	out, isErr := call(t, readDocumentHandler(cfg), map[string]any{"collection": "c1", "path": "../../etc/passwd"})
	assert.True(t, isErr)
	assert.Contains(t, out, "outside the collection")
}

func TestReadDocument_UnknownCollection(t *testing.T) {
	cfg := testConfig(t)
	_, isErr := call(t, readDocumentHandler(cfg), map[string]any{"collection": "nope", "path": "a.md"})
	assert.True(t, isErr)
}

func TestSearch(t *testing.T) {
	cfg := testConfig(t)
	writeDoc(t, filepath.Join(cfg.OutputDir, "handbook", "deploy.md"), "Deploy", "ship it")
	writeDoc(t, filepath.Join(cfg.OutputDir, "policies", "travel.md"), "Travel", "how to deploy yourself")

	out, isErr := call(t, searchHandler(cfg), map[string]any{"query": "deploy"})
	assert.False(t, isErr)
	assert.Contains(t, out, "Handbook  deploy.md  Deploy")
	assert.Contains(t, out, "Policies  travel.md  Travel")

	out, _ = call(t, searchHandler(cfg), map[string]any{"query": "deploy", "collection": "Policies"})
	assert.NotContains(t, out, "Handbook")

	_, isErr = call(t, searchHandler(cfg), map[string]any{})
	assert.True(t, isErr)
}

func TestDownloadTool(t *testing.T) {
	cfg := testConfig(t)
	svc := syncer.NewService(&stubRemote{}, cfg, nil)

	out, isErr := call(t, downloadHandler(svc), map[string]any{"collections": "c1"})
	assert.False(t, isErr)
	assert.Contains(t, out, "Handbook: 1 documents written, 0 paths deleted")

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "handbook", "welcome.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Hello from remote")

	out, isErr = call(t, downloadHandler(svc), map[string]any{"collections": "c1,c2"})
	assert.True(t, isErr)
	assert.Contains(t, out, "collection Policies")
}

func TestUploadToolSkipsReadOnly(t *testing.T) {
	cfg := testConfig(t)
	remote := &stubRemote{}
	svc := syncer.NewService(remote, cfg, nil)
	writeDoc(t, filepath.Join(cfg.OutputDir, "handbook", "new.md"), "New page", "draft")
	writeDoc(t, filepath.Join(cfg.OutputDir, "policies", "rule.md"), "Rule", "fixed")

	out, isErr := call(t, uploadHandler(svc), map[string]any{"update_only": false})
	assert.False(t, isErr)
	assert.Contains(t, out, "Handbook: 1 created, 0 updated, 0 skipped, 0 errors")
	assert.NotContains(t, out, "Policies")
	assert.Equal(t, []string{"New page"}, remote.created)
}

func TestNewRegistersTools(t *testing.T) {
	s := New(syncer.NewService(&stubRemote{}, testConfig(t), nil))
	assert.NotNil(t, s)
}
