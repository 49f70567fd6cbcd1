// Package mcpserver exposes the synced document trees and the sync passes as
// MCP tools.
package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rogersnm/docsync/internal/config"
	"github.com/rogersnm/docsync/internal/search"
	"github.com/rogersnm/docsync/internal/syncer"
	"github.com/rogersnm/docsync/internal/tree"
)

const (
	Name    = "docsync"
	Version = "0.1.0"
)

// New builds an MCP server with every docsync tool registered.
func New(svc *syncer.Service) *server.MCPServer {
	s := server.NewMCPServer(Name, Version, server.WithToolCapabilities(true))
	RegisterReadTools(s, svc.Config())
	RegisterSyncTools(s, svc)
	return s
}

// RegisterReadTools adds the tools that only read local trees.
func RegisterReadTools(s *server.MCPServer, cfg *config.Config) {
	s.AddTool(listCollectionsTool(), listCollectionsHandler(cfg))
	s.AddTool(listDocumentsTool(), listDocumentsHandler(cfg))
	s.AddTool(readDocumentTool(), readDocumentHandler(cfg))
	s.AddTool(searchTool(), searchHandler(cfg))
}

// --- list_collections ---

func listCollectionsTool() mcp.Tool {
	return mcp.NewTool("list_collections",
		mcp.WithDescription("List the configured collections with their local directories."),
	)
}

func listCollectionsHandler(cfg *config.Config) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cols, err := cfg.Select(nil)
		if err != nil {
			return toolError(err)
		}
		if len(cols) == 0 {
			return mcp.NewToolResultText("No collections configured."), nil
		}
		var sb strings.Builder
		for _, c := range cols {
			mode := "read-write"
			if c.Sync.ReadOnly {
				mode = "read-only"
			}
			fmt.Fprintf(&sb, "%s  %s  %s  %s\n", c.ID, c.Label(), mode, c.Dir(cfg.Root()))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- list_documents ---

func listDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List the documents of a collection in sidebar order."),
		mcp.WithString("collection",
			mcp.Description("Collection id, url id or name"),
			mcp.Required(),
		),
	)
}

func listDocumentsHandler(cfg *config.Config) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		col, err := collection(cfg, req.GetString("collection", ""))
		if err != nil {
			return toolError(err)
		}
		docs, err := tree.ReadCollection(col.Dir(cfg.Root()), col.ID)
		if err != nil {
			return toolError(err)
		}
		if len(docs) == 0 {
			return mcp.NewToolResultText("No documents."), nil
		}
		var sb strings.Builder
		for _, d := range docs {
			remote := d.Metadata.RemoteID
			if remote == "" {
				remote = "(new)"
			}
			fmt.Fprintf(&sb, "%s  %s  %s\n", filepath.ToSlash(d.RelativePath), d.Metadata.Title, remote)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- read_document ---

func readDocumentTool() mcp.Tool {
	return mcp.NewTool("read_document",
		mcp.WithDescription("Read a document file, front matter included."),
		mcp.WithString("collection",
			mcp.Description("Collection id, url id or name"),
			mcp.Required(),
		),
		mcp.WithString("path",
			mcp.Description("Path relative to the collection directory, e.g. guide/index.md"),
			mcp.Required(),
		),
	)
}

func readDocumentHandler(cfg *config.Config) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		col, err := collection(cfg, req.GetString("collection", ""))
		if err != nil {
			return toolError(err)
		}
		rel := req.GetString("path", "")
		if rel == "" {
			return toolError(fmt.Errorf("path is required"))
		}
		path, err := within(col.Dir(cfg.Root()), rel)
		if err != nil {
			return toolError(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return toolError(fmt.Errorf("reading document: %w", err))
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// --- search ---

func searchTool() mcp.Tool {
	return mcp.NewTool("search",
		mcp.WithDescription("Search local documents by keyword. Title matches are listed first."),
		mcp.WithString("query",
			mcp.Description("Search query"),
			mcp.Required(),
		),
		mcp.WithString("collection",
			mcp.Description("Restrict to one collection. Omit to search all."),
		),
	)
}

func searchHandler(cfg *config.Config) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return toolError(fmt.Errorf("query is required"))
		}
		cols, err := cfg.Select(filter(req.GetString("collection", "")))
		if err != nil {
			return toolError(err)
		}

		var results []search.Result
		for _, c := range cols {
			docs, err := tree.ReadCollection(c.Dir(cfg.Root()), c.ID)
			if err != nil {
				continue
			}
			results = append(results, search.Documents(c.Label(), docs, query)...)
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("No results found."), nil
		}

		var sb strings.Builder
		for _, r := range results {
			fmt.Fprintf(&sb, "%s  %s  %s\n", r.Collection, filepath.ToSlash(r.Path), r.Title)
			if r.Snippet != "" {
				fmt.Fprintf(&sb, "    %s\n", r.Snippet)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func filter(arg string) []string {
	var out []string
	for _, f := range strings.Split(arg, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func collection(cfg *config.Config, key string) (config.Collection, error) {
	if key == "" {
		return config.Collection{}, fmt.Errorf("collection is required")
	}
	cols, err := cfg.Select([]string{key})
	if err != nil {
		return config.Collection{}, err
	}
	if len(cols) == 0 {
		return config.Collection{}, fmt.Errorf("collection %s is disabled", key)
	}
	return cols[0], nil
}

// within joins rel onto dir, refusing paths that leave dir.
func within(dir, rel string) (string, error) {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	r, err := filepath.Rel(dir, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the collection", rel)
	}
	return path, nil
}
