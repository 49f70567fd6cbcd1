package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rogersnm/docsync/internal/syncer"
)

// RegisterSyncTools adds the download and upload tools.
func RegisterSyncTools(s *server.MCPServer, svc *syncer.Service) {
	s.AddTool(downloadTool(), downloadHandler(svc))
	s.AddTool(uploadTool(), uploadHandler(svc))
}

// --- download ---

func downloadTool() mcp.Tool {
	return mcp.NewTool("download",
		mcp.WithDescription("Download collections from the remote store into their local directories."),
		mcp.WithString("collections",
			mcp.Description("Comma-separated collection ids or names. Omit for all enabled collections."),
		),
		mcp.WithBoolean("cleanup",
			mcp.Description("Delete local files that no longer exist remotely"),
		),
	)
}

func downloadHandler(svc *syncer.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg := svc.Config()
		cols, err := cfg.Select(filter(req.GetString("collections", "")))
		if err != nil {
			return toolError(err)
		}
		reports, err := svc.DownloadAll(ctx, cfg.Root(), cols, req.GetBool("cleanup", false))
		return summarize(reports, err)
	}
}

// --- upload ---

func uploadTool() mcp.Tool {
	return mcp.NewTool("upload",
		mcp.WithDescription("Upload local changes to the remote store. Read-only collections are skipped."),
		mcp.WithString("collections",
			mcp.Description("Comma-separated collection ids or names. Omit for all enabled collections."),
		),
		mcp.WithBoolean("update_only",
			mcp.Description("Only update documents that already exist remotely"),
		),
	)
}

func uploadHandler(svc *syncer.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cfg := svc.Config()
		cols, err := cfg.Select(filter(req.GetString("collections", "")))
		if err != nil {
			return toolError(err)
		}
		reports, err := svc.UploadAll(ctx, cfg.Root(), cols, req.GetBool("update_only", false))
		return summarize(reports, err)
	}
}

func summarize(reports []syncer.CollectionReport, err error) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	for _, r := range reports {
		sb.WriteString(Summary(r))
		sb.WriteString("\n")
	}
	if err != nil {
		return mcp.NewToolResultError(sb.String() + err.Error()), nil
	}
	if sb.Len() == 0 {
		return mcp.NewToolResultText("Nothing to sync."), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// Summary is a one-line description of a collection pass.
func Summary(r syncer.CollectionReport) string {
	name := r.Collection.Label()
	switch {
	case r.Download != nil:
		return fmt.Sprintf("%s: %d documents written, %d paths deleted", name, r.Download.Documents, r.Download.Deleted)
	case r.Upload != nil:
		u := r.Upload
		return fmt.Sprintf("%s: %d created, %d updated, %d skipped, %d errors", name, u.Created, u.Updated, u.Skipped, u.Failed())
	case r.Err != nil:
		return fmt.Sprintf("%s: failed", name)
	}
	return name
}
