package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/rogersnm/docsync/internal/mcpserver"
	"github.com/rogersnm/docsync/internal/syncer"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve docsync tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireRemote()
		if err != nil {
			return err
		}
		// stdout carries the protocol; logs stay on stderr or the log file.
		s := mcpserver.New(syncer.NewService(client, cfg, logger))
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
