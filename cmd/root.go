package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	mtp "github.com/modeltoolsprotocol/go-sdk"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rogersnm/docsync/internal/config"
	"github.com/rogersnm/docsync/internal/outline"
	"github.com/rogersnm/docsync/internal/repofile"
	"github.com/rogersnm/docsync/internal/syncer"
)

var (
	version = "dev"
	cfgFile string
	cfgPath string
	verbose bool
	logFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// remoteClient is the remote API surface the commands use.
type remoteClient interface {
	syncer.Remote
	ListCollections(ctx context.Context) ([]outline.Collection, error)
}

var newClient = func(c *config.Config) remoteClient {
	return outline.NewClient(c.APIURL, c.APIKey)
}

var rootCmd = &cobra.Command{
	Use:     "docsync",
	Short:   "Sync document store collections with a local markdown tree",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(cmd.ErrOrStderr())

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if cfgPath, err = repofile.Resolve(cfgFile, cwd); err != nil {
			return fmt.Errorf("locating config: %w", err)
		}
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger.Debug("loaded config", "path", cfgPath, "collections", len(cfg.Collections))
		return nil
	},
	SilenceUsage: true,
}

// requireRemote validates the config for commands that talk to the API.
func requireRemote() (remoteClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (run: docsync config init)", err)
	}
	return newClient(cfg), nil
}

func newLogger(stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var w io.Writer = stderr
	if logFile != "" {
		// sizes in MB, age in days
		w = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: nearest "+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotated file instead of stderr")

	mtpOpts := &mtp.DescribeOptions{
		Commands: map[string]*mtp.CommandAnnotation{
			"download": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Per-collection table of written documents and deleted paths",
				},
				Examples: []mtp.Example{
					{Description: "Download every enabled collection", Command: "docsync download"},
					{Description: "Download one collection without images", Command: "docsync download --collections engineering --no-images"},
				},
			},
			"upload": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Per-collection table of created, updated, skipped and failed documents",
				},
				Examples: []mtp.Example{
					{Description: "Upload local changes", Command: "docsync upload"},
					{Description: "Only update documents that already exist remotely", Command: "docsync upload --update-only"},
				},
			},
			"search": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Table of matching documents with collection, title, path and snippet",
				},
				Examples: []mtp.Example{
					{Description: "Search the local trees", Command: "docsync search \"deployment\""},
				},
			},
			"tree": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "ASCII tree of each collection's local documents in sidebar order",
				},
			},
			"show": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Document header and rendered markdown body",
				},
				Examples: []mtp.Example{
					{Description: "Show a document by remote id", Command: "docsync show 3b2f1c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"},
					{Description: "Show a document by path", Command: "docsync show docs/engineering/setup.md"},
				},
			},
			"edit": {
				Examples: []mtp.Example{
					{Description: "Open a document in $EDITOR", Command: "docsync edit 3b2f1c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"},
				},
			},
			"collections": {
				Stdout: &mtp.IODescriptor{
					ContentType: "text/plain",
					Description: "Table of remote collections, marking the configured ones",
				},
			},
			"config init": {
				Examples: []mtp.Example{
					{Description: "Create docsync.yaml interactively", Command: "docsync config init"},
				},
			},
			"mcp": {
				Examples: []mtp.Example{
					{Description: "Serve MCP tools over stdio", Command: "docsync mcp"},
				},
			},
		},
	}

	mtp.WithDescribe(rootCmd, mtpOpts)
}

func Execute() error {
	return rootCmd.Execute()
}
