package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rogersnm/docsync/internal/config"
	"github.com/rogersnm/docsync/internal/markdown"
	"github.com/rogersnm/docsync/internal/syncer"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download collections into the local tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireRemote()
		if err != nil {
			return err
		}
		cols, err := selectedCollections(cmd)
		if err != nil {
			return err
		}
		if noImages, _ := cmd.Flags().GetBool("no-images"); noImages {
			cfg.IncludeImages = false
		}
		noCleanup, _ := cmd.Flags().GetBool("no-cleanup")

		svc := syncer.NewService(client, cfg, logger)
		reports, err := svc.DownloadAll(cmd.Context(), outputRoot(cmd), cols, !noCleanup)
		fmt.Fprintln(cmd.OutOrStdout(), renderDownloadReports(reports))
		return err
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload local changes to the remote store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireRemote()
		if err != nil {
			return err
		}
		cols, err := selectedCollections(cmd)
		if err != nil {
			return err
		}
		updateOnly, _ := cmd.Flags().GetBool("update-only")

		svc := syncer.NewService(client, cfg, logger)
		reports, err := svc.UploadAll(cmd.Context(), outputRoot(cmd), cols, updateOnly)
		fmt.Fprintln(cmd.OutOrStdout(), renderUploadReports(reports))
		return err
	},
}

// selectedCollections applies --collections to the configured collections.
func selectedCollections(cmd *cobra.Command) ([]config.Collection, error) {
	filter, _ := cmd.Flags().GetStringSlice("collections")
	cols, err := cfg.Select(filter)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no enabled collections in %s", cfgPath)
	}
	return cols, nil
}

// outputRoot is --dir when given, else the configured output directory.
func outputRoot(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return cfg.Root()
}

func status(err error) string {
	if err != nil {
		return markdown.RenderStatus("failed")
	}
	return markdown.RenderStatus("ok")
}

func renderDownloadReports(reports []syncer.CollectionReport) string {
	if len(reports) == 0 {
		return "Nothing downloaded."
	}
	rows := make([][]string, len(reports))
	for i, r := range reports {
		docs, deleted := "-", "-"
		if r.Download != nil {
			docs = strconv.Itoa(r.Download.Documents)
			deleted = strconv.Itoa(r.Download.Deleted)
		}
		rows[i] = []string{r.Collection.Label(), r.Dir, docs, deleted, status(r.Err)}
	}
	return markdown.RenderTable([]string{"Collection", "Directory", "Documents", "Deleted", "Status"}, rows)
}

func renderUploadReports(reports []syncer.CollectionReport) string {
	if len(reports) == 0 {
		return "Nothing uploaded."
	}
	rows := make([][]string, len(reports))
	for i, r := range reports {
		row := []string{r.Collection.Label(), "-", "-", "-", "-", status(r.Err)}
		if u := r.Upload; u != nil {
			row[1] = strconv.Itoa(u.Created)
			row[2] = strconv.Itoa(u.Updated)
			row[3] = strconv.Itoa(u.Skipped)
			row[4] = strconv.Itoa(u.Failed())
		}
		rows[i] = row
	}
	return markdown.RenderTable([]string{"Collection", "Created", "Updated", "Skipped", "Errors", "Status"}, rows)
}

func addCollectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("dir", "", "output root (default: output_dir from config)")
	cmd.Flags().StringSlice("collections", nil, "collection ids, url ids or names (default: all enabled)")
}

func init() {
	addCollectionFlags(downloadCmd)
	downloadCmd.Flags().Bool("no-images", false, "leave image references pointing at the remote store")
	downloadCmd.Flags().Bool("no-cleanup", false, "keep local files that no longer exist remotely")
	rootCmd.AddCommand(downloadCmd)

	addCollectionFlags(uploadCmd)
	uploadCmd.Flags().Bool("update-only", false, "skip documents that do not exist remotely yet")
	rootCmd.AddCommand(uploadCmd)
}
