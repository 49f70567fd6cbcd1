package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rogersnm/docsync/internal/editor"
	"github.com/rogersnm/docsync/internal/markdown"
	"github.com/rogersnm/docsync/internal/model"
	"github.com/rogersnm/docsync/internal/search"
	"github.com/rogersnm/docsync/internal/tree"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the local trees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cols, err := selectedCollections(cmd)
		if err != nil {
			return err
		}
		root := outputRoot(cmd)

		var results []search.Result
		for _, c := range cols {
			docs, err := tree.ReadCollection(c.Dir(root), c.ID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %s: %v\n", c.Label(), err)
				continue
			}
			results = append(results, search.Documents(c.Label(), docs, args[0])...)
		}
		fmt.Fprintln(cmd.OutOrStdout(), markdown.RenderSearchTable(results))
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show each collection's local hierarchy",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cols, err := selectedCollections(cmd)
		if err != nil {
			return err
		}
		root := outputRoot(cmd)
		out := cmd.OutOrStdout()
		for _, c := range cols {
			docs, err := tree.ReadCollection(c.Dir(root), c.ID)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Label(), err)
			}
			fmt.Fprintln(out, markdown.RenderHeader(c.Label(), []string{markdown.RenderField("Directory", c.Dir(root))}))
			fmt.Fprintln(out, tree.RenderASCII(docs))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <path|remote-id>",
	Short: "Show a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := findDocument(cmd, args[0])
		if err != nil {
			return err
		}
		fields := []string{markdown.RenderField("Path", d.FilePath)}
		if d.Metadata.RemoteID != "" {
			fields = append(fields, markdown.RenderField("Remote ID", d.Metadata.RemoteID))
		}
		if d.Metadata.Description != "" {
			fields = append(fields, markdown.RenderField("Description", d.Metadata.Description))
		}
		if order, ok := d.Metadata.Order(); ok {
			fields = append(fields, markdown.RenderField("Order", fmt.Sprint(order)))
		}
		if !d.LastModifiedAt.IsZero() {
			fields = append(fields, markdown.RenderField("Modified", d.LastModifiedAt.Format("2006-01-02 15:04:05")))
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, markdown.RenderHeader(d.Metadata.Title, fields))

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Fprintln(out, d.Content)
			return nil
		}
		if d.Content != "" {
			rendered, err := markdown.RenderMarkdown(d.Content)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
		}
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <path|remote-id>",
	Short: "Open a document in $EDITOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := findDocument(cmd, args[0])
		if err != nil {
			return err
		}
		if err := editor.Open(d.FilePath); err != nil {
			return err
		}
		// Reject edits that break the front matter before the next upload does.
		if _, _, err := markdown.ReadFile(d.FilePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Edited %s (%s)\n", d.Metadata.Title, d.FilePath)
		return nil
	},
}

// findDocument resolves ref as a file path, then as a remote id or url id in
// the selected collections.
func findDocument(cmd *cobra.Command, ref string) (*model.ParsedDocument, error) {
	if strings.HasSuffix(ref, ".md") {
		if _, err := os.Stat(ref); err == nil {
			meta, body, err := markdown.ReadFile(ref)
			if err != nil {
				return nil, err
			}
			d := &model.ParsedDocument{Metadata: meta, Content: body, FilePath: ref}
			if info, err := os.Stat(ref); err == nil {
				d.LastModifiedAt = info.ModTime()
			}
			return d, nil
		}
	}

	cols, err := selectedCollections(cmd)
	if err != nil {
		return nil, err
	}
	root := outputRoot(cmd)
	for _, c := range cols {
		docs, err := tree.ReadCollection(c.Dir(root), c.ID)
		if err != nil {
			continue
		}
		for i := range docs {
			m := docs[i].Metadata
			if strings.EqualFold(m.RemoteID, ref) || (m.URLID != "" && m.URLID == ref) {
				return &docs[i], nil
			}
		}
	}
	return nil, fmt.Errorf("document %s not found", ref)
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, treeCmd, showCmd, editCmd} {
		addCollectionFlags(c)
		rootCmd.AddCommand(c)
	}
	showCmd.Flags().Bool("raw", false, "print the markdown body without rendering")
}
