package cmd

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rogersnm/docsync/internal/config"
	"github.com/rogersnm/docsync/internal/markdown"
	"github.com/rogersnm/docsync/internal/outline"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect docsync.yaml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file, prompting for anything not given as a flag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiURL, _ := cmd.Flags().GetString("api-url")
		apiKey, _ := cmd.Flags().GetString("api-key")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		picked, _ := cmd.Flags().GetStringSlice("collections")

		if apiURL == "" {
			apiURL = cfg.APIURL
			if err := huh.NewInput().
				Title("Document store URL").
				Placeholder("https://docs.example.com").
				Value(&apiURL).
				Run(); err != nil {
				return fmt.Errorf("cancelled")
			}
		}
		if apiKey == "" && cfg.APIKey == "" {
			if err := huh.NewInput().
				Title("API key (leave empty to use DOCSYNC_API_KEY)").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey).
				Run(); err != nil {
				return fmt.Errorf("cancelled")
			}
		}

		next := *cfg
		next.APIURL = apiURL
		if apiKey != "" {
			next.APIKey = apiKey
		}
		if outputDir != "" {
			next.OutputDir = outputDir
		}
		if err := next.Validate(); err != nil {
			return err
		}

		remote, err := newClient(&next).ListCollections(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing collections: %w", err)
		}
		if len(picked) == 0 {
			if picked, err = promptCollections(remote, next.Collections); err != nil {
				return err
			}
		}
		next.Collections = mergeCollections(next.Collections, remote, picked)

		if err := config.Save(cfgPath, &next); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d collection(s)\n", cfgPath, len(next.Collections))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := "(not set)"
		if cfg.APIKey != "" {
			key = cfg.APIKey[:min(8, len(cfg.APIKey))] + "..."
		}
		fields := []string{
			markdown.RenderField("File", cfgPath),
			markdown.RenderField("API URL", cfg.APIURL),
			markdown.RenderField("API key", key),
			markdown.RenderField("Output", cfg.Root()),
			markdown.RenderField("Concurrency", fmt.Sprint(cfg.Concurrency)),
			markdown.RenderField("Images", fmt.Sprint(cfg.IncludeImages)),
			markdown.RenderField("Front matter", fmt.Sprint(cfg.EmitFrontmatter)),
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, markdown.RenderHeader("docsync", fields))

		if len(cfg.Collections) == 0 {
			fmt.Fprintln(out, "No collections configured.")
			return nil
		}
		rows := make([][]string, len(cfg.Collections))
		for i, c := range cfg.Collections {
			mode := "ok"
			switch {
			case !c.Enabled():
				mode = "skipped"
			case c.Sync.ReadOnly:
				mode = "read-only"
			}
			rows[i] = []string{c.ID, c.Label(), c.Dir(cfg.Root()), markdown.RenderStatus(mode)}
		}
		fmt.Fprintln(out, markdown.RenderTable([]string{"ID", "Name", "Directory", "Sync"}, rows))
		return nil
	},
}

func promptCollections(remote []outline.Collection, existing []config.Collection) ([]string, error) {
	if len(remote) == 0 {
		return nil, fmt.Errorf("no collections visible with this API key")
	}
	opts := make([]huh.Option[string], len(remote))
	for i, c := range remote {
		selected := slices.ContainsFunc(existing, func(e config.Collection) bool { return e.ID == c.ID })
		opts[i] = huh.NewOption(c.Name, c.ID).Selected(selected)
	}
	var picked []string
	if err := huh.NewMultiSelect[string]().
		Title("Collections to sync (space to select, enter to confirm)").
		Options(opts...).
		Value(&picked).
		Run(); err != nil {
		return nil, fmt.Errorf("cancelled")
	}
	return picked, nil
}

// mergeCollections keeps existing entries for picked ids and adds the rest
// from the remote listing. picked may hold ids, url ids or names.
func mergeCollections(existing []config.Collection, remote []outline.Collection, picked []string) []config.Collection {
	var out []config.Collection
	for _, key := range picked {
		i := slices.IndexFunc(remote, func(c outline.Collection) bool {
			return c.ID == key || c.URLID == key || c.Name == key
		})
		if i < 0 {
			continue
		}
		rc := remote[i]
		if slices.ContainsFunc(out, func(c config.Collection) bool { return c.ID == rc.ID }) {
			continue
		}
		if j := slices.IndexFunc(existing, func(c config.Collection) bool { return c.ID == rc.ID }); j >= 0 {
			out = append(out, existing[j])
			continue
		}
		out = append(out, config.Collection{
			ID:          rc.ID,
			URLID:       rc.URLID,
			Name:        rc.Name,
			Description: rc.Description,
		})
	}
	return out
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List remote collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireRemote()
		if err != nil {
			return err
		}
		cols, err := client.ListCollections(cmd.Context())
		if err != nil {
			return err
		}
		configured := make(map[string]bool, len(cfg.Collections))
		for _, c := range cfg.Collections {
			configured[c.ID] = true
		}
		fmt.Fprintln(cmd.OutOrStdout(), markdown.RenderCollectionTable(cols, configured))
		return nil
	},
}

func init() {
	configInitCmd.Flags().String("api-url", "", "document store URL")
	configInitCmd.Flags().String("api-key", "", "API key")
	configInitCmd.Flags().String("output-dir", "", "root directory for collection trees")
	configInitCmd.Flags().StringSlice("collections", nil, "collections to sync (skips the picker)")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(collectionsCmd)
}
