package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"cfmods/db"
	"cfmods/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously downloaded files",
	Long: `Lists downloads recorded by earlier runs, newest first.
Example: cfmods history --slug jei --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		slug, _ := cmd.Flags().GetString("slug")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		store, err := s.openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		records, err := store.ListDownloads(slug, limit)
		if err != nil {
			return err
		}
		return renderHistory(cmd.OutOrStdout(), records, format, time.Now())
	},
}

func init() {
	historyCmd.Flags().String("slug", "", "Only show downloads of this mod")
	historyCmd.Flags().Int("limit", 20, "Maximum number of records; 0 shows all")
	historyCmd.Flags().String("format", "table", "Output format: table, yaml or json")
	rootCmd.AddCommand(historyCmd)
}

// historyEntry is the serialized form of a download record.
type historyEntry struct {
	Run          string    `yaml:"run" json:"run"`
	Slug         string    `yaml:"slug" json:"slug"`
	ModID        int       `yaml:"mod_id" json:"mod_id"`
	FileID       int       `yaml:"file_id" json:"file_id"`
	File         string    `yaml:"file" json:"file"`
	Path         string    `yaml:"path" json:"path"`
	Bytes        int64     `yaml:"bytes" json:"bytes"`
	SHA1         string    `yaml:"sha1" json:"sha1"`
	DependencyOf string    `yaml:"dependency_of,omitempty" json:"dependency_of,omitempty"`
	DownloadedAt time.Time `yaml:"downloaded_at" json:"downloaded_at"`
}

func toHistoryEntries(records []db.Download) []historyEntry {
	out := make([]historyEntry, 0, len(records))
	for _, r := range records {
		out = append(out, historyEntry{
			Run:          r.RunID,
			Slug:         r.Slug,
			ModID:        r.ModID,
			FileID:       r.ProjectFileID,
			File:         r.FileName,
			Path:         r.InstallPath,
			Bytes:        r.Bytes,
			SHA1:         r.SHA1,
			DependencyOf: r.DependencyOf,
			DownloadedAt: r.CreatedAt.UTC(),
		})
	}
	return out
}

func renderHistory(out io.Writer, records []db.Download, format string, now time.Time) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(toHistoryEntries(records)); err != nil {
			return err
		}
		return enc.Close()

	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(toHistoryEntries(records))

	case "table", "":
		if len(records) == 0 {
			fmt.Fprintln(out, "No downloads recorded.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "WHEN\tSLUG\tFILE\tSIZE\tFOR")
		for _, r := range records {
			dep := r.DependencyOf
			if dep == "" {
				dep = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				ui.Ago(r.CreatedAt, now), r.Slug, r.FileName, ui.Size(r.Bytes), dep)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown format %q (want table, yaml or json)", format)
	}
}
