package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"cfmods/catalog"
	"cfmods/pipeline"
	"cfmods/resolver"
	"cfmods/ui"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files MOD_SLUG",
	Short: "List the catalog files of a mod",
	Long: `Lists every file the catalog knows for a mod, in catalog order, and marks
the one a download with the same --modloader and --version would pick.
Files that would be skipped show the reason.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		index, err := s.loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		loader, err := catalog.ParseModLoader(s.cfg.ModLoader)
		if err != nil {
			return err
		}

		mods := index.FindBySlug(args[0])
		if len(mods) == 0 {
			return fmt.Errorf("%w: %s", pipeline.ErrModNotFound, args[0])
		}
		versions := resolver.NewVersionSet(s.cfg.GameVersions...)
		for _, mod := range mods {
			printFiles(cmd.OutOrStdout(), mod, loader, versions)
		}
		return nil
	},
}

func init() {
	filesCmd.Flags().StringP("modloader", "m", "forge", "Modloader to evaluate files for (forge or fabric)")
	filesCmd.Flags().StringSliceP("version", "v", nil, "Minecraft version to accept; repeat for several")
	rootCmd.AddCommand(filesCmd)
}

func printFiles(out io.Writer, mod catalog.ModRecord, loader catalog.ModLoader, versions resolver.VersionSet) {
	fmt.Fprintf(out, "%s (%s, id %d)\n", ui.HeaderStyle.Render(mod.DisplayName()), mod.Slug, mod.ID)
	if len(mod.Files) == 0 {
		fmt.Fprintln(out, "  no files")
		return
	}

	selected, ok := resolver.SelectFile(mod, loader, versions)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\tFILE ID\tNAME\tLOADER\tVERSION\tDATE\tSTATUS")
	for _, f := range mod.Files {
		mark, status := " ", resolver.Check(f, loader, versions).String()
		if ok && f.ProjectFileID == selected.ProjectFileID {
			mark, status = "*", "selected"
		}
		date := "-"
		if !f.FileDate.IsZero() {
			date = f.FileDate.Format("2006-01-02")
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			mark, f.ProjectFileID, f.FileName, f.ModLoader, f.GameVersion, date, status)
	}
	_ = w.Flush()
}
