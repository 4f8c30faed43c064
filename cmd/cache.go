package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"cfmods/logger"
	"cfmods/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or refresh the local catalog copy",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the catalog is cached and how old it is",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		info, err := s.cache.Info()
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(out, "No catalog cached at %s yet; the next download fetches it.\n", s.cache.Path())
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Path:     %s\n", info.Path)
		fmt.Fprintf(out, "Size:     %s\n", ui.Size(info.Size))
		fmt.Fprintf(out, "Modified: %s (%s)\n", info.ModTime.Format(time.RFC1123), ui.Ago(info.ModTime, time.Now()))

		doc, err := s.cache.Load()
		if err != nil {
			fmt.Fprintf(out, "Mods:     %s\n", ui.ErrorStyle.Render("unreadable: "+err.Error()))
			return nil
		}
		fmt.Fprintf(out, "Mods:     %d\n", len(doc.Mods))
		if doc.Dropped > 0 {
			fmt.Fprintf(out, "Dropped:  %d invalid record(s)\n", doc.Dropped)
		}
		fmt.Fprintf(out, "Source:   %s\n", s.cfg.CatalogURL)
		return nil
	},
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Download the catalog again regardless of its age",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		doc, err := s.cache.Refresh(cmd.Context())
		if err != nil {
			logger.Log.Errorw("Catalog refresh failed", zap.Error(err))
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog refreshed: %d mods saved to %s\n", len(doc.Mods), s.cache.Path())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd, cacheRefreshCmd)
	rootCmd.AddCommand(cacheCmd)
}
