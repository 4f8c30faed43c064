package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cfmods/catalog"
	"cfmods/db"
	"cfmods/downloader"
	"cfmods/logger"
	"cfmods/pipeline"
	"cfmods/resolver"
	"cfmods/ui"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var downloadCmd = &cobra.Command{
	Use:   "download [flags] MOD_SLUG...",
	Short: "Download mods and their required dependencies",
	Long: `Looks every slug up in the catalog, selects the first file matching the
modloader and game versions, and downloads it into the download path.
Required dependencies are downloaded first unless --disable-dependencies
is given.

Example: cfmods download -m fabric -v 1.16.5 sodium lithium`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownload(cmd, args)
	},
}

func init() {
	addDownloadFlags(downloadCmd.Flags())
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, slugs []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	index, err := s.loadCatalog(ctx)
	if err != nil {
		return err
	}

	useTUI, _ := cmd.Flags().GetBool("tui")
	if useTUI {
		if err := logger.Silence(s.cfg.LogFile); err != nil {
			return err
		}
	}

	store, err := s.openStore()
	if err != nil {
		logger.Log.Warnw("Download history disabled", zap.Error(err))
	}
	defer closeStore(store)

	loader, err := catalog.ParseModLoader(s.cfg.ModLoader)
	if err != nil {
		return err
	}
	opts := pipeline.Options{
		ModLoader:           loader,
		Versions:            resolver.NewVersionSet(s.cfg.GameVersions...),
		ResolveDependencies: !s.cfg.DisableDependencies,
		DownloadDir:         s.cfg.DownloadDir,
		RunID:               uuid.NewString(),
	}
	logger.Log.Infow("Starting downloads",
		"run", opts.RunID,
		"modloader", ui.Loader(loader.String()),
		"versions", opts.Versions.Sorted(),
		"dependencies", opts.ResolveDependencies,
	)

	var sum pipeline.Summary
	if useTUI {
		sum, err = runDownloadTUI(ctx, s, index, opts, store, slugs)
		if err != nil {
			return err
		}
	} else {
		observer := downloader.MultiObserver{
			ui.NewBarObserver(os.Stderr),
			ui.LogObserver{Log: logger.Log.Named("download")},
		}
		sum = newPipeline(s, index, opts, store, observer).Run(ctx, slugs)
	}

	printSummary(cmd.OutOrStdout(), sum)
	if !sum.OK() {
		return errRunFailed
	}
	return nil
}

func newPipeline(s *session, index *catalog.Index, opts pipeline.Options, store *db.Store, observer downloader.Observer) *pipeline.Pipeline {
	dl := downloader.New(s.client, observer, logger.Log.Named("download"))
	p := pipeline.New(index, s.client, dl, opts, logger.Log.Named("pipeline"))
	if store != nil {
		p.WithRecorder(historyRecorder{store: store})
	}
	return p
}

// historyRecorder stores pipeline records in the download history.
type historyRecorder struct {
	store *db.Store
}

func (h historyRecorder) RecordDownload(r pipeline.Record) error {
	return h.store.RecordDownload(&db.Download{
		RunID:         r.RunID,
		Slug:          r.Slug,
		ModID:         r.ModID,
		ProjectFileID: r.ProjectFileID,
		FileName:      r.FileName,
		InstallPath:   r.InstallPath,
		Bytes:         r.Bytes,
		SHA1:          r.SHA1,
		DependencyOf:  r.DependencyOf,
	})
}

// printSummary writes one line per delivered or failed mod.
func printSummary(w io.Writer, sum pipeline.Summary) {
	for _, r := range sum.Results {
		for _, d := range r.Dependencies {
			fmt.Fprintf(w, "  %s %s %s\n", ui.MutedStyle.Render("+"), d.Slug, artifactNote(d))
		}
		for _, err := range r.DependencyErrors {
			fmt.Fprintf(w, "  %s %v\n", ui.WarnStyle.Render("!"), err)
		}
		if r.Err != nil {
			fmt.Fprintf(w, "%s %s: %v\n", ui.ErrorStyle.Render("✗"), r.Slug, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", ui.SuccessStyle.Render("✓"), r.Mod.DisplayName(), artifactNote(*r.Artifact))
	}

	line := fmt.Sprintf("%d file(s) downloaded, %d mod(s) failed", sum.Files(), len(sum.Failed()))
	if sum.Err != nil {
		line += " (interrupted)"
	}
	fmt.Fprintln(w, ui.HeaderStyle.Render(line))
}

func artifactNote(a pipeline.Artifact) string {
	if a.Reused {
		return ui.MutedStyle.Render("(already downloaded) " + a.Path)
	}
	return fmt.Sprintf("→ %s (%s)", a.Path, ui.Size(a.Bytes))
}
