package cmd

import (
	"errors"
	"fmt"
	"os"

	"cfmods/logger"
	"cfmods/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errRunFailed marks a run whose problems were already logged.
var errRunFailed = errors.New("finished with failures")

var rootCmd = &cobra.Command{
	Use:   "cfmods [flags] MOD_SLUG...",
	Short: "Download Minecraft mods from the CurseForge catalog",
	Long: `cfmods resolves mod slugs against a cached copy of the CurseForge
catalog, picks the first file matching the requested modloader and game
versions, and downloads it together with its required dependencies.

Running cfmods with slugs is the same as 'cfmods download'.`,
	// Slugs that collide with a subcommand name need 'cfmods download'.
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runDownload(cmd, args)
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("error:"), err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func init() {
	addDownloadFlags(rootCmd.Flags())
}

// addDownloadFlags registers the flags shared by the root and download
// commands. --dep is accepted as a short alias of --disable-dependencies.
func addDownloadFlags(fs *pflag.FlagSet) {
	fs.StringP("modloader", "m", "forge", "Modloader to download files for (forge or fabric)")
	fs.StringSliceP("version", "v", nil, "Minecraft version to accept; repeat for several (default and a lone 1.16.5 mean 1.16.1-1.16.5)")
	fs.Bool("disable-dependencies", false, "Do not download required dependencies")
	fs.StringP("download-path", "d", "", "Directory to save files in (default current directory)")
	fs.Bool("tui", false, "Show an interactive progress view")
	fs.SetNormalizeFunc(normalizeFlagName)
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "dep" {
		name = "disable-dependencies"
	}
	return pflag.NormalizedName(name)
}
