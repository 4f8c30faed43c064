package cmd

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"cfmods/db"
	"cfmods/logger"
	"cfmods/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check downloaded files against the recorded checksums",
	Long: `Re-hashes the most recent download recorded for every path and reports
files that were deleted or changed since. Exits non-zero when any are found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		store, err := s.openStore()
		if err != nil {
			return err
		}
		defer closeStore(store)

		records, err := store.LatestPerPath()
		if err != nil {
			return err
		}

		results := verifyDownloads(records)
		bad := 0
		for _, r := range results {
			style := ui.SuccessStyle
			if r.Status != verifyOK {
				style = ui.ErrorStyle
				bad++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", style.Render(fmt.Sprintf("%-8s", r.Status)), r.Record.InstallPath)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) checked, %d problem(s)\n", len(results), bad)
		if bad > 0 {
			return errRunFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

type verifyStatus string

const (
	verifyOK       verifyStatus = "ok"
	verifyMissing  verifyStatus = "missing"
	verifyModified verifyStatus = "modified"
	verifyError    verifyStatus = "error"
)

type verifyResult struct {
	Record db.Download
	Status verifyStatus
}

func verifyDownloads(records []db.Download) []verifyResult {
	out := make([]verifyResult, 0, len(records))
	for _, rec := range records {
		res := verifyResult{Record: rec, Status: verifyOK}
		hash, err := calculateSHA1(rec.InstallPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			res.Status = verifyMissing
		case err != nil:
			logger.Log.Warnw("Failed to calculate hash", zap.String("file", rec.InstallPath), zap.Error(err))
			res.Status = verifyError
		case hash != rec.SHA1:
			logger.Log.Debugw("Checksum mismatch", "file", rec.InstallPath, "recorded", rec.SHA1, "actual", hash)
			res.Status = verifyModified
		}
		out = append(out, res)
	}
	return out
}

func calculateSHA1(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha1.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
