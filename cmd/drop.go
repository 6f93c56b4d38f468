package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/simerr"
)

var dropForce bool

// dropCmd deletes the simulation database along with its WAL side files.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the simulation database",
	Long: `Permanently delete the SQLite database and its -wal/-shm files. Teams,
tournaments, duel logs and standings are lost; run 'matchsim seed' to start over.
Without --force only the files that would be removed are listed.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "delete without asking")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if cfg.DBPath == ":memory:" {
		return fmt.Errorf("in-memory database has nothing to drop: %w", simerr.ErrInvalidInput)
	}

	var present []fs.FileInfo
	var paths []string
	for _, path := range []string{cfg.DBPath, cfg.DBPath + "-wal", cfg.DBPath + "-shm"} {
		fi, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		present = append(present, fi)
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		cMuted.Fprintf(os.Stdout, "%s does not exist, nothing to drop.\n", cfg.DBPath)
		return nil
	}

	if !dropForce {
		cWarn.Fprintln(os.Stderr, "This will permanently delete:")
		for i, path := range paths {
			fmt.Fprintf(os.Stderr, "  %s (%d bytes)\n", path, present[i].Size())
		}
		fmt.Fprintln(os.Stderr, "Re-run with --force to confirm.")
		return nil
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", path)
	}
	return nil
}
