package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/report"
	"github.com/pable/go-match-sim/internal/simerr"
	"github.com/pable/go-match-sim/internal/storage"
)

var (
	sqlPreset string
	sqlList   bool
)

var sqlCmd = &cobra.Command{
	Use:   "sql [query | --preset name [args...]]",
	Short: "Query the simulation database directly",
	Long: `Run a raw SQL query, or one of the named presets, and print the result as a table.

Tables: teams, players, tournaments, matches, games, game_stats,
player_game_stats, duel_log and standings. Dates are unix seconds and a
winner_id of 0 means undecided. Use --list to see the presets and the
arguments each one takes.`,
	Example: `  matchsim sql --list
  matchsim sql --preset rounds 42
  matchsim sql "SELECT round, COUNT(1) FROM duel_log WHERE game_id = 42 GROUP BY round"`,
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().StringVarP(&sqlPreset, "preset", "p", "", "run a named query; remaining args are its parameters")
	sqlCmd.Flags().BoolVar(&sqlList, "list", false, "list the named queries")
}

func runSQL(cmd *cobra.Command, args []string) error {
	if sqlList {
		printPresets()
		return nil
	}
	if sqlPreset == "" && len(args) == 0 {
		return fmt.Errorf("give a query or --preset, see --list: %w", simerr.ErrInvalidInput)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	var (
		cols []string
		rows [][]string
	)
	if sqlPreset != "" {
		cols, rows, err = db.RunPreset(cmd.Context(), sqlPreset, args...)
	} else {
		cols, rows, err = db.QueryRaw(cmd.Context(), strings.Join(args, " "))
	}
	if err != nil {
		return err
	}
	report.PrintRows(os.Stdout, cols, rows)
	return nil
}

func printPresets() {
	for _, p := range storage.Presets() {
		usage := p.Name
		for _, param := range p.Params {
			usage += " <" + param + ">"
		}
		cCmd.Printf("  %-22s", usage)
		fmt.Println(p.Desc)
	}
}
