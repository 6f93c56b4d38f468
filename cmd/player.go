package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/report"
	"github.com/pable/go-match-sim/internal/scoring"
	"github.com/pable/go-match-sim/internal/simerr"
)

var (
	playerLimit  int
	playerOffset int
)

// playerCmd prints career totals for the given players, or a ranked page of all of them.
var playerCmd = &cobra.Command{
	Use:   "player [player-id...]",
	Short: "Career stats for one or more players",
	Long: `Print kills, deaths, assists, KDA and map/match win rates summed over every
game a player took part in. Without ids, every player is ranked by KDA, then
kills, then win rates; use --limit and --offset to page through them.`,
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().IntVar(&playerLimit, "limit", 20, "rows per page when no ids are given, 0 for all")
	playerCmd.Flags().IntVar(&playerOffset, "offset", 0, "rows skipped when no ids are given")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	if playerLimit < 0 || playerOffset < 0 {
		return fmt.Errorf("--limit and --offset must not be negative: %w", simerr.ErrInvalidInput)
	}
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	var rows []model.PlayerAggregate
	if len(args) == 0 {
		all, err := db.PlayerAggregates(ctx)
		if err != nil {
			return fmt.Errorf("player totals: %w", err)
		}
		rows = page(all, playerOffset, playerLimit)
	} else {
		for _, arg := range args {
			id, err := parseID("player", arg)
			if err != nil {
				return err
			}
			a, err := db.PlayerAggregate(ctx, id)
			if err != nil {
				return fmt.Errorf("player %d: %w", id, err)
			}
			rows = append(rows, a)
		}
		scoring.RankPlayers(rows)
	}

	if len(rows) == 0 {
		cWarn.Fprintln(os.Stdout, "No players.")
		return nil
	}
	report.PrintPlayerAggregates(os.Stdout, rows)
	return nil
}

// page returns rows[offset:offset+limit], clamped; a zero limit means no limit.
func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
