package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/report"
	"github.com/pable/go-match-sim/internal/round"
	"github.com/pable/go-match-sim/internal/storage"
)

// roundsCmd replays a round from the duel log without touching it.
var roundsCmd = &cobra.Command{
	Use:   "rounds <game-id> [round]",
	Short: "Show a round's state and duels, the latest one by default",
	Long: `Rebuild a round's state from its duel log and print who is alive, how the
round ended and each duel, newest first. Nothing is written, so this is safe
to run against a game another process is playing.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRounds,
}

func runRounds(cmd *cobra.Command, args []string) error {
	gameID, err := parseID("game", args[0])
	if err != nil {
		return err
	}
	var n int64
	if len(args) == 2 {
		if n, err = parseID("round", args[1]); err != nil {
			return err
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	return printRound(cmd.Context(), db, gameID, int(n))
}

// printRound prints round n of a game; n == 0 selects the newest logged round.
func printRound(ctx context.Context, db *storage.DB, gameID int64, n int) error {
	if _, err := db.GetGame(ctx, gameID); err != nil {
		return err
	}
	if n == 0 {
		last, _, err := db.LastLoggedRound(ctx, gameID)
		if err != nil {
			return err
		}
		if last == 0 {
			cMuted.Fprintf(os.Stdout, "Game %d has no duels yet.\n", gameID)
			return nil
		}
		n = last
	}

	entries, err := db.RoundLog(ctx, gameID, n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cMuted.Fprintf(os.Stdout, "Round %d of game %d has no duels yet.\n", n, gameID)
		return nil
	}
	lineup, err := db.Lineup(ctx, gameID)
	if err != nil {
		return fmt.Errorf("lineup of game %d: %w", gameID, err)
	}
	state, err := round.Fold(lineup, n, entries)
	if err != nil {
		return fmt.Errorf("rebuild round %d: %w", n, err)
	}

	nick := make(map[int64]string)
	for _, p := range append(lineup.Team1, lineup.Team2...) {
		nick[p.ID] = p.Nickname
	}
	printState(state)
	report.PrintDuelLog(os.Stdout, entries, nick)
	return nil
}
