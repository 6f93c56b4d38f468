package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Show a game's score and player scoreboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	gameID, err := parseID("game", args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	game, err := db.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}
	gs, err := db.GetGameStats(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game stats: %w", err)
	}
	players, err := db.GetPlayerGameStats(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get player stats: %w", err)
	}

	report.PrintGameSummary(os.Stdout, game, gs)
	report.PrintScoreboard(os.Stdout, players, gs.WinnerID)
	return nil
}
