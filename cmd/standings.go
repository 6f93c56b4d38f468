package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/report"
)

var standingsCmd = &cobra.Command{
	Use:   "standings <tournament-id>",
	Short: "Show a tournament's standings table",
	Args:  cobra.ExactArgs(1),
	RunE:  runStandings,
}

func runStandings(cmd *cobra.Command, args []string) error {
	id, err := parseID("tournament", args[0])
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	t, err := db.GetTournament(ctx, id)
	if err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}
	rows, err := db.Standings(ctx, id)
	if err != nil {
		return fmt.Errorf("get standings: %w", err)
	}

	cHeader.Fprintf(os.Stdout, "%s\n", t.Name)
	report.PrintStandings(os.Stdout, rows)
	if t.Ended {
		for _, r := range rows {
			if r.TeamID == t.WinnerID {
				cWinner.Fprintf(os.Stdout, "Winner: %s\n", r.TeamName)
			}
		}
	}
	return nil
}
