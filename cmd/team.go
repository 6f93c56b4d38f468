package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/report"
	"github.com/pable/go-match-sim/internal/scoring"
)

var teamCmd = &cobra.Command{
	Use:   "team [team-id...]",
	Short: "Career stats for one or more teams",
	Long: `Print titles, tournaments entered and match/map records for teams, ranked by
titles then win rate. Without ids every team is listed.`,
	RunE: runTeam,
}

func runTeam(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	var rows []model.TeamAggregate
	if len(args) == 0 {
		if rows, err = db.TeamAggregates(ctx); err != nil {
			return fmt.Errorf("team totals: %w", err)
		}
	}
	for _, arg := range args {
		id, err := parseID("team", arg)
		if err != nil {
			return err
		}
		a, err := db.TeamAggregate(ctx, id)
		if err != nil {
			return fmt.Errorf("team %d: %w", id, err)
		}
		rows = append(rows, a)
	}
	scoring.RankTeams(rows)

	if len(rows) == 0 {
		cWarn.Fprintln(os.Stdout, "No teams.")
		return nil
	}
	report.PrintTeamAggregates(os.Stdout, rows)
	return nil
}
