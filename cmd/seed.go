package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/random"
	"github.com/pable/go-match-sim/internal/report"
	"github.com/pable/go-match-sim/internal/simerr"
	"github.com/pable/go-match-sim/internal/tournament"
)

var (
	seedName  string
	seedTeams int
	seedType  string
	seedStart string
	seedDays  int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate teams, a tournament and its round-robin matches",
	Long: `Generate random teams of five players, a tournament between them and one
match for every pair of teams, dated randomly inside the tournament window.

Matches dated in the past are due immediately and will be picked up by
'matchsim serve' or 'matchsim play due'.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedName, "name", "", "tournament name (default random)")
	seedCmd.Flags().IntVar(&seedTeams, "teams", 4, "number of teams")
	seedCmd.Flags().StringVar(&seedType, "type", string(model.MatchBO3), "match type: BO1, BO3, BO5, FRIENDLY or SHOWMATCH")
	seedCmd.Flags().StringVar(&seedStart, "start", "", "start date YYYY-MM-DD (default now)")
	seedCmd.Flags().IntVar(&seedDays, "days", 0, "tournament length in days")
}

func runSeed(cmd *cobra.Command, args []string) error {
	start := time.Now()
	if seedStart != "" {
		var err error
		if start, err = time.ParseInLocation("2006-01-02", seedStart, time.Local); err != nil {
			return fmt.Errorf("start date %q: %w", seedStart, simerr.ErrInvalidInput)
		}
	}
	if seedDays < 0 {
		return fmt.Errorf("days %d: %w", seedDays, simerr.ErrInvalidInput)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rng, used, err := random.New(cfg.Seed)
	if err != nil {
		return err
	}
	planner := tournament.NewPlanner(db, rng)
	t, matches, err := planner.Seed(cmd.Context(), tournament.SeedOptions{
		Name:  seedName,
		Teams: seedTeams,
		Type:  model.MatchType(strings.ToUpper(seedType)),
		Start: start,
		End:   start.AddDate(0, 0, seedDays),
	})
	if err != nil {
		return fmt.Errorf("seed tournament: %w", err)
	}

	cHeader.Fprintf(os.Stdout, "Tournament %d: %s\n", t.ID, t.Name)
	cMuted.Fprintf(os.Stdout, "seed %d, %d teams, %d matches\n", used, seedTeams, len(matches))
	report.PrintMatches(os.Stdout, matches)
	return nil
}
