package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list [tournament-id]",
	Short: "List tournaments, or the matches of one tournament",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("tournament id %q: %w", args[0], err)
		}
		matches, err := db.ListMatches(ctx, id)
		if err != nil {
			return fmt.Errorf("list matches: %w", err)
		}
		report.PrintMatches(os.Stdout, matches)
		return nil
	}

	tournaments, err := db.ListTournaments(ctx)
	if err != nil {
		return fmt.Errorf("list tournaments: %w", err)
	}
	if len(tournaments) == 0 {
		fmt.Fprintln(os.Stdout, "No tournaments yet. Run 'matchsim seed' to create one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-28s  %-10s  %-10s  %-8s  %s\n",
		"ID", "NAME", "START", "END", "STATE", "WINNER")
	fmt.Fprintf(os.Stdout, "%-5s  %-28s  %-10s  %-10s  %-8s  %s\n",
		"─────", "────────────────────────────", "──────────", "──────────", "────────", "──────")
	for _, t := range tournaments {
		state := "pending"
		switch {
		case t.Ended:
			state = "ended"
		case t.Started:
			state = "running"
		}
		winner := "-"
		if t.WinnerID != 0 {
			winner = strconv.FormatInt(t.WinnerID, 10)
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-28s  %-10s  %-10s  %-8s  %s\n",
			t.ID, t.Name, t.StartDate.Format("2006-01-02"), t.EndDate.Format("2006-01-02"), state, winner)
	}
	return nil
}
