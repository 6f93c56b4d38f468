package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-match-sim/internal/engine"
	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/report"
	"github.com/pable/go-match-sim/internal/simerr"
	"github.com/pable/go-match-sim/internal/storage"
)

var (
	playParallel int
	playAll      bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Simulate games and matches to completion",
}

var playGameCmd = &cobra.Command{
	Use:   "game <game-id>",
	Short: "Play one game until a team has won",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlayGame,
}

var playMatchCmd = &cobra.Command{
	Use:   "match <match-id>",
	Short: "Play a match's games in order until it is decided",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlayMatch,
}

var playDueCmd = &cobra.Command{
	Use:   "due",
	Short: "Claim and play every match whose date has passed",
	Long: `Claim and play matches whose scheduled date has passed, without starting the scheduler.

Each run plays at most one batch (MATCHSIM_DUE_BATCH_LIMIT). With --all, batches
are played until no due match remains.`,
	Args: cobra.NoArgs,
	RunE: runPlayDue,
}

func init() {
	playDueCmd.Flags().IntVar(&playParallel, "parallel", 0, "matches played at once (default MATCHSIM_MAX_CONCURRENT_MATCHES)")
	playDueCmd.Flags().BoolVar(&playAll, "all", false, "keep playing batches until nothing is due")
	playCmd.AddCommand(playGameCmd, playMatchCmd, playDueCmd)
}

func parseID(what, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s id %q: %w", what, arg, simerr.ErrInvalidInput)
	}
	return id, nil
}

func runPlayGame(cmd *cobra.Command, args []string) error {
	gameID, err := parseID("game", args[0])
	if err != nil {
		return err
	}
	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	score, err := eng.PlayGame(cmd.Context(), gameID)
	if err != nil {
		return fmt.Errorf("play game %d: %w", gameID, err)
	}
	printScore(gameID, score)
	return nil
}

func runPlayMatch(cmd *cobra.Command, args []string) error {
	matchID, err := parseID("match", args[0])
	if err != nil {
		return err
	}
	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	if err := eng.PlayMatch(ctx, matchID); err != nil {
		return fmt.Errorf("play match %d: %w", matchID, err)
	}
	m, err := db.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	printMatch(m)
	return nil
}

func runPlayDue(cmd *cobra.Command, args []string) error {
	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	parallel := playParallel
	if parallel <= 0 {
		parallel = cfg.MaxConcurrentMatches
	}

	var played, failed int
	for {
		p, f, err := playDueBatch(ctx, db, eng, parallel)
		played += p
		failed += f
		if err != nil {
			return err
		}
		if !playAll || p+f == 0 {
			break
		}
	}

	fmt.Fprintf(os.Stdout, "Played %d matches", played)
	if failed > 0 {
		cError.Fprintf(os.Stdout, ", %d failed", failed)
	}
	fmt.Fprintln(os.Stdout)
	if failed > 0 {
		return fmt.Errorf("%d matches failed", failed)
	}
	return nil
}

// playDueBatch claims and plays one batch of due matches, at most parallel at once.
// A match that fails does not stop the others; storage errors do.
func playDueBatch(ctx context.Context, db *storage.DB, eng *engine.Engine, parallel int) (played, failed int, err error) {
	due, err := db.DueMatches(ctx, time.Now(), cfg.DueBatchLimit)
	if err != nil {
		return 0, 0, fmt.Errorf("due matches: %w", err)
	}

	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for _, m := range due {
		g.Go(func() error {
			claimed, err := db.ClaimMatch(gctx, m.ID)
			if err != nil {
				return fmt.Errorf("claim match %d: %w", m.ID, err)
			}
			if !claimed {
				return nil
			}
			if err := eng.PlayMatch(gctx, m.ID); err != nil {
				bad.Add(1)
				slog.Error("match failed", "match_id", m.ID, "kind", simerr.Kind(err), "err", err)
				if errors.Is(err, simerr.ErrTransient) {
					if rerr := db.ReleaseMatch(ctx, m.ID); rerr != nil {
						slog.Error("release match", "match_id", m.ID, "err", rerr)
					}
				}
				return nil
			}
			ok.Add(1)
			slog.Info("match finished", "match_id", m.ID)
			return nil
		})
	}
	err = g.Wait()
	return int(ok.Load()), int(bad.Load()), err
}

func printState(s model.RoundState) {
	report.PrintRoundState(os.Stdout, s)
}

func printScore(gameID int64, s engine.Score) {
	fmt.Fprintf(os.Stdout, "Game %d: %d - %d  ", gameID, s.Team1Rounds, s.Team2Rounds)
	cWinner.Fprintf(os.Stdout, "winner team %d\n", s.WinnerID)
}

func printMatch(m model.Match) {
	fmt.Fprintf(os.Stdout, "Match %d (%s): team %d %d - %d team %d  ",
		m.ID, m.Type, m.Team1ID, m.Team1Score, m.Team2Score, m.Team2ID)
	if m.WinnerID != 0 {
		cWinner.Fprintf(os.Stdout, "winner team %d\n", m.WinnerID)
		return
	}
	cWarn.Fprintln(os.Stdout, "undecided")
}
