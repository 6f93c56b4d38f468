// Package engine drives simulations: duels, rounds, games and matches.
//
// All writes to a game's duel log go through a per-game lock, so the engine
// can be shared by any number of goroutines simulating different matches.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pable/go-match-sim/internal/aggregator"
	"github.com/pable/go-match-sim/internal/chance"
	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/round"
	"github.com/pable/go-match-sim/internal/scoring"
	"github.com/pable/go-match-sim/internal/simerr"
)

// sweepAttempts is how many times a failed aggregation sweep is retried
// before a game is abandoned.
const sweepAttempts = 3

// Store is the persistence the engine needs.
type Store interface {
	aggregator.Store

	GetGame(ctx context.Context, id int64) (model.Game, error)
	GetGameStats(ctx context.Context, gameID int64) (model.GameStats, error)
	Lineup(ctx context.Context, gameID int64) (model.Lineup, error)
	RoundLog(ctx context.Context, gameID int64, round int) ([]model.DuelLogEntry, error)
	LastLoggedRound(ctx context.Context, gameID int64) (int, bool, error)
	AppendDuel(ctx context.Context, e model.DuelLogEntry) (int64, error)
	MarkGameStarted(ctx context.Context, gameID int64) error
	MarkGameFinished(ctx context.Context, gameID int64) error

	GetMatch(ctx context.Context, id int64) (model.Match, error)
	MatchGames(ctx context.Context, matchID int64) ([]model.Game, error)
	RecordMatchResult(ctx context.Context, res model.MatchResult) error
}

// Score is a game's final round score.
type Score struct {
	Team1Rounds int
	Team2Rounds int
	WinnerID    int64
}

func scoreOf(gs model.GameStats) Score {
	return Score{Team1Rounds: gs.Team1Score, Team2Rounds: gs.Team2Score, WinnerID: gs.WinnerID}
}

// Engine runs simulations against a Store.
type Engine struct {
	store   Store
	stepper *round.Stepper
	locks   *gameLocks
	log     *slog.Logger
}

// New returns an Engine drawing every random number from rng.
// rng may be shared; the engine serialises access to it.
func New(store Store, rng chance.Rand, logger *slog.Logger) (*Engine, error) {
	if store == nil || rng == nil {
		return nil, fmt.Errorf("engine needs a store and a random source: %w", simerr.ErrFatal)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		stepper: round.NewStepper(&lockedRand{rng: rng}),
		locks:   newGameLocks(),
		log:     logger,
	}, nil
}

// StepDuel plays one duel of round n and returns the resulting round state.
// Starting round n > 1 requires round n-1 to be finished.
func (e *Engine) StepDuel(ctx context.Context, gameID int64, n int) (model.RoundState, error) {
	unlock := e.locks.lock(gameID)
	defer unlock()

	lineup, err := e.openGame(ctx, gameID)
	if err != nil {
		return model.RoundState{}, err
	}
	state, err := e.stepDuel(ctx, gameID, n, lineup)
	if err != nil {
		return state, err
	}
	e.sweepOnce(ctx, gameID)
	return state, nil
}

// StepRound plays duels of round n until the round finishes.
func (e *Engine) StepRound(ctx context.Context, gameID int64, n int) (model.RoundState, error) {
	unlock := e.locks.lock(gameID)
	defer unlock()

	lineup, err := e.openGame(ctx, gameID)
	if err != nil {
		return model.RoundState{}, err
	}
	state, err := e.playRound(ctx, gameID, n, lineup)
	if err != nil {
		return state, err
	}
	e.sweepOnce(ctx, gameID)
	return state, nil
}

// openGame rejects steps on decided games and loads the rosters.
func (e *Engine) openGame(ctx context.Context, gameID int64) (model.Lineup, error) {
	gs, err := e.store.GetGameStats(ctx, gameID)
	if err != nil {
		return model.Lineup{}, err
	}
	if gs.WinnerID != 0 {
		return model.Lineup{}, fmt.Errorf("game %d already won by team %d: %w", gameID, gs.WinnerID, simerr.ErrInvalidState)
	}
	return e.store.Lineup(ctx, gameID)
}

func (e *Engine) stepDuel(ctx context.Context, gameID int64, n int, lineup model.Lineup) (model.RoundState, error) {
	if n < 1 {
		return model.RoundState{}, fmt.Errorf("round %d: %w", n, simerr.ErrInvalidInput)
	}
	entries, err := e.store.RoundLog(ctx, gameID, n)
	if err != nil {
		return model.RoundState{}, err
	}
	if len(entries) == 0 && n > 1 {
		prev, err := e.store.RoundLog(ctx, gameID, n-1)
		if err != nil {
			return model.RoundState{}, err
		}
		if len(prev) == 0 || !prev[len(prev)-1].RoundFinished {
			return model.RoundState{}, fmt.Errorf("game %d round %d has not finished: %w", gameID, n-1, simerr.ErrInvalidState)
		}
	}

	state, err := round.Fold(lineup, n, entries)
	if err != nil {
		return state, fmt.Errorf("rebuild game %d round %d: %w", gameID, n, err)
	}
	next, entry, err := e.stepper.Step(gameID, state)
	if err != nil {
		return state, err
	}
	if _, err := e.store.AppendDuel(ctx, entry); err != nil {
		return state, err
	}
	e.log.Debug("duel played",
		"game_id", gameID, "round", n,
		"team1_player", entry.Team1PlayerID, "team2_player", entry.Team2PlayerID,
		"killed", entry.KilledPlayerID, "trade", entry.Trade, "finished", next.Finished)
	return next, nil
}

func (e *Engine) playRound(ctx context.Context, gameID int64, n int, lineup model.Lineup) (model.RoundState, error) {
	for {
		if err := ctx.Err(); err != nil {
			return model.RoundState{}, err
		}
		state, err := e.stepDuel(ctx, gameID, n, lineup)
		if err != nil {
			return state, err
		}
		if state.Finished {
			return state, nil
		}
	}
}

// PlayGame plays rounds until the game has a winner and returns the final score.
// A game interrupted earlier resumes from its log; a finished game returns its score.
func (e *Engine) PlayGame(ctx context.Context, gameID int64) (Score, error) {
	unlock := e.locks.lock(gameID)
	defer unlock()

	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return Score{}, err
	}
	stats, err := e.sweep(ctx, gameID)
	if err != nil {
		return Score{}, err
	}
	if stats.WinnerID != 0 {
		if !game.Finished {
			if err := e.store.MarkGameFinished(ctx, gameID); err != nil {
				return Score{}, err
			}
		}
		return scoreOf(stats), nil
	}

	if err := e.store.MarkGameStarted(ctx, gameID); err != nil {
		return Score{}, err
	}
	lineup, err := e.store.Lineup(ctx, gameID)
	if err != nil {
		return Score{}, err
	}
	last, finished, err := e.store.LastLoggedRound(ctx, gameID)
	if err != nil {
		return Score{}, err
	}
	n := last
	if finished {
		n = last + 1
	}

	log := e.log.With("game_id", gameID, "map", game.Map)
	log.Info("game started", "round", n)
	for stats.WinnerID == 0 {
		if _, err := e.playRound(ctx, gameID, n, lineup); err != nil {
			return scoreOf(stats), fmt.Errorf("game %d round %d: %w", gameID, n, err)
		}
		if stats, err = e.sweep(ctx, gameID); err != nil {
			return scoreOf(stats), err
		}
		n++
	}

	if err := e.store.MarkGameFinished(ctx, gameID); err != nil {
		return scoreOf(stats), err
	}
	log.Info("game finished",
		"team1_rounds", stats.Team1Score, "team2_rounds", stats.Team2Score, "winner_id", stats.WinnerID)
	return scoreOf(stats), nil
}

// PlayMatch plays the match's games in order until one team reaches the
// games-to-win threshold. Remaining games are left unplayed. Standings are
// updated after every game.
func (e *Engine) PlayMatch(ctx context.Context, matchID int64) error {
	m, err := e.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	format, err := scoring.FormatFor(m.Type)
	if err != nil {
		return fmt.Errorf("match %d: %w", matchID, err)
	}
	games, err := e.store.MatchGames(ctx, matchID)
	if err != nil {
		return err
	}

	log := e.log.With("match_id", matchID)
	var results []model.GameResult
	res := scoring.Tally(m, format, results)
	for _, g := range games {
		if res.WinnerID != 0 {
			break
		}
		score, err := e.PlayGame(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("play game %d of match %d: %w", g.Number, matchID, err)
		}
		results = append(results, model.GameResult{
			GameID: g.ID, Team1Rounds: score.Team1Rounds, Team2Rounds: score.Team2Rounds, WinnerID: score.WinnerID,
		})
		res = scoring.Tally(m, format, results)
		if err := e.store.RecordMatchResult(ctx, res); err != nil {
			return fmt.Errorf("record match %d: %w", matchID, err)
		}
	}
	if res.WinnerID == 0 {
		return fmt.Errorf("match %d has %d games and no winner: %w", matchID, len(games), simerr.ErrInvalidState)
	}
	log.Info("match finished", "team1_games", res.Team1Games, "team2_games", res.Team2Games, "winner_id", res.WinnerID)
	return nil
}

// sweep runs the aggregation sweep, retrying failures.
func (e *Engine) sweep(ctx context.Context, gameID int64) (model.GameStats, error) {
	var lastErr error
	for attempt := 1; attempt <= sweepAttempts; attempt++ {
		stats, err := aggregator.Sweep(ctx, e.store, gameID)
		if err == nil {
			return stats, nil
		}
		lastErr = err
		e.log.Warn("stats sweep failed", "game_id", gameID, "attempt", attempt, "kind", simerr.Kind(err), "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return model.GameStats{}, fmt.Errorf("sweep game %d: %w", gameID, lastErr)
}

// sweepOnce runs a single sweep and only logs a failure; the next sweep retries.
func (e *Engine) sweepOnce(ctx context.Context, gameID int64) {
	if _, err := aggregator.Sweep(ctx, e.store, gameID); err != nil {
		e.log.Warn("stats sweep skipped", "game_id", gameID, "kind", simerr.Kind(err), "error", err)
	}
}
