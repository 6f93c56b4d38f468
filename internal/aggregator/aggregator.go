// Package aggregator folds a game's duel log into round scores and player counters.
//
// Every entry carries two flags, one per aggregate. An entry is folded into an
// aggregate only while its flag is unset, and the flag is set in the same
// transaction that persists the increment, so repeated sweeps are no-ops.
package aggregator

import (
	"context"
	"fmt"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/scoring"
)

// Store is the persistence the sweep needs.
type Store interface {
	GameLedger(ctx context.Context, gameID int64) (model.GameLedger, error)
	CommitSweep(ctx context.Context, res model.SweepResult) error
}

// Sweep folds every not-yet-included entry of a game and commits the result.
// It returns the game's stats after the sweep.
func Sweep(ctx context.Context, store Store, gameID int64) (model.GameStats, error) {
	ledger, err := store.GameLedger(ctx, gameID)
	if err != nil {
		return model.GameStats{}, fmt.Errorf("load ledger for game %d: %w", gameID, err)
	}
	res := Fold(ledger)
	if res.Empty() {
		return ledger.Stats, nil
	}
	if err := store.CommitSweep(ctx, res); err != nil {
		return ledger.Stats, fmt.Errorf("commit sweep for game %d: %w", gameID, err)
	}
	return res.Stats, nil
}

// Fold computes the sweep for a ledger without touching storage.
// Entries must be ordered by id.
func Fold(ledger model.GameLedger) model.SweepResult {
	stats := ledger.Stats
	res := model.SweepResult{GameID: stats.GameID}

	// ---- team stats: one point per finished round ----
	for _, e := range ledger.Entries {
		if e.IncludedInTeamStats || !e.RoundFinished {
			continue
		}
		switch e.WinnerTeamID {
		case stats.Team1ID:
			stats.Team1Score++
		case stats.Team2ID:
			stats.Team2Score++
		default:
			continue
		}
		res.TeamEntryIDs = append(res.TeamEntryIDs, e.ID)
		if stats.WinnerID == 0 {
			stats.WinnerID = scoring.GameWinner(stats)
		}
	}
	res.Stats = stats

	// ---- player stats: kills, deaths, trade assists ----
	byPlayer := make(map[int64]*model.PlayerGameStats)
	var order []int64
	get := func(playerID, teamID int64) *model.PlayerGameStats {
		ps, ok := byPlayer[playerID]
		if !ok {
			ps = &model.PlayerGameStats{GameID: stats.GameID, PlayerID: playerID, TeamID: teamID}
			byPlayer[playerID] = ps
			order = append(order, playerID)
		}
		return ps
	}

	prior := make(map[int]model.DuelLogEntry)
	for _, e := range ledger.Entries {
		prev, hasPrev := prior[e.Round]
		prior[e.Round] = e
		if e.IncludedInPlayerStats {
			continue
		}

		killer := e.WinnerID()
		killerTeam, victimTeam := stats.Team1ID, stats.Team2ID
		if killer == e.Team2PlayerID {
			killerTeam, victimTeam = stats.Team2ID, stats.Team1ID
		}
		get(killer, killerTeam).Kills++
		get(e.KilledPlayerID, victimTeam).Deaths++

		if e.Trade && hasPrev {
			if mate := assistFor(e, prev); mate != 0 {
				get(mate, killerTeam).Assists++
			}
		}
		res.PlayerEntryIDs = append(res.PlayerEntryIDs, e.ID)
	}
	for _, id := range order {
		res.Players = append(res.Players, *byPlayer[id])
	}
	return res
}

// assistFor returns the teammate credited with an assist on trade entry e:
// the previous duel's participant on the killer's side, unless that is the
// killer. Returns 0 when nobody qualifies.
func assistFor(e, prev model.DuelLogEntry) int64 {
	killer := e.WinnerID()
	mate := prev.Team1PlayerID
	if killer == e.Team2PlayerID {
		mate = prev.Team2PlayerID
	}
	if mate == killer {
		return 0
	}
	return mate
}
