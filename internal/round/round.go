// Package round implements the round state machine.
//
// A round's state is never stored. Fold rebuilds it from the round's duel log
// entries, and Step produces the next state together with the entry that
// records it.
package round

import (
	"fmt"

	"github.com/pable/go-match-sim/internal/chance"
	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

// Start returns round n before its first duel, with both full rosters alive.
func Start(l model.Lineup, n int) model.RoundState {
	return model.RoundState{
		Round:      n,
		Team1ID:    l.Team1ID,
		Team2ID:    l.Team2ID,
		Team1Alive: roster(l.Team1),
		Team2Alive: roster(l.Team2),
	}
}

func roster(players []model.Player) []model.Player {
	n := min(len(players), model.RosterSize)
	out := make([]model.Player, n)
	copy(out, players[:n])
	return out
}

// Fold replays the entries of round n, ordered by id, on top of Start.
func Fold(l model.Lineup, n int, entries []model.DuelLogEntry) (model.RoundState, error) {
	s := Start(l, n)
	for _, e := range entries {
		if e.Round != n {
			return s, fmt.Errorf("entry %d belongs to round %d, not %d: %w", e.ID, e.Round, n, simerr.ErrInvalidInput)
		}
		if s.Finished {
			return s, fmt.Errorf("entry %d follows the end of round %d: %w", e.ID, n, simerr.ErrInvalidState)
		}
		p1, ok1 := find(s.Team1Alive, e.Team1PlayerID)
		p2, ok2 := find(s.Team2Alive, e.Team2PlayerID)
		if !ok1 || !ok2 {
			return s, fmt.Errorf("entry %d: duelists %d/%d not alive: %w", e.ID, e.Team1PlayerID, e.Team2PlayerID, simerr.ErrInvalidState)
		}
		if e.KilledPlayerID != p1.ID && e.KilledPlayerID != p2.ID {
			return s, fmt.Errorf("entry %d: killed player %d did not duel: %w", e.ID, e.KilledPlayerID, simerr.ErrInvalidState)
		}
		s = apply(s, e.WinnerID(), e.KilledPlayerID, e.Trade, e.StartsTrade)
	}
	return s, nil
}

func find(players []model.Player, id int64) (model.Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return model.Player{}, false
}

func without(players []model.Player, id int64) []model.Player {
	out := make([]model.Player, 0, len(players))
	for _, p := range players {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// apply removes the loser and records the duel. It never mutates s's slices.
func apply(s model.RoundState, winnerID, loserID int64, trade, startsTrade bool) model.RoundState {
	next := model.RoundState{
		Round:        s.Round,
		Team1ID:      s.Team1ID,
		Team2ID:      s.Team2ID,
		Team1Alive:   without(s.Team1Alive, loserID),
		Team2Alive:   without(s.Team2Alive, loserID),
		PreviousDuel: s.Duel,
	}
	switch {
	case len(next.Team1Alive) == 0:
		next.Finished, next.TeamWon = true, s.Team2ID
	case len(next.Team2Alive) == 0:
		next.Finished, next.TeamWon = true, s.Team1ID
	}
	next.Duel = &model.DuelResult{
		WinnerID:    winnerID,
		LoserID:     loserID,
		Trade:       trade,
		StartsTrade: startsTrade && !next.Finished,
	}
	return next
}

// Stepper plays one duel at a time.
type Stepper struct {
	rng      chance.Rand
	resolver *chance.Resolver
}

// NewStepper returns a Stepper using rng for selection and resolution.
func NewStepper(rng chance.Rand) *Stepper {
	return &Stepper{rng: rng, resolver: chance.NewResolver(rng)}
}

// Step selects two duelists, resolves the duel and returns the resulting state
// along with the log entry to append. The entry's ID is left zero.
func (st *Stepper) Step(gameID int64, s model.RoundState) (model.RoundState, model.DuelLogEntry, error) {
	if s.Finished || len(s.Team1Alive) == 0 || len(s.Team2Alive) == 0 {
		return s, model.DuelLogEntry{}, fmt.Errorf("game %d round %d already finished: %w", gameID, s.Round, simerr.ErrInvalidState)
	}
	isTrade := s.TradeHappening()
	p1, p2, err := Pick(st.rng, s)
	if err != nil {
		return s, model.DuelLogEntry{}, err
	}
	out, err := st.resolver.Resolve(p1, p2, isTrade)
	if err != nil {
		return s, model.DuelLogEntry{}, fmt.Errorf("resolve duel %d vs %d: %w", p1.ID, p2.ID, err)
	}

	next := apply(s, out.Winner.ID, out.Loser.ID, isTrade, out.StartsTradeChain)
	entry := model.DuelLogEntry{
		GameID:         gameID,
		Round:          s.Round,
		Team1PlayerID:  p1.ID,
		Team2PlayerID:  p2.ID,
		KilledPlayerID: out.Loser.ID,
		Trade:          isTrade,
		StartsTrade:    next.Duel.StartsTrade,
		DuelBuff:       chance.DuelWinBuff(out.Winner.Role),
		TradeBuff:      chance.TradeWinBuff(out.Winner.Role),
		RoundFinished:  next.Finished,
		WinnerTeamID:   next.TeamWon,
	}
	return next, entry, nil
}
