package round

import (
	"fmt"
	"math"

	"github.com/pable/go-match-sim/internal/chance"
	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

// SelectWeight is a player's integer selection weight. It is floored at 1 so
// that a role without a select buff can still be drawn.
func SelectWeight(p model.Player, isTrade bool) int {
	w := int(math.Round(chance.SelectBuff(p.Role, isTrade) * 100))
	return max(w, 1)
}

// Weighted draws one candidate with probability proportional to weight(candidate).
// Non-positive weights are treated as 1.
func Weighted(rng chance.Rand, candidates []model.Player, weight func(model.Player) int) (model.Player, error) {
	if len(candidates) == 0 {
		return model.Player{}, fmt.Errorf("no candidates to select from: %w", simerr.ErrInvalidState)
	}
	weights := make([]int, len(candidates))
	total := 0
	for i, c := range candidates {
		weights[i] = max(weight(c), 1)
		total += weights[i]
	}
	r := rng.IntN(total)
	for i, w := range weights {
		if r < w {
			return candidates[i], nil
		}
		r -= w
	}
	return candidates[len(candidates)-1], nil
}

// Pick chooses the next two duelists. When the previous duel opened a trade
// chain its winner is forced back in and only the opposing side is drawn.
func Pick(rng chance.Rand, s model.RoundState) (model.Player, model.Player, error) {
	isTrade := s.TradeHappening()
	weight := func(p model.Player) int { return SelectWeight(p, isTrade) }

	if isTrade {
		forced := s.Duel.WinnerID
		if p, ok := find(s.Team1Alive, forced); ok {
			other, err := Weighted(rng, s.Team2Alive, weight)
			return p, other, err
		}
		if p, ok := find(s.Team2Alive, forced); ok {
			other, err := Weighted(rng, s.Team1Alive, weight)
			return other, p, err
		}
		return model.Player{}, model.Player{}, fmt.Errorf("trade winner %d is not alive in round %d: %w", forced, s.Round, simerr.ErrInvalidState)
	}

	p1, err := Weighted(rng, s.Team1Alive, weight)
	if err != nil {
		return model.Player{}, model.Player{}, err
	}
	p2, err := Weighted(rng, s.Team2Alive, weight)
	if err != nil {
		return model.Player{}, model.Player{}, err
	}
	return p1, p2, nil
}
