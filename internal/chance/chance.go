// Package chance resolves duels between two players.
//
// A player's chance is the sum of their per-attribute advantages over the
// opponent, scaled by a role buff and floored at 1. The winner is drawn
// proportionally to the two chances.
package chance

import (
	"fmt"
	"math"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

// Rand is the uniform integer source used for every draw. *math/rand/v2.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// BaseTradeChancePct is the chance, in percent, that any kill opens a trade chain.
const BaseTradeChancePct = 10

// chanceScale converts float chances into integer draw units.
const chanceScale = 1000

var counters = map[model.Attribute]model.Attribute{
	model.Clutch:      model.Awareness,
	model.Awareness:   model.GameReading,
	model.GameReading: model.Aim,
	model.Aim:         model.Positioning,
	model.Positioning: model.Clutch,

	model.Resilience:     model.Confidence,
	model.Confidence:     model.GameSense,
	model.GameSense:      model.DecisionMaking,
	model.DecisionMaking: model.Resilience,

	model.Strategy:     model.Adaptability,
	model.Adaptability: model.Strategy,

	model.Communication:    model.Unpredictability,
	model.Unpredictability: model.UtilityUsage,
	model.UtilityUsage:     model.Teamwork,
	model.Teamwork:         model.Communication,

	model.RageFuel: model.RageFuel,
}

// Counter returns the opposing attribute subtracted when computing an advantage on a.
func Counter(a model.Attribute) (model.Attribute, bool) {
	c, ok := counters[a]
	return c, ok
}

// Advantage returns max(0, a[attr] - b[counter(attr)]).
func Advantage(attr model.Attribute, a, b model.Attributes) float64 {
	c, ok := counters[attr]
	if !ok {
		return 0
	}
	return math.Max(0, a[attr]-b[c])
}

// BaseChances sums each player's advantages over the other, before buffs.
// The two attribute sets must name exactly the same attributes.
func BaseChances(p1, p2 model.Player) (float64, float64, error) {
	if err := matchAttributes(p1.Attributes, p2.Attributes); err != nil {
		return 0, 0, fmt.Errorf("players %d and %d: %w", p1.ID, p2.ID, err)
	}
	var c1, c2 float64
	for attr := range p1.Attributes {
		c1 += Advantage(attr, p1.Attributes, p2.Attributes)
		c2 += Advantage(attr, p2.Attributes, p1.Attributes)
	}
	return c1, c2, nil
}

func matchAttributes(a, b model.Attributes) error {
	if len(a) != len(b) {
		return fmt.Errorf("player attributes do not match: %w", simerr.ErrInvalidInput)
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return fmt.Errorf("player attributes do not match on %s: %w", k, simerr.ErrInvalidInput)
		}
		if _, ok := counters[k]; !ok {
			return fmt.Errorf("unknown attribute %s: %w", k, simerr.ErrInvalidInput)
		}
	}
	return nil
}

// Chances returns both players' final chances with role buffs applied.
func Chances(p1, p2 model.Player, isTrade bool) (float64, float64, error) {
	c1, c2, err := BaseChances(p1, p2)
	if err != nil {
		return 0, 0, err
	}
	c1 = math.Max(1, c1*(1+WinBuff(p1.Role, isTrade)))
	c2 = math.Max(1, c2*(1+WinBuff(p2.Role, isTrade)))
	if !finite(c1) || !finite(c2) {
		return 0, 0, fmt.Errorf("duel chances %v/%v are not finite: %w", c1, c2, simerr.ErrInvalidInput)
	}
	return c1, c2, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Outcome is the result of one duel.
type Outcome struct {
	Winner           model.Player
	Loser            model.Player
	StartsTradeChain bool
}

// Resolver draws duel winners from a Rand.
type Resolver struct {
	rng Rand
}

// NewResolver returns a Resolver drawing from rng.
func NewResolver(rng Rand) *Resolver {
	return &Resolver{rng: rng}
}

// Resolve fights p1 against p2.
func (r *Resolver) Resolve(p1, p2 model.Player, isTrade bool) (Outcome, error) {
	if p1.ID == p2.ID {
		return Outcome{}, fmt.Errorf("player %d cannot duel itself: %w", p1.ID, simerr.ErrInvalidInput)
	}
	c1, c2, err := Chances(p1, p2, isTrade)
	if err != nil {
		return Outcome{}, err
	}
	u1, u2 := units(c1), units(c2)
	if u1 > math.MaxInt/2 || u2 > math.MaxInt/2 {
		return Outcome{}, fmt.Errorf("duel chances %v/%v overflow: %w", c1, c2, simerr.ErrInvalidInput)
	}

	out := Outcome{Winner: p2, Loser: p1}
	if r.rng.IntN(u1+u2) < u1 {
		out = Outcome{Winner: p1, Loser: p2}
	}
	out.StartsTradeChain = r.startsTradeChain(out.Winner)
	return out, nil
}

func units(c float64) int {
	return int(math.Round(c * chanceScale))
}

// TradeChancePct returns the percent chance that a kill by a player with role r opens a trade chain.
func TradeChancePct(r model.Role) int {
	pct := BaseTradeChancePct + int(math.Round(TradeSelectBuff(r)*100))
	return min(pct, 100)
}

func (r *Resolver) startsTradeChain(winner model.Player) bool {
	return r.rng.IntN(100) < TradeChancePct(winner.Role)
}
