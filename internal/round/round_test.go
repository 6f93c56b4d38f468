package round

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

const (
	team1 int64 = 100
	team2 int64 = 200
)

// makeLineup builds two five-player teams with ids 1..5 and 6..10.
func makeLineup(rng *rand.Rand) model.Lineup {
	l := model.Lineup{Team1ID: team1, Team2ID: team2}
	for i := int64(1); i <= 10; i++ {
		attrs := model.NewAttributes(0)
		for _, a := range model.AllAttributes {
			attrs[a] = float64(rng.IntN(4))
		}
		p := model.Player{ID: i, Role: model.AllRoles[int(i)%len(model.AllRoles)], Attributes: attrs}
		if i <= 5 {
			p.TeamID = team1
			l.Team1 = append(l.Team1, p)
		} else {
			p.TeamID = team2
			l.Team2 = append(l.Team2, p)
		}
	}
	return l
}

func alive(s model.RoundState) int {
	return len(s.Team1Alive) + len(s.Team2Alive)
}

func TestStepInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	st := NewStepper(rng)
	for trial := 0; trial < 200; trial++ {
		l := makeLineup(rng)
		s := Start(l, 1)
		var entries []model.DuelLogEntry
		for !s.Finished {
			before := alive(s)
			next, entry, err := st.Step(9, s)
			if err != nil {
				t.Fatalf("Step: %v", err)
			}
			if alive(next) != before-1 {
				t.Fatalf("alive went from %d to %d", before, alive(next))
			}
			empty := len(next.Team1Alive) == 0 || len(next.Team2Alive) == 0
			if next.Finished != empty {
				t.Fatalf("finished=%v but empty side=%v", next.Finished, empty)
			}
			if entry.RoundFinished != next.Finished || entry.WinnerTeamID != next.TeamWon {
				t.Fatalf("entry snapshot %+v does not match state", entry)
			}
			entries = append(entries, entry)
			s = next
		}
		switch {
		case len(s.Team1Alive) > 0 && s.TeamWon != team1:
			t.Fatalf("team1 alive but winner %d", s.TeamWon)
		case len(s.Team2Alive) > 0 && s.TeamWon != team2:
			t.Fatalf("team2 alive but winner %d", s.TeamWon)
		}

		folded, err := Fold(l, 1, entries)
		if err != nil {
			t.Fatalf("Fold: %v", err)
		}
		if folded.Finished != s.Finished || folded.TeamWon != s.TeamWon || alive(folded) != alive(s) {
			t.Fatalf("folded state %+v differs from stepped state %+v", folded, s)
		}
	}
}

func TestStepFinishedRound(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	l := makeLineup(rng)
	s := Start(l, 3)
	s.Team2Alive = nil
	s.Finished = true
	if _, _, err := NewStepper(rng).Step(1, s); !errors.Is(err, simerr.ErrInvalidState) {
		t.Errorf("got %v, want ErrInvalidState", err)
	}
}

func TestStartCapsRoster(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	l := makeLineup(rng)
	l.Team1 = append(l.Team1, model.Player{ID: 11, TeamID: team1})
	s := Start(l, 1)
	if len(s.Team1Alive) != model.RosterSize {
		t.Errorf("team1 alive = %d, want %d", len(s.Team1Alive), model.RosterSize)
	}
}

func TestFoldRejectsDeadDuelist(t *testing.T) {
	rng := rand.New(rand.NewPCG(4, 4))
	l := makeLineup(rng)
	entries := []model.DuelLogEntry{
		{ID: 1, Round: 1, Team1PlayerID: 1, Team2PlayerID: 6, KilledPlayerID: 1},
		{ID: 2, Round: 1, Team1PlayerID: 1, Team2PlayerID: 7, KilledPlayerID: 7},
	}
	if _, err := Fold(l, 1, entries); !errors.Is(err, simerr.ErrInvalidState) {
		t.Errorf("got %v, want ErrInvalidState", err)
	}
}

func TestFoldTracksPreviousDuel(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	l := makeLineup(rng)
	entries := []model.DuelLogEntry{
		{ID: 1, Round: 2, Team1PlayerID: 1, Team2PlayerID: 6, KilledPlayerID: 1, StartsTrade: true},
		{ID: 2, Round: 2, Team1PlayerID: 2, Team2PlayerID: 6, KilledPlayerID: 6, Trade: true},
	}
	s, err := Fold(l, 2, entries)
	if err != nil {
		t.Fatal(err)
	}
	if s.Duel == nil || s.Duel.WinnerID != 2 || !s.Duel.Trade {
		t.Errorf("unexpected duel %+v", s.Duel)
	}
	if s.PreviousDuel == nil || s.PreviousDuel.WinnerID != 6 || !s.PreviousDuel.StartsTrade {
		t.Errorf("unexpected previous duel %+v", s.PreviousDuel)
	}
	if len(s.Team1Alive) != 4 || len(s.Team2Alive) != 4 {
		t.Errorf("alive %d/%d, want 4/4", len(s.Team1Alive), len(s.Team2Alive))
	}
}

func TestPickForcesTradeWinner(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 6))
	l := makeLineup(rng)
	s := Start(l, 1)
	s.Team1Alive = s.Team1Alive[1:]
	s.Duel = &model.DuelResult{WinnerID: 8, LoserID: 1, StartsTrade: true}

	for i := 0; i < 100; i++ {
		p1, p2, err := Pick(rng, s)
		if err != nil {
			t.Fatal(err)
		}
		if p2.ID != 8 {
			t.Fatalf("trade winner not forced: got %d", p2.ID)
		}
		if p1.TeamID != team1 {
			t.Fatalf("opponent %d is not on team1", p1.ID)
		}
	}
}

func TestWeightedFloorsZeroWeights(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	only := []model.Player{{ID: 1, Role: model.Role("Unknown")}}
	p, err := Weighted(rng, only, func(p model.Player) int { return SelectWeight(p, false) })
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 1 {
		t.Errorf("got %d, want 1", p.ID)
	}
	if _, err := Weighted(rng, nil, func(model.Player) int { return 1 }); !errors.Is(err, simerr.ErrInvalidState) {
		t.Errorf("empty candidates: got %v, want ErrInvalidState", err)
	}
}

func TestWeightedProportions(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 8))
	cands := []model.Player{
		{ID: 1, Role: model.RoleInitiator}, // 35
		{ID: 2, Role: model.RoleSentinel},  // 1
	}
	const n = 20000
	hits := 0
	for i := 0; i < n; i++ {
		p, err := Weighted(rng, cands, func(p model.Player) int { return SelectWeight(p, false) })
		if err != nil {
			t.Fatal(err)
		}
		if p.ID == 1 {
			hits++
		}
	}
	ratio := float64(hits) / n
	if want := 35.0 / 36.0; ratio < want-0.02 || ratio > want+0.02 {
		t.Errorf("initiator ratio = %.3f, want ~%.3f", ratio, want)
	}
}
