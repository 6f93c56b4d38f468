package tournament

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
	"github.com/pable/go-match-sim/internal/storage"
)

func TestPairings(t *testing.T) {
	pairs := Pairings([]int64{1, 2, 3, 4})
	if len(pairs) != 6 {
		t.Fatalf("pairs = %d, want 6", len(pairs))
	}
	seen := make(map[[2]int64]bool)
	for _, p := range pairs {
		if p[0] == p[1] {
			t.Errorf("self pairing %v", p)
		}
		if seen[p] || seen[[2]int64{p[1], p[0]}] {
			t.Errorf("duplicate pairing %v", p)
		}
		seen[p] = true
	}

	if got := Pairings([]int64{1, 2, 1}); len(got) != 1 {
		t.Errorf("duplicate ids produced %d pairs, want 1", len(got))
	}
}

func TestRandomDateWithinRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)
	for i := 0; i < 1000; i++ {
		d := RandomDate(rng, start, end)
		if d.Before(start) || d.After(end) {
			t.Fatalf("date %v outside [%v, %v]", d, start, end)
		}
	}
	if d := RandomDate(rng, end, start); !d.Equal(end) {
		t.Errorf("empty range: got %v, want %v", d, end)
	}
}

func TestSeed(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	p := NewPlanner(db, rand.New(rand.NewPCG(3, 4)))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tour, matches, err := p.Seed(ctx, SeedOptions{Teams: 4, Type: model.MatchBO3, Start: start, End: start.Add(48 * time.Hour)})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(matches) != 6 {
		t.Fatalf("matches = %d, want 6", len(matches))
	}
	for _, m := range matches {
		games, err := db.MatchGames(ctx, m.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(games) != 3 {
			t.Errorf("match %d has %d games, want 3", m.ID, len(games))
		}
		if m.Date.Before(tour.StartDate) || m.Date.After(tour.EndDate) {
			t.Errorf("match %d dated %v outside the tournament", m.ID, m.Date)
		}
		l, err := db.Lineup(ctx, games[0].ID)
		if err != nil {
			t.Fatal(err)
		}
		for _, pl := range append(l.Team1, l.Team2...) {
			for _, v := range pl.Attributes {
				if v < 0 || v > MaxAttribute {
					t.Fatalf("attribute %v out of range", v)
				}
			}
		}
	}

	table, err := db.Standings(ctx, tour.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 4 {
		t.Errorf("standings rows = %d, want 4", len(table))
	}
}

func TestSeedRejectsBadInput(t *testing.T) {
	p := NewPlanner(nil, rand.New(rand.NewPCG(5, 6)))
	now := time.Now()
	if _, _, err := p.Seed(context.Background(), SeedOptions{Teams: 1, Type: model.MatchBO1, Start: now, End: now}); !errors.Is(err, simerr.ErrInvalidInput) {
		t.Errorf("one team: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := p.Seed(context.Background(), SeedOptions{Teams: 2, Start: now, End: now.Add(-time.Hour)}); !errors.Is(err, simerr.ErrInvalidInput) {
		t.Errorf("reversed dates: got %v, want ErrInvalidInput", err)
	}
	// rejected before any team is written, so a nil store is never touched
	if _, _, err := p.Seed(context.Background(), SeedOptions{Teams: 2, Type: "BO7", Start: now, End: now}); !errors.Is(err, simerr.ErrInvalidInput) {
		t.Errorf("unknown type: got %v, want ErrInvalidInput", err)
	}
}
