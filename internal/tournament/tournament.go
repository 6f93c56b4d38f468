// Package tournament pairs teams into matches and seeds demo data.
package tournament

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-match-sim/internal/chance"
	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/scoring"
	"github.com/pable/go-match-sim/internal/simerr"
)

// MaxAttribute is the highest value a generated attribute can take.
const MaxAttribute = 3

// Store is the persistence the planner writes to.
type Store interface {
	InsertTeam(ctx context.Context, t model.Team) (int64, error)
	InsertPlayers(ctx context.Context, players []model.Player) ([]int64, error)
	InsertTournament(ctx context.Context, t model.Tournament) (int64, error)
	InsertMatch(ctx context.Context, m model.Match, games []model.Game) (model.Match, []model.Game, error)
	EnsureStandings(ctx context.Context, tournamentID int64, teamIDs []int64) error
}

// Pairings returns every unordered pair of distinct teams exactly once, in input order.
func Pairings(teamIDs []int64) [][2]int64 {
	seen := make(map[[2]int64]bool)
	var out [][2]int64
	for i, a := range teamIDs {
		for _, b := range teamIDs[i+1:] {
			if a == b {
				continue
			}
			key := [2]int64{min(a, b), max(a, b)}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, [2]int64{a, b})
		}
	}
	return out
}

// RandomDate returns a time uniformly drawn between start and end, to the second.
func RandomDate(rng chance.Rand, start, end time.Time) time.Time {
	span := end.Unix() - start.Unix()
	if span <= 0 {
		return start
	}
	return time.Unix(start.Unix()+int64(rng.IntN(int(span)+1)), 0).UTC()
}

// Planner creates matches for a tournament.
type Planner struct {
	store Store
	rng   chance.Rand
}

// NewPlanner returns a Planner drawing dates and maps from rng.
func NewPlanner(store Store, rng chance.Rand) *Planner {
	return &Planner{store: store, rng: rng}
}

// Schedule creates one match of type typ for every pair of teams, each with
// the number of games the type requires, and an empty standings row per team.
func (p *Planner) Schedule(ctx context.Context, t model.Tournament, teamIDs []int64, typ model.MatchType) ([]model.Match, error) {
	format, err := scoring.FormatFor(typ)
	if err != nil {
		return nil, err
	}
	if err := p.store.EnsureStandings(ctx, t.ID, teamIDs); err != nil {
		return nil, err
	}

	var matches []model.Match
	for _, pair := range Pairings(teamIDs) {
		date := RandomDate(p.rng, t.StartDate, t.EndDate)
		games := make([]model.Game, format.Games)
		for i := range games {
			games[i] = model.Game{Number: i + 1, Map: model.Maps[p.rng.IntN(len(model.Maps))], Date: date}
		}
		m, _, err := p.store.InsertMatch(ctx, model.Match{
			TournamentID: t.ID, Date: date, Type: typ, Team1ID: pair[0], Team2ID: pair[1],
		}, games)
		if err != nil {
			return matches, fmt.Errorf("schedule %d vs %d: %w", pair[0], pair[1], err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// SeedOptions describes a generated tournament.
type SeedOptions struct {
	Name  string
	Teams int
	Type  model.MatchType
	Start time.Time
	End   time.Time
}

// Seed creates teams of random players, a tournament between them and its matches.
func (p *Planner) Seed(ctx context.Context, opts SeedOptions) (model.Tournament, []model.Match, error) {
	if opts.Teams < 2 {
		return model.Tournament{}, nil, fmt.Errorf("need at least 2 teams, got %d: %w", opts.Teams, simerr.ErrInvalidInput)
	}
	if opts.End.Before(opts.Start) {
		return model.Tournament{}, nil, fmt.Errorf("tournament ends before it starts: %w", simerr.ErrInvalidInput)
	}
	if _, err := scoring.FormatFor(opts.Type); err != nil {
		return model.Tournament{}, nil, err
	}
	if opts.Name == "" {
		opts.Name = "Cup " + shortID()
	}

	teamIDs := make([]int64, 0, opts.Teams)
	for i := 0; i < opts.Teams; i++ {
		tag := shortID()
		id, err := p.store.InsertTeam(ctx, model.Team{Name: "Team " + tag, ShortName: strings.ToUpper(tag[:3])})
		if err != nil {
			return model.Tournament{}, nil, err
		}
		if _, err := p.store.InsertPlayers(ctx, p.RandomRoster(id)); err != nil {
			return model.Tournament{}, nil, err
		}
		teamIDs = append(teamIDs, id)
	}

	t := model.Tournament{Name: opts.Name, StartDate: opts.Start, EndDate: opts.End}
	var err error
	if t.ID, err = p.store.InsertTournament(ctx, t); err != nil {
		return t, nil, err
	}
	matches, err := p.Schedule(ctx, t, teamIDs, opts.Type)
	return t, matches, err
}

// RandomRoster returns a full roster for teamID with random roles and attributes in [0, MaxAttribute].
func (p *Planner) RandomRoster(teamID int64) []model.Player {
	players := make([]model.Player, model.RosterSize)
	for i := range players {
		attrs := model.NewAttributes(0)
		for _, a := range model.AllAttributes {
			attrs[a] = float64(p.rng.IntN(MaxAttribute + 1))
		}
		players[i] = model.Player{
			Nickname:   "player-" + shortID(),
			TeamID:     teamID,
			Role:       model.AllRoles[p.rng.IntN(len(model.AllRoles))],
			Attributes: attrs,
		}
	}
	return players
}

func shortID() string {
	return uuid.NewString()[:8]
}
