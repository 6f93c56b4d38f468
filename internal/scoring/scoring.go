// Package scoring holds the game, match and standings rules.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

const (
	// RoundsToWin is the regulation score threshold.
	RoundsToWin = 13
	// WinMargin is the lead required once the threshold is reached.
	WinMargin = 2
)

// GameDecided reports whether a score ends the game: one side has at least
// RoundsToWin and leads by at least WinMargin. 12-12 goes to overtime until
// someone is two rounds clear.
func GameDecided(team1Rounds, team2Rounds int) bool {
	if team1Rounds < RoundsToWin && team2Rounds < RoundsToWin {
		return false
	}
	return team1Rounds-team2Rounds >= WinMargin || team2Rounds-team1Rounds >= WinMargin
}

// GameWinner returns the winning team id for a score, or 0 if the game goes on.
func GameWinner(stats model.GameStats) int64 {
	if !GameDecided(stats.Team1Score, stats.Team2Score) {
		return 0
	}
	if stats.Team1Score > stats.Team2Score {
		return stats.Team1ID
	}
	return stats.Team2ID
}

// Format is the number of games a match type creates and the number needed to win.
type Format struct {
	Games      int
	GamesToWin int
}

// FormatFor returns the format of a match type.
func FormatFor(t model.MatchType) (Format, error) {
	switch t {
	case model.MatchBO1, model.MatchFriendly, model.MatchShowmatch:
		return Format{Games: 1, GamesToWin: 1}, nil
	case model.MatchBO3:
		return Format{Games: 3, GamesToWin: 2}, nil
	case model.MatchBO5:
		return Format{Games: 5, GamesToWin: 3}, nil
	default:
		return Format{}, fmt.Errorf("invalid match type %q: %w", t, simerr.ErrInvalidInput)
	}
}

// MatchWinner returns the team that reached GamesToWin, or 0.
func (f Format) MatchWinner(team1ID, team2ID int64, team1Games, team2Games int) int64 {
	switch {
	case team1Games >= f.GamesToWin:
		return team1ID
	case team2Games >= f.GamesToWin:
		return team2ID
	default:
		return 0
	}
}

// Tally folds finished games into a MatchResult for match m.
func Tally(m model.Match, f Format, games []model.GameResult) model.MatchResult {
	res := model.MatchResult{MatchID: m.ID}
	for _, g := range games {
		switch g.WinnerID {
		case m.Team1ID:
			res.Team1Games++
		case m.Team2ID:
			res.Team2Games++
		default:
			continue
		}
		res.Games = append(res.Games, g)
		if f.MatchWinner(m.Team1ID, m.Team2ID, res.Team1Games, res.Team2Games) != 0 {
			break
		}
	}
	res.WinnerID = f.MatchWinner(m.Team1ID, m.Team2ID, res.Team1Games, res.Team2Games)
	return res
}

// Rank sorts standings and assigns positions starting at 1. Order: wins desc,
// losses asc, maps won desc, maps lost asc, rounds won desc, rounds lost asc.
func Rank(rows []model.Standings) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		if a.MapsWon != b.MapsWon {
			return a.MapsWon > b.MapsWon
		}
		if a.MapsLost != b.MapsLost {
			return a.MapsLost < b.MapsLost
		}
		if a.RoundsWon != b.RoundsWon {
			return a.RoundsWon > b.RoundsWon
		}
		return a.RoundsLost < b.RoundsLost
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
}

// criterion extracts one sort key; asc keys sort smaller-first.
type criterion[T any] struct {
	key func(T) float64
	asc bool
}

func less[T any](criteria []criterion[T]) func(a, b T) bool {
	return func(a, b T) bool {
		for _, c := range criteria {
			ka, kb := c.key(a), c.key(b)
			if ka == kb {
				continue
			}
			if c.asc {
				return ka < kb
			}
			return ka > kb
		}
		return false
	}
}

var playerOrder = less([]criterion[model.PlayerAggregate]{
	{key: func(a model.PlayerAggregate) float64 { return round2(a.KDA()) }},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.Kills) }},
	{key: func(a model.PlayerAggregate) float64 { return round2(a.Winrate()) }},
	{key: func(a model.PlayerAggregate) float64 { return round2(a.MapWinrate()) }},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.Assists) }},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.MatchesWon) }},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.MapsWon) }},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.Deaths) }, asc: true},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.MatchesLost()) }, asc: true},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.MapsLost()) }, asc: true},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.MatchesPlayed) }},
	{key: func(a model.PlayerAggregate) float64 { return float64(a.MapsPlayed) }},
})

var teamOrder = less([]criterion[model.TeamAggregate]{
	{key: func(a model.TeamAggregate) float64 { return float64(a.TournamentsWon) }},
	{key: func(a model.TeamAggregate) float64 { return round2(a.Winrate()) }},
	{key: func(a model.TeamAggregate) float64 { return round2(a.MapWinrate()) }},
	{key: func(a model.TeamAggregate) float64 { return float64(a.MatchesWon) }},
	{key: func(a model.TeamAggregate) float64 { return float64(a.MapsWon) }},
	{key: func(a model.TeamAggregate) float64 { return float64(a.MatchesLost()) }, asc: true},
	{key: func(a model.TeamAggregate) float64 { return float64(a.MapsLost()) }, asc: true},
	{key: func(a model.TeamAggregate) float64 { return float64(a.MatchesPlayed) }},
	{key: func(a model.TeamAggregate) float64 { return float64(a.MapsPlayed) }},
})

// RankPlayers orders career totals best first: KDA, kills, match and map
// win rates, assists, wins, then fewest deaths and losses.
func RankPlayers(aggs []model.PlayerAggregate) {
	sort.SliceStable(aggs, func(i, j int) bool { return playerOrder(aggs[i], aggs[j]) })
}

// RankTeams orders team totals best first: tournaments won, win rates, wins,
// then fewest losses.
func RankTeams(aggs []model.TeamAggregate) {
	sort.SliceStable(aggs, func(i, j int) bool { return teamOrder(aggs[i], aggs[j]) })
}

// round2 keeps ratios comparable at the two decimals they are displayed with.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
