package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pable/go-match-sim/internal/simerr"
)

// Preset is a named read-only query. Params names its positional arguments.
type Preset struct {
	Name   string
	Desc   string
	Params []string
	Query  string
}

var presets = []Preset{
	{
		Name: "pending",
		Desc: "duel log entries a stats sweep has not folded yet, per game",
		Query: `
			SELECT game_id,
				SUM(1 - included_in_player_stats) AS player_pending,
				SUM(1 - included_in_team_stats) AS team_pending
			FROM duel_log
			WHERE included_in_player_stats = 0 OR included_in_team_stats = 0
			GROUP BY game_id ORDER BY game_id`,
	},
	{
		Name: "due",
		Desc: "matches not started yet, oldest first",
		Query: `
			SELECT m.id, datetime(m.date, 'unixepoch') AS date, m.type, t1.name AS team1, t2.name AS team2
			FROM matches m
			JOIN teams t1 ON t1.id = m.team1_id
			JOIN teams t2 ON t2.id = m.team2_id
			WHERE m.started = 0 ORDER BY m.date, m.id`,
	},
	{
		Name: "killers",
		Desc: "top ten players by kills",
		Query: `
			SELECT p.id, p.nickname, SUM(s.kills) AS kills, SUM(s.deaths) AS deaths, COUNT(s.game_id) AS maps
			FROM player_game_stats s JOIN players p ON p.id = s.player_id
			GROUP BY p.id ORDER BY kills DESC, deaths ASC LIMIT 10`,
	},
	{
		Name:   "rounds",
		Desc:   "duels, trades and winner of each round of a game",
		Params: []string{"game-id"},
		Query: `
			SELECT round, COUNT(1) AS duels, SUM(trade) AS trades, MAX(winner_team_id) AS winner
			FROM duel_log WHERE game_id = ?
			GROUP BY round ORDER BY round`,
	},
	{
		Name:   "mvp",
		Desc:   "a match's players ranked by kills over its maps",
		Params: []string{"match-id"},
		Query: `
			SELECT p.nickname, s.team_id, SUM(s.kills) AS kills, SUM(s.deaths) AS deaths, SUM(s.assists) AS assists
			FROM player_game_stats s
			JOIN players p ON p.id = s.player_id
			JOIN games g ON g.id = s.game_id
			WHERE g.match_id = ?
			GROUP BY s.player_id ORDER BY kills DESC, deaths ASC`,
	},
}

// Presets returns the named queries, sorted by name.
func Presets() []Preset {
	out := slices.Clone(presets)
	slices.SortFunc(out, func(a, b Preset) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// RunPreset runs the named query with one argument per parameter.
func (db *DB) RunPreset(ctx context.Context, name string, args ...string) ([]string, [][]string, error) {
	i := slices.IndexFunc(presets, func(p Preset) bool { return p.Name == name })
	if i < 0 {
		return nil, nil, fmt.Errorf("unknown preset %q: %w", name, simerr.ErrInvalidInput)
	}
	p := presets[i]
	if len(args) != len(p.Params) {
		return nil, nil, fmt.Errorf("preset %s takes %d argument(s) [%s], got %d: %w",
			name, len(p.Params), strings.Join(p.Params, " "), len(args), simerr.ErrInvalidInput)
	}
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = a
	}
	return db.QueryRaw(ctx, p.Query, vals...)
}
