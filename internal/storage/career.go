package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/scoring"
	"github.com/pable/go-match-sim/internal/simerr"
)

// A player's maps and matches are credited to the team they played for in
// that game, so a transfer does not rewrite history.
const playerAggregateQuery = `
	SELECT p.id, p.nickname, p.team_id, p.role,
		COALESCE(SUM(CASE WHEN gs.winner_id != 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN gs.winner_id != 0 AND gs.winner_id = s.team_id THEN 1 ELSE 0 END), 0),
		COUNT(DISTINCT CASE WHEN m.winner_id != 0 THEN m.id END),
		COUNT(DISTINCT CASE WHEN m.winner_id != 0 AND m.winner_id = s.team_id THEN m.id END),
		COALESCE(SUM(s.kills), 0), COALESCE(SUM(s.deaths), 0), COALESCE(SUM(s.assists), 0)
	FROM players p
	LEFT JOIN player_game_stats s ON s.player_id = p.id
	LEFT JOIN game_stats gs ON gs.game_id = s.game_id
	LEFT JOIN games g ON g.id = s.game_id
	LEFT JOIN matches m ON m.id = g.match_id`

func scanPlayerAggregate(s scanner) (model.PlayerAggregate, error) {
	var a model.PlayerAggregate
	var role string
	err := s.Scan(&a.PlayerID, &a.Nickname, &a.TeamID, &role,
		&a.MapsPlayed, &a.MapsWon, &a.MatchesPlayed, &a.MatchesWon,
		&a.Kills, &a.Deaths, &a.Assists)
	a.Role = model.Role(role)
	return a, err
}

// PlayerAggregate returns one player's career totals.
func (db *DB) PlayerAggregate(ctx context.Context, playerID int64) (model.PlayerAggregate, error) {
	row := db.conn.QueryRowContext(ctx, playerAggregateQuery+` WHERE p.id = ? GROUP BY p.id`, playerID)
	a, err := scanPlayerAggregate(row)
	if err != nil {
		return a, notFound(err, simerr.NotFound("player", playerID))
	}
	return a, nil
}

// PlayerAggregates returns every player's career totals, best first.
func (db *DB) PlayerAggregates(ctx context.Context) ([]model.PlayerAggregate, error) {
	rows, err := db.conn.QueryContext(ctx, playerAggregateQuery+` GROUP BY p.id ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query player totals: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerAggregate
	for rows.Next() {
		a, err := scanPlayerAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	scoring.RankPlayers(out)
	return out, nil
}

// Only decided maps and matches count. Tournaments played are those with at
// least one decided map for the team.
const teamAggregateQuery = `
	SELECT t.id, t.name, t.short_name,
		(SELECT COUNT(DISTINCT m.tournament_id)
			FROM matches m
			JOIN games g ON g.match_id = m.id
			JOIN game_stats gs ON gs.game_id = g.id
			WHERE gs.winner_id != 0 AND (m.team1_id = t.id OR m.team2_id = t.id)),
		(SELECT COUNT(1) FROM tournaments tr WHERE tr.winner_id = t.id),
		(SELECT COUNT(1) FROM matches m WHERE m.winner_id != 0 AND (m.team1_id = t.id OR m.team2_id = t.id)),
		(SELECT COUNT(1) FROM matches m WHERE m.winner_id = t.id),
		(SELECT COUNT(1) FROM game_stats gs WHERE gs.winner_id != 0 AND (gs.team1_id = t.id OR gs.team2_id = t.id)),
		(SELECT COUNT(1) FROM game_stats gs WHERE gs.winner_id = t.id)
	FROM teams t`

func scanTeamAggregate(s scanner) (model.TeamAggregate, error) {
	var a model.TeamAggregate
	err := s.Scan(&a.TeamID, &a.Name, &a.ShortName,
		&a.TournamentsPlayed, &a.TournamentsWon,
		&a.MatchesPlayed, &a.MatchesWon, &a.MapsPlayed, &a.MapsWon)
	return a, err
}

// TeamAggregate returns one team's career totals.
func (db *DB) TeamAggregate(ctx context.Context, teamID int64) (model.TeamAggregate, error) {
	row := db.conn.QueryRowContext(ctx, teamAggregateQuery+` WHERE t.id = ?`, teamID)
	a, err := scanTeamAggregate(row)
	if err != nil {
		return a, notFound(err, simerr.NotFound("team", teamID))
	}
	return a, nil
}

// TeamAggregates returns every team's career totals, best first.
func (db *DB) TeamAggregates(ctx context.Context) ([]model.TeamAggregate, error) {
	rows, err := db.conn.QueryContext(ctx, teamAggregateQuery+` ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("query team totals: %w", err)
	}
	return collectTeamAggregates(rows)
}

func collectTeamAggregates(rows *sql.Rows) ([]model.TeamAggregate, error) {
	defer rows.Close()
	var out []model.TeamAggregate
	for rows.Next() {
		a, err := scanTeamAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	scoring.RankTeams(out)
	return out, nil
}
