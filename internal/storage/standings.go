package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/scoring"
	"github.com/pable/go-match-sim/internal/simerr"
)

// EnsureStandings creates an empty standings row for every team that lacks one.
func (db *DB) EnsureStandings(ctx context.Context, tournamentID int64, teamIDs []int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		return ensureStandings(ctx, tx, tournamentID, teamIDs...)
	})
}

func ensureStandings(ctx context.Context, tx *sql.Tx, tournamentID int64, teamIDs ...int64) error {
	for _, id := range teamIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO standings(tournament_id, team_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			tournamentID, id)
		if err != nil {
			return fmt.Errorf("create standings for team %d: %w", id, err)
		}
	}
	return nil
}

const standingsQuery = `
	SELECT s.tournament_id, s.team_id, t.name, s.wins, s.losses, s.maps_won, s.maps_lost,
		s.rounds_won, s.rounds_lost, s.position
	FROM standings s JOIN teams t ON t.id = s.team_id
	WHERE s.tournament_id = ?
	ORDER BY s.position, s.team_id`

func collectStandings(rows *sql.Rows) ([]model.Standings, error) {
	defer rows.Close()
	var out []model.Standings
	for rows.Next() {
		var s model.Standings
		err := rows.Scan(&s.TournamentID, &s.TeamID, &s.TeamName, &s.Wins, &s.Losses,
			&s.MapsWon, &s.MapsLost, &s.RoundsWon, &s.RoundsLost, &s.Position)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Standings returns a tournament's table ordered by position.
func (db *DB) Standings(ctx context.Context, tournamentID int64) ([]model.Standings, error) {
	rows, err := db.conn.QueryContext(ctx, standingsQuery, tournamentID)
	if err != nil {
		return nil, err
	}
	return collectStandings(rows)
}

// RecordMatchResult writes a match's accumulated result and folds it into the
// tournament standings, all in one transaction. Games and the match itself are
// gated by their included_in_standings flags, so recording the same result
// twice changes nothing.
func (db *DB) RecordMatchResult(ctx context.Context, res model.MatchResult) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		m, err := scanMatch(tx.QueryRowContext(ctx, `SELECT `+matchCols+` FROM matches WHERE id = ?`, res.MatchID))
		if err != nil {
			return notFound(err, simerr.NotFound("match", res.MatchID))
		}
		if err := ensureStandings(ctx, tx, m.TournamentID, m.Team1ID, m.Team2ID); err != nil {
			return err
		}

		for _, g := range res.Games {
			included, err := setOnce(ctx, tx, "games", g.GameID)
			if err != nil {
				return err
			}
			if !included {
				continue
			}
			win1, win2 := boolInt(g.WinnerID == m.Team1ID), boolInt(g.WinnerID == m.Team2ID)
			if err := addStandings(ctx, tx, m.TournamentID, m.Team1ID, 0, 0, win1, win2, g.Team1Rounds, g.Team2Rounds); err != nil {
				return err
			}
			if err := addStandings(ctx, tx, m.TournamentID, m.Team2ID, 0, 0, win2, win1, g.Team2Rounds, g.Team1Rounds); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE matches SET team1_score = ?, team2_score = ?, winner_id = ?, finished = ?
			WHERE id = ?`,
			res.Team1Games, res.Team2Games, res.WinnerID, boolInt(res.WinnerID != 0), m.ID)
		if err != nil {
			return fmt.Errorf("update match %d: %w", m.ID, err)
		}

		if res.WinnerID != 0 {
			included, err := setOnce(ctx, tx, "matches", m.ID)
			if err != nil {
				return err
			}
			if included {
				w1, w2 := boolInt(res.WinnerID == m.Team1ID), boolInt(res.WinnerID == m.Team2ID)
				if err := addStandings(ctx, tx, m.TournamentID, m.Team1ID, w1, w2, 0, 0, 0, 0); err != nil {
					return err
				}
				if err := addStandings(ctx, tx, m.TournamentID, m.Team2ID, w2, w1, 0, 0, 0, 0); err != nil {
					return err
				}
			}
		}

		if err := rerank(ctx, tx, m.TournamentID); err != nil {
			return err
		}
		return closeTournament(ctx, tx, m.TournamentID)
	})
}

// setOnce flips included_in_standings on a row and reports whether this call did it.
func setOnce(ctx context.Context, tx *sql.Tx, table string, id int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE `+table+` SET included_in_standings = 1 WHERE id = ? AND included_in_standings = 0`, id)
	if err != nil {
		return false, fmt.Errorf("flag %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func addStandings(ctx context.Context, tx *sql.Tx, tournamentID, teamID int64, wins, losses, mapsWon, mapsLost, roundsWon, roundsLost int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE standings SET
			wins = wins + ?, losses = losses + ?,
			maps_won = maps_won + ?, maps_lost = maps_lost + ?,
			rounds_won = rounds_won + ?, rounds_lost = rounds_lost + ?
		WHERE tournament_id = ? AND team_id = ?`,
		wins, losses, mapsWon, mapsLost, roundsWon, roundsLost, tournamentID, teamID)
	if err != nil {
		return fmt.Errorf("update standings of team %d: %w", teamID, err)
	}
	return nil
}

func rerank(ctx context.Context, tx *sql.Tx, tournamentID int64) error {
	rows, err := tx.QueryContext(ctx, standingsQuery, tournamentID)
	if err != nil {
		return err
	}
	table, err := collectStandings(rows)
	if err != nil {
		return err
	}
	scoring.Rank(table)

	stmt, err := tx.PrepareContext(ctx, `UPDATE standings SET position = ? WHERE tournament_id = ? AND team_id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, s := range table {
		if _, err := stmt.ExecContext(ctx, s.Position, tournamentID, s.TeamID); err != nil {
			return fmt.Errorf("rank team %d: %w", s.TeamID, err)
		}
	}
	return nil
}

// closeTournament ends the tournament once every match has a winner.
func closeTournament(ctx context.Context, tx *sql.Tx, tournamentID int64) error {
	var open int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM matches WHERE tournament_id = ? AND winner_id = 0`, tournamentID).Scan(&open)
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE tournaments SET ended = 1, winner_id = COALESCE(
			(SELECT team_id FROM standings WHERE tournament_id = ? AND position = 1), 0)
		WHERE id = ? AND ended = 0`, tournamentID, tournamentID)
	if err != nil {
		return fmt.Errorf("close tournament %d: %w", tournamentID, err)
	}
	return nil
}
