package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

type scanner interface {
	Scan(dest ...any) error
}

// ---- teams and players ----

// InsertTeam stores a team and returns its id.
func (db *DB) InsertTeam(ctx context.Context, t model.Team) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO teams(name, short_name) VALUES (?, ?)`, t.Name, t.ShortName)
	if err != nil {
		return 0, fmt.Errorf("insert team %s: %w", t.Name, err)
	}
	return res.LastInsertId()
}

// InsertPlayers bulk-inserts players in a transaction and returns their ids in order.
func (db *DB) InsertPlayers(ctx context.Context, players []model.Player) ([]int64, error) {
	ids := make([]int64, 0, len(players))
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO players(nickname, team_id, role, attributes) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, p := range players {
			attrs, err := json.Marshal(p.Attributes)
			if err != nil {
				return fmt.Errorf("encode attributes for %s: %w", p.Nickname, err)
			}
			res, err := stmt.ExecContext(ctx, p.Nickname, p.TeamID, string(p.Role), string(attrs))
			if err != nil {
				return fmt.Errorf("insert player %s: %w", p.Nickname, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Teams returns every team ordered by id.
func (db *DB) Teams(ctx context.Context) ([]model.Team, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, short_name FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.ShortName); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TeamPlayers returns the active roster of a team: its first RosterSize players by id.
func (db *DB) TeamPlayers(ctx context.Context, teamID int64) ([]model.Player, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, nickname, team_id, role, attributes
		FROM players WHERE team_id = ?
		ORDER BY id LIMIT ?`, teamID, model.RosterSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Player
	for rows.Next() {
		var p model.Player
		var role, attrs string
		if err := rows.Scan(&p.ID, &p.Nickname, &p.TeamID, &role, &attrs); err != nil {
			return nil, err
		}
		p.Role = model.Role(role)
		raw := make(map[string]float64)
		if err := json.Unmarshal([]byte(attrs), &raw); err != nil {
			return nil, fmt.Errorf("decode attributes of player %d: %w", p.ID, simerr.ErrInvalidInput)
		}
		if p.Attributes, err = model.ParseAttributes(raw); err != nil {
			return nil, fmt.Errorf("player %d: %w", p.ID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ---- tournaments ----

// InsertTournament stores a tournament and returns its id.
func (db *DB) InsertTournament(ctx context.Context, t model.Tournament) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO tournaments(name, start_date, end_date, started, ended, winner_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.StartDate.Unix(), t.EndDate.Unix(), boolInt(t.Started), boolInt(t.Ended), t.WinnerID)
	if err != nil {
		return 0, fmt.Errorf("insert tournament %s: %w", t.Name, err)
	}
	return res.LastInsertId()
}

const tournamentCols = `id, name, start_date, end_date, started, ended, winner_id`

func scanTournament(s scanner) (model.Tournament, error) {
	var t model.Tournament
	var start, end int64
	var started, ended int
	if err := s.Scan(&t.ID, &t.Name, &start, &end, &started, &ended, &t.WinnerID); err != nil {
		return t, err
	}
	t.StartDate, t.EndDate = time.Unix(start, 0).UTC(), time.Unix(end, 0).UTC()
	t.Started, t.Ended = started == 1, ended == 1
	return t, nil
}

// GetTournament returns a tournament by id.
func (db *DB) GetTournament(ctx context.Context, id int64) (model.Tournament, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+tournamentCols+` FROM tournaments WHERE id = ?`, id)
	t, err := scanTournament(row)
	if err != nil {
		return t, notFound(err, simerr.NotFound("tournament", id))
	}
	return t, nil
}

// ListTournaments returns all tournaments, newest first.
func (db *DB) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+tournamentCols+` FROM tournaments ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- matches and games ----

const matchCols = `id, tournament_id, date, type, team1_id, team2_id, team1_score, team2_score,
	winner_id, started, finished, included_in_standings`

func scanMatch(s scanner) (model.Match, error) {
	var m model.Match
	var date int64
	var typ string
	var started, finished, included int
	err := s.Scan(&m.ID, &m.TournamentID, &date, &typ, &m.Team1ID, &m.Team2ID,
		&m.Team1Score, &m.Team2Score, &m.WinnerID, &started, &finished, &included)
	if err != nil {
		return m, err
	}
	m.Date = time.Unix(date, 0).UTC()
	m.Type = model.MatchType(typ)
	m.Started, m.Finished, m.IncludedInStandings = started == 1, finished == 1, included == 1
	return m, nil
}

func collectMatches(rows *sql.Rows) ([]model.Match, error) {
	defer rows.Close()
	var out []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertMatch stores a match with its games, creating an empty GameStats row per game.
// The returned games carry their ids.
func (db *DB) InsertMatch(ctx context.Context, m model.Match, games []model.Game) (model.Match, []model.Game, error) {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO matches(tournament_id, date, type, team1_id, team2_id)
			VALUES (?, ?, ?, ?, ?)`,
			m.TournamentID, m.Date.Unix(), string(m.Type), m.Team1ID, m.Team2ID)
		if err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		gameStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO games(match_id, number, map, date) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer gameStmt.Close()
		statsStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO game_stats(game_id, team1_id, team2_id) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer statsStmt.Close()

		for i := range games {
			games[i].MatchID = m.ID
			res, err := gameStmt.ExecContext(ctx, m.ID, games[i].Number, games[i].Map, games[i].Date.Unix())
			if err != nil {
				return fmt.Errorf("insert game %d of match %d: %w", games[i].Number, m.ID, err)
			}
			if games[i].ID, err = res.LastInsertId(); err != nil {
				return err
			}
			if _, err := statsStmt.ExecContext(ctx, games[i].ID, m.Team1ID, m.Team2ID); err != nil {
				return fmt.Errorf("insert game_stats for game %d: %w", games[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return m, nil, err
	}
	return m, games, nil
}

// GetMatch returns a match by id.
func (db *DB) GetMatch(ctx context.Context, id int64) (model.Match, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+matchCols+` FROM matches WHERE id = ?`, id)
	m, err := scanMatch(row)
	if err != nil {
		return m, notFound(err, simerr.NotFound("match", id))
	}
	return m, nil
}

// ListMatches returns a tournament's matches ordered by date.
func (db *DB) ListMatches(ctx context.Context, tournamentID int64) ([]model.Match, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+matchCols+` FROM matches WHERE tournament_id = ? ORDER BY date, id`, tournamentID)
	if err != nil {
		return nil, err
	}
	return collectMatches(rows)
}

// DueMatches returns up to limit unstarted matches scheduled at or before the given time, oldest first.
func (db *DB) DueMatches(ctx context.Context, before time.Time, limit int) ([]model.Match, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+matchCols+` FROM matches
		WHERE started = 0 AND date <= ?
		ORDER BY date, id LIMIT ?`, before.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("query due matches: %w", err)
	}
	return collectMatches(rows)
}

// ClaimMatch marks a match started. It returns false if another caller claimed it first.
func (db *DB) ClaimMatch(ctx context.Context, id int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `UPDATE matches SET started = 1 WHERE id = ? AND started = 0`, id)
	if err != nil {
		return false, fmt.Errorf("claim match %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseMatch reverts a claim on a match that has not finished.
func (db *DB) ReleaseMatch(ctx context.Context, id int64) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE matches SET started = 0 WHERE id = ? AND finished = 0`, id)
	if err != nil {
		return fmt.Errorf("release match %d: %w", id, err)
	}
	return nil
}

const gameCols = `id, match_id, number, map, date, started, finished, included_in_standings`

func scanGame(s scanner) (model.Game, error) {
	var g model.Game
	var date int64
	var started, finished, included int
	if err := s.Scan(&g.ID, &g.MatchID, &g.Number, &g.Map, &date, &started, &finished, &included); err != nil {
		return g, err
	}
	g.Date = time.Unix(date, 0).UTC()
	g.Started, g.Finished, g.IncludedInStandings = started == 1, finished == 1, included == 1
	return g, nil
}

// GetGame returns a game by id.
func (db *DB) GetGame(ctx context.Context, id int64) (model.Game, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+gameCols+` FROM games WHERE id = ?`, id)
	g, err := scanGame(row)
	if err != nil {
		return g, notFound(err, simerr.NotFound("game", id))
	}
	return g, nil
}

// MatchGames returns a match's games ordered by number.
func (db *DB) MatchGames(ctx context.Context, matchID int64) ([]model.Game, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+gameCols+` FROM games WHERE match_id = ? ORDER BY number`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// MarkGameStarted flags a game as started, along with its match and tournament.
func (db *DB) MarkGameStarted(ctx context.Context, gameID int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE games SET started = 1 WHERE id = ?`, gameID); err != nil {
			return fmt.Errorf("start game %d: %w", gameID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE matches SET started = 1 WHERE id = (SELECT match_id FROM games WHERE id = ?)`, gameID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE tournaments SET started = 1 WHERE id = (
				SELECT m.tournament_id FROM matches m JOIN games g ON g.match_id = m.id WHERE g.id = ?)`, gameID)
		return err
	})
}

// MarkGameFinished flags a game as finished.
func (db *DB) MarkGameFinished(ctx context.Context, gameID int64) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE games SET finished = 1 WHERE id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("finish game %d: %w", gameID, err)
	}
	return nil
}

// ---- stats ----

const gameStatsCols = `id, game_id, team1_id, team2_id, team1_score, team2_score, winner_id`

func scanGameStats(s scanner) (model.GameStats, error) {
	var gs model.GameStats
	err := s.Scan(&gs.ID, &gs.GameID, &gs.Team1ID, &gs.Team2ID, &gs.Team1Score, &gs.Team2Score, &gs.WinnerID)
	return gs, err
}

// GetGameStats returns the score row of a game.
func (db *DB) GetGameStats(ctx context.Context, gameID int64) (model.GameStats, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+gameStatsCols+` FROM game_stats WHERE game_id = ?`, gameID)
	gs, err := scanGameStats(row)
	if err != nil {
		return gs, notFound(err, simerr.NotFound("game stats for game", gameID))
	}
	return gs, nil
}

// GetPlayerGameStats returns every player's counters for a game, best first.
func (db *DB) GetPlayerGameStats(ctx context.Context, gameID int64) ([]model.PlayerGameStats, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.game_id, s.player_id, s.team_id, p.nickname, s.kills, s.deaths, s.assists
		FROM player_game_stats s JOIN players p ON p.id = s.player_id
		WHERE s.game_id = ?
		ORDER BY s.team_id, s.kills DESC, s.deaths, s.player_id`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerGameStats
	for rows.Next() {
		var s model.PlayerGameStats
		if err := rows.Scan(&s.GameID, &s.PlayerID, &s.TeamID, &s.Nickname, &s.Kills, &s.Deaths, &s.Assists); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Lineup returns both rosters of a game, ordered the way the game's stats row orders the teams.
func (db *DB) Lineup(ctx context.Context, gameID int64) (model.Lineup, error) {
	gs, err := db.GetGameStats(ctx, gameID)
	if err != nil {
		return model.Lineup{}, err
	}
	l := model.Lineup{Team1ID: gs.Team1ID, Team2ID: gs.Team2ID}
	if l.Team1, err = db.TeamPlayers(ctx, gs.Team1ID); err != nil {
		return l, fmt.Errorf("team %d roster: %w", gs.Team1ID, err)
	}
	if l.Team2, err = db.TeamPlayers(ctx, gs.Team2ID); err != nil {
		return l, fmt.Errorf("team %d roster: %w", gs.Team2ID, err)
	}
	if len(l.Team1) == 0 || len(l.Team2) == 0 {
		return l, fmt.Errorf("game %d has an empty roster: %w", gameID, simerr.ErrInvalidState)
	}
	return l, nil
}
