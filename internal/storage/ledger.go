package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

const duelCols = `id, game_id, round, team1_player_id, team2_player_id, killed_player_id,
	trade, starts_trade, duel_buff, trade_buff, round_finished, winner_team_id,
	included_in_player_stats, included_in_team_stats`

func scanDuel(s scanner) (model.DuelLogEntry, error) {
	var e model.DuelLogEntry
	var trade, startsTrade, finished, inPlayer, inTeam int
	err := s.Scan(&e.ID, &e.GameID, &e.Round, &e.Team1PlayerID, &e.Team2PlayerID, &e.KilledPlayerID,
		&trade, &startsTrade, &e.DuelBuff, &e.TradeBuff, &finished, &e.WinnerTeamID, &inPlayer, &inTeam)
	if err != nil {
		return e, err
	}
	e.Trade, e.StartsTrade, e.RoundFinished = trade == 1, startsTrade == 1, finished == 1
	e.IncludedInPlayerStats, e.IncludedInTeamStats = inPlayer == 1, inTeam == 1
	return e, nil
}

func collectDuels(rows *sql.Rows) ([]model.DuelLogEntry, error) {
	defer rows.Close()
	var out []model.DuelLogEntry
	for rows.Next() {
		e, err := scanDuel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppendDuel appends an entry to a game's duel log and returns its id.
// The inclusion flags are always written unset.
func (db *DB) AppendDuel(ctx context.Context, e model.DuelLogEntry) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO duel_log(game_id, round, team1_player_id, team2_player_id, killed_player_id,
			trade, starts_trade, duel_buff, trade_buff, round_finished, winner_team_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.GameID, e.Round, e.Team1PlayerID, e.Team2PlayerID, e.KilledPlayerID,
		boolInt(e.Trade), boolInt(e.StartsTrade), e.DuelBuff, e.TradeBuff,
		boolInt(e.RoundFinished), e.WinnerTeamID)
	if err != nil {
		return 0, fmt.Errorf("append duel to game %d round %d: %w", e.GameID, e.Round, err)
	}
	return res.LastInsertId()
}

// RoundLog returns the entries of one round, oldest first.
func (db *DB) RoundLog(ctx context.Context, gameID int64, round int) ([]model.DuelLogEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+duelCols+` FROM duel_log WHERE game_id = ? AND round = ? ORDER BY id`, gameID, round)
	if err != nil {
		return nil, fmt.Errorf("query round %d of game %d: %w", round, gameID, err)
	}
	return collectDuels(rows)
}

// GameLog returns every entry of a game, oldest first.
func (db *DB) GameLog(ctx context.Context, gameID int64) ([]model.DuelLogEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+duelCols+` FROM duel_log WHERE game_id = ? ORDER BY id`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query log of game %d: %w", gameID, err)
	}
	return collectDuels(rows)
}

// LastLoggedRound returns the round of the newest entry of a game and whether
// that entry finished its round. It returns 0, true for a game with no entries.
func (db *DB) LastLoggedRound(ctx context.Context, gameID int64) (int, bool, error) {
	var round, finished int
	err := db.conn.QueryRowContext(ctx,
		`SELECT round, round_finished FROM duel_log WHERE game_id = ? ORDER BY id DESC LIMIT 1`, gameID).
		Scan(&round, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("last round of game %d: %w", gameID, err)
	}
	return round, finished == 1, nil
}

// GameLedger loads a game's stats row and full duel log in one read transaction.
func (db *DB) GameLedger(ctx context.Context, gameID int64) (model.GameLedger, error) {
	var l model.GameLedger
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+gameStatsCols+` FROM game_stats WHERE game_id = ?`, gameID)
		gs, err := scanGameStats(row)
		if err != nil {
			return notFound(err, simerr.NotFound("game stats for game", gameID))
		}
		rows, err := tx.QueryContext(ctx,
			`SELECT `+duelCols+` FROM duel_log WHERE game_id = ? ORDER BY id`, gameID)
		if err != nil {
			return err
		}
		entries, err := collectDuels(rows)
		if err != nil {
			return err
		}
		l = model.GameLedger{Stats: gs, Entries: entries}
		return nil
	})
	return l, err
}

// CommitSweep persists one aggregation sweep atomically: the entries' flags,
// the new round score and the player counter increments. If any entry was
// already flagged by another sweep the whole commit is rolled back with
// simerr.ErrConflict.
func (db *DB) CommitSweep(ctx context.Context, res model.SweepResult) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := flagEntries(ctx, tx, "included_in_team_stats", res.TeamEntryIDs); err != nil {
			return err
		}
		if err := flagEntries(ctx, tx, "included_in_player_stats", res.PlayerEntryIDs); err != nil {
			return err
		}

		if len(res.TeamEntryIDs) > 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE game_stats SET team1_score = ?, team2_score = ?, winner_id = ?
				WHERE game_id = ?`,
				res.Stats.Team1Score, res.Stats.Team2Score, res.Stats.WinnerID, res.GameID)
			if err != nil {
				return fmt.Errorf("update game_stats for game %d: %w", res.GameID, err)
			}
		}

		if len(res.Players) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO player_game_stats(game_id, player_id, team_id, kills, deaths, assists)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(game_id, player_id) DO UPDATE SET
				kills = kills + excluded.kills,
				deaths = deaths + excluded.deaths,
				assists = assists + excluded.assists`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range res.Players {
			if _, err := stmt.ExecContext(ctx, res.GameID, p.PlayerID, p.TeamID, p.Kills, p.Deaths, p.Assists); err != nil {
				return fmt.Errorf("upsert player_game_stats for player %d: %w", p.PlayerID, err)
			}
		}
		return nil
	})
}

// flagEntries sets column on every id, failing if any was already set.
func flagEntries(ctx context.Context, tx *sql.Tx, column string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := fmt.Sprintf(`UPDATE duel_log SET %[1]s = 1 WHERE %[1]s = 0 AND id IN (%[2]s)`, column, placeholders(len(ids)))
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("flag %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return fmt.Errorf("flag %s: %d of %d entries already included: %w", column, int64(len(ids))-n, len(ids), simerr.ErrConflict)
	}
	return nil
}
