package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open mem db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fixture holds the ids created by seedMatch.
type fixture struct {
	tournamentID int64
	team1, team2 int64
	match        model.Match
	games        []model.Game
}

// seedMatch creates two five-player teams, a tournament and one match of the given type.
func seedMatch(t *testing.T, db *DB, typ model.MatchType, nGames int, date time.Time) fixture {
	t.Helper()
	ctx := context.Background()
	var f fixture
	var err error
	if f.team1, err = db.InsertTeam(ctx, model.Team{Name: "Alpha", ShortName: "ALP"}); err != nil {
		t.Fatal(err)
	}
	if f.team2, err = db.InsertTeam(ctx, model.Team{Name: "Bravo", ShortName: "BRV"}); err != nil {
		t.Fatal(err)
	}
	var players []model.Player
	for i := 0; i < 12; i++ {
		team := f.team1
		if i%2 == 1 {
			team = f.team2
		}
		players = append(players, model.Player{
			Nickname: "p", TeamID: team, Role: model.RoleFlex, Attributes: model.NewAttributes(1),
		})
	}
	if _, err := db.InsertPlayers(ctx, players); err != nil {
		t.Fatal(err)
	}
	f.tournamentID, err = db.InsertTournament(ctx, model.Tournament{
		Name: "Cup", StartDate: date, EndDate: date.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	return addMatch(t, db, f, typ, nGames, date)
}

func addMatch(t *testing.T, db *DB, f fixture, typ model.MatchType, nGames int, date time.Time) fixture {
	t.Helper()
	var games []model.Game
	for i := 1; i <= nGames; i++ {
		games = append(games, model.Game{Number: i, Map: "Bind", Date: date})
	}
	m, games, err := db.InsertMatch(context.Background(), model.Match{
		TournamentID: f.tournamentID, Date: date, Type: typ, Team1ID: f.team1, Team2ID: f.team2,
	}, games)
	if err != nil {
		t.Fatalf("InsertMatch: %v", err)
	}
	f.match, f.games = m, games
	return f
}

func TestInsertMatchCreatesGamesAndStats(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	f := seedMatch(t, db, model.MatchBO3, 3, time.Unix(1700000000, 0))

	games, err := db.MatchGames(ctx, f.match.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 3 {
		t.Fatalf("games = %d, want 3", len(games))
	}
	for i, g := range games {
		if g.Number != i+1 {
			t.Errorf("game %d has number %d", i, g.Number)
		}
		gs, err := db.GetGameStats(ctx, g.ID)
		if err != nil {
			t.Fatalf("GetGameStats(%d): %v", g.ID, err)
		}
		if gs.Team1ID != f.team1 || gs.Team2ID != f.team2 {
			t.Errorf("game %d stats teams %d/%d", g.ID, gs.Team1ID, gs.Team2ID)
		}
	}
}

func TestNotFound(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	if _, err := db.GetGame(ctx, 99); !errors.Is(err, simerr.ErrNotFound) {
		t.Errorf("GetGame: got %v, want ErrNotFound", err)
	}
	if _, err := db.GetMatch(ctx, 99); !errors.Is(err, simerr.ErrNotFound) {
		t.Errorf("GetMatch: got %v, want ErrNotFound", err)
	}
	if _, err := db.GetGameStats(ctx, 99); !errors.Is(err, simerr.ErrNotFound) {
		t.Errorf("GetGameStats: got %v, want ErrNotFound", err)
	}
}

func TestLineupCapsRoster(t *testing.T) {
	db := openMemDB(t)
	f := seedMatch(t, db, model.MatchBO1, 1, time.Unix(1700000000, 0))
	l, err := db.Lineup(context.Background(), f.games[0].ID)
	if err != nil {
		t.Fatalf("Lineup: %v", err)
	}
	if len(l.Team1) != model.RosterSize || len(l.Team2) != model.RosterSize {
		t.Errorf("roster sizes %d/%d, want 5/5", len(l.Team1), len(l.Team2))
	}
	if l.Team1[0].Attributes[model.Aim] != 1 {
		t.Errorf("attributes not decoded: %+v", l.Team1[0].Attributes)
	}
}

func TestDueMatchesAndClaim(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	f := seedMatch(t, db, model.MatchBO1, 1, base.Add(2*time.Hour))
	first := f.match
	f = addMatch(t, db, f, model.MatchBO1, 1, base)
	second := f.match
	addMatch(t, db, f, model.MatchBO1, 1, base.Add(48*time.Hour))

	due, err := db.DueMatches(ctx, base.Add(3*time.Hour), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].ID != second.ID || due[1].ID != first.ID {
		t.Fatalf("due = %+v, want [%d %d]", due, second.ID, first.ID)
	}
	if due, _ := db.DueMatches(ctx, base.Add(3*time.Hour), 1); len(due) != 1 {
		t.Errorf("limit ignored: got %d matches", len(due))
	}

	ok, err := db.ClaimMatch(ctx, second.ID)
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	if ok, _ := db.ClaimMatch(ctx, second.ID); ok {
		t.Error("second claim should lose")
	}
	due, _ = db.DueMatches(ctx, base.Add(3*time.Hour), 10)
	if len(due) != 1 || due[0].ID != first.ID {
		t.Errorf("claimed match still due: %+v", due)
	}

	if err := db.ReleaseMatch(ctx, second.ID); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.ClaimMatch(ctx, second.ID); !ok {
		t.Error("released match should be claimable again")
	}
}

func TestAppendDuelAndRoundLog(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	f := seedMatch(t, db, model.MatchBO1, 1, time.Unix(1700000000, 0))
	gameID := f.games[0].ID

	round, finished, err := db.LastLoggedRound(ctx, gameID)
	if err != nil || round != 0 || !finished {
		t.Fatalf("empty game last round = %d, %v, %v", round, finished, err)
	}

	entries := []model.DuelLogEntry{
		{GameID: gameID, Round: 1, Team1PlayerID: 1, Team2PlayerID: 2, KilledPlayerID: 2, StartsTrade: true, DuelBuff: 0.15, TradeBuff: 0.35},
		{GameID: gameID, Round: 1, Team1PlayerID: 1, Team2PlayerID: 4, KilledPlayerID: 1, Trade: true},
		{GameID: gameID, Round: 2, Team1PlayerID: 3, Team2PlayerID: 4, KilledPlayerID: 3},
	}
	for _, e := range entries {
		if _, err := db.AppendDuel(ctx, e); err != nil {
			t.Fatalf("AppendDuel: %v", err)
		}
	}

	log1, err := db.RoundLog(ctx, gameID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(log1) != 2 {
		t.Fatalf("round 1 entries = %d, want 2", len(log1))
	}
	if !log1[0].StartsTrade || log1[0].TradeBuff != 0.35 || !log1[1].Trade {
		t.Errorf("flags not round-tripped: %+v", log1)
	}
	if log1[0].ID >= log1[1].ID {
		t.Error("round log not ordered by id")
	}

	round, finished, _ = db.LastLoggedRound(ctx, gameID)
	if round != 2 || finished {
		t.Errorf("last round = %d finished=%v, want 2 false", round, finished)
	}
}

func TestCommitSweepConflict(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	f := seedMatch(t, db, model.MatchBO1, 1, time.Unix(1700000000, 0))
	gameID := f.games[0].ID

	id, err := db.AppendDuel(ctx, model.DuelLogEntry{
		GameID: gameID, Round: 1, Team1PlayerID: 1, Team2PlayerID: 2, KilledPlayerID: 2,
		RoundFinished: true, WinnerTeamID: f.team1,
	})
	if err != nil {
		t.Fatal(err)
	}
	res := model.SweepResult{
		GameID:         gameID,
		Stats:          model.GameStats{GameID: gameID, Team1ID: f.team1, Team2ID: f.team2, Team1Score: 1},
		Players:        []model.PlayerGameStats{{PlayerID: 1, TeamID: f.team1, Kills: 1}, {PlayerID: 2, TeamID: f.team2, Deaths: 1}},
		TeamEntryIDs:   []int64{id},
		PlayerEntryIDs: []int64{id},
	}
	if err := db.CommitSweep(ctx, res); err != nil {
		t.Fatalf("CommitSweep: %v", err)
	}
	if err := db.CommitSweep(ctx, res); !errors.Is(err, simerr.ErrConflict) {
		t.Fatalf("second commit: got %v, want ErrConflict", err)
	}

	gs, _ := db.GetGameStats(ctx, gameID)
	if gs.Team1Score != 1 {
		t.Errorf("score = %d, want 1", gs.Team1Score)
	}
	stats, err := db.GetPlayerGameStats(ctx, gameID)
	if err != nil {
		t.Fatal(err)
	}
	kills := 0
	for _, s := range stats {
		kills += s.Kills
	}
	if kills != 1 {
		t.Errorf("total kills = %d after rolled back commit, want 1", kills)
	}

	ledger, err := db.GameLedger(ctx, gameID)
	if err != nil {
		t.Fatal(err)
	}
	if !ledger.Entries[0].IncludedInTeamStats || !ledger.Entries[0].IncludedInPlayerStats {
		t.Errorf("entry not flagged: %+v", ledger.Entries[0])
	}
}

func TestRecordMatchResultIdempotent(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	f := seedMatch(t, db, model.MatchBO3, 3, time.Unix(1700000000, 0))

	res := model.MatchResult{
		MatchID:    f.match.ID,
		Team1Games: 2,
		WinnerID:   f.team1,
		Games: []model.GameResult{
			{GameID: f.games[0].ID, Team1Rounds: 13, Team2Rounds: 7, WinnerID: f.team1},
			{GameID: f.games[1].ID, Team1Rounds: 14, Team2Rounds: 12, WinnerID: f.team1},
		},
	}
	for i := 0; i < 2; i++ {
		if err := db.RecordMatchResult(ctx, res); err != nil {
			t.Fatalf("RecordMatchResult #%d: %v", i+1, err)
		}
	}

	table, err := db.Standings(ctx, f.tournamentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 2 {
		t.Fatalf("standings rows = %d, want 2", len(table))
	}
	top, bottom := table[0], table[1]
	if top.TeamID != f.team1 || top.Position != 1 {
		t.Errorf("leader = %+v", top)
	}
	if top.Wins != 1 || top.MapsWon != 2 || top.RoundsWon != 27 || top.RoundsLost != 19 {
		t.Errorf("winner row = %+v", top)
	}
	if bottom.Losses != 1 || bottom.MapsLost != 2 || bottom.RoundsWon != 19 {
		t.Errorf("loser row = %+v", bottom)
	}

	m, _ := db.GetMatch(ctx, f.match.ID)
	if !m.Finished || m.WinnerID != f.team1 || m.Team1Score != 2 {
		t.Errorf("match = %+v", m)
	}
	tour, err := db.GetTournament(ctx, f.tournamentID)
	if err != nil {
		t.Fatal(err)
	}
	if !tour.Ended || tour.WinnerID != f.team1 {
		t.Errorf("tournament not closed: %+v", tour)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	seedMatch(t, db, model.MatchBO1, 1, time.Unix(1700000000, 0))
	cols, rows, err := db.QueryRaw(context.Background(), "SELECT name, short_name FROM teams WHERE id > ? ORDER BY id", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || len(rows) != 2 || rows[0][0] != "Alpha" {
		t.Errorf("cols=%v rows=%v", cols, rows)
	}
}

func TestCareerAggregates(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	f := seedMatch(t, db, model.MatchBO3, 3, time.Unix(1700000000, 0))

	// team1 takes the first two maps; player 1 kills player 2 twice per map
	for _, g := range f.games[:2] {
		id, err := db.AppendDuel(ctx, model.DuelLogEntry{
			GameID: g.ID, Round: 1, Team1PlayerID: 1, Team2PlayerID: 2, KilledPlayerID: 2,
			RoundFinished: true, WinnerTeamID: f.team1,
		})
		if err != nil {
			t.Fatal(err)
		}
		err = db.CommitSweep(ctx, model.SweepResult{
			GameID: g.ID,
			Stats:  model.GameStats{GameID: g.ID, Team1ID: f.team1, Team2ID: f.team2, Team1Score: 13, WinnerID: f.team1},
			Players: []model.PlayerGameStats{
				{PlayerID: 1, TeamID: f.team1, Kills: 2, Assists: 1},
				{PlayerID: 2, TeamID: f.team2, Deaths: 2},
			},
			TeamEntryIDs:   []int64{id},
			PlayerEntryIDs: []int64{id},
		})
		if err != nil {
			t.Fatalf("CommitSweep: %v", err)
		}
	}
	err := db.RecordMatchResult(ctx, model.MatchResult{
		MatchID: f.match.ID, Team1Games: 2, WinnerID: f.team1,
		Games: []model.GameResult{
			{GameID: f.games[0].ID, Team1Rounds: 13, Team2Rounds: 7, WinnerID: f.team1},
			{GameID: f.games[1].ID, Team1Rounds: 13, Team2Rounds: 9, WinnerID: f.team1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	star, err := db.PlayerAggregate(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := model.PlayerAggregate{
		PlayerID: 1, Nickname: "p", TeamID: f.team1, Role: model.RoleFlex,
		MapsPlayed: 2, MapsWon: 2, MatchesPlayed: 1, MatchesWon: 1, Kills: 4, Assists: 2,
	}
	if star != want {
		t.Errorf("player 1 = %+v, want %+v", star, want)
	}
	victim, err := db.PlayerAggregate(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if victim.MapsPlayed != 2 || victim.MapsWon != 0 || victim.MatchesPlayed != 1 || victim.MatchesWon != 0 || victim.Deaths != 4 {
		t.Errorf("player 2 = %+v", victim)
	}
	if _, err := db.PlayerAggregate(ctx, 99); !errors.Is(err, simerr.ErrNotFound) {
		t.Errorf("missing player: got %v, want ErrNotFound", err)
	}

	all, err := db.PlayerAggregates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 12 || all[0].PlayerID != 1 {
		t.Fatalf("ranked players: len %d, first %+v", len(all), all[0])
	}
	for _, a := range all[1:] {
		if a.PlayerID != 2 && a.MapsPlayed != 0 {
			t.Errorf("idle player %d credited with %d maps", a.PlayerID, a.MapsPlayed)
		}
	}

	teams, err := db.TeamAggregates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(teams) != 2 || teams[0].TeamID != f.team1 {
		t.Fatalf("ranked teams = %+v", teams)
	}
	winner := model.TeamAggregate{
		TeamID: f.team1, Name: "Alpha", ShortName: "ALP",
		TournamentsPlayed: 1, TournamentsWon: 1, MatchesPlayed: 1, MatchesWon: 1, MapsPlayed: 2, MapsWon: 2,
	}
	if teams[0] != winner {
		t.Errorf("team1 = %+v, want %+v", teams[0], winner)
	}
	loser, err := db.TeamAggregate(ctx, f.team2)
	if err != nil {
		t.Fatal(err)
	}
	if loser.TournamentsPlayed != 1 || loser.TournamentsWon != 0 || loser.MatchesLost() != 1 || loser.MapsLost() != 2 {
		t.Errorf("team2 = %+v", loser)
	}
	if _, err := db.TeamAggregate(ctx, 99); !errors.Is(err, simerr.ErrNotFound) {
		t.Errorf("missing team: got %v, want ErrNotFound", err)
	}
}

func TestRunPreset(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()
	f := seedMatch(t, db, model.MatchBO1, 1, time.Unix(1700000000, 0))
	gameID := f.games[0].ID
	for _, killed := range []int64{2, 1} {
		_, err := db.AppendDuel(ctx, model.DuelLogEntry{
			GameID: gameID, Round: 1, Team1PlayerID: 1, Team2PlayerID: 2, KilledPlayerID: killed,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	for _, p := range Presets() {
		args := make([]string, len(p.Params))
		for i := range args {
			args[i] = "1"
		}
		if _, _, err := db.RunPreset(ctx, p.Name, args...); err != nil {
			t.Errorf("preset %s: %v", p.Name, err)
		}
	}

	cols, rows, err := db.RunPreset(ctx, "pending")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || cols[1] != "player_pending" || rows[0][1] != "2" {
		t.Errorf("pending = %v %v", cols, rows)
	}
	_, rows, err = db.RunPreset(ctx, "due")
	if err != nil || len(rows) != 1 || rows[0][3] != "Alpha" {
		t.Errorf("due = %v, %v", rows, err)
	}

	if _, _, err := db.RunPreset(ctx, "rounds"); !errors.Is(err, simerr.ErrInvalidInput) {
		t.Errorf("missing argument: got %v, want ErrInvalidInput", err)
	}
	if _, _, err := db.RunPreset(ctx, "nope"); !errors.Is(err, simerr.ErrInvalidInput) {
		t.Errorf("unknown preset: got %v, want ErrInvalidInput", err)
	}
}
