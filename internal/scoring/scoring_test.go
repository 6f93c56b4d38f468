package scoring

import (
	"errors"
	"testing"

	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/simerr"
)

func TestGameDecided(t *testing.T) {
	cases := []struct {
		t1, t2 int
		want   bool
	}{
		{0, 0, false},
		{12, 10, false},
		{13, 11, true},
		{13, 0, true},
		{11, 13, true},
		{13, 12, false},
		{12, 12, false},
		{13, 13, false},
		{14, 12, true},
		{15, 14, false},
		{14, 16, true},
	}
	for _, c := range cases {
		if got := GameDecided(c.t1, c.t2); got != c.want {
			t.Errorf("GameDecided(%d, %d) = %v, want %v", c.t1, c.t2, got, c.want)
		}
	}
}

func TestOvertimeProgression(t *testing.T) {
	stats := model.GameStats{Team1ID: 1, Team2ID: 2, Team1Score: 12, Team2Score: 12}
	if GameWinner(stats) != 0 {
		t.Fatal("12-12 must not end the game")
	}
	stats.Team1Score = 13
	if GameWinner(stats) != 0 {
		t.Fatal("13-12 must not end the game")
	}
	stats.Team1Score = 14
	if got := GameWinner(stats); got != 1 {
		t.Fatalf("14-12 winner = %d, want 1", got)
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[model.MatchType]Format{
		model.MatchBO1:       {1, 1},
		model.MatchFriendly:  {1, 1},
		model.MatchShowmatch: {1, 1},
		model.MatchBO3:       {3, 2},
		model.MatchBO5:       {5, 3},
	}
	for mt, want := range cases {
		got, err := FormatFor(mt)
		if err != nil {
			t.Fatalf("%s: %v", mt, err)
		}
		if got != want {
			t.Errorf("%s: got %+v, want %+v", mt, got, want)
		}
	}
	if _, err := FormatFor("BO7"); !errors.Is(err, simerr.ErrInvalidInput) {
		t.Errorf("BO7: got %v, want ErrInvalidInput", err)
	}
}

func TestTallyStopsAtGamesToWin(t *testing.T) {
	m := model.Match{ID: 1, Team1ID: 10, Team2ID: 20}
	f, _ := FormatFor(model.MatchBO3)
	res := Tally(m, f, []model.GameResult{
		{GameID: 1, Team1Rounds: 13, Team2Rounds: 5, WinnerID: 10},
		{GameID: 2, Team1Rounds: 14, Team2Rounds: 12, WinnerID: 10},
		{GameID: 3, Team1Rounds: 2, Team2Rounds: 13, WinnerID: 20},
	})
	if res.WinnerID != 10 {
		t.Errorf("winner = %d, want 10", res.WinnerID)
	}
	if res.Team1Games != 2 || res.Team2Games != 0 {
		t.Errorf("games = %d-%d, want 2-0", res.Team1Games, res.Team2Games)
	}
	if len(res.Games) != 2 {
		t.Errorf("counted %d games, want 2", len(res.Games))
	}
}

func TestTallySkipsUndecidedGames(t *testing.T) {
	m := model.Match{ID: 1, Team1ID: 10, Team2ID: 20}
	f, _ := FormatFor(model.MatchBO3)
	res := Tally(m, f, []model.GameResult{
		{GameID: 1, Team1Rounds: 13, Team2Rounds: 5, WinnerID: 10},
		{GameID: 2, Team1Rounds: 4, Team2Rounds: 3},
	})
	if res.WinnerID != 0 || res.Team1Games != 1 || len(res.Games) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRank(t *testing.T) {
	rows := []model.Standings{
		{TeamID: 1, Wins: 1, Losses: 1, MapsWon: 2, MapsLost: 2, RoundsWon: 40, RoundsLost: 38},
		{TeamID: 2, Wins: 2, Losses: 0, MapsWon: 4, MapsLost: 0},
		{TeamID: 3, Wins: 1, Losses: 1, MapsWon: 2, MapsLost: 2, RoundsWon: 45, RoundsLost: 41},
		{TeamID: 4, Wins: 1, Losses: 1, MapsWon: 3, MapsLost: 2},
	}
	Rank(rows)
	want := []int64{2, 4, 3, 1}
	for i, id := range want {
		if rows[i].TeamID != id || rows[i].Position != i+1 {
			t.Errorf("position %d: got team %d (pos %d), want team %d", i+1, rows[i].TeamID, rows[i].Position, id)
		}
	}
}

func TestRankPlayers(t *testing.T) {
	aggs := []model.PlayerAggregate{
		{PlayerID: 1, Kills: 10, Deaths: 5, MatchesPlayed: 1},
		{PlayerID: 2, Kills: 8, Deaths: 4, Assists: 2, MatchesPlayed: 1},
		{PlayerID: 3, Kills: 10, Deaths: 5, MatchesPlayed: 1, MatchesWon: 1},
		{PlayerID: 4},
	}
	RankPlayers(aggs)
	want := []int64{2, 3, 1, 4}
	for i, id := range want {
		if aggs[i].PlayerID != id {
			t.Errorf("rank %d: got player %d, want %d", i+1, aggs[i].PlayerID, id)
		}
	}
}

func TestRankPlayersMapWinrateBreaksTie(t *testing.T) {
	aggs := []model.PlayerAggregate{
		{PlayerID: 1, Kills: 3, Deaths: 1, MapsPlayed: 2, MapsWon: 1},
		{PlayerID: 2, Kills: 3, Deaths: 1, MapsPlayed: 1, MapsWon: 1},
	}
	RankPlayers(aggs)
	if aggs[0].PlayerID != 2 {
		t.Errorf("leader = %d, want 2 (higher map win rate)", aggs[0].PlayerID)
	}
}

func TestRankTeams(t *testing.T) {
	aggs := []model.TeamAggregate{
		{TeamID: 3, MatchesPlayed: 3, MatchesWon: 2, MapsPlayed: 6, MapsWon: 4},
		{TeamID: 2, MatchesPlayed: 3, MatchesWon: 3, MapsPlayed: 6, MapsWon: 6},
		{TeamID: 4, MatchesPlayed: 3, MatchesWon: 2, MapsPlayed: 7, MapsWon: 5},
		{TeamID: 1, TournamentsWon: 1, MatchesPlayed: 3, MatchesWon: 2, MapsPlayed: 6, MapsWon: 4},
	}
	RankTeams(aggs)
	want := []int64{1, 2, 4, 3}
	for i, id := range want {
		if aggs[i].TeamID != id {
			t.Errorf("rank %d: got team %d, want %d", i+1, aggs[i].TeamID, id)
		}
	}
}
