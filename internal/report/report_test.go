package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pable/go-match-sim/internal/model"
)

func TestPrintStandings(t *testing.T) {
	var buf bytes.Buffer
	PrintStandings(&buf, []model.Standings{
		{Position: 1, TeamName: "Alpha", Wins: 2, MapsWon: 4, MapsLost: 1, RoundsWon: 60, RoundsLost: 41},
		{Position: 2, TeamName: "Bravo", Losses: 2, MapsWon: 1, MapsLost: 4, RoundsWon: 41, RoundsLost: 60},
	})
	out := buf.String()
	for _, want := range []string{"Alpha", "Bravo", "4-1", "+19", "-19"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintScoreboardMarksWinners(t *testing.T) {
	var buf bytes.Buffer
	PrintScoreboard(&buf, []model.PlayerGameStats{
		{Nickname: "ace", TeamID: 1, Kills: 20, Deaths: 10, Assists: 3},
		{Nickname: "bot", TeamID: 2, Kills: 5, Deaths: 15},
	}, 1)
	out := buf.String()
	if !strings.Contains(out, "2.00") {
		t.Errorf("missing K/D:\n%s", out)
	}
	var aceLine string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ace") {
			aceLine = line
		}
	}
	if !strings.Contains(aceLine, ">") {
		t.Errorf("winner row not marked: %q", aceLine)
	}
}

func TestPrintRoundState(t *testing.T) {
	var buf bytes.Buffer
	PrintRoundState(&buf, model.RoundState{
		Round: 4, Team1ID: 1, Team2ID: 2,
		Team1Alive: []model.Player{{Nickname: "ace"}},
		Duel:       &model.DuelResult{WinnerID: 3, LoserID: 7, Trade: true},
		Finished:   true, TeamWon: 1,
	})
	out := buf.String()
	for _, want := range []string{"Round 4", "ace", "Last trade", "won by team 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlayerAggregates(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerAggregates(&buf, []model.PlayerAggregate{
		{PlayerID: 7, Nickname: "ace", Role: model.RoleFlex, Kills: 9, Deaths: 3, Assists: 3, MapsPlayed: 4, MapsWon: 3, MatchesPlayed: 2, MatchesWon: 1},
	})
	out := buf.String()
	for _, want := range []string{"ace", "4.00", "3-1", "75.0", "1-1", "50.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintTeamAggregates(t *testing.T) {
	var buf bytes.Buffer
	PrintTeamAggregates(&buf, []model.TeamAggregate{
		{TeamID: 1, Name: "Alpha", ShortName: "ALP", TournamentsWon: 1, TournamentsPlayed: 2, MatchesPlayed: 4, MatchesWon: 3, MapsPlayed: 10, MapsWon: 7},
	})
	out := buf.String()
	for _, want := range []string{"Alpha (ALP)", "3-1", "75.0", "7-3", "70.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintDuelLogNewestFirst(t *testing.T) {
	var buf bytes.Buffer
	PrintDuelLog(&buf, []model.DuelLogEntry{
		{ID: 41, Team1PlayerID: 1, Team2PlayerID: 2, KilledPlayerID: 2, StartsTrade: true, DuelBuff: 0.5},
		{ID: 42, Team1PlayerID: 3, Team2PlayerID: 2, KilledPlayerID: 3, Trade: true, TradeBuff: 0.25},
	}, map[int64]string{1: "ace", 2: "bot"})
	out := buf.String()
	if strings.Index(out, "42") > strings.Index(out, "41") {
		t.Errorf("entries not newest first:\n%s", out)
	}
	for _, want := range []string{"ace", "bot", "duel+", "trade", "0.25"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintRows(t *testing.T) {
	var buf bytes.Buffer
	PrintRows(&buf, []string{"id", "name"}, [][]string{{"1", "Alpha"}, {"2", "Bravo"}})
	if out := buf.String(); !strings.Contains(out, "Bravo") || !strings.Contains(out, "(2 rows)") {
		t.Errorf("output:\n%s", out)
	}
	buf.Reset()
	PrintRows(&buf, []string{"id"}, nil)
	if !strings.Contains(buf.String(), "(no rows)") {
		t.Errorf("empty result printed %q", buf.String())
	}
}
