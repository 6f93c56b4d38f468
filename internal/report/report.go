package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-match-sim/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintGameSummary prints a one-line header for a game.
func PrintGameSummary(w io.Writer, g model.Game, gs model.GameStats) {
	status := "in progress"
	switch {
	case gs.WinnerID != 0:
		status = fmt.Sprintf("won by team %d", gs.WinnerID)
	case !g.Started:
		status = "not started"
	}
	fmt.Fprintf(w, "\nGame %d  |  Match %d #%d  |  Map: %s  |  Score: %d - %d  |  %s\n\n",
		g.ID, g.MatchID, g.Number, g.Map, gs.Team1Score, gs.Team2Score, status)
}

// PrintScoreboard prints per-player K/D/A for a game. Rows of winnerTeam are marked with ">".
func PrintScoreboard(w io.Writer, stats []model.PlayerGameStats, winnerTeam int64) {
	table := newTable(w)
	table.Header(" ", "PLAYER", "TEAM", "K", "D", "A", "K/D")
	for _, s := range stats {
		marker := " "
		if winnerTeam != 0 && s.TeamID == winnerTeam {
			marker = ">"
		}
		table.Append(
			marker,
			s.Nickname,
			strconv.FormatInt(s.TeamID, 10),
			strconv.Itoa(s.Kills),
			strconv.Itoa(s.Deaths),
			strconv.Itoa(s.Assists),
			fmt.Sprintf("%.2f", s.KDRatio()),
		)
	}
	table.Render()
}

// PrintStandings prints a tournament table in position order.
func PrintStandings(w io.Writer, rows []model.Standings) {
	table := newTable(w)
	table.Header("#", "TEAM", "W", "L", "MAPS", "RND_W", "RND_L", "RND_DIFF")
	for _, s := range rows {
		table.Append(
			strconv.Itoa(s.Position),
			s.TeamName,
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Losses),
			fmt.Sprintf("%d-%d", s.MapsWon, s.MapsLost),
			strconv.Itoa(s.RoundsWon),
			strconv.Itoa(s.RoundsLost),
			fmt.Sprintf("%+d", s.RoundsWon-s.RoundsLost),
		)
	}
	table.Render()
}

// PrintMatches prints a list of matches.
func PrintMatches(w io.Writer, matches []model.Match) {
	table := newTable(w)
	table.Header("ID", "DATE", "TYPE", "TEAMS", "GAMES", "WINNER", "STATE")
	for _, m := range matches {
		state := "scheduled"
		switch {
		case m.Finished:
			state = "finished"
		case m.Started:
			state = "running"
		}
		winner := "—"
		if m.WinnerID != 0 {
			winner = strconv.FormatInt(m.WinnerID, 10)
		}
		table.Append(
			strconv.FormatInt(m.ID, 10),
			m.Date.Format("2006-01-02 15:04"),
			string(m.Type),
			fmt.Sprintf("%d v %d", m.Team1ID, m.Team2ID),
			fmt.Sprintf("%d-%d", m.Team1Score, m.Team2Score),
			winner,
			state,
		)
	}
	table.Render()
}

// PrintRoundState prints the alive players and last duel of a round.
func PrintRoundState(w io.Writer, s model.RoundState) {
	fmt.Fprintf(w, "Round %d  |  team %d alive: %s  |  team %d alive: %s\n",
		s.Round, s.Team1ID, names(s.Team1Alive), s.Team2ID, names(s.Team2Alive))
	if s.Duel != nil {
		kind := "duel"
		if s.Duel.Trade {
			kind = "trade"
		}
		fmt.Fprintf(w, "Last %s: player %d eliminated player %d", kind, s.Duel.WinnerID, s.Duel.LoserID)
		if s.Duel.StartsTrade {
			fmt.Fprint(w, " (trade incoming)")
		}
		fmt.Fprintln(w)
	}
	if s.Finished {
		fmt.Fprintf(w, "Round finished, won by team %d\n", s.TeamWon)
	}
}

func names(players []model.Player) string {
	if len(players) == 0 {
		return "—"
	}
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Nickname
	}
	return strings.Join(out, ", ")
}

// PrintPlayerAggregates prints career totals, one row per player, in the given order.
func PrintPlayerAggregates(w io.Writer, rows []model.PlayerAggregate) {
	table := newTable(w)
	table.Header("ID", "PLAYER", "TEAM", "ROLE", "K", "D", "A", "KDA", "MAPS", "MAP%", "MATCHES", "WIN%")
	for _, a := range rows {
		table.Append(
			strconv.FormatInt(a.PlayerID, 10),
			a.Nickname,
			strconv.FormatInt(a.TeamID, 10),
			string(a.Role),
			strconv.Itoa(a.Kills),
			strconv.Itoa(a.Deaths),
			strconv.Itoa(a.Assists),
			fmt.Sprintf("%.2f", a.KDA()),
			fmt.Sprintf("%d-%d", a.MapsWon, a.MapsLost()),
			fmt.Sprintf("%.1f", a.MapWinrate()),
			fmt.Sprintf("%d-%d", a.MatchesWon, a.MatchesLost()),
			fmt.Sprintf("%.1f", a.Winrate()),
		)
	}
	table.Render()
}

// PrintTeamAggregates prints career totals, one row per team, in the given order.
func PrintTeamAggregates(w io.Writer, rows []model.TeamAggregate) {
	table := newTable(w)
	table.Header("ID", "TEAM", "TITLES", "EVENTS", "MATCHES", "WIN%", "MAPS", "MAP%")
	for _, a := range rows {
		table.Append(
			strconv.FormatInt(a.TeamID, 10),
			fmt.Sprintf("%s (%s)", a.Name, a.ShortName),
			strconv.Itoa(a.TournamentsWon),
			strconv.Itoa(a.TournamentsPlayed),
			fmt.Sprintf("%d-%d", a.MatchesWon, a.MatchesLost()),
			fmt.Sprintf("%.1f", a.Winrate()),
			fmt.Sprintf("%d-%d", a.MapsWon, a.MapsLost()),
			fmt.Sprintf("%.1f", a.MapWinrate()),
		)
	}
	table.Render()
}

// PrintDuelLog prints a round's duels newest first. nick maps player ids to
// nicknames; unknown ids are printed as numbers.
func PrintDuelLog(w io.Writer, entries []model.DuelLogEntry, nick map[int64]string) {
	name := func(id int64) string {
		if n, ok := nick[id]; ok {
			return n
		}
		return strconv.FormatInt(id, 10)
	}
	table := newTable(w)
	table.Header("#", "WINNER", "KILLED", "KIND", "BUFF")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		kind, buff := "duel", e.DuelBuff
		if e.Trade {
			kind, buff = "trade", e.TradeBuff
		}
		if e.StartsTrade {
			kind += "+"
		}
		table.Append(
			strconv.FormatInt(e.ID, 10),
			name(e.WinnerID()),
			name(e.KilledPlayerID),
			kind,
			fmt.Sprintf("%.2f", buff),
		)
	}
	table.Render()
}

// PrintRows prints an ad-hoc result set followed by its row count.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)
	table.Header(anys(cols)...)
	for _, row := range rows {
		table.Append(anys(row)...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

func anys(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
