package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-match-sim/internal/engine"
	"github.com/pable/go-match-sim/internal/model"
	"github.com/pable/go-match-sim/internal/report"
	"github.com/pable/go-match-sim/internal/simerr"
	"github.com/pable/go-match-sim/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
	cWinner   = color.New(color.FgGreen, color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database to step through games duel by duel. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// session is the state shared by shell commands.
type session struct {
	ctx context.Context
	db  *storage.DB
	eng *engine.Engine
}

func runShell(cmd *cobra.Command, _ []string) error {
	db, eng, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()
	s := session{ctx: cmd.Context(), db: db, eng: eng}

	cGreeting.Println("matchsim shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("matchsim")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			s.list(args)
		case "show":
			ids, ok := shellIDs(args, "show <game-id>", "game")
			if ok {
				s.show(ids[0])
			}
		case "standings":
			ids, ok := shellIDs(args, "standings <tournament-id>", "tournament")
			if ok {
				s.standings(ids[0])
			}
		case "rounds":
			names := []string{"game"}
			if len(args) > 1 {
				names = append(names, "round")
			}
			ids, ok := shellIDs(args, "rounds <game-id> [round]", names...)
			if ok {
				ids = append(ids, 0)
				if err := printRound(s.ctx, s.db, ids[0], int(ids[1])); err != nil {
					shellErr(err)
				}
			}
		case "players":
			s.players()
		case "teams":
			s.teams()
		case "duel", "round":
			ids, ok := shellIDs(args, name+" <game-id> <round>", "game", "round")
			if ok {
				s.step(name, ids[0], int(ids[1]))
			}
		case "game":
			ids, ok := shellIDs(args, "game <game-id>", "game")
			if ok {
				s.playGame(ids[0])
			}
		case "match":
			ids, ok := shellIDs(args, "match <match-id>", "match")
			if ok {
				s.playMatch(ids[0])
			}
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list tournaments"},
		{"list <tournament-id>", "list a tournament's matches"},
		{"show <game-id>", "show a game's score and scoreboard"},
		{"standings <tournament-id>", "show a tournament's table"},
		{"rounds <game-id> [round]", "replay a round from the log, latest by default"},
		{"players", "top players by career KDA"},
		{"teams", "teams by titles and win rate"},
		{"duel <game-id> <round>", "resolve the next duel of a round"},
		{"round <game-id> <round>", "play a round to completion"},
		{"game <game-id>", "play a game to completion"},
		{"match <match-id>", "play a match to completion"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

// shellIDs parses one integer argument per name, printing usage on failure.
func shellIDs(args []string, usage string, names ...string) ([]int64, bool) {
	if len(args) != len(names) {
		cError.Fprintf(os.Stderr, "usage: %s\n", usage)
		return nil, false
	}
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := parseID(names[i], a)
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

func shellErr(err error) {
	cError.Fprintf(os.Stderr, "%s: %v\n", simerr.Kind(err), err)
}

func (s session) list(args []string) {
	if len(args) == 0 {
		ts, err := s.db.ListTournaments(s.ctx)
		if err != nil {
			shellErr(err)
			return
		}
		if len(ts) == 0 {
			cMuted.Println("No tournaments yet.")
			return
		}
		cHeader.Fprintf(os.Stdout, "%-5s  %-28s  %s\n", "ID", "NAME", "START")
		cMuted.Fprintf(os.Stdout, "%-5s  %-28s  %s\n", "─────", "────────────────────────────", "──────────")
		for _, t := range ts {
			fmt.Fprintf(os.Stdout, "%-5d  %-28s  %s\n", t.ID, t.Name, t.StartDate.Format("2006-01-02"))
		}
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		shellErr(err)
		return
	}
	matches, err := s.db.ListMatches(s.ctx, id)
	if err != nil {
		shellErr(err)
		return
	}
	report.PrintMatches(os.Stdout, matches)
}

func (s session) show(gameID int64) {
	game, err := s.db.GetGame(s.ctx, gameID)
	if err != nil {
		shellErr(err)
		return
	}
	gs, err := s.db.GetGameStats(s.ctx, gameID)
	if err != nil {
		shellErr(err)
		return
	}
	players, err := s.db.GetPlayerGameStats(s.ctx, gameID)
	if err != nil {
		shellErr(err)
		return
	}
	report.PrintGameSummary(os.Stdout, game, gs)
	report.PrintScoreboard(os.Stdout, players, gs.WinnerID)
}

func (s session) standings(tournamentID int64) {
	rows, err := s.db.Standings(s.ctx, tournamentID)
	if err != nil {
		shellErr(err)
		return
	}
	report.PrintStandings(os.Stdout, rows)
}

func (s session) step(kind string, gameID int64, n int) {
	var (
		state model.RoundState
		err   error
	)
	if kind == "duel" {
		state, err = s.eng.StepDuel(s.ctx, gameID, n)
	} else {
		state, err = s.eng.StepRound(s.ctx, gameID, n)
	}
	if err != nil {
		shellErr(err)
		return
	}
	printState(state)
}

func (s session) playGame(gameID int64) {
	score, err := s.eng.PlayGame(s.ctx, gameID)
	if err != nil {
		shellErr(err)
		return
	}
	printScore(gameID, score)
}

func (s session) playMatch(matchID int64) {
	if err := s.eng.PlayMatch(s.ctx, matchID); err != nil {
		shellErr(err)
		return
	}
	m, err := s.db.GetMatch(s.ctx, matchID)
	if err != nil {
		shellErr(err)
		return
	}
	printMatch(m)
}

func (s session) players() {
	rows, err := s.db.PlayerAggregates(s.ctx)
	if err != nil {
		shellErr(err)
		return
	}
	report.PrintPlayerAggregates(os.Stdout, page(rows, 0, 10))
}

func (s session) teams() {
	rows, err := s.db.TeamAggregates(s.ctx)
	if err != nil {
		shellErr(err)
		return
	}
	report.PrintTeamAggregates(os.Stdout, rows)
}
