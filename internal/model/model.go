package model

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pable/go-match-sim/internal/simerr"
)

// Role is a player's in-game role. It keys the buff tables used by the duel resolver.
type Role string

const (
	RoleDuelist    Role = "Duelist"
	RoleController Role = "Controller"
	RoleFlex       Role = "Flex"
	RoleInitiator  Role = "Initiator"
	RoleIGL        Role = "IGL"
	RoleSentinel   Role = "Sentinel"
)

// AllRoles lists the known roles in a stable order.
var AllRoles = []Role{RoleDuelist, RoleController, RoleFlex, RoleInitiator, RoleIGL, RoleSentinel}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Attribute names one of the 16 numeric player attributes.
type Attribute string

const (
	Clutch           Attribute = "clutch"
	Awareness        Attribute = "awareness"
	GameReading      Attribute = "game_reading"
	Aim              Attribute = "aim"
	Positioning      Attribute = "positioning"
	Resilience       Attribute = "resilience"
	Confidence       Attribute = "confidence"
	GameSense        Attribute = "game_sense"
	DecisionMaking   Attribute = "decision_making"
	Strategy         Attribute = "strategy"
	Adaptability     Attribute = "adaptability"
	Communication    Attribute = "communication"
	Unpredictability Attribute = "unpredictability"
	UtilityUsage     Attribute = "utility_usage"
	Teamwork         Attribute = "teamwork"
	RageFuel         Attribute = "rage_fuel"
)

// AllAttributes lists every attribute in a stable order.
var AllAttributes = []Attribute{
	Clutch, Awareness, GameReading, Aim, Positioning,
	Resilience, Confidence, GameSense, DecisionMaking,
	Strategy, Adaptability,
	Communication, Unpredictability, UtilityUsage, Teamwork,
	RageFuel,
}

// Attributes maps attribute names to values.
type Attributes map[Attribute]float64

// NewAttributes returns an attribute set with every attribute set to v.
func NewAttributes(v float64) Attributes {
	a := make(Attributes, len(AllAttributes))
	for _, name := range AllAttributes {
		a[name] = v
	}
	return a
}

// Clone returns a copy of a.
func (a Attributes) Clone() Attributes {
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// ParseAttributes converts a raw name/value map into Attributes.
// Unknown and missing names are rejected.
func ParseAttributes(raw map[string]float64) (Attributes, error) {
	known := make(map[Attribute]bool, len(AllAttributes))
	for _, name := range AllAttributes {
		known[name] = true
	}
	a := make(Attributes, len(raw))
	var unknown []string
	for k, v := range raw {
		if !known[Attribute(k)] {
			unknown = append(unknown, k)
			continue
		}
		a[Attribute(k)] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown attributes %s: %w", strings.Join(unknown, ","), simerr.ErrInvalidInput)
	}
	for _, name := range AllAttributes {
		if _, ok := a[name]; !ok {
			return nil, fmt.Errorf("missing attribute %s: %w", name, simerr.ErrInvalidInput)
		}
	}
	return a, nil
}

// Player is immutable for the duration of a simulation run.
type Player struct {
	ID         int64
	Nickname   string
	TeamID     int64
	Role       Role
	Attributes Attributes
}

// Team is an organisation fielding players.
type Team struct {
	ID        int64
	Name      string
	ShortName string
}

// RosterSize is the number of players a team fields in a game.
const RosterSize = 5

// Lineup holds the two rosters of a game. Team1 is always the game's first team.
type Lineup struct {
	Team1ID int64
	Team2ID int64
	Team1   []Player
	Team2   []Player
}

// MatchType determines how many games a match has.
type MatchType string

const (
	MatchBO1       MatchType = "BO1"
	MatchBO3       MatchType = "BO3"
	MatchBO5       MatchType = "BO5"
	MatchFriendly  MatchType = "FRIENDLY"
	MatchShowmatch MatchType = "SHOWMATCH"
)

// Maps is the pool games are played on.
var Maps = []string{
	"Bind", "Haven", "Split", "Ascent", "Fracture", "Icebox",
	"Breeze", "Sunset", "Abyss", "Lotus", "Pearl",
}

// Tournament is a single-group round robin between teams.
type Tournament struct {
	ID        int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Started   bool
	Ended     bool
	WinnerID  int64 // 0 until decided
}

// Match is a best-of-N series between two teams.
type Match struct {
	ID                  int64
	TournamentID        int64
	Date                time.Time
	Type                MatchType
	Team1ID             int64
	Team2ID             int64
	Team1Score          int // games won
	Team2Score          int
	WinnerID            int64
	Started             bool
	Finished            bool
	IncludedInStandings bool
}

// Game is one map of a match.
type Game struct {
	ID                  int64
	MatchID             int64
	Number              int
	Map                 string
	Date                time.Time
	Started             bool
	Finished            bool
	IncludedInStandings bool
}

// GameStats is the running round score of a game.
type GameStats struct {
	ID         int64
	GameID     int64
	Team1ID    int64
	Team2ID    int64
	Team1Score int
	Team2Score int
	WinnerID   int64
}

// PlayerGameStats holds a player's counters for one game.
type PlayerGameStats struct {
	GameID   int64
	PlayerID int64
	TeamID   int64
	Nickname string
	Kills    int
	Deaths   int
	Assists  int
}

// KDRatio returns kills/deaths, or kills if deaths == 0.
func (s PlayerGameStats) KDRatio() float64 {
	if s.Deaths == 0 {
		return float64(s.Kills)
	}
	return float64(s.Kills) / float64(s.Deaths)
}

// DuelLogEntry is one append-only row of a game's duel ledger.
// Only the two Included flags change after the row is written.
type DuelLogEntry struct {
	ID             int64
	GameID         int64
	Round          int
	Team1PlayerID  int64
	Team2PlayerID  int64
	KilledPlayerID int64
	Trade          bool    // the duel was fought as a trade
	StartsTrade    bool    // the winner opened a trade chain
	DuelBuff       float64 // winner's duel-win buff
	TradeBuff      float64 // winner's trade-win buff

	// snapshot of the resulting round state
	RoundFinished bool
	WinnerTeamID  int64

	IncludedInPlayerStats bool
	IncludedInTeamStats   bool
}

// WinnerID returns the duelist who was not eliminated.
func (e DuelLogEntry) WinnerID() int64 {
	if e.KilledPlayerID == e.Team1PlayerID {
		return e.Team2PlayerID
	}
	return e.Team1PlayerID
}

// DuelResult is the outcome of the most recent duel of a round.
type DuelResult struct {
	WinnerID    int64
	LoserID     int64
	Trade       bool
	StartsTrade bool
}

// RoundState is derived by folding a round's log entries; it is never stored.
type RoundState struct {
	Round        int
	Team1ID      int64
	Team2ID      int64
	Team1Alive   []Player
	Team2Alive   []Player
	Duel         *DuelResult // nil before the first duel
	PreviousDuel *DuelResult
	TeamWon      int64
	Finished     bool
}

// TradeHappening reports whether the next duel continues a trade chain.
func (s RoundState) TradeHappening() bool {
	return s.Duel != nil && s.Duel.StartsTrade
}

// Standings is a team's tournament table row.
type Standings struct {
	TournamentID int64
	TeamID       int64
	TeamName     string
	Wins         int
	Losses       int
	MapsWon      int
	MapsLost     int
	RoundsWon    int
	RoundsLost   int
	Position     int
}

// GameLedger is everything the aggregation sweep reads for one game.
type GameLedger struct {
	Stats   GameStats
	Entries []DuelLogEntry // all entries of the game, ordered by id
}

// SweepResult is what one aggregation sweep commits for a game.
type SweepResult struct {
	GameID         int64
	Stats          GameStats
	Players        []PlayerGameStats // increments, not totals
	TeamEntryIDs   []int64
	PlayerEntryIDs []int64
}

// Empty reports whether the sweep found nothing to fold.
func (r SweepResult) Empty() bool {
	return len(r.TeamEntryIDs) == 0 && len(r.PlayerEntryIDs) == 0
}

// GameResult is a finished game's contribution to its match.
type GameResult struct {
	GameID      int64
	Team1Rounds int
	Team2Rounds int
	WinnerID    int64
}

// MatchResult is the accumulated state of a match after some of its games.
type MatchResult struct {
	MatchID    int64
	Team1Games int
	Team2Games int
	WinnerID   int64 // 0 while the match is undecided
	Games      []GameResult
}

// PlayerAggregate is a player's career totals across every game they played.
// Map and match counts only include decided games and matches.
type PlayerAggregate struct {
	PlayerID int64
	Nickname string
	TeamID   int64
	Role     Role

	MapsPlayed    int
	MapsWon       int
	MatchesPlayed int
	MatchesWon    int

	Kills, Deaths, Assists int
}

func (a PlayerAggregate) MapsLost() int    { return a.MapsPlayed - a.MapsWon }
func (a PlayerAggregate) MatchesLost() int { return a.MatchesPlayed - a.MatchesWon }

// KDA returns (kills+assists)/deaths, or kills+assists when deaths == 0.
func (a PlayerAggregate) KDA() float64 {
	if a.Deaths == 0 {
		return float64(a.Kills + a.Assists)
	}
	return float64(a.Kills+a.Assists) / float64(a.Deaths)
}

// Winrate is the percentage of decided matches won.
func (a PlayerAggregate) Winrate() float64 { return pct(a.MatchesWon, a.MatchesPlayed) }

// MapWinrate is the percentage of decided maps won.
func (a PlayerAggregate) MapWinrate() float64 { return pct(a.MapsWon, a.MapsPlayed) }

// TeamAggregate is a team's career totals across tournaments.
type TeamAggregate struct {
	TeamID    int64
	Name      string
	ShortName string

	TournamentsPlayed int
	TournamentsWon    int
	MatchesPlayed     int
	MatchesWon        int
	MapsPlayed        int
	MapsWon           int
}

func (a TeamAggregate) MapsLost() int    { return a.MapsPlayed - a.MapsWon }
func (a TeamAggregate) MatchesLost() int { return a.MatchesPlayed - a.MatchesWon }

func (a TeamAggregate) Winrate() float64    { return pct(a.MatchesWon, a.MatchesPlayed) }
func (a TeamAggregate) MapWinrate() float64 { return pct(a.MapsWon, a.MapsPlayed) }

func pct(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}
