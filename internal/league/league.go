package league

import (
	"fmt"
	"time"
)

// Position is a player's playing position.
type Position string

const (
	Goalkeeper Position = "gkp"
	Defender   Position = "def"
	Midfielder Position = "mid"
	Forward    Position = "fwd"
)

// ParsePosition validates a position code.
func ParsePosition(s string) (Position, error) {
	switch p := Position(s); p {
	case Goalkeeper, Defender, Midfielder, Forward:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

// PositionFromElementType maps the fantasy API element_type code
// (1 = gkp, 2 = def, 3 = mid, 4 = fwd) to a Position.
func PositionFromElementType(code int) (Position, error) {
	switch code {
	case 1:
		return Goalkeeper, nil
	case 2:
		return Defender, nil
	case 3:
		return Midfielder, nil
	case 4:
		return Forward, nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownElementType, code)
}

// Resolution is the team a player represented in one history row and the
// round of that fixture.
type Resolution struct {
	TeamID int
	Round  int
}

// PlayerRound is one row of a player's per-round history.
type PlayerRound struct {
	Fixture  int
	Opponent int
	Kickoff  time.Time
	Minutes  int
	Points   int
	Value    int

	// Resolved is nil until lineage resolution finds the row's team.
	Resolved *Resolution
	// Form is the player's form including this row.
	Form float64
}

// Player is a footballer available in the fantasy game.
type Player struct {
	ID       int
	Name     string
	Position Position

	TeamID       int
	TeamName     string
	Availability float64
	CurrentValue int

	SquadAdjustedValue int
	History            []PlayerRound
	Predicted          []float64
}

// NewPlayer validates identity fields and returns a player with full
// availability and no history.
func NewPlayer(id int, name string, position Position, teamID int, teamName string, value int) (*Player, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: player id %d", ErrInvalidID, id)
	}
	if _, err := ParsePosition(string(position)); err != nil {
		return nil, fmt.Errorf("player %d: %w", id, err)
	}
	return &Player{
		ID:                 id,
		Name:               name,
		Position:           position,
		TeamID:             teamID,
		TeamName:           teamName,
		Availability:       1.0,
		CurrentValue:       value,
		SquadAdjustedValue: value,
	}, nil
}

// HasHistory reports whether any per-round rows are known.
func (p *Player) HasHistory() bool {
	return len(p.History) > 0
}

// Excluded reports whether the player must be left out of analysis: no
// history yet, or history whose lineage could not be resolved.
func (p *Player) Excluded() bool {
	if !p.HasHistory() {
		return true
	}
	for _, r := range p.History {
		if r.Resolved == nil {
			return true
		}
	}
	return false
}

// DefaultPlayerForm is the form of a player without history.
const DefaultPlayerForm = 1.0

// CurrentForm is the form after the latest history row, DefaultPlayerForm
// without history.
func (p *Player) CurrentForm() float64 {
	if !p.HasHistory() {
		return DefaultPlayerForm
	}
	return p.History[len(p.History)-1].Form
}

// ValueAtRound returns the market value of the first history row played in
// round.
func (p *Player) ValueAtRound(round int) (int, bool) {
	for _, r := range p.History {
		if r.Resolved != nil && r.Resolved.Round == round {
			return r.Value, true
		}
	}
	return 0, false
}

func (p *Player) String() string {
	return fmt.Sprintf("Player %d, %s, %s, %s", p.ID, p.Name, p.Position, p.TeamName)
}

// TeamMatch is one finished match in a team's history.
type TeamMatch struct {
	MatchID   int
	Round     int
	Result    float64
	Form      float64
	EloBefore float64
	EloAfter  float64
	Expected  float64

	Points       int
	Contributors int
}

// Team represents a club in the league.
type Team struct {
	ID         int
	Name       string
	Code       int
	PlayerIDs  []int
	InitialElo float64
	History    []TeamMatch
}

// NewTeam validates the id and returns a team rated at elo.
func NewTeam(id int, name string, code int, elo float64) (*Team, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: team id %d", ErrInvalidID, id)
	}
	return &Team{ID: id, Name: name, Code: code, InitialElo: elo}, nil
}

// AddCurrentPlayer records membership once.
func (t *Team) AddCurrentPlayer(playerID int) {
	for _, id := range t.PlayerIDs {
		if id == playerID {
			return
		}
	}
	t.PlayerIDs = append(t.PlayerIDs, playerID)
}

// CurrentElo is the rating after the latest match, InitialElo without one.
func (t *Team) CurrentElo() float64 {
	if len(t.History) == 0 {
		return t.InitialElo
	}
	return t.History[len(t.History)-1].EloAfter
}

// CurrentForm is the form after the latest match, 0.5 without one.
func (t *Team) CurrentForm() float64 {
	if len(t.History) == 0 {
		return NeutralForm
	}
	return t.History[len(t.History)-1].Form
}

// MatchIndex finds matchID in the team's history.
func (t *Team) MatchIndex(matchID int) (int, bool) {
	for i, h := range t.History {
		if h.MatchID == matchID {
			return i, true
		}
	}
	return -1, false
}

// FormBefore is the form recorded after the match preceding history row i.
func (t *Team) FormBefore(i int) float64 {
	if i <= 0 || i > len(t.History) {
		return NeutralForm
	}
	return t.History[i-1].Form
}

func (t *Team) String() string {
	return fmt.Sprintf("Team %d, %s, %d current players", t.ID, t.Name, len(t.PlayerIDs))
}

// NeutralForm is the form of a team that has not played, and the
// expected score of a match without a rating.
const NeutralForm = 0.5

// Score holds the goals of a finished match.
type Score struct {
	Home int
	Away int
}

// Match represents a fixture between two teams.
type Match struct {
	ID       int
	Round    int
	HomeID   int
	AwayID   int
	HomeName string
	AwayName string
	Kickoff  time.Time
	Finished bool
	Score    *Score

	DeltaElo     float64
	DeltaForm    float64
	ExpectedHome float64
	ExpectedAway float64
}

// NewMatch validates a fixture. A finished match must carry its score.
func NewMatch(id, round int, home, away *Team, kickoff time.Time, finished bool, score *Score) (*Match, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: match id %d", ErrInvalidID, id)
	}
	if round < 1 {
		return nil, fmt.Errorf("%w: match %d round %d", ErrInvalidID, id, round)
	}
	if home.ID == away.ID {
		return nil, fmt.Errorf("%w: match %d has team %d on both sides", ErrInvalidInput, id, home.ID)
	}
	if finished && score == nil {
		return nil, fmt.Errorf("%w: finished match %d has no score", ErrInvalidInput, id)
	}
	m := &Match{
		ID:       id,
		Round:    round,
		HomeID:   home.ID,
		AwayID:   away.ID,
		HomeName: home.Name,
		AwayName: away.Name,
		Kickoff:  kickoff,
		Finished: finished,
		Score:    score,
	}
	m.ResetDerived()
	return m, nil
}

// ResetDerived restores the neutral derived attributes.
func (m *Match) ResetDerived() {
	m.DeltaElo = 0
	m.DeltaForm = 0
	m.ExpectedHome = NeutralForm
	m.ExpectedAway = NeutralForm
}

// Results returns the home and away results in {0, 0.5, 1}.
func (m *Match) Results() (home, away float64, ok bool) {
	if !m.Finished || m.Score == nil {
		return 0, 0, false
	}
	switch {
	case m.Score.Home > m.Score.Away:
		return 1, 0, true
	case m.Score.Home < m.Score.Away:
		return 0, 1, true
	}
	return 0.5, 0.5, true
}

// Involves reports whether teamID plays in the match.
func (m *Match) Involves(teamID int) bool {
	return m.HomeID == teamID || m.AwayID == teamID
}

// Opponent returns the side facing teamID.
func (m *Match) Opponent(teamID int) (int, bool) {
	switch teamID {
	case m.HomeID:
		return m.AwayID, true
	case m.AwayID:
		return m.HomeID, true
	}
	return 0, false
}

func (m *Match) ScoreLine() string {
	if m.Finished && m.Score != nil {
		return fmt.Sprintf("Round %d, %s %d - %d %s", m.Round, m.HomeName, m.Score.Home, m.Score.Away, m.AwayName)
	}
	return fmt.Sprintf("Round %d, %s - %s, starts %s", m.Round, m.HomeName, m.AwayName, m.Kickoff.Format(time.RFC3339))
}

// SquadRound is the user's squad as picked for one round.
type SquadRound struct {
	Round         int
	Bank          int
	FreeTransfers int
	PlayerIDs     []int
}

// Holds reports whether the squad picked playerID this round.
func (r SquadRound) Holds(playerID int) bool {
	for _, id := range r.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// Squad is the user's fantasy team.
type Squad struct {
	ID      int
	Name    string
	History []SquadRound
}

// NewSquad validates the id.
func NewSquad(id int, name string, history []SquadRound) (*Squad, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: squad id %d", ErrInvalidID, id)
	}
	return &Squad{ID: id, Name: name, History: history}, nil
}

// CurrentBank defaults to 1000 before any round is recorded.
func (s *Squad) CurrentBank() int {
	if len(s.History) == 0 {
		return 1000
	}
	return s.History[len(s.History)-1].Bank
}

// CurrentFreeTransfers defaults to 2 before any round is recorded.
func (s *Squad) CurrentFreeTransfers() int {
	if len(s.History) == 0 {
		return 2
	}
	return s.History[len(s.History)-1].FreeTransfers
}

// CurrentPlayers returns the latest picks.
func (s *Squad) CurrentPlayers() []int {
	if len(s.History) == 0 {
		return nil
	}
	return s.History[len(s.History)-1].PlayerIDs
}

// Holds reports whether playerID is in the latest picks.
func (s *Squad) Holds(playerID int) bool {
	if len(s.History) == 0 {
		return false
	}
	return s.History[len(s.History)-1].Holds(playerID)
}
