// Package rating derives team strength (Elo), team and player form, match
// deltas and team aggregate points from the match and player history.
package rating

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// Engine runs the chronological rating pass.
type Engine struct {
	opts Options
	log  logrus.FieldLogger
}

func NewEngine(opts Options, log logrus.FieldLogger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, log: log.WithField("component", "rating")}, nil
}

type teamState struct {
	team    *league.Team
	elo     float64
	results []float64
}

func (s *teamState) form() float64 {
	return s.team.CurrentForm()
}

// RateTeams rebuilds every team's history and every match's derived
// attributes from scratch. Finished matches are processed in kickoff order
// across all teams; matches of the next unplayed round get expected scores
// and deltas from the resulting ratings without updating them.
func (e *Engine) RateTeams(teams []*league.Team, matches []*league.Match) error {
	states := make(map[int]*teamState, len(teams))
	for _, t := range teams {
		t.History = nil
		states[t.ID] = &teamState{team: t, elo: t.InitialElo}
	}

	ordered := make([]*league.Match, len(matches))
	copy(ordered, matches)
	league.SortByKickoff(ordered)

	sides := func(m *league.Match) (*teamState, *teamState, error) {
		home, ok := states[m.HomeID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: home team %d of match %d", league.ErrNotFound, m.HomeID, m.ID)
		}
		away, ok := states[m.AwayID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: away team %d of match %d", league.ErrNotFound, m.AwayID, m.ID)
		}
		return home, away, nil
	}

	for _, m := range ordered {
		m.ResetDerived()
		if !m.Finished {
			continue
		}
		home, away, err := sides(m)
		if err != nil {
			return err
		}
		homeResult, awayResult, ok := m.Results()
		if !ok {
			return fmt.Errorf("%w: finished match %d has no score", league.ErrInvalidInput, m.ID)
		}

		expHome := e.annotate(m, home, away)
		expAway := 1 - expHome

		e.record(home, m, homeResult, expHome)
		e.record(away, m, awayResult, expAway)

		e.log.WithFields(logrus.Fields{
			"match_id": m.ID,
			"round":    m.Round,
			"home_elo": home.elo,
			"away_elo": away.elo,
		}).Debug("rated match")
	}

	next, ok := league.NextRound(matches)
	if !ok {
		return nil
	}
	for _, m := range ordered {
		if m.Finished || m.Round != next {
			continue
		}
		home, away, err := sides(m)
		if err != nil {
			return err
		}
		e.annotate(m, home, away)
	}
	return nil
}

// annotate stores the pre-match deltas and expected scores on m and
// returns the home expectation.
func (e *Engine) annotate(m *league.Match, home, away *teamState) float64 {
	expHome := Expected(home.elo, away.elo)
	m.DeltaElo = home.elo - away.elo
	m.DeltaForm = home.form() - away.form()
	m.ExpectedHome = expHome
	m.ExpectedAway = 1 - expHome
	return expHome
}

func (e *Engine) record(s *teamState, m *league.Match, result, expected float64) {
	before := s.elo
	s.elo = Update(before, expected, result, e.opts.K)
	s.results = append(s.results, result)
	s.team.History = append(s.team.History, league.TeamMatch{
		MatchID:   m.ID,
		Round:     m.Round,
		Result:    result,
		Form:      Form(s.results, e.opts.TeamFormDecay),
		EloBefore: before,
		EloAfter:  s.elo,
		Expected:  expected,
	})
}

// RatePlayers writes the running points form onto every history row of
// the players not excluded from analysis.
func (e *Engine) RatePlayers(players []*league.Player) {
	for _, p := range players {
		if p.Excluded() {
			continue
		}
		points := make([]float64, len(p.History))
		for i, r := range p.History {
			points[i] = float64(r.Points)
		}
		for i, f := range Forms(points, e.opts.PlayerFormDecay) {
			p.History[i].Form = f
		}
	}
}

// TeamLookup finds a team by id.
type TeamLookup interface {
	Team(id int) (*league.Team, error)
}

// AggregateTeamPoints sums, per team match, the points of the players who
// represented the team in it, and counts those with minutes on the pitch.
// Players excluded from analysis are skipped. Run after RateTeams, which
// resets the team histories.
func AggregateTeamPoints(teams []*league.Team, players []*league.Player, lookup TeamLookup) error {
	for _, t := range teams {
		for i := range t.History {
			t.History[i].Points = 0
			t.History[i].Contributors = 0
		}
	}
	for _, p := range players {
		if p.Excluded() {
			continue
		}
		for _, row := range p.History {
			team, err := lookup.Team(row.Resolved.TeamID)
			if err != nil {
				return fmt.Errorf("player %d fixture %d: %w", p.ID, row.Fixture, err)
			}
			i, ok := team.MatchIndex(row.Fixture)
			if !ok {
				return fmt.Errorf("%w: player %d (%s) match %d not in history of team %d (%s)",
					league.ErrMissingMatch, p.ID, p.Name, row.Fixture, team.ID, team.Name)
			}
			team.History[i].Points += row.Points
			if row.Minutes > 0 {
				team.History[i].Contributors++
			}
		}
	}
	return nil
}
