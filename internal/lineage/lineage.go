// Package lineage reconstructs which team a player represented in each
// past match, using the recorded opponent and the match catalog.
package lineage

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// MatchLookup finds a match by id.
type MatchLookup interface {
	Match(id int) (*league.Match, error)
}

// Resolutions returns one Resolution per history row of p. A nil slice
// with a nil error means at least one referenced match is unknown and the
// whole history stays unresolved.
func Resolutions(p *league.Player, matches MatchLookup) ([]league.Resolution, error) {
	found := make([]*league.Match, len(p.History))
	for i, row := range p.History {
		m, err := matches.Match(row.Fixture)
		if errors.Is(err, league.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		found[i] = m
	}

	out := make([]league.Resolution, len(p.History))
	// a single row of the current team needs no opponent check
	if len(p.History) == 1 && found[0].Involves(p.TeamID) {
		out[0] = league.Resolution{TeamID: p.TeamID, Round: found[0].Round}
		return out, nil
	}

	for i, row := range p.History {
		m := found[i]
		team, ok := m.Opponent(row.Opponent)
		if !ok {
			return nil, fmt.Errorf("%w: player %d row %d: opponent %d not in match %d (%d v %d)",
				league.ErrLineage, p.ID, i, row.Opponent, m.ID, m.HomeID, m.AwayID)
		}
		out[i] = league.Resolution{TeamID: team, Round: m.Round}
	}
	return out, nil
}

// Resolve annotates the player's history rows in place. Rows of a player
// whose history references an unknown match are all cleared.
func Resolve(p *league.Player, matches MatchLookup) (bool, error) {
	res, err := Resolutions(p, matches)
	if err != nil {
		return false, err
	}
	for i := range p.History {
		if res == nil {
			p.History[i].Resolved = nil
			continue
		}
		r := res[i]
		p.History[i].Resolved = &r
	}
	return res != nil, nil
}

// ResolveAll runs Resolve for every player with history and returns the
// number left unresolved.
func ResolveAll(players []*league.Player, matches MatchLookup, log logrus.FieldLogger) (int, error) {
	unresolved := 0
	for _, p := range players {
		if !p.HasHistory() {
			log.WithField("player_id", p.ID).Debug("no history, skipping lineage")
			continue
		}
		ok, err := Resolve(p, matches)
		if err != nil {
			return unresolved, err
		}
		if !ok {
			unresolved++
			log.WithFields(logrus.Fields{
				"player_id": p.ID,
				"player":    p.Name,
			}).Warn("history references an unknown match, player excluded")
		}
	}
	return unresolved, nil
}
