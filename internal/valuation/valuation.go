// Package valuation estimates what the squad effectively paid for each
// player it currently holds.
package valuation

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// PlayerLookup finds a player by id.
type PlayerLookup interface {
	Player(id int) (*league.Player, error)
}

// AcquisitionValue is floor((value at the first owned round + current
// value) / 2). The first owned round follows the most recent round in which
// the squad did not hold the player; a player held in every recorded round
// uses the value of its earliest history row. A player without usable
// history keeps its current value.
func AcquisitionValue(squad *league.Squad, p *league.Player) (int, error) {
	if p.Excluded() {
		return p.CurrentValue, nil
	}

	rounds := make([]league.SquadRound, len(squad.History))
	copy(rounds, squad.History)
	sort.SliceStable(rounds, func(i, j int) bool { return rounds[i].Round < rounds[j].Round })

	absent, found := 0, false
	for i := len(rounds) - 1; i >= 0; i-- {
		if !rounds[i].Holds(p.ID) {
			absent, found = rounds[i].Round, true
			break
		}
	}

	var bought int
	if !found {
		bought = p.History[0].Value
	} else {
		v, ok := p.ValueAtRound(absent + 1)
		if !ok {
			v, ok = p.ValueAtRound(absent)
		}
		if !ok {
			return 0, fmt.Errorf("%w: player %d (%s), %d history rows, rounds %v, ambiguous round %d",
				league.ErrSquadValue, p.ID, p.Name, len(p.History), historyRounds(p), absent)
		}
		bought = v
	}
	return int(math.Floor(0.5 * float64(bought+p.CurrentValue))), nil
}

func historyRounds(p *league.Player) []int {
	out := make([]int, 0, len(p.History))
	for _, r := range p.History {
		if r.Resolved != nil {
			out = append(out, r.Resolved.Round)
		}
	}
	return out
}

// Annotate sets SquadAdjustedValue on every player the squad holds now.
func Annotate(squad *league.Squad, players PlayerLookup, log logrus.FieldLogger) error {
	for _, id := range squad.CurrentPlayers() {
		p, err := players.Player(id)
		if err != nil {
			return fmt.Errorf("squad %d: %w", squad.ID, err)
		}
		v, err := AcquisitionValue(squad, p)
		if err != nil {
			return err
		}
		p.SquadAdjustedValue = v
		log.WithFields(logrus.Fields{
			"component":      "valuation",
			"player_id":      p.ID,
			"current_value":  p.CurrentValue,
			"adjusted_value": v,
		}).Debug("squad value")
	}
	return nil
}
