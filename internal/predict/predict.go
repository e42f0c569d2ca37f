package predict

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// Predictor turns fitted models into per-round predictions.
type Predictor struct {
	Full   Model
	Simple Model
	Opts   Options
}

// Player predicts one value per round from next to last inclusive.
//
// A player whose chance of playing is below MinAvailability gets zeros. A
// player averaging below LowAverage over the last RecentRounds rows gets
// the current form for every round. Otherwise each round sums, over the
// team's matches in that round, availability times the model prediction,
// using the simple model for players with fewer than MinHistory rows.
// Excluded players are predicted like players without history.
func (pr Predictor) Player(p *league.Player, teams TeamLookup, matches []*league.Match, next, last int) ([]float64, error) {
	n := last - next + 1
	if n <= 0 {
		return nil, nil
	}
	out := make([]float64, n)

	if p.Availability < pr.Opts.MinAvailability {
		return out, nil
	}
	excluded := p.Excluded()
	if !excluded && recentMean(p.History, pr.Opts.RecentRounds) < pr.Opts.LowAverage {
		form := p.CurrentForm()
		for i := range out {
			out[i] = form
		}
		return out, nil
	}

	team, err := teams.Team(p.TeamID)
	if err != nil {
		return nil, fmt.Errorf("player %d: %w", p.ID, err)
	}
	// excluded players are treated as having no history
	model, form := pr.Full, p.CurrentForm()
	if excluded {
		model, form = pr.Simple, league.DefaultPlayerForm
	} else if len(p.History) < pr.Opts.MinHistory {
		model = pr.Simple
	}

	for r := next; r <= last; r++ {
		score := 0.0
		for _, m := range league.RoundMatches(matches, r, team.ID) {
			opponentID, _ := m.Opponent(team.ID)
			opponent, err := teams.Team(opponentID)
			if err != nil {
				return nil, fmt.Errorf("player %d match %d: %w", p.ID, m.ID, err)
			}
			score += p.Availability * model.Evaluate(form, opponent.CurrentForm(), team.CurrentElo()-opponent.CurrentElo())
		}
		out[r-next] = score
	}
	return out, nil
}

func recentMean(rows []league.PlayerRound, window int) float64 {
	if window > 0 && len(rows) > window {
		rows = rows[len(rows)-window:]
	}
	return meanPoints(rows)
}

// All sets Predicted on every player for the rounds left in the season.
// Without an unplayed round every prediction is empty.
func (pr Predictor) All(players []*league.Player, teams TeamLookup, matches []*league.Match, log logrus.FieldLogger) error {
	next, ok := league.NextRound(matches)
	if !ok {
		for _, p := range players {
			p.Predicted = nil
		}
		log.WithField("component", "predict").Info("season finished, nothing to predict")
		return nil
	}
	last := league.LastRound(matches)
	for _, p := range players {
		pts, err := pr.Player(p, teams, matches, next, last)
		if err != nil {
			return err
		}
		p.Predicted = pts
	}
	log.WithFields(logrus.Fields{
		"component":  "predict",
		"next_round": next,
		"last_round": last,
		"players":    len(players),
	}).Info("predicted remaining rounds")
	return nil
}
