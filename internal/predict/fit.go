package predict

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// TeamLookup finds a team by id.
type TeamLookup interface {
	Team(id int) (*league.Team, error)
}

// Sample is one training row: the points a player scored in a match and
// the features known before it.
type Sample struct {
	Points       float64
	PlayerForm   float64
	OpponentForm float64
	DeltaElo     float64
}

// FitResult holds both fitted models and their diagnostics.
type FitResult struct {
	Full    Model
	Simple  Model
	Samples int

	RMS       float64
	SimpleRMS float64
	// BaselineRMS scores the naive prediction points = player form.
	BaselineRMS float64
}

// TrainingSamples builds the fit rows from players with at least
// MinHistory rows and a mean of at least MinMeanPoints. Rows without
// minutes are skipped.
func TrainingSamples(players []*league.Player, teams TeamLookup, opts Options) ([]Sample, error) {
	warmup := opts.WarmupRounds
	if warmup < 1 {
		warmup = 1
	}
	var samples []Sample
	for _, p := range players {
		if p.Excluded() || len(p.History) < opts.MinHistory || meanPoints(p.History) < opts.MinMeanPoints {
			continue
		}
		for i := warmup; i < len(p.History); i++ {
			row := p.History[i]
			if row.Minutes == 0 {
				continue
			}
			team, j, err := teamMatch(teams, row.Resolved.TeamID, p, row.Fixture)
			if err != nil {
				return nil, err
			}
			opponent, k, err := teamMatch(teams, row.Opponent, p, row.Fixture)
			if err != nil {
				return nil, err
			}
			samples = append(samples, Sample{
				Points:       float64(row.Points),
				PlayerForm:   p.History[i-1].Form,
				OpponentForm: opponent.FormBefore(k),
				DeltaElo:     team.History[j].EloBefore - opponent.History[k].EloBefore,
			})
		}
	}
	return samples, nil
}

func teamMatch(teams TeamLookup, teamID int, p *league.Player, matchID int) (*league.Team, int, error) {
	t, err := teams.Team(teamID)
	if err != nil {
		return nil, 0, fmt.Errorf("player %d match %d: %w", p.ID, matchID, err)
	}
	i, ok := t.MatchIndex(matchID)
	if !ok {
		return nil, 0, fmt.Errorf("%w: player %d match %d not in history of team %d",
			league.ErrMissingMatch, p.ID, matchID, t.ID)
	}
	return t, i, nil
}

func meanPoints(rows []league.PlayerRound) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rows {
		sum += r.Points
	}
	return float64(sum) / float64(len(rows))
}

// Fit estimates the full and the simple model by ordinary least squares
// with an intercept.
func Fit(samples []Sample) (FitResult, error) {
	n := len(samples)
	y := make([]float64, n)
	playerForm := make([]float64, n)
	opponentForm := make([]float64, n)
	deltaElo := make([]float64, n)
	for i, s := range samples {
		y[i] = s.Points
		playerForm[i] = s.PlayerForm
		opponentForm[i] = s.OpponentForm
		deltaElo[i] = s.DeltaElo
	}

	full, err := ols(y, playerForm, opponentForm, deltaElo)
	if err != nil {
		return FitResult{}, fmt.Errorf("full model: %w", err)
	}
	simple, err := ols(y, playerForm)
	if err != nil {
		return FitResult{}, fmt.Errorf("simple model: %w", err)
	}

	res := FitResult{
		Full:    Model{Const: full[0], PlayerForm: full[1], OpponentForm: full[2], TeamDeltaElo: full[3]},
		Simple:  Model{Const: simple[0], PlayerForm: simple[1]},
		Samples: n,
	}
	var sq, sqSimple, sqBase float64
	for _, s := range samples {
		d := res.Full.Evaluate(s.PlayerForm, s.OpponentForm, s.DeltaElo) - s.Points
		sq += d * d
		d = res.Simple.Evaluate(s.PlayerForm, 0, 0) - s.Points
		sqSimple += d * d
		d = s.PlayerForm - s.Points
		sqBase += d * d
	}
	res.RMS = math.Sqrt(sq / float64(n))
	res.SimpleRMS = math.Sqrt(sqSimple / float64(n))
	res.BaselineRMS = math.Sqrt(sqBase / float64(n))
	return res, nil
}

// ols returns the intercept followed by one coefficient per column.
func ols(y []float64, cols ...[]float64) ([]float64, error) {
	n, p := len(y), len(cols)+1
	if n <= p {
		return nil, fmt.Errorf("%w: %d samples for %d coefficients", league.ErrInsufficientData, n, p)
	}
	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, c := range cols {
			x.Set(i, j+1, c[i])
		}
	}
	var beta mat.VecDense
	if err := beta.SolveVec(x, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("%w: %v", league.ErrInsufficientData, err)
	}
	out := make([]float64, p)
	for i := range out {
		out[i] = beta.AtVec(i)
	}
	return out, nil
}
