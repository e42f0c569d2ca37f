// Package pipeline runs the forward annotation pass over the season data:
// lineage, rating, valuation and prediction, in that order.
package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-forecast/internal/league"
	"github.com/utakatalp/fantasy-forecast/internal/lineage"
	"github.com/utakatalp/fantasy-forecast/internal/predict"
	"github.com/utakatalp/fantasy-forecast/internal/rating"
	"github.com/utakatalp/fantasy-forecast/internal/valuation"
)

// Input is the raw season data handed over by the provisioning side.
type Input struct {
	Players []*league.Player
	Teams   []*league.Team
	Matches []*league.Match
	Squad   *league.Squad
	// InitialElo maps team name to starting rating.
	InitialElo map[string]float64
}

// Options configures every stage.
type Options struct {
	Rating  rating.Options
	Predict predict.Options
}

func DefaultOptions() Options {
	return Options{Rating: rating.DefaultOptions(), Predict: predict.DefaultOptions()}
}

// Models are the fitted predictors, either loaded or produced by Fit.
type Models struct {
	Full   predict.Model
	Simple predict.Model
}

// Result holds the annotated entities of one run.
type Result struct {
	RunID   uuid.UUID
	Catalog *league.Catalog
	Players []*league.Player
	Teams   []*league.Team
	Matches []*league.Match
	Squad   *league.Squad

	Unresolved int
	Fit        *predict.FitResult
	Models     Models
}

// Pipeline holds the stage configuration. It keeps no state between runs.
type Pipeline struct {
	opts   Options
	engine *rating.Engine
	log    logrus.FieldLogger
}

func New(opts Options, log logrus.FieldLogger) (*Pipeline, error) {
	engine, err := rating.NewEngine(opts.Rating, log)
	if err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts, engine: engine, log: log}, nil
}

// Annotate runs lineage, rating and valuation over in. Entities are
// mutated in place and returned in the Result.
func (p *Pipeline) Annotate(in Input) (*Result, error) {
	res := &Result{
		RunID:   uuid.New(),
		Players: in.Players,
		Teams:   in.Teams,
		Matches: in.Matches,
		Squad:   in.Squad,
	}
	log := p.log.WithField("run_id", res.RunID.String())

	cat, err := league.NewCatalog(in.Players, in.Teams, in.Matches)
	if err != nil {
		return nil, err
	}
	res.Catalog = cat
	league.SortByKickoff(res.Matches)

	for _, t := range res.Teams {
		t.InitialElo = p.opts.Rating.InitialElo(in.InitialElo, t.Name)
	}

	res.Unresolved, err = lineage.ResolveAll(res.Players, cat, log)
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}

	if err := p.engine.RateTeams(res.Teams, res.Matches); err != nil {
		return nil, fmt.Errorf("rating teams: %w", err)
	}
	p.engine.RatePlayers(res.Players)
	if err := rating.AggregateTeamPoints(res.Teams, res.Players, cat); err != nil {
		return nil, fmt.Errorf("team points: %w", err)
	}

	if res.Squad != nil {
		if err := valuation.Annotate(res.Squad, cat, log); err != nil {
			return nil, fmt.Errorf("valuation: %w", err)
		}
	}

	log.WithFields(logrus.Fields{
		"players":    len(res.Players),
		"teams":      len(res.Teams),
		"matches":    len(res.Matches),
		"unresolved": res.Unresolved,
	}).Info("annotated season")
	return res, nil
}

// Fit estimates both models from the annotated result.
func (p *Pipeline) Fit(res *Result) (Models, error) {
	samples, err := predict.TrainingSamples(res.Players, res.Catalog, p.opts.Predict)
	if err != nil {
		return Models{}, fmt.Errorf("training samples: %w", err)
	}
	fit, err := predict.Fit(samples)
	if err != nil {
		return Models{}, err
	}
	res.Fit = &fit
	p.log.WithFields(logrus.Fields{
		"run_id":       res.RunID.String(),
		"samples":      fit.Samples,
		"rms":          fit.RMS,
		"simple_rms":   fit.SimpleRMS,
		"baseline_rms": fit.BaselineRMS,
	}).Info("fitted points model")
	return Models{Full: fit.Full, Simple: fit.Simple}, nil
}

// Predict fills Predicted for every player.
func (p *Pipeline) Predict(res *Result, models Models) error {
	res.Models = models
	pr := predict.Predictor{Full: models.Full, Simple: models.Simple, Opts: p.opts.Predict}
	return pr.All(res.Players, res.Catalog, res.Matches, p.log.WithField("run_id", res.RunID.String()))
}

// Run annotates the input, fits models unless given, and predicts.
func (p *Pipeline) Run(in Input, models *Models) (*Result, error) {
	res, err := p.Annotate(in)
	if err != nil {
		return nil, err
	}
	var m Models
	if models != nil {
		m = *models
	} else if m, err = p.Fit(res); err != nil {
		return nil, err
	}
	if err := p.Predict(res, m); err != nil {
		return nil, err
	}
	return res, nil
}
