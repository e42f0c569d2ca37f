package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-forecast/internal/api"
	"github.com/utakatalp/fantasy-forecast/internal/config"
	"github.com/utakatalp/fantasy-forecast/internal/fetch"
	"github.com/utakatalp/fantasy-forecast/internal/league"
	"github.com/utakatalp/fantasy-forecast/internal/logger"
	"github.com/utakatalp/fantasy-forecast/internal/pipeline"
	"github.com/utakatalp/fantasy-forecast/internal/predict"
	"github.com/utakatalp/fantasy-forecast/internal/rating"
	"github.com/utakatalp/fantasy-forecast/internal/store"
)

func main() {
	serve := flag.Bool("serve", false, "serve the result over HTTP after the run")
	refit := flag.Bool("refit", false, "fit the models even when descriptor files exist")
	table := flag.Bool("table", false, "print the league table")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, cfg, log, *refit)
	if err != nil {
		log.WithError(err).Fatal("pipeline failed")
	}

	printSquad(log, res)
	if *table {
		if err := league.WriteTable(os.Stdout, league.CalculateTable(res.Matches)); err != nil {
			log.WithError(err).Error("printing table")
		}
	}

	if *serve {
		srv := api.NewServer(log)
		srv.SetResult(res)
		if err := srv.ListenAndServe(ctx, ":"+cfg.Port); err != nil {
			log.WithError(err).Fatal("server stopped")
		}
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger, refit bool) (*pipeline.Result, error) {
	clientCfg := fetch.ClientConfig{
		BaseURL:           cfg.APIBaseURL,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Workers:           cfg.FetchWorkers,
		CacheTTL:          cfg.CacheTTL,
	}
	if cfg.RedisURL != "" {
		cache, err := fetch.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
		clientCfg.Cache = cache
	}
	client := fetch.NewClient(clientCfg, log)

	season, err := client.Season(ctx, cfg.SquadID, cfg.DefaultElo)
	if err != nil {
		return nil, err
	}
	initialElo, err := rating.LoadInitialElo(cfg.InitialEloPath())
	if err != nil {
		return nil, err
	}

	var st *store.Store
	if cfg.DatabaseURL != "" {
		if st, err = store.NewStore(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		defer st.Close()
		if err := st.Migrate(); err != nil {
			return nil, err
		}
	}

	p, err := pipeline.New(cfg.PipelineOptions(), log)
	if err != nil {
		return nil, err
	}
	res, err := p.Annotate(pipeline.Input{
		Players:    season.Players,
		Teams:      season.Teams,
		Matches:    season.Matches,
		Squad:      season.Squad,
		InitialElo: initialElo,
	})
	if err != nil {
		return nil, err
	}

	models, ok, err := existingModels(cfg.DataDir, st)
	if err != nil {
		return nil, err
	}
	if refit || !ok {
		if models, err = p.Fit(res); err != nil {
			return nil, err
		}
		if err := saveModels(cfg.DataDir, models, log); err != nil {
			return nil, err
		}
	}

	if err := p.Predict(res, models); err != nil {
		return nil, err
	}

	if st != nil {
		if err := st.SaveResult(res); err != nil {
			return nil, err
		}
		log.WithField("run_id", res.RunID.String()).Info("result stored")
	}
	return res, nil
}

// existingModels prefers the descriptor files in dir and falls back to the
// latest models stored in the database.
func existingModels(dir string, st *store.Store) (pipeline.Models, bool, error) {
	models, err := loadModels(dir)
	if err == nil {
		return models, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return pipeline.Models{}, false, err
	}
	if st == nil {
		return pipeline.Models{}, false, nil
	}
	full, okFull, err := st.LatestModel("full")
	if err != nil {
		return pipeline.Models{}, false, err
	}
	simple, okSimple, err := st.LatestModel("simple")
	if err != nil {
		return pipeline.Models{}, false, err
	}
	return pipeline.Models{Full: full, Simple: simple}, okFull && okSimple, nil
}

func loadModels(dir string) (pipeline.Models, error) {
	full, err := predict.Load(filepath.Join(dir, predict.FullModelFile))
	if err != nil {
		return pipeline.Models{}, err
	}
	simple, err := predict.Load(filepath.Join(dir, predict.SimpleModelFile))
	if err != nil {
		return pipeline.Models{}, err
	}
	return pipeline.Models{Full: full, Simple: simple}, nil
}

func saveModels(dir string, models pipeline.Models, log logrus.FieldLogger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, m := range []predict.Model{models.Full, models.Simple} {
		path, err := m.Save(dir)
		if err != nil {
			return err
		}
		log.WithField("path", path).Info("model written")
	}
	return nil
}

func printSquad(log logrus.FieldLogger, res *pipeline.Result) {
	if res.Squad == nil {
		return
	}
	log.WithFields(logrus.Fields{
		"squad":          res.Squad.Name,
		"bank":           res.Squad.CurrentBank(),
		"free_transfers": res.Squad.CurrentFreeTransfers(),
	}).Info("squad")
	for _, id := range res.Squad.CurrentPlayers() {
		p, err := res.Catalog.Player(id)
		if err != nil {
			log.WithError(err).Warn("squad player missing")
			continue
		}
		log.WithFields(logrus.Fields{
			"player":               p.String(),
			"current_value":        p.CurrentValue,
			"squad_adjusted_value": p.SquadAdjustedValue,
			"predicted_points":     p.Predicted,
		}).Info("squad player")
	}
}
