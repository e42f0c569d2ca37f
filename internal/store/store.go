package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/utakatalp/fantasy-forecast/internal/league"
	"github.com/utakatalp/fantasy-forecast/internal/pipeline"
	"github.com/utakatalp/fantasy-forecast/internal/predict"
)

// Store wraps a Postgres connection and persists annotated season data.
type Store struct {
	DB *sql.DB
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id          INT PRIMARY KEY,
			name        TEXT NOT NULL,
			code        INT  NOT NULL,
			initial_elo DOUBLE PRECISION NOT NULL,
			player_ids  INT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS team_history (
			team_id      INT NOT NULL REFERENCES teams(id),
			match_id     INT NOT NULL,
			round        INT NOT NULL,
			result       DOUBLE PRECISION NOT NULL,
			form         DOUBLE PRECISION NOT NULL,
			elo_before   DOUBLE PRECISION NOT NULL,
			elo_after    DOUBLE PRECISION NOT NULL,
			expected     DOUBLE PRECISION NOT NULL,
			points       INT NOT NULL,
			contributors INT NOT NULL,
			PRIMARY KEY (team_id, match_id)
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id            INT PRIMARY KEY,
			round         INT NOT NULL,
			home_team_id  INT NOT NULL REFERENCES teams(id),
			away_team_id  INT NOT NULL REFERENCES teams(id),
			kickoff_time  TIMESTAMPTZ,
			finished      BOOLEAN NOT NULL,
			home_goals    INT,
			away_goals    INT,
			delta_elo     DOUBLE PRECISION NOT NULL,
			delta_form    DOUBLE PRECISION NOT NULL,
			expected_home DOUBLE PRECISION NOT NULL,
			expected_away DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id                   INT PRIMARY KEY,
			name                 TEXT NOT NULL,
			position             TEXT NOT NULL,
			team_id              INT NOT NULL,
			availability         DOUBLE PRECISION NOT NULL,
			current_value        INT NOT NULL,
			squad_adjusted_value INT NOT NULL,
			predicted_points     DOUBLE PRECISION[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS player_history (
			player_id   INT NOT NULL REFERENCES players(id),
			row_index   INT NOT NULL,
			fixture_id  INT NOT NULL,
			opponent_id INT NOT NULL,
			team_id     INT,
			round       INT,
			minutes     INT NOT NULL,
			points      INT NOT NULL,
			value       INT NOT NULL,
			form        DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (player_id, row_index)
		)`,
		`CREATE TABLE IF NOT EXISTS squad_history (
			squad_id       INT NOT NULL,
			name           TEXT NOT NULL,
			round          INT NOT NULL,
			bank           INT NOT NULL,
			free_transfers INT NOT NULL,
			player_ids     INT[] NOT NULL,
			PRIMARY KEY (squad_id, round)
		)`,
		`CREATE TABLE IF NOT EXISTS model_runs (
			run_id         UUID NOT NULL,
			kind           TEXT NOT NULL,
			constant       DOUBLE PRECISION NOT NULL,
			player_form    DOUBLE PRECISION NOT NULL,
			opponent_form  DOUBLE PRECISION NOT NULL,
			team_delta_elo DOUBLE PRECISION NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (run_id, kind)
		)`,
	}
	for _, q := range queries {
		if _, err := s.DB.Exec(q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// SaveTeams upserts the teams and replaces their match history.
func (s *Store) SaveTeams(teams []*league.Team) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin SaveTeams tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
	INSERT INTO teams (id, name, code, initial_elo, player_ids)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, code = EXCLUDED.code,
	    initial_elo = EXCLUDED.initial_elo, player_ids = EXCLUDED.player_ids
	`
	const insertHistory = `
	INSERT INTO team_history
	  (team_id, match_id, round, result, form, elo_before, elo_after, expected, points, contributors)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, t := range teams {
		if _, err := tx.Exec(upsert, t.ID, t.Name, t.Code, t.InitialElo, pq.Array(t.PlayerIDs)); err != nil {
			return fmt.Errorf("upserting team %d (%s): %w", t.ID, t.Name, err)
		}
		if _, err := tx.Exec(`DELETE FROM team_history WHERE team_id = $1`, t.ID); err != nil {
			return fmt.Errorf("clearing history of team %d: %w", t.ID, err)
		}
		for _, h := range t.History {
			if _, err := tx.Exec(insertHistory,
				t.ID, h.MatchID, h.Round, h.Result, h.Form,
				h.EloBefore, h.EloAfter, h.Expected, h.Points, h.Contributors,
			); err != nil {
				return fmt.Errorf("inserting team %d match %d: %w", t.ID, h.MatchID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveTeams tx: %w", err)
	}
	return nil
}

// SaveMatches upserts the matches with their derived attributes.
func (s *Store) SaveMatches(matches []*league.Match) error {
	const q = `
	INSERT INTO matches
	  (id, round, home_team_id, away_team_id, kickoff_time, finished, home_goals, away_goals,
	   delta_elo, delta_form, expected_home, expected_away)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE
	SET round = EXCLUDED.round, kickoff_time = EXCLUDED.kickoff_time, finished = EXCLUDED.finished,
	    home_goals = EXCLUDED.home_goals, away_goals = EXCLUDED.away_goals,
	    delta_elo = EXCLUDED.delta_elo, delta_form = EXCLUDED.delta_form,
	    expected_home = EXCLUDED.expected_home, expected_away = EXCLUDED.expected_away
	`
	for _, m := range matches {
		var home, away sql.NullInt64
		if m.Score != nil {
			home = sql.NullInt64{Int64: int64(m.Score.Home), Valid: true}
			away = sql.NullInt64{Int64: int64(m.Score.Away), Valid: true}
		}
		var kickoff sql.NullTime
		if !m.Kickoff.IsZero() {
			kickoff = sql.NullTime{Time: m.Kickoff, Valid: true}
		}
		if _, err := s.DB.Exec(q,
			m.ID, m.Round, m.HomeID, m.AwayID, kickoff, m.Finished, home, away,
			m.DeltaElo, m.DeltaForm, m.ExpectedHome, m.ExpectedAway,
		); err != nil {
			return fmt.Errorf("saving match %d: %w", m.ID, err)
		}
	}
	return nil
}

// SavePlayers upserts the players and replaces their history rows.
func (s *Store) SavePlayers(players []*league.Player) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin SavePlayers tx: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
	INSERT INTO players
	  (id, name, position, team_id, availability, current_value, squad_adjusted_value, predicted_points)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, position = EXCLUDED.position, team_id = EXCLUDED.team_id,
	    availability = EXCLUDED.availability, current_value = EXCLUDED.current_value,
	    squad_adjusted_value = EXCLUDED.squad_adjusted_value, predicted_points = EXCLUDED.predicted_points
	`
	const insertHistory = `
	INSERT INTO player_history
	  (player_id, row_index, fixture_id, opponent_id, team_id, round, minutes, points, value, form)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, p := range players {
		predicted := p.Predicted
		if predicted == nil {
			predicted = []float64{}
		}
		if _, err := tx.Exec(upsert,
			p.ID, p.Name, string(p.Position), p.TeamID, p.Availability,
			p.CurrentValue, p.SquadAdjustedValue, pq.Array(predicted),
		); err != nil {
			return fmt.Errorf("upserting player %d (%s): %w", p.ID, p.Name, err)
		}
		if _, err := tx.Exec(`DELETE FROM player_history WHERE player_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clearing history of player %d: %w", p.ID, err)
		}
		for i, r := range p.History {
			var team, round sql.NullInt64
			if r.Resolved != nil {
				team = sql.NullInt64{Int64: int64(r.Resolved.TeamID), Valid: true}
				round = sql.NullInt64{Int64: int64(r.Resolved.Round), Valid: true}
			}
			if _, err := tx.Exec(insertHistory,
				p.ID, i, r.Fixture, r.Opponent, team, round, r.Minutes, r.Points, r.Value, r.Form,
			); err != nil {
				return fmt.Errorf("inserting player %d row %d: %w", p.ID, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SavePlayers tx: %w", err)
	}
	return nil
}

// SaveSquad upserts one row per recorded squad round.
func (s *Store) SaveSquad(squad *league.Squad) error {
	const q = `
	INSERT INTO squad_history (squad_id, name, round, bank, free_transfers, player_ids)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (squad_id, round) DO UPDATE
	SET name = EXCLUDED.name, bank = EXCLUDED.bank,
	    free_transfers = EXCLUDED.free_transfers, player_ids = EXCLUDED.player_ids
	`
	for _, r := range squad.History {
		if _, err := s.DB.Exec(q, squad.ID, squad.Name, r.Round, r.Bank, r.FreeTransfers, pq.Array(r.PlayerIDs)); err != nil {
			return fmt.Errorf("saving squad %d round %d: %w", squad.ID, r.Round, err)
		}
	}
	return nil
}

// ModelKind names the model variant in model_runs.
func ModelKind(m predict.Model) string {
	if m.Simple() {
		return "simple"
	}
	return "full"
}

// SaveModel records a fitted model under the run id.
func (s *Store) SaveModel(runID string, m predict.Model) error {
	const q = `
	INSERT INTO model_runs (run_id, kind, constant, player_form, opponent_form, team_delta_elo)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (run_id, kind) DO NOTHING
	`
	kind := ModelKind(m)
	if _, err := s.DB.Exec(q, runID, kind, m.Const, m.PlayerForm, m.OpponentForm, m.TeamDeltaElo); err != nil {
		return fmt.Errorf("saving %s model of run %s: %w", kind, runID, err)
	}
	return nil
}

// LatestModel loads the most recently stored model of the given kind.
func (s *Store) LatestModel(kind string) (predict.Model, bool, error) {
	const q = `
	SELECT constant, player_form, opponent_form, team_delta_elo
	FROM model_runs
	WHERE kind = $1
	ORDER BY created_at DESC
	LIMIT 1
	`
	var m predict.Model
	err := s.DB.QueryRow(q, kind).Scan(&m.Const, &m.PlayerForm, &m.OpponentForm, &m.TeamDeltaElo)
	if errors.Is(err, sql.ErrNoRows) {
		return predict.Model{}, false, nil
	}
	if err != nil {
		return predict.Model{}, false, fmt.Errorf("loading %s model: %w", kind, err)
	}
	return m, true, nil
}

// SaveResult persists every annotated entity of a pipeline run, and its
// models when they were fitted in this run.
func (s *Store) SaveResult(res *pipeline.Result) error {
	if err := s.SaveTeams(res.Teams); err != nil {
		return err
	}
	if err := s.SaveMatches(res.Matches); err != nil {
		return err
	}
	if err := s.SavePlayers(res.Players); err != nil {
		return err
	}
	if res.Squad != nil {
		if err := s.SaveSquad(res.Squad); err != nil {
			return err
		}
	}
	if res.Fit != nil {
		for _, m := range []predict.Model{res.Models.Full, res.Models.Simple} {
			if err := s.SaveModel(res.RunID.String(), m); err != nil {
				return err
			}
		}
	}
	return nil
}
