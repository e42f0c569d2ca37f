package api

import (
	"time"

	"github.com/utakatalp/fantasy-forecast/internal/league"
	"github.com/utakatalp/fantasy-forecast/internal/predict"
)

type teamView struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Code        int             `json:"code"`
	PlayerIDs   []int           `json:"current_player_ids"`
	CurrentElo  float64         `json:"current_elo"`
	CurrentForm float64         `json:"current_form"`
	History     []teamMatchView `json:"history,omitempty"`
}

type teamMatchView struct {
	MatchID      int     `json:"match_id"`
	Round        int     `json:"round"`
	Result       float64 `json:"result"`
	Form         float64 `json:"form"`
	EloBefore    float64 `json:"elo_before_match"`
	EloAfter     float64 `json:"elo_after_match"`
	Expected     float64 `json:"expected_result"`
	Points       int     `json:"points"`
	Contributors int     `json:"contributors"`
}

func newTeamView(t *league.Team, withHistory bool) teamView {
	v := teamView{
		ID:          t.ID,
		Name:        t.Name,
		Code:        t.Code,
		PlayerIDs:   t.PlayerIDs,
		CurrentElo:  t.CurrentElo(),
		CurrentForm: t.CurrentForm(),
	}
	if withHistory {
		for _, h := range t.History {
			v.History = append(v.History, teamMatchView(h))
		}
	}
	return v
}

type playerView struct {
	ID                 int               `json:"id"`
	Name               string            `json:"name"`
	Position           string            `json:"position"`
	TeamID             int               `json:"current_team_id"`
	TeamName           string            `json:"current_team_name"`
	Availability       float64           `json:"chance_of_playing"`
	CurrentValue       int               `json:"current_value"`
	SquadAdjustedValue int               `json:"squad_adjusted_value"`
	CurrentForm        float64           `json:"current_form"`
	Excluded           bool              `json:"excluded"`
	Predicted          []float64         `json:"predicted_points"`
	History            []playerRoundView `json:"history,omitempty"`
}

type playerRoundView struct {
	Fixture  int     `json:"fixture"`
	Opponent int     `json:"opponent_team"`
	TeamID   *int    `json:"team_id"`
	Round    *int    `json:"round"`
	Minutes  int     `json:"minutes"`
	Points   int     `json:"total_points"`
	Value    int     `json:"value"`
	Form     float64 `json:"form"`
}

func newPlayerView(p *league.Player, withHistory bool) playerView {
	v := playerView{
		ID:                 p.ID,
		Name:               p.Name,
		Position:           string(p.Position),
		TeamID:             p.TeamID,
		TeamName:           p.TeamName,
		Availability:       p.Availability,
		CurrentValue:       p.CurrentValue,
		SquadAdjustedValue: p.SquadAdjustedValue,
		CurrentForm:        p.CurrentForm(),
		Excluded:           p.Excluded(),
		Predicted:          p.Predicted,
	}
	if withHistory {
		for _, r := range p.History {
			rv := playerRoundView{
				Fixture:  r.Fixture,
				Opponent: r.Opponent,
				Minutes:  r.Minutes,
				Points:   r.Points,
				Value:    r.Value,
				Form:     r.Form,
			}
			if r.Resolved != nil {
				team, round := r.Resolved.TeamID, r.Resolved.Round
				rv.TeamID, rv.Round = &team, &round
			}
			v.History = append(v.History, rv)
		}
	}
	return v
}

type matchView struct {
	ID           int       `json:"id"`
	Round        int       `json:"round"`
	HomeID       int       `json:"home_team_id"`
	AwayID       int       `json:"away_team_id"`
	HomeName     string    `json:"home_team_name"`
	AwayName     string    `json:"away_team_name"`
	Kickoff      time.Time `json:"start_time"`
	Finished     bool      `json:"finished"`
	HomeGoals    *int      `json:"home_goals"`
	AwayGoals    *int      `json:"away_goals"`
	DeltaElo     float64   `json:"delta_elo"`
	DeltaForm    float64   `json:"delta_form"`
	ExpectedHome float64   `json:"expected_home_score"`
	ExpectedAway float64   `json:"expected_away_score"`
}

func newMatchView(m *league.Match) matchView {
	v := matchView{
		ID:           m.ID,
		Round:        m.Round,
		HomeID:       m.HomeID,
		AwayID:       m.AwayID,
		HomeName:     m.HomeName,
		AwayName:     m.AwayName,
		Kickoff:      m.Kickoff,
		Finished:     m.Finished,
		DeltaElo:     m.DeltaElo,
		DeltaForm:    m.DeltaForm,
		ExpectedHome: m.ExpectedHome,
		ExpectedAway: m.ExpectedAway,
	}
	if m.Score != nil {
		home, away := m.Score.Home, m.Score.Away
		v.HomeGoals, v.AwayGoals = &home, &away
	}
	return v
}

type squadView struct {
	ID            int          `json:"squad_id"`
	Name          string       `json:"name"`
	Bank          int          `json:"bank"`
	FreeTransfers int          `json:"n_free_transfers"`
	Players       []playerView `json:"players"`
}

type modelView struct {
	Const        float64 `json:"constant"`
	PlayerForm   float64 `json:"player_form"`
	OpponentForm float64 `json:"opponent_team_form"`
	TeamDeltaElo float64 `json:"team_delta_elo"`
}

func newModelView(m predict.Model) modelView {
	return modelView(m)
}
