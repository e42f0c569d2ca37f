package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// SquadSize is the number of picks every round must carry.
const SquadSize = 15

// maxRounds bounds the picks scan.
const maxRounds = 100

// Season is the raw data of one competition season.
type Season struct {
	Players []*league.Player
	Teams   []*league.Team
	Matches []*league.Match
	Squad   *league.Squad
}

// PlayersAndTeams reads /bootstrap-static/. Unavailable teams are skipped;
// players are attached to their team by team code.
func (c *Client) PlayersAndTeams(ctx context.Context, defaultElo float64) ([]*league.Player, []*league.Team, error) {
	var res bootstrapResponse
	if err := c.getJSON(ctx, "bootstrap-static/", &res); err != nil {
		return nil, nil, err
	}

	teams := make([]*league.Team, 0, len(res.Teams))
	for _, t := range res.Teams {
		if t.Unavailable {
			continue
		}
		team, err := league.NewTeam(t.ID, t.Name, t.Code, defaultElo)
		if err != nil {
			return nil, nil, err
		}
		teams = append(teams, team)
	}
	cat, err := league.NewCatalog(nil, teams, nil)
	if err != nil {
		return nil, nil, err
	}

	players := make([]*league.Player, 0, len(res.Elements))
	for _, e := range res.Elements {
		pos, err := league.PositionFromElementType(e.ElementType)
		if err != nil {
			return nil, nil, fmt.Errorf("player %d: %w", e.ID, err)
		}
		team, err := cat.TeamByCode(e.TeamCode)
		if err != nil {
			return nil, nil, fmt.Errorf("player %d: %w", e.ID, err)
		}
		p, err := league.NewPlayer(e.ID, e.WebName, pos, team.ID, team.Name, e.NowCost)
		if err != nil {
			return nil, nil, err
		}
		if e.ChanceOfPlayingNextRound != nil {
			p.Availability = float64(*e.ChanceOfPlayingNextRound) * 0.01
		}
		team.AddCurrentPlayer(p.ID)
		players = append(players, p)
	}
	return players, teams, nil
}

// Matches reads /fixtures/ and returns the scheduled fixtures sorted by
// kickoff. Fixtures without a round are skipped.
func (c *Client) Matches(ctx context.Context, teams []*league.Team) ([]*league.Match, error) {
	var res []apiFixture
	if err := c.getJSON(ctx, "fixtures/", &res); err != nil {
		return nil, err
	}
	cat, err := league.NewCatalog(nil, teams, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]*league.Match, 0, len(res))
	for _, f := range res {
		if f.Event == nil {
			c.log.WithField("match_id", f.ID).Info("fixture has no round, skipping")
			continue
		}
		home, err := cat.Team(f.TeamH)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", f.ID, err)
		}
		away, err := cat.Team(f.TeamA)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", f.ID, err)
		}
		var kickoff time.Time
		if f.KickoffTime != nil {
			if kickoff, err = time.Parse(time.RFC3339, *f.KickoffTime); err != nil {
				return nil, fmt.Errorf("match %d kickoff: %w", f.ID, err)
			}
		}
		finished := f.Finished
		var score *league.Score
		if finished && f.TeamHScore != nil && f.TeamAScore != nil {
			score = &league.Score{Home: *f.TeamHScore, Away: *f.TeamAScore}
		} else if finished {
			c.log.WithField("match_id", f.ID).Warn("finished fixture has no score, treating as unplayed")
			finished = false
		}
		m, err := league.NewMatch(f.ID, *f.Event, home, away, kickoff, finished, score)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	league.SortByKickoff(matches)
	return matches, nil
}

// PlayerHistory reads /element-summary/{id}/ into p.History. An empty
// history leaves the player without rows.
func (c *Client) PlayerHistory(ctx context.Context, p *league.Player) error {
	var res elementSummaryResponse
	if err := c.getJSON(ctx, fmt.Sprintf("element-summary/%d/", p.ID), &res); err != nil {
		return err
	}
	if len(res.History) == 0 {
		return nil
	}
	rows := make([]league.PlayerRound, 0, len(res.History))
	for _, h := range res.History {
		kickoff, err := time.Parse(time.RFC3339, h.KickoffTime)
		if err != nil {
			return fmt.Errorf("player %d fixture %d kickoff: %w", p.ID, h.Fixture, err)
		}
		rows = append(rows, league.PlayerRound{
			Fixture:  h.Fixture,
			Opponent: h.OpponentTeam,
			Kickoff:  kickoff,
			Minutes:  h.Minutes,
			Points:   h.TotalPoints,
			Value:    h.Value,
		})
	}
	p.History = rows
	return nil
}

// AddPlayerHistory fetches every player's history through a bounded worker
// pool, then retries once, sequentially, for players still without rows.
// Failures are logged and never fail the run.
func (c *Client) AddPlayerHistory(ctx context.Context, players []*league.Player) {
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, p := range players {
		g.Go(func() error {
			if err := c.PlayerHistory(ctx, p); err != nil {
				c.log.WithError(err).WithField("player_id", p.ID).Debug("history fetch failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, p := range players {
		if p.HasHistory() {
			continue
		}
		c.log.WithField("player_id", p.ID).Info("trying again for player history")
		err := c.PlayerHistory(ctx, p)
		if err != nil || !p.HasHistory() {
			c.log.WithFields(logrus.Fields{
				"player_id": p.ID,
				"player":    p.Name,
			}).WithError(err).Warn("unable to get history for player")
		}
	}

	c.log.WithField("elapsed", time.Since(start).String()).Info("player history retrieved")
}

// Squad reads /entry/{id}/event/{gw}/picks/ for gw = 1, 2, ... until the
// API refuses a round.
func (c *Client) Squad(ctx context.Context, squadID int, name string) (*league.Squad, error) {
	var history []league.SquadRound
	for gw := 1; gw < maxRounds; gw++ {
		var res picksResponse
		err := c.getJSON(ctx, fmt.Sprintf("entry/%d/event/%d/picks/", squadID, gw), &res)
		var se *StatusError
		if errors.As(err, &se) {
			break
		}
		if err != nil {
			return nil, err
		}

		ids := make([]int, 0, len(res.Picks))
		for _, pick := range res.Picks {
			ids = append(ids, pick.Element)
		}
		if len(ids) != SquadSize {
			return nil, fmt.Errorf("%w: squad %d round %d has %d players", league.ErrInvalidInput, squadID, gw, len(ids))
		}

		free := 1
		if res.EntryHistory.EventTransfers == 0 && (res.ActiveChip == nil || *res.ActiveChip != "wildcard") {
			free = 2
		}
		history = append(history, league.SquadRound{
			Round:         res.EntryHistory.Event,
			Bank:          res.EntryHistory.Bank,
			FreeTransfers: free,
			PlayerIDs:     ids,
		})
	}
	return league.NewSquad(squadID, name, history)
}

// Season retrieves teams, players with history, matches and, when squadID
// is set, the squad.
func (c *Client) Season(ctx context.Context, squadID int, defaultElo float64) (*Season, error) {
	players, teams, err := c.PlayersAndTeams(ctx, defaultElo)
	if err != nil {
		return nil, fmt.Errorf("players and teams: %w", err)
	}
	c.AddPlayerHistory(ctx, players)

	matches, err := c.Matches(ctx, teams)
	if err != nil {
		return nil, fmt.Errorf("matches: %w", err)
	}

	s := &Season{Players: players, Teams: teams, Matches: matches}
	if squadID > 0 {
		if s.Squad, err = c.Squad(ctx, squadID, "my_squad"); err != nil {
			return nil, fmt.Errorf("squad: %w", err)
		}
	}
	return s, nil
}
