package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/fantasy-forecast/internal/league"
	"github.com/utakatalp/fantasy-forecast/internal/predict"
	"github.com/utakatalp/fantasy-forecast/internal/rating"
)

// seasonInput:
//
//	round 1: A 2-0 B (1)
//	round 2: C 1-1 A (2)
//	round 3: B v C (3)
//	round 4: A v C (4)
//
// Player 3 moved from A to C after round 1; player 4 has a row for an
// unknown fixture.
func seasonInput(t *testing.T) Input {
	t.Helper()
	var teams []*league.Team
	for i, name := range []string{"A", "B", "C"} {
		team, err := league.NewTeam(i+1, name, i+1, 0)
		require.NoError(t, err)
		teams = append(teams, team)
	}
	a, b, c := teams[0], teams[1], teams[2]

	start := time.Date(2022, 4, 2, 18, 0, 0, 0, time.UTC)
	var matches []*league.Match
	add := func(id, round int, home, away *league.Team, score *league.Score) {
		m, err := league.NewMatch(id, round, home, away, start.AddDate(0, 0, 7*round), score != nil, score)
		require.NoError(t, err)
		matches = append(matches, m)
	}
	// appended out of kickoff order on purpose
	add(4, 4, a, c, nil)
	add(1, 1, a, b, &league.Score{Home: 2, Away: 0})
	add(3, 3, b, c, nil)
	add(2, 2, c, a, &league.Score{Home: 1, Away: 1})

	player := func(id int, team *league.Team, value int, rows ...league.PlayerRound) *league.Player {
		p, err := league.NewPlayer(id, "P", league.Midfielder, team.ID, team.Name, value)
		require.NoError(t, err)
		p.History = rows
		team.AddCurrentPlayer(id)
		return p
	}
	players := []*league.Player{
		player(1, a, 56,
			league.PlayerRound{Fixture: 1, Opponent: 2, Minutes: 90, Points: 6, Value: 50},
			league.PlayerRound{Fixture: 2, Opponent: 3, Minutes: 90, Points: 3, Value: 52}),
		player(2, b, 45,
			league.PlayerRound{Fixture: 1, Opponent: 1, Minutes: 90, Points: 1, Value: 40}),
		player(3, c, 70,
			league.PlayerRound{Fixture: 1, Opponent: 2, Minutes: 30, Points: 2, Value: 70},
			league.PlayerRound{Fixture: 2, Opponent: 1, Minutes: 90, Points: 5, Value: 70}),
		player(4, b, 40,
			league.PlayerRound{Fixture: 99, Opponent: 1, Minutes: 90, Points: 10, Value: 40},
			league.PlayerRound{Fixture: 1, Opponent: 1, Minutes: 90, Points: 10, Value: 40}),
	}

	squad, err := league.NewSquad(5, "Squad", []league.SquadRound{
		{Round: 1, Bank: 20, FreeTransfers: 1, PlayerIDs: []int{2, 3}},
		{Round: 2, Bank: 15, FreeTransfers: 1, PlayerIDs: []int{1, 2}},
	})
	require.NoError(t, err)

	return Input{
		Players:    players,
		Teams:      teams,
		Matches:    matches,
		Squad:      squad,
		InitialElo: map[string]float64{"A": 1100},
	}
}

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	log, _ := test.NewNullLogger()
	p, err := New(DefaultOptions(), log)
	require.NoError(t, err)
	return p
}

func TestRunWithModels(t *testing.T) {
	in := seasonInput(t)
	models := &Models{
		Full:   predict.Model{Const: 1, PlayerForm: 0.5, OpponentForm: -1, TeamDeltaElo: 0.01},
		Simple: predict.Model{Const: 2, PlayerForm: 0.25},
	}

	res, err := newPipeline(t).Run(in, models)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, res.RunID)
	assert.Nil(t, res.Fit)
	assert.Equal(t, *models, res.Models)
	assert.Equal(t, 1, res.Unresolved)

	// matches sorted by kickoff in place
	ids := make([]int, len(res.Matches))
	for i, m := range res.Matches {
		ids[i] = m.ID
	}
	assert.Equal(t, []int{1, 2, 3, 4}, ids)

	a, b, c := res.Teams[0], res.Teams[1], res.Teams[2]
	assert.Equal(t, 1100.0, a.InitialElo)
	assert.Equal(t, 1000.0, b.InitialElo)
	require.Len(t, a.History, 2)
	assert.Equal(t, 1100.0, a.History[0].EloBefore)
	assert.InDelta(t, rating.Expected(1100, 1000), a.History[0].Expected, 1e-12)
	assert.Equal(t, a.History[0].EloAfter, a.History[1].EloBefore)

	// match 1: player 1 and player 3 for A, player 2 for B
	assert.Equal(t, 8, a.History[0].Points)
	assert.Equal(t, 2, a.History[0].Contributors)
	assert.Equal(t, 1, b.History[0].Points)
	// match 2: player 3 for C, player 1 for A
	assert.Equal(t, 5, c.History[0].Points)
	assert.Equal(t, 3, a.History[1].Points)

	next := res.Matches[2]
	assert.InDelta(t, b.CurrentElo()-c.CurrentElo(), next.DeltaElo, 1e-9)
	assert.Equal(t, 0.5, res.Matches[3].ExpectedHome)

	p1, err := res.Catalog.Player(1)
	require.NoError(t, err)
	assert.Equal(t, &league.Resolution{TeamID: 1, Round: 2}, p1.History[1].Resolved)
	assert.InDelta(t, rating.Form([]float64{6, 3}, 0.6), p1.CurrentForm(), 1e-12)
	assert.Equal(t, 54, p1.SquadAdjustedValue)

	p2, err := res.Catalog.Player(2)
	require.NoError(t, err)
	assert.Equal(t, 42, p2.SquadAdjustedValue)

	p3, err := res.Catalog.Player(3)
	require.NoError(t, err)
	assert.Equal(t, 1, p3.History[0].Resolved.TeamID)
	assert.Equal(t, 3, p3.History[1].Resolved.TeamID)
	assert.Equal(t, 70, p3.SquadAdjustedValue)

	p4, err := res.Catalog.Player(4)
	require.NoError(t, err)
	assert.True(t, p4.Excluded())

	for _, p := range res.Players {
		assert.Len(t, p.Predicted, 2, "player %d", p.ID)
	}
	// player 1 has two rows: simple model; no match in round 3
	assert.Equal(t, 0.0, p1.Predicted[0])
	assert.InDelta(t, 2+0.25*p1.CurrentForm(), p1.Predicted[1], 1e-9)
}

func TestRunIsRepeatable(t *testing.T) {
	in := seasonInput(t)
	models := &Models{Simple: predict.Model{Const: 1}}
	pl := newPipeline(t)

	first, err := pl.Run(in, models)
	require.NoError(t, err)
	elo := first.Teams[0].CurrentElo()
	points := first.Teams[0].History[0].Points

	second, err := pl.Run(in, models)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, elo, second.Teams[0].CurrentElo())
	assert.Equal(t, points, second.Teams[0].History[0].Points)
}

func TestAnnotateSingleRowTransfer(t *testing.T) {
	in := seasonInput(t)
	// one appearance for A against B, now at C
	moved, err := league.NewPlayer(7, "P", league.Defender, 3, "C", 50)
	require.NoError(t, err)
	moved.History = []league.PlayerRound{{Fixture: 1, Opponent: 2, Minutes: 90, Points: 4, Value: 50}}
	in.Players = append(in.Players, moved)

	res, err := newPipeline(t).Annotate(in)
	require.NoError(t, err)

	assert.Equal(t, &league.Resolution{TeamID: 1, Round: 1}, moved.History[0].Resolved)
	assert.False(t, moved.Excluded())
	assert.Equal(t, 12, res.Teams[0].History[0].Points)
	assert.Equal(t, 3, res.Teams[0].History[0].Contributors)
}

func TestFitNeedsData(t *testing.T) {
	pl := newPipeline(t)
	res, err := pl.Annotate(seasonInput(t))
	require.NoError(t, err)

	_, err = pl.Fit(res)
	assert.ErrorIs(t, err, league.ErrInsufficientData)

	_, err = pl.Run(seasonInput(t), nil)
	assert.ErrorIs(t, err, league.ErrInsufficientData)
}

func TestAnnotateRejectsDuplicates(t *testing.T) {
	in := seasonInput(t)
	in.Players = append(in.Players, in.Players[0])

	_, err := newPipeline(t).Annotate(in)
	assert.ErrorIs(t, err, league.ErrInvalidInput)
}

func TestAnnotateWithoutSquad(t *testing.T) {
	in := seasonInput(t)
	in.Squad = nil

	res, err := newPipeline(t).Annotate(in)
	require.NoError(t, err)
	p1, err := res.Catalog.Player(1)
	require.NoError(t, err)
	assert.Equal(t, p1.CurrentValue, p1.SquadAdjustedValue)
}

func TestNewRejectsBadOptions(t *testing.T) {
	log, _ := test.NewNullLogger()
	opts := DefaultOptions()
	opts.Rating.K = -1

	_, err := New(opts, log)
	assert.ErrorIs(t, err, league.ErrInvalidInput)
}
