package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/fantasy-forecast/internal/league"
	"github.com/utakatalp/fantasy-forecast/internal/pipeline"
	"github.com/utakatalp/fantasy-forecast/internal/predict"
)

// annotated runs the pipeline over two teams, one played and one upcoming
// match, one player per team and a squad holding player 1.
func annotated(t *testing.T) *pipeline.Result {
	t.Helper()
	molde, err := league.NewTeam(1, "Molde", 10, 1000)
	require.NoError(t, err)
	viking, err := league.NewTeam(2, "Viking", 20, 1000)
	require.NoError(t, err)

	kickoff := time.Date(2022, 4, 3, 16, 0, 0, 0, time.UTC)
	played, err := league.NewMatch(11, 1, molde, viking, kickoff, true, &league.Score{Home: 2, Away: 0})
	require.NoError(t, err)
	next, err := league.NewMatch(12, 2, viking, molde, kickoff.AddDate(0, 0, 7), false, nil)
	require.NoError(t, err)

	striker, err := league.NewPlayer(1, "Striker", league.Forward, 1, "Molde", 80)
	require.NoError(t, err)
	striker.History = []league.PlayerRound{{Fixture: 11, Opponent: 2, Minutes: 90, Points: 9, Value: 78}}
	keeper, err := league.NewPlayer(2, "Keeper", league.Goalkeeper, 2, "Viking", 45)
	require.NoError(t, err)
	molde.AddCurrentPlayer(1)
	viking.AddCurrentPlayer(2)

	squad, err := league.NewSquad(5, "mine", []league.SquadRound{{Round: 1, Bank: 15, FreeTransfers: 1, PlayerIDs: []int{1}}})
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	p, err := pipeline.New(pipeline.DefaultOptions(), log)
	require.NoError(t, err)
	res, err := p.Run(pipeline.Input{
		Players: []*league.Player{striker, keeper},
		Teams:   []*league.Team{molde, viking},
		Matches: []*league.Match{played, next},
		Squad:   squad,
	}, &pipeline.Models{
		Full:   predict.Model{Const: 1, PlayerForm: 0.5, OpponentForm: -1, TeamDeltaElo: 0.01},
		Simple: predict.Model{Const: 2, PlayerForm: 0.25},
	})
	require.NoError(t, err)
	return res
}

func newTestServer(t *testing.T, res *pipeline.Result) http.Handler {
	t.Helper()
	log, _ := test.NewNullLogger()
	s := NewServer(log)
	if res != nil {
		s.SetResult(res)
	}
	return s.Handler()
}

func get(t *testing.T, h http.Handler, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if v != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	}
	return rec
}

func TestHealth(t *testing.T) {
	var body map[string]any
	rec := get(t, newTestServer(t, nil), "/api/health", &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["ready"])

	res := annotated(t)
	rec = get(t, newTestServer(t, res), "/api/health", &body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ready"])
	assert.Equal(t, res.RunID.String(), body["run_id"])
}

func TestHealthConsistentDuringSwap(t *testing.T) {
	res := annotated(t)
	log, _ := test.NewNullLogger()
	s := NewServer(log)
	h := s.Handler()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				s.SetResult(res)
			} else {
				s.SetResult(nil)
			}
		}
	}()
	for i := 0; i < 200; i++ {
		var body map[string]any
		get(t, h, "/api/health", &body)
		_, hasRun := body["run_id"]
		assert.Equal(t, body["ready"], hasRun)
	}
	<-done
}

func TestNoResultYet(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/teams", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"no pipeline result yet"}`, rec.Body.String())
}

func TestTeams(t *testing.T) {
	h := newTestServer(t, annotated(t))

	var teams []teamView
	rec := get(t, h, "/api/teams", &teams)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, teams, 2)
	assert.Equal(t, 1015.0, teams[0].CurrentElo)
	assert.Empty(t, teams[0].History)

	var team teamView
	rec = get(t, h, "/api/teams/2", &team)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Viking", team.Name)
	require.Len(t, team.History, 1)
	assert.Equal(t, 985.0, team.History[0].EloAfter)
	assert.Equal(t, 0, team.History[0].Points)

	rec = get(t, h, "/api/teams/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayer(t *testing.T) {
	h := newTestServer(t, annotated(t))

	var p playerView
	rec := get(t, h, "/api/players/1", &p)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fwd", p.Position)
	assert.False(t, p.Excluded)
	assert.InDelta(t, 9.0, p.CurrentForm, 1e-12)
	require.Len(t, p.History, 1)
	require.NotNil(t, p.History[0].TeamID)
	assert.Equal(t, 1, *p.History[0].TeamID)
	assert.Len(t, p.Predicted, 1)

	var keeper playerView
	rec = get(t, h, "/api/players/2", &keeper)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, keeper.Excluded)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/players/99", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/players/abc", nil).Code)
}

func TestMatches(t *testing.T) {
	h := newTestServer(t, annotated(t))

	var all []matchView
	require.Equal(t, http.StatusOK, get(t, h, "/api/matches", &all).Code)
	assert.Len(t, all, 2)

	var round []matchView
	require.Equal(t, http.StatusOK, get(t, h, "/api/matches?round=2", &round).Code)
	require.Len(t, round, 1)
	assert.Equal(t, 12, round[0].ID)
	assert.Nil(t, round[0].HomeGoals)
	assert.Equal(t, -30.0, round[0].DeltaElo)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/matches?round=x", nil).Code)
}

func TestTable(t *testing.T) {
	var table []league.TableEntry
	rec := get(t, newTestServer(t, annotated(t)), "/api/table", &table)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, table, 2)
	assert.Equal(t, "Molde", table[0].Name)
	assert.Equal(t, 3, table[0].Points)
	assert.Equal(t, 2, table[0].GoalDiff)
}

func TestSquad(t *testing.T) {
	res := annotated(t)
	h := newTestServer(t, res)

	var squad squadView
	require.Equal(t, http.StatusOK, get(t, h, "/api/squad", &squad).Code)
	assert.Equal(t, 15, squad.Bank)
	require.Len(t, squad.Players, 1)
	assert.Equal(t, 79, squad.Players[0].SquadAdjustedValue)

	res.Squad = nil
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/squad", nil).Code)
}

func TestModel(t *testing.T) {
	var models map[string]modelView
	require.Equal(t, http.StatusOK, get(t, newTestServer(t, annotated(t)), "/api/model", &models).Code)
	assert.Equal(t, 0.5, models["model"].PlayerForm)
	assert.Equal(t, 2.0, models["simple_model"].Const)
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	newTestServer(t, nil).ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeStops(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := NewServer(log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
