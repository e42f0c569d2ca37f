package valuation

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/fantasy-forecast/internal/league"
)

// resolvedPlayer has one resolved history row per round in rounds, priced
// by values.
func resolvedPlayer(t *testing.T, id, current int, rounds, values []int) *league.Player {
	t.Helper()
	p, err := league.NewPlayer(id, "Player", league.Forward, 1, "A", current)
	require.NoError(t, err)
	for i, r := range rounds {
		p.History = append(p.History, league.PlayerRound{
			Fixture:  r * 10,
			Value:    values[i],
			Resolved: &league.Resolution{TeamID: 1, Round: r},
		})
	}
	return p
}

func squad(t *testing.T, rounds ...league.SquadRound) *league.Squad {
	t.Helper()
	s, err := league.NewSquad(7, "Squad", rounds)
	require.NoError(t, err)
	return s
}

func picks(round int, ids ...int) league.SquadRound {
	return league.SquadRound{Round: round, Bank: 10, FreeTransfers: 1, PlayerIDs: ids}
}

func TestAcquisitionValueAfterLatestAbsence(t *testing.T) {
	p := resolvedPlayer(t, 9, 60, []int{4, 5, 6, 7, 8}, []int{45, 48, 50, 55, 58})
	s := squad(t, picks(3, 1), picks(4, 1), picks(5, 1), picks(6, 9), picks(7, 9), picks(8, 9))

	v, err := AcquisitionValue(s, p)
	require.NoError(t, err)
	assert.Equal(t, 55, v)
}

func TestAcquisitionValueRoundsDown(t *testing.T) {
	p := resolvedPlayer(t, 9, 60, []int{1, 2}, []int{51, 55})
	s := squad(t, picks(1, 1), picks(2, 9))

	v, err := AcquisitionValue(s, p)
	require.NoError(t, err)
	assert.Equal(t, 57, v)
}

func TestAcquisitionValueHeldThroughout(t *testing.T) {
	p := resolvedPlayer(t, 9, 70, []int{1, 2, 3}, []int{64, 66, 68})
	s := squad(t, picks(1, 9), picks(2, 9), picks(3, 9))

	v, err := AcquisitionValue(s, p)
	require.NoError(t, err)
	assert.Equal(t, 67, v)
}

func TestAcquisitionValueFallsBackToAbsentRound(t *testing.T) {
	// no row in round 3 (blank gameweek), so round 2's price is used
	p := resolvedPlayer(t, 9, 60, []int{1, 2, 4}, []int{50, 52, 58})
	s := squad(t, picks(2, 1), picks(3, 9), picks(4, 9))

	v, err := AcquisitionValue(s, p)
	require.NoError(t, err)
	assert.Equal(t, 56, v)
}

func TestAcquisitionValueUnknownRound(t *testing.T) {
	p := resolvedPlayer(t, 9, 60, []int{1, 2}, []int{50, 52})
	s := squad(t, picks(5, 1), picks(6, 9))

	_, err := AcquisitionValue(s, p)
	assert.ErrorIs(t, err, league.ErrSquadValue)
}

func TestAcquisitionValueUnsortedHistory(t *testing.T) {
	p := resolvedPlayer(t, 9, 60, []int{1, 2, 3}, []int{40, 44, 48})
	s := squad(t, picks(3, 9), picks(1, 1), picks(2, 9))

	v, err := AcquisitionValue(s, p)
	require.NoError(t, err)
	assert.Equal(t, 52, v)
	assert.Equal(t, 3, s.History[0].Round)
}

func TestAcquisitionValueExcludedPlayer(t *testing.T) {
	noHistory, err := league.NewPlayer(9, "New", league.Defender, 1, "A", 45)
	require.NoError(t, err)

	unresolved := resolvedPlayer(t, 10, 80, []int{1, 2}, []int{70, 75})
	unresolved.History[1].Resolved = nil

	s := squad(t, picks(1, 1), picks(2, 9, 10))
	for _, p := range []*league.Player{noHistory, unresolved} {
		v, err := AcquisitionValue(s, p)
		require.NoError(t, err)
		assert.Equal(t, p.CurrentValue, v)
	}
}

func TestAnnotate(t *testing.T) {
	held := resolvedPlayer(t, 9, 60, []int{1, 2}, []int{50, 56})
	sold := resolvedPlayer(t, 3, 90, []int{1, 2}, []int{80, 85})
	cat, err := league.NewCatalog([]*league.Player{held, sold}, nil, nil)
	require.NoError(t, err)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	s := squad(t, picks(1, 3), picks(2, 9))
	require.NoError(t, Annotate(s, cat, log))

	assert.Equal(t, 58, held.SquadAdjustedValue)
	assert.Equal(t, 90, sold.SquadAdjustedValue)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, 9, hook.LastEntry().Data["player_id"])
}

func TestAnnotateUnknownPlayer(t *testing.T) {
	cat, err := league.NewCatalog(nil, nil, nil)
	require.NoError(t, err)
	log, _ := test.NewNullLogger()

	err = Annotate(squad(t, picks(1, 42)), cat, log)
	assert.ErrorIs(t, err, league.ErrNotFound)
}
