package elo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllPairs(t *testing.T) {
	assert.Nil(t, AllPairs(0))
	assert.Nil(t, AllPairs(1))
	assert.Equal(t, []Pair{{A: 0, B: 1}}, AllPairs(2))

	pairs := AllPairs(4)
	assert.Len(t, pairs, 6)
	assert.Equal(t, Pair{A: 0, B: 1}, pairs[0])
	assert.Equal(t, Pair{A: 2, B: 3}, pairs[5])
}

func TestExpected(t *testing.T) {
	assert.InDelta(t, 0.5, Expected(1200, 1200), 1e-9)
	// 400 points of advantage is roughly a 10:1 expectation.
	assert.InDelta(t, 10.0/11.0, Expected(1600, 1200), 1e-9)
	assert.InDelta(t, 1.0, Expected(1200, 1200)+Expected(1200, 1200), 1e-9)
}

func TestUpdate_DecisiveIsZeroSum(t *testing.T) {
	ra, rb := Update(1200, 1200, 1, 0, DefaultK)
	assert.InDelta(t, 1216, ra, 1e-9)
	assert.InDelta(t, 1184, rb, 1e-9)
	assert.InDelta(t, 0, (ra-1200)+(rb-1200), 1e-9)

	// Uneven ratings stay zero-sum on decisive outcomes.
	ra, rb = Update(1350, 1100, 0, 1, DefaultK)
	assert.InDelta(t, 0, (ra-1350)+(rb-1100), 1e-9)
}

func TestUpdate_HalfPointTieLeavesEqualRatingsUnchanged(t *testing.T) {
	ra, rb := Update(1200, 1200, 0.5, 0.5, DefaultK)
	assert.InDelta(t, 1200, ra, 1e-9)
	assert.InDelta(t, 1200, rb, 1e-9)
}

func TestUpdate_ZeroScoresPullBothDown(t *testing.T) {
	ra, rb := Update(1200, 1200, 0, 0, DefaultK)
	assert.Less(t, ra, 1200.0)
	assert.Less(t, rb, 1200.0)
	assert.InDelta(t, ra, rb, 1e-9)
}

func TestTable_Standings(t *testing.T) {
	table := NewTable([]string{"a", "b", "c"}, InitialRating, DefaultK)
	table.Apply("a", "b", 1, 0)
	table.Apply("a", "c", 1, 0)

	standings := table.Standings()
	require.Len(t, standings, 3)
	assert.Equal(t, "a", standings[0].ID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, 3, standings[2].Rank)
}

func TestTable_EqualRatingsKeepInsertionOrder(t *testing.T) {
	table := NewTable([]string{"x", "y", "z"}, InitialRating, DefaultK)

	standings := table.Standings()
	require.Len(t, standings, 3)
	assert.Equal(t, "x", standings[0].ID)
	assert.Equal(t, "y", standings[1].ID)
	assert.Equal(t, "z", standings[2].ID)
	for i, s := range standings {
		assert.Equal(t, i+1, s.Rank)
		assert.True(t, math.Abs(s.Rating-InitialRating) < 1e-9)
	}
}
