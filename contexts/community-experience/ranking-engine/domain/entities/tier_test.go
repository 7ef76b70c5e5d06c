package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForPartitionsPoints(t *testing.T) {
	cases := []struct {
		points int
		tier   Tier
	}{
		{0, TierE},
		{499, TierE},
		{500, TierD},
		{1499, TierD},
		{1500, TierC},
		{3999, TierC},
		{4000, TierB},
		{7999, TierB},
		{8000, TierA},
		{14999, TierA},
		{15000, TierS},
		{1_000_000, TierS},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, TierFor(tc.points), "points=%d", tc.points)
	}
}

func TestRankTableIsContiguous(t *testing.T) {
	table := RankTable()
	require.Len(t, table, 6)
	assert.Equal(t, 0, table[0].MinPoints)
	for i := 1; i < len(table); i++ {
		assert.Equal(t, table[i-1].MaxPoints+1, table[i].MinPoints, "tier %s", table[i].Tier)
	}
	assert.Equal(t, Unbounded, table[len(table)-1].MaxPoints)
}

func TestRankTableReturnsCopy(t *testing.T) {
	table := RankTable()
	table[0].Benefits[0] = "mutated"
	table[0].MinPoints = 42

	fresh := RankTable()
	assert.NotEqual(t, "mutated", fresh[0].Benefits[0])
	assert.Equal(t, 0, fresh[0].MinPoints)
}

func TestProgressForMidTier(t *testing.T) {
	progress, next := ProgressFor(1000, TierD)
	assert.InDelta(t, 50.05, progress, 0.01)
	assert.Equal(t, 500, next)
}

func TestProgressForTierBoundaries(t *testing.T) {
	progress, next := ProgressFor(500, TierD)
	assert.InDelta(t, 0, progress, 0.0001)
	assert.Equal(t, 1000, next)

	progress, next = ProgressFor(1499, TierD)
	assert.InDelta(t, 100, progress, 0.0001)
	assert.Equal(t, 1, next)
}

func TestProgressForTopTier(t *testing.T) {
	progress, next := ProgressFor(250_000, TierS)
	assert.Equal(t, 100.0, progress)
	assert.Equal(t, 0, next)
}

func TestParseTierIsCaseInsensitive(t *testing.T) {
	tier, ok := ParseTier(" a ")
	require.True(t, ok)
	assert.Equal(t, TierA, tier)

	_, ok = ParseTier("Z")
	assert.False(t, ok)
	assert.Equal(t, -1, TierRank("Z"))
	assert.Equal(t, TierE, ConfigFor("Z").Tier)
}
