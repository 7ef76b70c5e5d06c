package entities

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, math.MaxInt32, DaysSince(time.Time{}, now))
	assert.Equal(t, 0, DaysSince(now.Add(-23*time.Hour), now))
	assert.Equal(t, 1, DaysSince(now.Add(-25*time.Hour), now))
	assert.Equal(t, 0, DaysSince(now.Add(time.Hour), now))
}

func TestCompositeScoreWeights(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	user := UserRanking{
		UserID:       "u",
		TotalPoints:  2000,
		BugsFound:    4,
		Streak:       7,
		LastActivity: now.Add(-2 * 24 * time.Hour),
	}

	metrics := CompositeScore(user, now)
	assert.InDelta(t, 800, metrics.PointsWeight, 0.0001)
	assert.InDelta(t, 22.5, metrics.ActivityWeight, 0.0001)
	assert.InDelta(t, 16.8, metrics.ConsistencyWeight, 0.0001)
	assert.InDelta(t, 75, metrics.QualityWeight, 0.0001)
	assert.InDelta(t, 914.3, metrics.Total, 0.0001)
}

func TestCompositeScoreWithoutActivity(t *testing.T) {
	metrics := CompositeScore(UserRanking{UserID: "idle"}, time.Now())
	assert.Equal(t, 0.0, metrics.Total)
}

func TestOrderLeaderboardCanDivergeFromRawPoints(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	dormant := UserRanking{
		UserID:       "dormant",
		TotalPoints:  5000,
		BugsFound:    50,
		LastActivity: now.Add(-40 * 24 * time.Hour),
	}
	active := UserRanking{
		UserID:       "active",
		TotalPoints:  4900,
		BugsFound:    5,
		Streak:       30,
		LastActivity: now,
	}
	dormant.Recalculate()
	active.Recalculate()

	entries := OrderLeaderboard([]UserRanking{dormant, active}, now)
	require.Len(t, entries, 2)
	assert.Equal(t, "active", entries[0].Ranking.UserID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, "dormant", entries[1].Ranking.UserID)
	assert.Equal(t, 2, entries[1].Position)
	assert.Equal(t, entries[0].Ranking.Tier, entries[1].Ranking.Tier)
}

func TestOrderLeaderboardBreaksTiesByUserID(t *testing.T) {
	now := time.Now()
	entries := OrderLeaderboard([]UserRanking{{UserID: "b"}, {UserID: "a"}, {UserID: "c"}}, now)
	require.Len(t, entries, 3)
	assert.Equal(t, "a", entries[0].Ranking.UserID)
	assert.Equal(t, "b", entries[1].Ranking.UserID)
	assert.Equal(t, "c", entries[2].Ranking.UserID)
}
