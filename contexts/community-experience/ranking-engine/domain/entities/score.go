package entities

import (
	"math"
	"sort"
	"time"
)

const (
	pointsWeight      = 0.4
	activityWeight    = 0.25
	consistencyWeight = 0.2
	qualityWeight     = 0.15

	activityDecayPerDay = 5.0
)

// RankingMetrics is the composite leaderboard score and its weighted parts.
// It orders the leaderboard only; tier always follows raw TotalPoints.
type RankingMetrics struct {
	Total             float64
	PointsWeight      float64
	ActivityWeight    float64
	ConsistencyWeight float64
	QualityWeight     float64
}

// DaysSince counts whole days elapsed between last and now.
func DaysSince(last time.Time, now time.Time) int {
	if last.IsZero() {
		return math.MaxInt32
	}
	elapsed := now.Sub(last)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

func CompositeScore(user UserRanking, now time.Time) RankingMetrics {
	days := DaysSince(user.LastActivity, now)
	activity := math.Max(0, 100-float64(days)*activityDecayPerDay)

	quality := 0.0
	if user.BugsFound > 0 {
		quality = float64(user.TotalPoints) / float64(user.BugsFound)
	}

	metrics := RankingMetrics{
		PointsWeight:      float64(user.TotalPoints) * pointsWeight,
		ActivityWeight:    activity * activityWeight,
		ConsistencyWeight: float64(user.Streak) * StreakMultiplier(user.Streak) * 10 * consistencyWeight,
		QualityWeight:     quality * qualityWeight,
	}
	metrics.Total = metrics.PointsWeight + metrics.ActivityWeight + metrics.ConsistencyWeight + metrics.QualityWeight
	return metrics
}

type LeaderboardEntry struct {
	Position int
	Ranking  UserRanking
	Metrics  RankingMetrics
}

// OrderLeaderboard sorts users by composite score at now. Ties fall back to raw
// points and then user id so the order is deterministic.
func OrderLeaderboard(users []UserRanking, now time.Time) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, LeaderboardEntry{
			Ranking: user,
			Metrics: CompositeScore(user, now),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		left, right := entries[i], entries[j]
		if left.Metrics.Total != right.Metrics.Total {
			return left.Metrics.Total > right.Metrics.Total
		}
		if left.Ranking.TotalPoints != right.Ranking.TotalPoints {
			return left.Ranking.TotalPoints > right.Ranking.TotalPoints
		}
		return left.Ranking.UserID < right.Ranking.UserID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}
