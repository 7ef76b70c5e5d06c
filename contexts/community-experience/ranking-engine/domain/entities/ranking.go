package entities

import (
	"strings"
	"time"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var baseAwards = map[Severity]int{
	SeverityCritical: 1000,
	SeverityHigh:     500,
	SeverityMedium:   200,
	SeverityLow:      50,
}

func ParseSeverity(raw string) (Severity, bool) {
	severity := Severity(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := baseAwards[severity]
	return severity, ok
}

// BaseAward returns the fixed point award of a severity bucket.
func BaseAward(severity Severity) (int, bool) {
	points, ok := baseAwards[severity]
	return points, ok
}

// StreakWindow is the largest gap between two events that keeps a streak alive.
const StreakWindow = 24 * time.Hour

// streakBrackets is ordered from the highest bracket down; the first match wins.
var streakBrackets = []struct {
	MinStreak int
	Percent   int
}{
	{MinStreak: 30, Percent: 150},
	{MinStreak: 14, Percent: 130},
	{MinStreak: 7, Percent: 120},
	{MinStreak: 3, Percent: 110},
}

// MultiplierPercent is the streak multiplier expressed in whole percent.
func MultiplierPercent(streak int) int {
	for _, bracket := range streakBrackets {
		if streak >= bracket.MinStreak {
			return bracket.Percent
		}
	}
	return 100
}

func StreakMultiplier(streak int) float64 {
	return float64(MultiplierPercent(streak)) / 100
}

// AwardFor is floor(base * multiplier(streak)). Integer arithmetic keeps
// results like 1000 * 1.2 exact.
func AwardFor(base int, streak int) int {
	return base * MultiplierPercent(streak) / 100
}

// NextStreak returns the streak after an event at now. A gap of exactly one
// day still continues the streak.
func NextStreak(current int, lastActivity time.Time, now time.Time) int {
	if lastActivity.IsZero() || current <= 0 {
		return 1
	}
	if now.Sub(lastActivity) <= StreakWindow {
		return current + 1
	}
	return 1
}

type UserRanking struct {
	UserID         string
	DisplayName    string
	TotalPoints    int
	Tier           Tier
	BugsFound      int
	TotalEarnings  float64
	WeeklyPoints   int
	MonthlyPoints  int
	Streak         int
	LastActivity   time.Time
	RankProgress   float64
	NextRankPoints int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUserRanking is the zero state a user starts from before the first event.
func NewUserRanking(userID string, displayName string, now time.Time) UserRanking {
	ranking := UserRanking{
		UserID:      strings.TrimSpace(userID),
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ranking.Recalculate()
	return ranking
}

// Recalculate derives tier, progress and next-rank points from TotalPoints.
func (r *UserRanking) Recalculate() {
	if r.TotalPoints < 0 {
		r.TotalPoints = 0
	}
	r.Tier = TierFor(r.TotalPoints)
	r.RankProgress, r.NextRankPoints = ProgressFor(r.TotalPoints, r.Tier)
}

// AtRisk reports whether the weekly points are below the tier's maintenance requirement.
func (r UserRanking) AtRisk() bool {
	return r.WeeklyPoints < ConfigFor(r.Tier).WeeklyRequirement
}

type TransactionKind string

const (
	TransactionKindBugReward        TransactionKind = "bug_reward"
	TransactionKindAchievementBonus TransactionKind = "achievement_bonus"
)

// PointsTransaction is an immutable ledger entry.
type PointsTransaction struct {
	TransactionID string
	UserID        string
	SourceRef     string
	Kind          TransactionKind
	Points        int
	Reason        string
	Severity      Severity
	// Multiplier is zero when no streak bonus was applied.
	Multiplier float64
	CreatedAt  time.Time
}

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func ParsePeriod(raw string) (Period, bool) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case PeriodWeekly:
		return PeriodWeekly, true
	case PeriodMonthly:
		return PeriodMonthly, true
	default:
		return "", false
	}
}
