package commands_test

import (
	"context"
	"testing"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/adapters/memory"
	"bountyboard/contexts/community-experience/ranking-engine/application/commands"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unlockedIDs(items []commands.UnlockedAchievement) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Achievement.ID)
	}
	return ids
}

func TestApplyEventFirstCriticalFinding(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	result, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{
		UserID:      "hunter-1",
		DisplayName: "Hunter One",
		Severity:    entities.SeverityCritical,
		Reason:      "RCE in upload handler",
	})
	require.NoError(t, err)

	assert.Equal(t, 1000, result.Transaction.Points)
	assert.Equal(t, 0.0, result.Transaction.Multiplier)
	assert.Equal(t, 1000, result.Ranking.TotalPoints)
	assert.Equal(t, 1, result.Ranking.Streak)
	assert.Equal(t, 1, result.Ranking.BugsFound)
	assert.Equal(t, entities.TierD, result.Ranking.Tier)
	assert.InDelta(t, 50.05, result.Ranking.RankProgress, 0.01)
	assert.Equal(t, 500, result.Ranking.NextRankPoints)
	assert.Equal(t, "Hunter One", result.Ranking.DisplayName)
	assert.ElementsMatch(t, []string{"critical_finder", "first_blood", "rising_star"}, unlockedIDs(result.Unlocked))

	stored, err := fx.store.GetRanking(ctx, "hunter-1")
	require.NoError(t, err)
	assert.Equal(t, 1000, stored.TotalPoints, "achievement bonuses stay out of the total")

	ledger, err := fx.store.ListTransactions(ctx, "hunter-1")
	require.NoError(t, err)
	require.Len(t, ledger, 4)
	bonusTotal := 0
	for _, tx := range ledger[1:] {
		assert.Equal(t, entities.TransactionKindAchievementBonus, tx.Kind)
		bonusTotal += tx.Points
	}
	assert.Equal(t, 50+100+300, bonusTotal)

	assert.Equal(t, 1, fx.pending(t, commands.TopicPointsAwarded))
	assert.Equal(t, 3, fx.pending(t, commands.TopicAchievementUnlocked))
}

func TestApplyEventUsesStreakBeforeIncrement(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	now := fx.clock.Now()

	seeded := entities.NewUserRanking("hunter-2", "", now.Add(-30*24*time.Hour))
	seeded.TotalPoints = 2000
	seeded.BugsFound = 7
	seeded.Streak = 7
	seeded.LastActivity = now.Add(-12 * time.Hour)
	seeded.Recalculate()
	require.NoError(t, fx.store.SaveRanking(ctx, seeded))

	result, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{
		UserID:   "hunter-2",
		Severity: entities.SeverityCritical,
	})
	require.NoError(t, err)
	assert.Equal(t, 1200, result.Transaction.Points)
	assert.Equal(t, 1.2, result.Transaction.Multiplier)
	assert.Equal(t, 8, result.Ranking.Streak)
	assert.Equal(t, 3200, result.Ranking.TotalPoints)
	assert.Equal(t, entities.TierC, result.Ranking.Tier)
}

func TestApplyEventStreakResetsAfterGap(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		_, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-3", Severity: entities.SeverityLow})
		require.NoError(t, err)
		fx.clock.Advance(24 * time.Hour)
	}
	ranking, err := fx.store.GetRanking(ctx, "hunter-3")
	require.NoError(t, err)
	assert.Equal(t, 3, ranking.Streak)

	fx.clock.Advance(24 * time.Hour)
	result, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-3", Severity: entities.SeverityLow})
	require.NoError(t, err)
	// Streak 3 earned the 1.1x bracket for this event even though it then resets.
	assert.Equal(t, 55, result.Transaction.Points)
	assert.Equal(t, 1, result.Ranking.Streak)
}

func TestApplyEventAchievementsUnlockOnce(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	first, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-4", Severity: entities.SeverityCritical})
	require.NoError(t, err)
	require.NotEmpty(t, first.Unlocked)

	second, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-4", Severity: entities.SeverityCritical})
	require.NoError(t, err)
	assert.Empty(t, second.Unlocked)

	achievements, err := fx.store.ListUserAchievements(ctx, "hunter-4")
	require.NoError(t, err)
	assert.Len(t, achievements, 3)
}

func TestApplyEventReplaysKnownSource(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	cmd := commands.ApplyEventCommand{UserID: "hunter-5", Severity: entities.SeverityHigh, SourceRef: "evt-42"}

	first, err := fx.events.ApplyEvent(ctx, cmd)
	require.NoError(t, err)
	second, err := fx.events.ApplyEvent(ctx, cmd)
	require.NoError(t, err)

	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Transaction.TransactionID, second.Transaction.TransactionID)
	assert.Equal(t, 500, second.Ranking.TotalPoints)
	assert.Equal(t, 1, second.Ranking.BugsFound)
	assert.Equal(t, 1, fx.pending(t, commands.TopicPointsAwarded))
}

// sourceBlindRepo misses every source lookup, as a second writer does when it
// reads before the first writer has committed.
type sourceBlindRepo struct {
	*memory.Store
}

func (sourceBlindRepo) FindTransactionBySource(context.Context, string) (entities.PointsTransaction, bool, error) {
	return entities.PointsTransaction{}, false, nil
}

func TestApplyEventSourceClaimedByAnotherUserLeavesRankingUntouched(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.events.Repo = sourceBlindRepo{Store: fx.store}
	fx.events.UnitOfWork = nil

	_, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-a", Severity: entities.SeverityHigh, SourceRef: "evt-shared"})
	require.NoError(t, err)

	_, err = fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-b", Severity: entities.SeverityHigh, SourceRef: "evt-shared"})
	require.ErrorIs(t, err, domainerrors.ErrDuplicateSourceRef)

	_, err = fx.store.GetRanking(ctx, "hunter-b")
	assert.ErrorIs(t, err, domainerrors.ErrRankingNotFound)
	ledger, err := fx.store.ListTransactions(ctx, "hunter-b")
	require.NoError(t, err)
	assert.Empty(t, ledger)
	assert.Equal(t, 1, fx.pending(t, commands.TopicPointsAwarded))
}

func TestApplyEventRejectsInvalidInput(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-6", Severity: entities.Severity("informational")})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSeverity)

	_, err = fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "  ", Severity: entities.SeverityLow})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = fx.store.GetRanking(ctx, "hunter-6")
	assert.ErrorIs(t, err, domainerrors.ErrRankingNotFound)
}

func TestApplyEventAccumulatesPeriodCountersAndEarnings(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	_, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-7", Severity: entities.SeverityMedium, Earnings: 250})
	require.NoError(t, err)
	result, err := fx.events.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-7", Severity: entities.SeverityMedium, Earnings: 150})
	require.NoError(t, err)

	assert.Equal(t, 400, result.Ranking.TotalPoints)
	assert.Equal(t, 400, result.Ranking.WeeklyPoints)
	assert.Equal(t, 400, result.Ranking.MonthlyPoints)
	assert.Equal(t, 400.0, result.Ranking.TotalEarnings)
}
