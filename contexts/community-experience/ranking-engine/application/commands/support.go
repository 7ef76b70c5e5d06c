package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

const (
	moduleName = "community-experience/ranking-engine"

	TopicPointsAwarded       = "ranking.points_awarded"
	TopicAchievementUnlocked = "ranking.achievement_unlocked"
	TopicRewardRedeemed      = "ranking.reward_redeemed"
)

func userLockKey(userID string) string {
	return "ranking:user:" + userID
}

func rewardLockKey(rewardID string) string {
	return "ranking:reward:" + rewardID
}

func nowFrom(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}

func acquire(ctx context.Context, locker ports.KeyLocker, key string) (func(), error) {
	if locker == nil {
		return func() {}, nil
	}
	release, err := locker.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	return release, nil
}

func withinTransaction(
	ctx context.Context,
	uow ports.UnitOfWork,
	repo ports.Repository,
	fn func(ctx context.Context, repo ports.Repository) error,
) error {
	if uow == nil {
		return fn(ctx, repo)
	}
	return uow.WithinTransaction(ctx, fn)
}

func invalidateLeaderboard(ctx context.Context, cache ports.LeaderboardCache, logger *slog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.Warn("leaderboard cache invalidation failed",
			"event", "ranking_leaderboard_cache_invalidate_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
	}
}

// appendEvent writes a domain event to the outbox through the transaction-bound
// repository, so it commits or rolls back with the state it describes.
func appendEvent(
	ctx context.Context,
	repo ports.Repository,
	topic string,
	eventID string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	return repo.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:       eventID,
		EventType:     topic,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "ranking-engine",
		PartitionKey:  partitionKey,
		SchemaVersion: 1,
		Data:          payload,
	})
}
