package ports

import (
	"context"
	"encoding/json"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
)

// Repository is the persistence port of the ranking engine. Rankings and
// ledgers are read whole and written back after every mutation.
type Repository interface {
	GetRanking(ctx context.Context, userID string) (entities.UserRanking, error)
	ListRankings(ctx context.Context) ([]entities.UserRanking, error)
	SaveRanking(ctx context.Context, ranking entities.UserRanking) error

	AppendTransaction(ctx context.Context, tx entities.PointsTransaction) error
	FindTransactionBySource(ctx context.Context, sourceRef string) (entities.PointsTransaction, bool, error)
	ListTransactions(ctx context.Context, userID string) ([]entities.PointsTransaction, error)

	ListUserAchievements(ctx context.Context, userID string) ([]entities.UserAchievement, error)
	// CreateUserAchievement returns ErrAchievementAlreadyUnlocked for a duplicate (user, achievement) pair.
	CreateUserAchievement(ctx context.Context, item entities.UserAchievement) error

	ListUserRewards(ctx context.Context, userID string) ([]entities.UserReward, error)
	CountRewardRedemptions(ctx context.Context, rewardID string) (int, error)
	CreateUserReward(ctx context.Context, item entities.UserReward) error

	ResetPeriodPoints(ctx context.Context, period entities.Period, at time.Time) (int, error)

	// AppendOutbox stores an event in the same transaction as the state change
	// it describes. An existing row with the same event id is left as is.
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// UnitOfWork runs fn against a repository whose writes commit together.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// KeyLocker serializes mutations that share a key (user or reward).
type KeyLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LeaderboardCache holds the ordered leaderboard between mutations. Every
// Invalidate moves the generation forward; Set is dropped when the generation
// it was computed under is no longer current.
type LeaderboardCache interface {
	Get(ctx context.Context) ([]entities.LeaderboardEntry, bool, error)
	Generation(ctx context.Context) (uint64, error)
	Set(ctx context.Context, generation uint64, entries []entities.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

type Metrics interface {
	EventProcessed(severity entities.Severity, points int)
	AchievementUnlocked(achievementID string)
	RedemptionAttempted(rewardID string, outcome string)
	LeaderboardCacheLookup(hit bool)
}

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	PartitionKey  string          `json:"partition_key"`
	SchemaVersion int             `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository is read by the relay that moves committed events to the bus.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
