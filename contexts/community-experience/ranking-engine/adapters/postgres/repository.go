package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
	// inTx marks a repository bound to an open transaction; ranking reads then
	// take a row lock.
	inTx bool
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Repository{db: tx, logger: r.logger, inTx: true})
	})
}

func (r *Repository) GetRanking(ctx context.Context, userID string) (entities.UserRanking, error) {
	query := r.db.WithContext(ctx)
	if r.inTx {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row rankingModel
	err := query.Where("user_id = ?", strings.TrimSpace(userID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserRanking{}, domainerrors.ErrRankingNotFound
		}
		return entities.UserRanking{}, r.logError("ranking_repo_get_ranking_failed", err, "user_id", strings.TrimSpace(userID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRankings(ctx context.Context) ([]entities.UserRanking, error) {
	var rows []rankingModel
	if err := r.db.WithContext(ctx).Order("user_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("ranking_repo_list_rankings_failed", err)
	}
	items := make([]entities.UserRanking, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveRanking(ctx context.Context, ranking entities.UserRanking) error {
	row := rankingModelFromEntity(ranking)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"display_name":     row.DisplayName,
			"total_points":     row.TotalPoints,
			"tier":             row.Tier,
			"bugs_found":       row.BugsFound,
			"total_earnings":   row.TotalEarnings,
			"weekly_points":    row.WeeklyPoints,
			"monthly_points":   row.MonthlyPoints,
			"streak":           row.Streak,
			"last_activity":    row.LastActivity,
			"rank_progress":    row.RankProgress,
			"next_rank_points": row.NextRankPoints,
			"updated_at":       row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ranking_repo_save_ranking_failed", create.Error, "user_id", row.UserID)
	}
	return nil
}

func (r *Repository) AppendTransaction(ctx context.Context, tx entities.PointsTransaction) error {
	row := transactionModelFromEntity(tx)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateSourceRef
		}
		return r.logError("ranking_repo_append_transaction_failed", err,
			"transaction_id", row.ID,
			"user_id", row.UserID,
			"source_ref", row.SourceRef,
		)
	}
	return nil
}

func (r *Repository) FindTransactionBySource(ctx context.Context, sourceRef string) (entities.PointsTransaction, bool, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("source_ref = ?", strings.TrimSpace(sourceRef)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.PointsTransaction{}, false, nil
		}
		return entities.PointsTransaction{}, false, r.logError("ranking_repo_find_transaction_failed", err,
			"source_ref", strings.TrimSpace(sourceRef),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]entities.PointsTransaction, error) {
	var rows []transactionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ranking_repo_list_transactions_failed", err, "user_id", strings.TrimSpace(userID))
	}
	items := make([]entities.PointsTransaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListUserAchievements(ctx context.Context, userID string) ([]entities.UserAchievement, error) {
	var rows []achievementModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("unlocked_at ASC, achievement_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ranking_repo_list_achievements_failed", err, "user_id", strings.TrimSpace(userID))
	}
	items := make([]entities.UserAchievement, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateUserAchievement(ctx context.Context, item entities.UserAchievement) error {
	row := achievementModelFromEntity(item)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ranking_repo_create_achievement_failed", create.Error,
			"user_id", row.UserID,
			"achievement_id", row.AchievementID,
		)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAchievementAlreadyUnlocked
	}
	return nil
}

func (r *Repository) ListUserRewards(ctx context.Context, userID string) ([]entities.UserReward, error) {
	var rows []rewardModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("redeemed_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ranking_repo_list_rewards_failed", err, "user_id", strings.TrimSpace(userID))
	}
	items := make([]entities.UserReward, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountRewardRedemptions(ctx context.Context, rewardID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&rewardModel{}).
		Where("reward_id = ?", strings.TrimSpace(rewardID)).
		Count(&count).Error; err != nil {
		return 0, r.logError("ranking_repo_count_redemptions_failed", err, "reward_id", strings.TrimSpace(rewardID))
	}
	return int(count), nil
}

func (r *Repository) CreateUserReward(ctx context.Context, item entities.UserReward) error {
	row := rewardModelFromEntity(item)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("ranking_repo_create_reward_failed", err,
			"user_id", row.UserID,
			"reward_id", row.RewardID,
		)
	}
	return nil
}

func (r *Repository) ResetPeriodPoints(ctx context.Context, period entities.Period, at time.Time) (int, error) {
	var column string
	switch period {
	case entities.PeriodWeekly:
		column = "weekly_points"
	case entities.PeriodMonthly:
		column = "monthly_points"
	default:
		return 0, domainerrors.ErrInvalidPeriod
	}
	update := r.db.WithContext(ctx).
		Model(&rankingModel{}).
		Where(column+" <> 0").
		Updates(map[string]any{
			column:       0,
			"updated_at": at.UTC(),
		})
	if update.Error != nil {
		return 0, r.logError("ranking_repo_reset_period_failed", update.Error, "period", string(period))
	}
	return int(update.RowsAffected), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("ranking_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("ranking_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("event_type").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("ranking_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	// jsonb does not keep the original bytes, so a replayed id is matched on its type.
	if existing.EventType != row.EventType {
		return domainerrors.ErrOutboxConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ranking_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("ranking_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrOutboxMessageNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-experience/ranking-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ranking repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.UnitOfWork = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
