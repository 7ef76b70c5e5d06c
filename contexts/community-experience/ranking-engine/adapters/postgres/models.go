package postgresadapter

import (
	"strings"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
)

type rankingModel struct {
	UserID         string     `gorm:"column:user_id;primaryKey"`
	DisplayName    string     `gorm:"column:display_name"`
	TotalPoints    int        `gorm:"column:total_points"`
	Tier           string     `gorm:"column:tier"`
	BugsFound      int        `gorm:"column:bugs_found"`
	TotalEarnings  float64    `gorm:"column:total_earnings"`
	WeeklyPoints   int        `gorm:"column:weekly_points"`
	MonthlyPoints  int        `gorm:"column:monthly_points"`
	Streak         int        `gorm:"column:streak"`
	LastActivity   *time.Time `gorm:"column:last_activity"`
	RankProgress   float64    `gorm:"column:rank_progress"`
	NextRankPoints int        `gorm:"column:next_rank_points"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (rankingModel) TableName() string {
	return "user_rankings"
}

func rankingModelFromEntity(item entities.UserRanking) rankingModel {
	row := rankingModel{
		UserID:         strings.TrimSpace(item.UserID),
		DisplayName:    strings.TrimSpace(item.DisplayName),
		TotalPoints:    item.TotalPoints,
		Tier:           string(item.Tier),
		BugsFound:      item.BugsFound,
		TotalEarnings:  item.TotalEarnings,
		WeeklyPoints:   item.WeeklyPoints,
		MonthlyPoints:  item.MonthlyPoints,
		Streak:         item.Streak,
		RankProgress:   item.RankProgress,
		NextRankPoints: item.NextRankPoints,
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
	if !item.LastActivity.IsZero() {
		lastActivity := item.LastActivity.UTC()
		row.LastActivity = &lastActivity
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m rankingModel) toEntity() entities.UserRanking {
	item := entities.UserRanking{
		UserID:         m.UserID,
		DisplayName:    m.DisplayName,
		TotalPoints:    m.TotalPoints,
		Tier:           entities.Tier(m.Tier),
		BugsFound:      m.BugsFound,
		TotalEarnings:  m.TotalEarnings,
		WeeklyPoints:   m.WeeklyPoints,
		MonthlyPoints:  m.MonthlyPoints,
		Streak:         m.Streak,
		RankProgress:   m.RankProgress,
		NextRankPoints: m.NextRankPoints,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
	if m.LastActivity != nil {
		item.LastActivity = m.LastActivity.UTC()
	}
	return item
}

type transactionModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	UserID     string    `gorm:"column:user_id"`
	SourceRef  string    `gorm:"column:source_ref"`
	Kind       string    `gorm:"column:kind"`
	Points     int       `gorm:"column:points"`
	Reason     string    `gorm:"column:reason"`
	Severity   string    `gorm:"column:severity"`
	Multiplier float64   `gorm:"column:multiplier"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (transactionModel) TableName() string {
	return "points_transactions"
}

func transactionModelFromEntity(item entities.PointsTransaction) transactionModel {
	return transactionModel{
		ID:         strings.TrimSpace(item.TransactionID),
		UserID:     strings.TrimSpace(item.UserID),
		SourceRef:  strings.TrimSpace(item.SourceRef),
		Kind:       string(item.Kind),
		Points:     item.Points,
		Reason:     item.Reason,
		Severity:   string(item.Severity),
		Multiplier: item.Multiplier,
		CreatedAt:  item.CreatedAt.UTC(),
	}
}

func (m transactionModel) toEntity() entities.PointsTransaction {
	return entities.PointsTransaction{
		TransactionID: m.ID,
		UserID:        m.UserID,
		SourceRef:     m.SourceRef,
		Kind:          entities.TransactionKind(m.Kind),
		Points:        m.Points,
		Reason:        m.Reason,
		Severity:      entities.Severity(m.Severity),
		Multiplier:    m.Multiplier,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

type achievementModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	UserID        string    `gorm:"column:user_id"`
	AchievementID string    `gorm:"column:achievement_id"`
	UnlockedAt    time.Time `gorm:"column:unlocked_at"`
}

func (achievementModel) TableName() string {
	return "user_achievements"
}

func achievementModelFromEntity(item entities.UserAchievement) achievementModel {
	return achievementModel{
		ID:            strings.TrimSpace(item.ID),
		UserID:        strings.TrimSpace(item.UserID),
		AchievementID: strings.TrimSpace(item.AchievementID),
		UnlockedAt:    item.UnlockedAt.UTC(),
	}
}

func (m achievementModel) toEntity() entities.UserAchievement {
	return entities.UserAchievement{
		ID:            m.ID,
		UserID:        m.UserID,
		AchievementID: m.AchievementID,
		UnlockedAt:    m.UnlockedAt.UTC(),
	}
}

type rewardModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	UserID      string    `gorm:"column:user_id"`
	RewardID    string    `gorm:"column:reward_id"`
	PointsSpent int       `gorm:"column:points_spent"`
	Status      string    `gorm:"column:status"`
	RedeemedAt  time.Time `gorm:"column:redeemed_at"`
}

func (rewardModel) TableName() string {
	return "user_rewards"
}

func rewardModelFromEntity(item entities.UserReward) rewardModel {
	return rewardModel{
		ID:          strings.TrimSpace(item.ID),
		UserID:      strings.TrimSpace(item.UserID),
		RewardID:    strings.TrimSpace(item.RewardID),
		PointsSpent: item.PointsSpent,
		Status:      string(item.Status),
		RedeemedAt:  item.RedeemedAt.UTC(),
	}
}

func (m rewardModel) toEntity() entities.UserReward {
	return entities.UserReward{
		ID:          m.ID,
		UserID:      m.UserID,
		RewardID:    m.RewardID,
		PointsSpent: m.PointsSpent,
		Status:      entities.RewardStatus(m.Status),
		RedeemedAt:  m.RedeemedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "ranking_outbox"
}
