package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	rankings     map[string]entities.UserRanking
	transactions []entities.PointsTransaction
	bySource     map[string]int
	achievements map[string]map[string]entities.UserAchievement
	rewards      []entities.UserReward
	redemptions  map[string]int
	outbox       map[string]outboxRecord
}

type outboxRecord struct {
	message   ports.OutboxMessage
	seq       int
	published bool
}

func NewStore(seed []entities.UserRanking) *Store {
	rankings := make(map[string]entities.UserRanking, len(seed))
	for _, item := range seed {
		item.UserID = strings.TrimSpace(item.UserID)
		item.Recalculate()
		rankings[item.UserID] = item
	}
	return &Store{
		rankings:     rankings,
		transactions: make([]entities.PointsTransaction, 0),
		bySource:     make(map[string]int),
		achievements: make(map[string]map[string]entities.UserAchievement),
		rewards:      make([]entities.UserReward, 0),
		redemptions:  make(map[string]int),
		outbox:       make(map[string]outboxRecord),
	}
}

// WithinTransaction runs fn directly against the store. Callers hold the
// per-user lock, so there is nothing to roll back concurrently.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repo ports.Repository) error) error {
	return fn(ctx, s)
}

func (s *Store) GetRanking(_ context.Context, userID string) (entities.UserRanking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.rankings[strings.TrimSpace(userID)]
	if !ok {
		return entities.UserRanking{}, domainerrors.ErrRankingNotFound
	}
	return item, nil
}

func (s *Store) ListRankings(_ context.Context) ([]entities.UserRanking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.UserRanking, 0, len(s.rankings))
	for _, item := range s.rankings {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].UserID < items[j].UserID
	})
	return items, nil
}

func (s *Store) SaveRanking(_ context.Context, ranking entities.UserRanking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankings[strings.TrimSpace(ranking.UserID)] = ranking
	return nil
}

func (s *Store) AppendTransaction(_ context.Context, tx entities.PointsTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.SourceRef != "" {
		if _, exists := s.bySource[tx.SourceRef]; exists {
			return domainerrors.ErrDuplicateSourceRef
		}
		s.bySource[tx.SourceRef] = len(s.transactions)
	}
	s.transactions = append(s.transactions, tx)
	return nil
}

func (s *Store) FindTransactionBySource(_ context.Context, sourceRef string) (entities.PointsTransaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.bySource[strings.TrimSpace(sourceRef)]
	if !ok {
		return entities.PointsTransaction{}, false, nil
	}
	return s.transactions[idx], true, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]entities.PointsTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := strings.TrimSpace(userID)
	items := make([]entities.PointsTransaction, 0)
	for _, item := range s.transactions {
		if item.UserID == key {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) ListUserAchievements(_ context.Context, userID string) ([]entities.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.achievements[strings.TrimSpace(userID)]
	items := make([]entities.UserAchievement, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].UnlockedAt.Equal(items[j].UnlockedAt) {
			return items[i].AchievementID < items[j].AchievementID
		}
		return items[i].UnlockedAt.Before(items[j].UnlockedAt)
	})
	return items, nil
}

func (s *Store) CreateUserAchievement(_ context.Context, item entities.UserAchievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(item.UserID)
	byID, ok := s.achievements[key]
	if !ok {
		byID = make(map[string]entities.UserAchievement)
		s.achievements[key] = byID
	}
	if _, exists := byID[item.AchievementID]; exists {
		return domainerrors.ErrAchievementAlreadyUnlocked
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	byID[item.AchievementID] = item
	return nil
}

func (s *Store) ListUserRewards(_ context.Context, userID string) ([]entities.UserReward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := strings.TrimSpace(userID)
	items := make([]entities.UserReward, 0)
	for _, item := range s.rewards {
		if item.UserID == key {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Store) CountRewardRedemptions(_ context.Context, rewardID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.redemptions[strings.TrimSpace(rewardID)], nil
}

func (s *Store) CreateUserReward(_ context.Context, item entities.UserReward) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.rewards = append(s.rewards, item)
	s.redemptions[item.RewardID]++
	return nil
}

func (s *Store) ResetPeriodPoints(_ context.Context, period entities.Period, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	affected := 0
	for key, item := range s.rankings {
		switch period {
		case entities.PeriodWeekly:
			if item.WeeklyPoints == 0 {
				continue
			}
			item.WeeklyPoints = 0
		case entities.PeriodMonthly:
			if item.MonthlyPoints == 0 {
				continue
			}
			item.MonthlyPoints = 0
		default:
			return 0, domainerrors.ErrInvalidPeriod
		}
		item.UpdatedAt = at.UTC()
		s.rankings[key] = item
		affected++
	}
	return affected, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrOutboxConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
		seq: len(s.outbox),
	}
	return nil
}

// ListPendingOutbox returns unpublished rows in insertion order.
func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if !row.published {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(outboxID)
	row, ok := s.outbox[key]
	if !ok {
		return domainerrors.ErrOutboxMessageNotFound
	}
	row.published = true
	s.outbox[key] = row
	return nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.UnitOfWork = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
