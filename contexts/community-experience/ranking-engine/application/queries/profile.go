package queries

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

type RankingSummary struct {
	Ranking  entities.UserRanking
	Config   entities.RankConfig
	NextTier *entities.RankConfig
	AtRisk   bool
	Metrics  entities.RankingMetrics
}

type AchievementStatus struct {
	Achievement entities.Achievement
	Unlocked    bool
	UnlockedAt  *time.Time
}

type RewardStatus struct {
	Reward   entities.RewardItem
	Eligible bool
	// Reason is empty when Eligible.
	Reason string
	// Remaining is -1 for unlimited stock.
	Remaining int
}

type RewardsView struct {
	Rewards     []RewardStatus
	Redemptions []entities.UserReward
}

// ProfileUseCase serves the per-user read views.
type ProfileUseCase struct {
	Repo  ports.Repository
	Clock ports.Clock
}

func (uc ProfileUseCase) Summary(ctx context.Context, userID string) (RankingSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return RankingSummary{}, domainerrors.ErrInvalidInput
	}
	ranking, err := uc.Repo.GetRanking(ctx, userID)
	if err != nil {
		return RankingSummary{}, err
	}

	summary := RankingSummary{
		Ranking: ranking,
		Config:  entities.ConfigFor(ranking.Tier),
		AtRisk:  ranking.AtRisk(),
		Metrics: entities.CompositeScore(ranking, now(uc.Clock)),
	}
	table := entities.RankTable()
	if next := entities.TierRank(ranking.Tier) + 1; next < len(table) {
		summary.NextTier = &table[next]
	}
	return summary, nil
}

// Transactions lists the ledger newest first. A non-positive limit returns everything.
func (uc ProfileUseCase) Transactions(ctx context.Context, userID string, limit int) ([]entities.PointsTransaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	items, err := uc.Repo.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (uc ProfileUseCase) Achievements(ctx context.Context, userID string) ([]AchievementStatus, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	unlocked, err := uc.Repo.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]time.Time, len(unlocked))
	for _, item := range unlocked {
		byID[item.AchievementID] = item.UnlockedAt
	}

	catalog := entities.Achievements()
	items := make([]AchievementStatus, 0, len(catalog))
	for _, achievement := range catalog {
		status := AchievementStatus{Achievement: achievement}
		if at, ok := byID[achievement.ID]; ok {
			unlockedAt := at
			status.Unlocked = true
			status.UnlockedAt = &unlockedAt
		}
		items = append(items, status)
	}
	return items, nil
}

// Rewards evaluates every catalog item against the user's current state. A
// user without a ranking yet is evaluated from the zero state.
func (uc ProfileUseCase) Rewards(ctx context.Context, userID string) (RewardsView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return RewardsView{}, domainerrors.ErrInvalidInput
	}
	ranking, err := uc.Repo.GetRanking(ctx, userID)
	if errors.Is(err, domainerrors.ErrRankingNotFound) {
		ranking = entities.NewUserRanking(userID, "", now(uc.Clock))
	} else if err != nil {
		return RewardsView{}, err
	}
	redemptions, err := uc.Repo.ListUserRewards(ctx, userID)
	if err != nil {
		return RewardsView{}, err
	}

	catalog := entities.Rewards()
	view := RewardsView{
		Rewards:     make([]RewardStatus, 0, len(catalog)),
		Redemptions: redemptions,
	}
	for _, reward := range catalog {
		redeemed := 0
		remaining := -1
		if reward.LimitedQuantity > 0 {
			redeemed, err = uc.Repo.CountRewardRedemptions(ctx, reward.ID)
			if err != nil {
				return RewardsView{}, err
			}
			remaining = reward.LimitedQuantity - redeemed
			if remaining < 0 {
				remaining = 0
			}
		}
		eligible, reason := entities.CheckRedemption(ranking, reward, redeemed)
		view.Rewards = append(view.Rewards, RewardStatus{
			Reward:    reward,
			Eligible:  eligible,
			Reason:    reason,
			Remaining: remaining,
		})
	}
	return view, nil
}

func (uc ProfileUseCase) Tiers() []entities.RankConfig {
	return entities.RankTable()
}

func now(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
