package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "bountyboard/contexts/community-experience/ranking-engine/application"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

type RedeemCommand struct {
	UserID   string
	RewardID string
}

// RedeemResult reports the outcome of a redemption. Ineligibility is a
// result, not an error; Message is meant to be shown to the user as-is.
type RedeemResult struct {
	Success    bool
	Message    string
	Ranking    entities.UserRanking
	UserReward entities.UserReward
}

const (
	outcomeRedeemed   = "redeemed"
	outcomeIneligible = "ineligible"
	outcomeNotFound   = "not_found"
)

// RedemptionUseCase is the rewards ledger.
type RedemptionUseCase struct {
	Repo       ports.Repository
	UnitOfWork ports.UnitOfWork
	Locker     ports.KeyLocker
	Cache      ports.LeaderboardCache
	Metrics    ports.Metrics
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc RedemptionUseCase) Redeem(ctx context.Context, cmd RedeemCommand) (RedeemResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.RewardID = strings.TrimSpace(cmd.RewardID)

	if cmd.UserID == "" {
		metrics.RedemptionAttempted(cmd.RewardID, outcomeNotFound)
		return RedeemResult{Message: entities.MessageUserNotFound}, nil
	}

	release, err := acquire(ctx, uc.Locker, userLockKey(cmd.UserID))
	if err != nil {
		return RedeemResult{}, err
	}
	defer release()

	reward, rewardFound := entities.FindReward(cmd.RewardID)
	if rewardFound && reward.LimitedQuantity > 0 {
		// Stock is shared across users, so the count-then-insert needs its own lock.
		releaseReward, err := acquire(ctx, uc.Locker, rewardLockKey(reward.ID))
		if err != nil {
			return RedeemResult{}, err
		}
		defer releaseReward()
	}

	now := nowFrom(uc.Clock)
	var result RedeemResult
	err = withinTransaction(ctx, uc.UnitOfWork, uc.Repo, func(ctx context.Context, repo ports.Repository) error {
		ranking, err := repo.GetRanking(ctx, cmd.UserID)
		if errors.Is(err, domainerrors.ErrRankingNotFound) {
			result = RedeemResult{Message: entities.MessageUserNotFound}
			return nil
		}
		if err != nil {
			return err
		}
		if !rewardFound {
			result = RedeemResult{Message: entities.MessageRewardNotFound, Ranking: ranking}
			return nil
		}

		redeemed := 0
		if reward.LimitedQuantity > 0 {
			redeemed, err = repo.CountRewardRedemptions(ctx, reward.ID)
			if err != nil {
				return err
			}
		}
		if ok, message := entities.CheckRedemption(ranking, reward, redeemed); !ok {
			result = RedeemResult{Message: message, Ranking: ranking}
			return nil
		}

		ranking.Debit(reward.PointsCost)
		ranking.UpdatedAt = now
		if err := repo.SaveRanking(ctx, ranking); err != nil {
			return err
		}

		id, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		userReward := entities.UserReward{
			ID:          id,
			UserID:      ranking.UserID,
			RewardID:    reward.ID,
			PointsSpent: reward.PointsCost,
			Status:      entities.RewardStatusPending,
			RedeemedAt:  now,
		}
		if err := repo.CreateUserReward(ctx, userReward); err != nil {
			return err
		}
		result = RedeemResult{
			Success:    true,
			Message:    entities.MessageRedeemed,
			Ranking:    ranking,
			UserReward: userReward,
		}
		return appendEvent(ctx, repo, TopicRewardRedeemed, userReward.ID, userReward.UserID, now, map[string]any{
			"user_id":      userReward.UserID,
			"reward_id":    userReward.RewardID,
			"points_spent": userReward.PointsSpent,
			"total_points": ranking.TotalPoints,
			"tier":         string(ranking.Tier),
		})
	})
	if err != nil {
		logger.Error("reward redemption failed",
			"event", "ranking_reward_redeem_failed",
			"module", moduleName,
			"layer", "application",
			"user_id", cmd.UserID,
			"reward_id", cmd.RewardID,
			"error", err.Error(),
		)
		return RedeemResult{}, err
	}

	if !result.Success {
		outcome := outcomeIneligible
		if result.Message == entities.MessageUserNotFound || result.Message == entities.MessageRewardNotFound {
			outcome = outcomeNotFound
		}
		metrics.RedemptionAttempted(cmd.RewardID, outcome)
		logger.Info("reward redemption rejected",
			"event", "ranking_reward_redeem_rejected",
			"module", moduleName,
			"layer", "application",
			"user_id", cmd.UserID,
			"reward_id", cmd.RewardID,
			"reason", result.Message,
		)
		return result, nil
	}

	metrics.RedemptionAttempted(reward.ID, outcomeRedeemed)
	invalidateLeaderboard(ctx, uc.Cache, logger)
	logger.Info("reward redeemed",
		"event", "ranking_reward_redeemed",
		"module", moduleName,
		"layer", "application",
		"user_id", cmd.UserID,
		"reward_id", reward.ID,
		"points_spent", reward.PointsCost,
		"total_points", result.Ranking.TotalPoints,
		"tier", string(result.Ranking.Tier),
	)
	return result, nil
}
