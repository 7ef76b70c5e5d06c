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

// ApplyEventCommand is a reviewed finding to be converted into points.
type ApplyEventCommand struct {
	UserID      string
	DisplayName string
	Severity    entities.Severity
	Reason      string
	// SourceRef identifies the upstream event; a repeated reference is replayed
	// instead of awarding twice. Empty disables the check.
	SourceRef string
	// Earnings is the bounty paid out for the finding. Informational only.
	Earnings float64
}

type ApplyEventResult struct {
	Ranking     entities.UserRanking
	Transaction entities.PointsTransaction
	Unlocked    []UnlockedAchievement
	Replayed    bool
}

// EventUseCase is the scoring event processor.
type EventUseCase struct {
	Repo         ports.Repository
	UnitOfWork   ports.UnitOfWork
	Locker       ports.KeyLocker
	Cache        ports.LeaderboardCache
	Metrics      ports.Metrics
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Achievements AchievementEvaluator
	Logger       *slog.Logger
}

func (uc EventUseCase) ApplyEvent(ctx context.Context, cmd ApplyEventCommand) (ApplyEventResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	cmd.SourceRef = strings.TrimSpace(cmd.SourceRef)
	if cmd.UserID == "" {
		return ApplyEventResult{}, domainerrors.ErrInvalidInput
	}
	base, ok := entities.BaseAward(cmd.Severity)
	if !ok {
		logger.Warn("ranking event rejected",
			"event", "ranking_event_invalid_severity",
			"module", moduleName,
			"layer", "application",
			"user_id", cmd.UserID,
			"severity", string(cmd.Severity),
		)
		return ApplyEventResult{}, domainerrors.ErrInvalidSeverity
	}

	release, err := acquire(ctx, uc.Locker, userLockKey(cmd.UserID))
	if err != nil {
		return ApplyEventResult{}, err
	}
	defer release()

	now := nowFrom(uc.Clock)
	var result ApplyEventResult
	err = withinTransaction(ctx, uc.UnitOfWork, uc.Repo, func(ctx context.Context, repo ports.Repository) error {
		if cmd.SourceRef != "" {
			previous, found, err := repo.FindTransactionBySource(ctx, cmd.SourceRef)
			if err != nil {
				return err
			}
			if found {
				ranking, err := repo.GetRanking(ctx, previous.UserID)
				if err != nil {
					return err
				}
				result = ApplyEventResult{Ranking: ranking, Transaction: previous, Replayed: true}
				return nil
			}
		}

		ranking, err := repo.GetRanking(ctx, cmd.UserID)
		if errors.Is(err, domainerrors.ErrRankingNotFound) {
			ranking = entities.NewUserRanking(cmd.UserID, cmd.DisplayName, now)
		} else if err != nil {
			return err
		}

		// The multiplier comes from the streak before this event is counted.
		multiplierPercent := entities.MultiplierPercent(ranking.Streak)
		awarded := entities.AwardFor(base, ranking.Streak)

		ranking.Streak = entities.NextStreak(ranking.Streak, ranking.LastActivity, now)
		ranking.TotalPoints += awarded
		ranking.WeeklyPoints += awarded
		ranking.MonthlyPoints += awarded
		ranking.BugsFound++
		if cmd.Earnings > 0 {
			ranking.TotalEarnings += cmd.Earnings
		}
		if name := strings.TrimSpace(cmd.DisplayName); name != "" {
			ranking.DisplayName = name
		}
		ranking.LastActivity = now
		ranking.UpdatedAt = now
		ranking.Recalculate()

		txID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		sourceRef := cmd.SourceRef
		if sourceRef == "" {
			sourceRef = "event:" + txID
		}
		tx := entities.PointsTransaction{
			TransactionID: txID,
			UserID:        ranking.UserID,
			SourceRef:     sourceRef,
			Kind:          entities.TransactionKindBugReward,
			Points:        awarded,
			Reason:        strings.TrimSpace(cmd.Reason),
			Severity:      cmd.Severity,
			CreatedAt:     now,
		}
		if multiplierPercent > 100 {
			tx.Multiplier = float64(multiplierPercent) / 100
		}
		// The ledger row goes first: a source reference claimed concurrently by
		// another user fails here, before this user's ranking is touched.
		if err := repo.AppendTransaction(ctx, tx); err != nil {
			return err
		}
		if err := repo.SaveRanking(ctx, ranking); err != nil {
			return err
		}

		evaluator := uc.Achievements
		if evaluator.IDGen == nil {
			evaluator.IDGen = uc.IDGen
		}
		if evaluator.Clock == nil {
			evaluator.Clock = uc.Clock
		}
		unlocked, err := evaluator.Evaluate(ctx, repo, ranking, cmd.Severity)
		if err != nil {
			return err
		}

		result = ApplyEventResult{Ranking: ranking, Transaction: tx, Unlocked: unlocked}
		return appendAppliedEvents(ctx, repo, result)
	})
	if err != nil {
		logger.Error("ranking event apply failed",
			"event", "ranking_event_apply_failed",
			"module", moduleName,
			"layer", "application",
			"user_id", cmd.UserID,
			"severity", string(cmd.Severity),
			"error", err.Error(),
		)
		return ApplyEventResult{}, err
	}
	if result.Replayed {
		logger.Info("ranking event replayed",
			"event", "ranking_event_replayed",
			"module", moduleName,
			"layer", "application",
			"user_id", result.Ranking.UserID,
			"source_ref", cmd.SourceRef,
		)
		return result, nil
	}

	invalidateLeaderboard(ctx, uc.Cache, logger)
	metrics := application.ResolveMetrics(uc.Metrics)
	metrics.EventProcessed(cmd.Severity, result.Transaction.Points)
	for _, item := range result.Unlocked {
		metrics.AchievementUnlocked(item.Achievement.ID)
	}

	logger.Info("ranking points awarded",
		"event", "ranking_points_awarded",
		"module", moduleName,
		"layer", "application",
		"user_id", result.Ranking.UserID,
		"severity", string(cmd.Severity),
		"points", result.Transaction.Points,
		"multiplier", result.Transaction.Multiplier,
		"total_points", result.Ranking.TotalPoints,
		"tier", string(result.Ranking.Tier),
		"streak", result.Ranking.Streak,
		"achievements_unlocked", len(result.Unlocked),
	)
	return result, nil
}

func appendAppliedEvents(ctx context.Context, repo ports.Repository, result ApplyEventResult) error {
	tx := result.Transaction
	if err := appendEvent(ctx, repo, TopicPointsAwarded, tx.TransactionID, tx.UserID, tx.CreatedAt, map[string]any{
		"user_id":      tx.UserID,
		"source_ref":   tx.SourceRef,
		"severity":     string(tx.Severity),
		"points":       tx.Points,
		"multiplier":   tx.Multiplier,
		"total_points": result.Ranking.TotalPoints,
		"tier":         string(result.Ranking.Tier),
		"streak":       result.Ranking.Streak,
	}); err != nil {
		return err
	}
	for _, item := range result.Unlocked {
		if err := appendEvent(ctx, repo, TopicAchievementUnlocked, item.Record.ID, item.Record.UserID, item.Record.UnlockedAt, map[string]any{
			"user_id":        item.Record.UserID,
			"achievement_id": item.Achievement.ID,
			"rarity":         string(item.Achievement.Rarity),
			"bonus_points":   item.Bonus.Points,
		}); err != nil {
			return err
		}
	}
	return nil
}
