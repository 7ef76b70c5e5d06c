package commands

import (
	"context"
	"errors"
	"fmt"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

// UnlockedAchievement is one grant made during an evaluation pass.
type UnlockedAchievement struct {
	Achievement entities.Achievement
	Record      entities.UserAchievement
	Bonus       entities.PointsTransaction
}

// AchievementEvaluator grants catalog achievements whose predicate holds for
// the user's current state. Bonus points go to the ledger only: the ranking's
// TotalPoints and tier are left untouched and no second pass is run.
type AchievementEvaluator struct {
	Clock ports.Clock
	IDGen ports.IDGenerator
}

func (e AchievementEvaluator) Evaluate(
	ctx context.Context,
	repo ports.Repository,
	user entities.UserRanking,
	trigger entities.Severity,
) ([]UnlockedAchievement, error) {
	existing, err := repo.ListUserAchievements(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	unlocked := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		unlocked[item.AchievementID] = struct{}{}
	}

	now := nowFrom(e.Clock)
	var granted []UnlockedAchievement
	for _, achievement := range entities.Achievements() {
		if _, ok := unlocked[achievement.ID]; ok {
			continue
		}
		if !achievement.Met(user, trigger) {
			continue
		}

		recordID, err := e.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		record := entities.UserAchievement{
			ID:            recordID,
			UserID:        user.UserID,
			AchievementID: achievement.ID,
			UnlockedAt:    now,
		}
		if err := repo.CreateUserAchievement(ctx, record); err != nil {
			if errors.Is(err, domainerrors.ErrAchievementAlreadyUnlocked) {
				continue
			}
			return nil, err
		}

		txID, err := e.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		bonus := entities.PointsTransaction{
			TransactionID: txID,
			UserID:        user.UserID,
			SourceRef:     "achievement:" + user.UserID + ":" + achievement.ID,
			Kind:          entities.TransactionKindAchievementBonus,
			Points:        achievement.PointsBonus,
			Reason:        fmt.Sprintf("Achievement unlocked: %s", achievement.Name),
			CreatedAt:     now,
		}
		if err := repo.AppendTransaction(ctx, bonus); err != nil {
			return nil, err
		}
		granted = append(granted, UnlockedAchievement{
			Achievement: achievement,
			Record:      record,
			Bonus:       bonus,
		})
	}
	return granted, nil
}
