package commands

import (
	"context"
	"log/slog"

	application "bountyboard/contexts/community-experience/ranking-engine/application"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

// PeriodResetUseCase zeroes the rolling weekly or monthly point counters.
type PeriodResetUseCase struct {
	Repo   ports.Repository
	Cache  ports.LeaderboardCache
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc PeriodResetUseCase) ResetPeriod(ctx context.Context, period entities.Period) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	if _, ok := entities.ParsePeriod(string(period)); !ok {
		return 0, domainerrors.ErrInvalidPeriod
	}

	affected, err := uc.Repo.ResetPeriodPoints(ctx, period, nowFrom(uc.Clock))
	if err != nil {
		logger.Error("ranking period reset failed",
			"event", "ranking_period_reset_failed",
			"module", moduleName,
			"layer", "application",
			"period", string(period),
			"error", err.Error(),
		)
		return 0, err
	}
	invalidateLeaderboard(ctx, uc.Cache, logger)

	logger.Info("ranking period reset",
		"event", "ranking_period_reset",
		"module", moduleName,
		"layer", "application",
		"period", string(period),
		"rankings_reset", affected,
	)
	return affected, nil
}
