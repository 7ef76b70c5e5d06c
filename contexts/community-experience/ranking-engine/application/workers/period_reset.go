package workers

import (
	"context"
	"log/slog"
	"time"

	application "bountyboard/contexts/community-experience/ranking-engine/application"
	"bountyboard/contexts/community-experience/ranking-engine/application/commands"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
)

// PeriodResetJob is a scheduler job that clears one rolling points window.
type PeriodResetJob struct {
	Reset   commands.PeriodResetUseCase
	Period  entities.Period
	Timeout time.Duration
	Logger  *slog.Logger
}

// Run satisfies cron-style job interfaces that take no context.
func (j PeriodResetJob) Run() {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil {
		application.ResolveLogger(j.Logger).Error("period reset job failed",
			"event", "ranking_period_reset_job_failed",
			"module", "community-experience/ranking-engine",
			"layer", "worker",
			"period", string(j.Period),
			"error", err.Error(),
		)
	}
}

func (j PeriodResetJob) RunOnce(ctx context.Context) error {
	_, err := j.Reset.ResetPeriod(ctx, j.Period)
	return err
}
