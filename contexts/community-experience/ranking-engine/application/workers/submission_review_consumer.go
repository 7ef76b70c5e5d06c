package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	application "bountyboard/contexts/community-experience/ranking-engine/application"
	"bountyboard/contexts/community-experience/ranking-engine/application/commands"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

const (
	SubmissionReviewedTopic = "submission.reviewed"
	defaultConsumerGroup    = "ranking-engine-submission-cg"
)

// SubmissionReviewConsumer turns accepted submission reviews into scoring events.
type SubmissionReviewConsumer struct {
	Subscriber    ports.EventSubscriber
	Events        commands.EventUseCase
	ConsumerGroup string
	Logger        *slog.Logger
}

type submissionReviewedPayload struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Severity    string  `json:"severity"`
	Reason      string  `json:"reason"`
	Accepted    bool    `json:"accepted"`
	Earnings    float64 `json:"earnings"`
}

func (c SubmissionReviewConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, SubmissionReviewedTopic, group, c.Handle)
}

func (c SubmissionReviewConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	var payload submissionReviewedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode submission reviewed payload: %w", err)
	}
	if !payload.Accepted {
		logger.Debug("submission review skipped",
			"event", "ranking_submission_review_skipped",
			"module", "community-experience/ranking-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"user_id", payload.UserID,
		)
		return nil
	}
	severity, ok := entities.ParseSeverity(payload.Severity)
	if !ok {
		return fmt.Errorf("submission reviewed event %s: %w", event.EventID, domainerrors.ErrInvalidSeverity)
	}

	result, err := c.Events.ApplyEvent(ctx, commands.ApplyEventCommand{
		UserID:      payload.UserID,
		DisplayName: payload.DisplayName,
		Severity:    severity,
		Reason:      payload.Reason,
		SourceRef:   event.EventID,
		Earnings:    payload.Earnings,
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidInput) {
			return fmt.Errorf("submission reviewed event %s: %w", event.EventID, err)
		}
		return err
	}

	logger.Info("submission review scored",
		"event", "ranking_submission_review_scored",
		"module", "community-experience/ranking-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"user_id", result.Ranking.UserID,
		"points", result.Transaction.Points,
		"replayed", result.Replayed,
	)
	return nil
}
