package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "bountyboard/contexts/community-experience/ranking-engine/application"
	"bountyboard/contexts/community-experience/ranking-engine/ports"
)

const defaultRelayBatch = 100

// OutboxRelay moves committed ranking events from the outbox to the bus.
// Delivery is at least once: a crash between publish and mark republishes
// the row on the next cycle.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce relays one batch in outbox order and stops at the first failure, so
// later rows are never published ahead of an earlier one.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = defaultRelayBatch
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending outbox: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			return published, fmt.Errorf("decode outbox %s: %w", row.OutboxID, err)
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Warn("ranking outbox publish failed",
				"event", "ranking_outbox_publish_failed",
				"module", "community-experience/ranking-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", topic,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
			return published, fmt.Errorf("mark outbox %s published: %w", row.OutboxID, err)
		}
		published++
	}

	logger.Debug("ranking outbox relayed",
		"event", "ranking_outbox_relayed",
		"module", "community-experience/ranking-engine",
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}

// Run relays on every tick until ctx ends. Failed cycles are logged and retried
// on the next tick.
func (r OutboxRelay) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			application.ResolveLogger(r.Logger).Error("ranking outbox relay cycle failed",
				"event", "ranking_outbox_relay_failed",
				"module", "community-experience/ranking-engine",
				"layer", "worker",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r OutboxRelay) now() time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
