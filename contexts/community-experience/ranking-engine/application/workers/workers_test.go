package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/adapters/memory"
	"bountyboard/contexts/community-experience/ranking-engine/application/commands"
	"bountyboard/contexts/community-experience/ranking-engine/application/workers"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

type captureSubscriber struct {
	topic   string
	group   string
	handler func(context.Context, ports.EventEnvelope) error
}

func (s *captureSubscriber) Subscribe(
	_ context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	s.topic = topic
	s.group = consumerGroup
	s.handler = handler
	return nil
}

func newConsumer(store *memory.Store, subscriber ports.EventSubscriber) workers.SubmissionReviewConsumer {
	return workers.SubmissionReviewConsumer{
		Subscriber: subscriber,
		Events: commands.EventUseCase{
			Repo:       store,
			UnitOfWork: store,
			Locker:     memory.NewKeyLocker(),
			Clock:      fixedClock{},
			IDGen:      memory.UUIDGenerator{},
		},
	}
}

func reviewEvent(t *testing.T, eventID string, payload map[string]any) ports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return ports.EventEnvelope{
		EventID:   eventID,
		EventType: workers.SubmissionReviewedTopic,
		Data:      data,
	}
}

func TestSubmissionConsumerSubscribesWithDefaultGroup(t *testing.T) {
	subscriber := &captureSubscriber{}
	consumer := newConsumer(memory.NewStore(nil), subscriber)

	require.NoError(t, consumer.Start(context.Background()))
	assert.Equal(t, workers.SubmissionReviewedTopic, subscriber.topic)
	assert.Equal(t, "ranking-engine-submission-cg", subscriber.group)
	assert.NotNil(t, subscriber.handler)
}

func TestSubmissionConsumerScoresAcceptedReview(t *testing.T) {
	store := memory.NewStore(nil)
	consumer := newConsumer(store, &captureSubscriber{})
	ctx := context.Background()
	event := reviewEvent(t, "evt-1", map[string]any{
		"user_id":      "hunter-1",
		"display_name": "Hunter One",
		"severity":     "HIGH",
		"accepted":     true,
		"earnings":     750.0,
	})

	require.NoError(t, consumer.Handle(ctx, event))
	require.NoError(t, consumer.Handle(ctx, event))

	ranking, err := store.GetRanking(ctx, "hunter-1")
	require.NoError(t, err)
	assert.Equal(t, 500, ranking.TotalPoints)
	assert.Equal(t, 1, ranking.BugsFound)
	assert.Equal(t, 750.0, ranking.TotalEarnings)

	tx, found, err := store.FindTransactionBySource(ctx, "evt-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, entities.SeverityHigh, tx.Severity)
}

func TestSubmissionConsumerSkipsRejectedReview(t *testing.T) {
	store := memory.NewStore(nil)
	consumer := newConsumer(store, &captureSubscriber{})
	ctx := context.Background()

	err := consumer.Handle(ctx, reviewEvent(t, "evt-2", map[string]any{
		"user_id":  "hunter-2",
		"severity": "critical",
		"accepted": false,
	}))
	require.NoError(t, err)

	_, err = store.GetRanking(ctx, "hunter-2")
	assert.ErrorIs(t, err, domainerrors.ErrRankingNotFound)
}

func TestSubmissionConsumerRejectsBadPayloads(t *testing.T) {
	consumer := newConsumer(memory.NewStore(nil), &captureSubscriber{})
	ctx := context.Background()

	err := consumer.Handle(ctx, reviewEvent(t, "evt-3", map[string]any{
		"user_id":  "hunter-3",
		"severity": "informational",
		"accepted": true,
	}))
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSeverity)

	err = consumer.Handle(ctx, ports.EventEnvelope{EventID: "evt-4", Data: json.RawMessage(`{`)})
	assert.Error(t, err)
}

func TestPeriodResetJobClearsWeeklyPoints(t *testing.T) {
	store := memory.NewStore([]entities.UserRanking{
		{UserID: "a", TotalPoints: 700, WeeklyPoints: 700, MonthlyPoints: 700},
	})
	job := workers.PeriodResetJob{
		Reset:  commands.PeriodResetUseCase{Repo: store, Clock: fixedClock{}},
		Period: entities.PeriodWeekly,
	}

	job.Run()

	ranking, err := store.GetRanking(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 0, ranking.WeeklyPoints)
	assert.Equal(t, 700, ranking.MonthlyPoints)

	bad := workers.PeriodResetJob{Reset: job.Reset, Period: entities.Period("yearly")}
	assert.ErrorIs(t, bad.RunOnce(context.Background()), domainerrors.ErrInvalidPeriod)
}

type flakyPublisher struct {
	failOn string
	topics []string
	ids    []string
}

func (p *flakyPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if event.EventID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.ids = append(p.ids, event.EventID)
	return nil
}

func TestOutboxRelayPublishesCommittedEvents(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	uc := newConsumer(store, nil).Events
	result, err := uc.ApplyEvent(ctx, commands.ApplyEventCommand{UserID: "hunter-1", Severity: entities.SeverityCritical})
	require.NoError(t, err)

	publisher := &flakyPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: fixedClock{}}

	published, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, published)
	assert.Equal(t, commands.TopicPointsAwarded, publisher.topics[0])
	assert.Equal(t, result.Transaction.TransactionID, publisher.ids[0])

	pending, err := store.ListPendingOutbox(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)

	published, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, published)
}

func TestOutboxRelayStopsAtFirstFailure(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, store.AppendOutbox(ctx, ports.EventEnvelope{EventID: id, EventType: commands.TopicRewardRedeemed}))
	}

	publisher := &flakyPublisher{failOn: "e2"}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: fixedClock{}}

	published, err := relay.RunOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, []string{"e1"}, publisher.ids)

	pending, err := store.ListPendingOutbox(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e2", pending[0].OutboxID)

	publisher.failOn = ""
	published, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, []string{"e1", "e2", "e3"}, publisher.ids)
}
