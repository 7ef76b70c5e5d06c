package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/adapters/memory"
	"bountyboard/contexts/community-experience/ranking-engine/application/commands"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store       *memory.Store
	clock       *fakeClock
	events      commands.EventUseCase
	redemptions commands.RedemptionUseCase
	reset       commands.PeriodResetUseCase
}

func newFixture(seed ...entities.UserRanking) fixture {
	store := memory.NewStore(seed)
	clock := newFakeClock()
	locker := memory.NewKeyLocker()
	return fixture{
		store: store,
		clock: clock,
		events: commands.EventUseCase{
			Repo:       store,
			UnitOfWork: store,
			Locker:     locker,
			Clock:      clock,
			IDGen:      memory.UUIDGenerator{},
		},
		redemptions: commands.RedemptionUseCase{
			Repo:       store,
			UnitOfWork: store,
			Locker:     locker,
			Clock:      clock,
			IDGen:      memory.UUIDGenerator{},
		},
		reset: commands.PeriodResetUseCase{
			Repo:  store,
			Clock: clock,
		},
	}
}

// pending counts outbox rows of one event type that are waiting for the relay.
func (f fixture) pending(t *testing.T, eventType string) int {
	t.Helper()
	rows, err := f.store.ListPendingOutbox(context.Background(), 1000)
	require.NoError(t, err)
	n := 0
	for _, row := range rows {
		if row.EventType == eventType {
			n++
		}
	}
	return n
}
