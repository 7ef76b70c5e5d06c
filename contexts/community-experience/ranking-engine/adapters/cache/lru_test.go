package cache

import (
	"context"
	"testing"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
)

func TestLRUExpiresEntriesAfterTTL(t *testing.T) {
	c, err := NewLRU(1, time.Minute)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	entries := []entities.LeaderboardEntry{{Position: 1, Ranking: entities.UserRanking{UserID: "u1"}}}
	if err := c.Set(ctx, 0, entries); err != nil {
		t.Fatalf("set: %v", err)
	}
	entries[0].Position = 99

	got, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit: ok=%v err=%v", ok, err)
	}
	if got[0].Position != 1 {
		t.Fatalf("expected cached copy to be isolated from caller, got position %d", got[0].Position)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestLRUInvalidate(t *testing.T) {
	c, err := NewLRU(1, time.Minute)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	ctx := context.Background()
	_ = c.Set(ctx, 0, []entities.LeaderboardEntry{{Position: 1}})
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx); ok {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestLRUDropsSnapshotComputedBeforeInvalidate(t *testing.T) {
	c, err := NewLRU(1, time.Minute)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	ctx := context.Background()

	generation, err := c.Generation(ctx)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := c.Set(ctx, generation, []entities.LeaderboardEntry{{Position: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := c.Get(ctx); ok {
		t.Fatalf("expected stale snapshot to be dropped")
	}

	current, err := c.Generation(ctx)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if current != generation+1 {
		t.Fatalf("expected generation %d, got %d", generation+1, current)
	}
	if err := c.Set(ctx, current, []entities.LeaderboardEntry{{Position: 1}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := c.Get(ctx); !ok {
		t.Fatalf("expected current snapshot to be cached")
	}
}
