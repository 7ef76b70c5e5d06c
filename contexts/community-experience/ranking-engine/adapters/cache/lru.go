package cache

import (
	"context"
	"sync"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	lru "github.com/hashicorp/golang-lru"
)

const (
	leaderboardKey    = "ranking:leaderboard"
	leaderboardGenKey = "ranking:leaderboard:gen"
)

type lruItem struct {
	entries   []entities.LeaderboardEntry
	expiresAt time.Time
}

// LRU is the in-process leaderboard cache used when no Redis is configured.
type LRU struct {
	mu         sync.Mutex
	cache      *lru.Cache
	ttl        time.Duration
	now        func() time.Time
	generation uint64
}

func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: cache, ttl: ttl, now: time.Now}, nil
}

func (c *LRU) Get(_ context.Context) ([]entities.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.cache.Get(leaderboardKey)
	if !ok {
		return nil, false, nil
	}
	item := value.(lruItem)
	if c.ttl > 0 && !c.now().Before(item.expiresAt) {
		c.cache.Remove(leaderboardKey)
		return nil, false, nil
	}
	return item.entries, true, nil
}

func (c *LRU) Generation(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

// Set stores entries computed at generation. A snapshot computed before the
// last Invalidate is dropped.
func (c *LRU) Set(_ context.Context, generation uint64, entries []entities.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return nil
	}

	stored := append([]entities.LeaderboardEntry(nil), entries...)
	c.cache.Add(leaderboardKey, lruItem{entries: stored, expiresAt: c.now().Add(c.ttl)})
	return nil
}

func (c *LRU) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Remove(leaderboardKey)
	return nil
}

var _ ports.LeaderboardCache = (*LRU)(nil)
