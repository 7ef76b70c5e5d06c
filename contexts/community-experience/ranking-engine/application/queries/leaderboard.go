package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	application "bountyboard/contexts/community-experience/ranking-engine/application"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 100
)

type LeaderboardQuery struct {
	Tier   entities.Tier
	Search string
	Limit  int
	Offset int
}

// LeaderboardPage keeps the global Position of every entry even when the
// query filters by tier or search term.
type LeaderboardPage struct {
	Entries []entities.LeaderboardEntry
	Total   int
}

type LeaderboardUseCase struct {
	Repo    ports.Repository
	Cache   ports.LeaderboardCache
	Metrics ports.Metrics
	Clock   ports.Clock
	// Flight collapses concurrent recomputes after an invalidation.
	Flight *singleflight.Group
	Logger *slog.Logger
}

func (uc LeaderboardUseCase) Leaderboard(ctx context.Context, query LeaderboardQuery) (LeaderboardPage, error) {
	if query.Tier != "" && !entities.IsValidTier(query.Tier) {
		return LeaderboardPage{}, domainerrors.ErrInvalidInput
	}
	if query.Limit < 0 || query.Offset < 0 {
		return LeaderboardPage{}, domainerrors.ErrInvalidInput
	}
	if query.Limit == 0 {
		query.Limit = defaultLeaderboardLimit
	}
	if query.Limit > maxLeaderboardLimit {
		query.Limit = maxLeaderboardLimit
	}

	ordered, err := uc.Ordered(ctx)
	if err != nil {
		return LeaderboardPage{}, err
	}

	filtered := ordered
	if query.Tier != "" {
		filtered = make([]entities.LeaderboardEntry, 0, len(ordered))
		for _, entry := range ordered {
			if entry.Ranking.Tier == query.Tier {
				filtered = append(filtered, entry)
			}
		}
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		filtered = searchByName(filtered, search)
	}

	page := LeaderboardPage{Total: len(filtered)}
	if query.Offset >= len(filtered) {
		page.Entries = []entities.LeaderboardEntry{}
		return page, nil
	}
	end := query.Offset + query.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	page.Entries = append([]entities.LeaderboardEntry(nil), filtered[query.Offset:end]...)

	application.ResolveLogger(uc.Logger).Debug("ranking leaderboard served",
		"event", "ranking_leaderboard_served",
		"module", "community-experience/ranking-engine",
		"layer", "application",
		"tier", string(query.Tier),
		"limit", query.Limit,
		"offset", query.Offset,
		"total", page.Total,
	)
	return page, nil
}

// Ordered returns every ranking ordered by composite score.
func (uc LeaderboardUseCase) Ordered(ctx context.Context) ([]entities.LeaderboardEntry, error) {
	metrics := application.ResolveMetrics(uc.Metrics)
	if uc.Cache != nil {
		entries, ok, err := uc.Cache.Get(ctx)
		if err != nil {
			application.ResolveLogger(uc.Logger).Warn("leaderboard cache read failed",
				"event", "ranking_leaderboard_cache_read_failed",
				"module", "community-experience/ranking-engine",
				"layer", "application",
				"error", err.Error(),
			)
		} else if ok {
			metrics.LeaderboardCacheLookup(true)
			return entries, nil
		}
		metrics.LeaderboardCacheLookup(false)
	}

	if uc.Flight == nil {
		return uc.compute(ctx)
	}
	value, err, _ := uc.Flight.Do("leaderboard", func() (any, error) {
		return uc.compute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return value.([]entities.LeaderboardEntry), nil
}

func (uc LeaderboardUseCase) compute(ctx context.Context) ([]entities.LeaderboardEntry, error) {
	// The generation is read before the rankings so a write that lands while
	// the snapshot is being built keeps it out of the cache.
	var generation uint64
	cacheable := uc.Cache != nil
	if cacheable {
		current, err := uc.Cache.Generation(ctx)
		if err != nil {
			uc.warnCache("ranking_leaderboard_cache_generation_failed", err)
			cacheable = false
		}
		generation = current
	}

	rankings, err := uc.Repo.ListRankings(ctx)
	if err != nil {
		return nil, err
	}
	entries := entities.OrderLeaderboard(rankings, now(uc.Clock))
	if cacheable {
		if err := uc.Cache.Set(ctx, generation, entries); err != nil {
			uc.warnCache("ranking_leaderboard_cache_write_failed", err)
		}
	}
	return entries, nil
}

func (uc LeaderboardUseCase) warnCache(event string, err error) {
	application.ResolveLogger(uc.Logger).Warn("leaderboard cache unavailable",
		"event", event,
		"module", "community-experience/ranking-engine",
		"layer", "application",
		"error", err.Error(),
	)
}
