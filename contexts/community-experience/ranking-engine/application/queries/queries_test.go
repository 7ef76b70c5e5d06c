package queries_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"bountyboard/contexts/community-experience/ranking-engine/adapters/cache"
	"bountyboard/contexts/community-experience/ranking-engine/adapters/memory"
	"bountyboard/contexts/community-experience/ranking-engine/application/queries"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type countingRepo struct {
	*memory.Store
	mu    sync.Mutex
	lists int
}

func (r *countingRepo) ListRankings(ctx context.Context) ([]entities.UserRanking, error) {
	r.mu.Lock()
	r.lists++
	r.mu.Unlock()
	return r.Store.ListRankings(ctx)
}

func (r *countingRepo) afterList(hook func()) *hookedRepo {
	return &hookedRepo{countingRepo: r, hook: hook}
}

// hookedRepo runs hook after the rankings are read, standing in for a write
// that commits while a snapshot is being built.
type hookedRepo struct {
	*countingRepo
	hook func()
}

func (r *hookedRepo) ListRankings(ctx context.Context) ([]entities.UserRanking, error) {
	items, err := r.countingRepo.ListRankings(ctx)
	if r.hook != nil {
		r.hook()
		r.hook = nil
	}
	return items, err
}

func (r *countingRepo) listCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists
}

func seedUsers() []entities.UserRanking {
	user := func(id, name string, points int) entities.UserRanking {
		return entities.UserRanking{
			UserID:       id,
			DisplayName:  name,
			TotalPoints:  points,
			BugsFound:    1,
			LastActivity: testNow,
		}
	}
	return []entities.UserRanking{
		user("dave", "Dave", 600),
		user("bob", "Bob Stone", 9000),
		user("carol", "Carol", 600),
		user("alice", "Alice Cooper", 16000),
	}
}

func newLeaderboard(t *testing.T) (queries.LeaderboardUseCase, *countingRepo, *cache.LRU) {
	t.Helper()
	repo := &countingRepo{Store: memory.NewStore(seedUsers())}
	lruCache, err := cache.NewLRU(4, time.Minute)
	require.NoError(t, err)
	return queries.LeaderboardUseCase{
		Repo:   repo,
		Cache:  lruCache,
		Clock:  fixedClock{},
		Flight: &singleflight.Group{},
	}, repo, lruCache
}

func userIDs(entries []entities.LeaderboardEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.Ranking.UserID)
	}
	return ids
}

func TestLeaderboardOrdersByCompositeScore(t *testing.T) {
	uc, _, _ := newLeaderboard(t)

	page, err := uc.Leaderboard(context.Background(), queries.LeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, userIDs(page.Entries))
	for i, entry := range page.Entries {
		assert.Equal(t, i+1, entry.Position)
	}
	assert.Equal(t, entities.TierS, page.Entries[0].Ranking.Tier)
}

func TestLeaderboardFilterKeepsGlobalPositions(t *testing.T) {
	uc, _, _ := newLeaderboard(t)

	page, err := uc.Leaderboard(context.Background(), queries.LeaderboardQuery{Tier: entities.TierD})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "dave"}, userIDs(page.Entries))
	assert.Equal(t, 3, page.Entries[0].Position)
	assert.Equal(t, 4, page.Entries[1].Position)

	page, err = uc.Leaderboard(context.Background(), queries.LeaderboardQuery{Search: "bo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, userIDs(page.Entries))
	assert.Equal(t, 2, page.Entries[0].Position)
}

func TestLeaderboardPagination(t *testing.T) {
	uc, _, _ := newLeaderboard(t)
	ctx := context.Background()

	page, err := uc.Leaderboard(ctx, queries.LeaderboardQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, []string{"bob", "carol"}, userIDs(page.Entries))

	page, err = uc.Leaderboard(ctx, queries.LeaderboardQuery{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)

	_, err = uc.Leaderboard(ctx, queries.LeaderboardQuery{Tier: entities.Tier("Z")})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = uc.Leaderboard(ctx, queries.LeaderboardQuery{Limit: -1})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestLeaderboardServesFromCacheUntilInvalidated(t *testing.T) {
	uc, repo, lruCache := newLeaderboard(t)
	ctx := context.Background()

	_, err := uc.Leaderboard(ctx, queries.LeaderboardQuery{})
	require.NoError(t, err)
	_, err = uc.Leaderboard(ctx, queries.LeaderboardQuery{Tier: entities.TierA})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls())

	require.NoError(t, lruCache.Invalidate(ctx))
	_, err = uc.Leaderboard(ctx, queries.LeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls())
}

func TestLeaderboardSkipsSnapshotInvalidatedMidCompute(t *testing.T) {
	uc, repo, lruCache := newLeaderboard(t)
	ctx := context.Background()
	uc.Repo = repo.afterList(func() {
		require.NoError(t, lruCache.Invalidate(ctx))
	})

	_, err := uc.Leaderboard(ctx, queries.LeaderboardQuery{})
	require.NoError(t, err)
	_, ok, err := lruCache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "stale snapshot must not be cached")

	_, err = uc.Leaderboard(ctx, queries.LeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls())
	_, ok, err = lruCache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSummaryIncludesNextTier(t *testing.T) {
	profile := queries.ProfileUseCase{Repo: memory.NewStore(seedUsers()), Clock: fixedClock{}}
	ctx := context.Background()

	summary, err := profile.Summary(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, entities.TierA, summary.Config.Tier)
	require.NotNil(t, summary.NextTier)
	assert.Equal(t, entities.TierS, summary.NextTier.Tier)
	assert.True(t, summary.AtRisk)
	assert.Greater(t, summary.Metrics.Total, 0.0)

	summary, err = profile.Summary(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, summary.NextTier)

	_, err = profile.Summary(ctx, "nobody")
	assert.ErrorIs(t, err, domainerrors.ErrRankingNotFound)
	_, err = profile.Summary(ctx, "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}

func TestTransactionsNewestFirst(t *testing.T) {
	store := memory.NewStore(seedUsers())
	ctx := context.Background()
	for i, ref := range []string{"r1", "r2", "r3"} {
		require.NoError(t, store.AppendTransaction(ctx, entities.PointsTransaction{
			TransactionID: ref,
			UserID:        "bob",
			SourceRef:     ref,
			Kind:          entities.TransactionKindBugReward,
			Points:        50,
			CreatedAt:     testNow.Add(time.Duration(i) * time.Hour),
		}))
	}
	profile := queries.ProfileUseCase{Repo: store, Clock: fixedClock{}}

	items, err := profile.Transactions(ctx, "bob", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "r3", items[0].TransactionID)
	assert.Equal(t, "r2", items[1].TransactionID)
}

func TestAchievementsListsWholeCatalog(t *testing.T) {
	store := memory.NewStore(seedUsers())
	ctx := context.Background()
	require.NoError(t, store.CreateUserAchievement(ctx, entities.UserAchievement{
		UserID: "bob", AchievementID: "first_blood", UnlockedAt: testNow,
	}))
	profile := queries.ProfileUseCase{Repo: store, Clock: fixedClock{}}

	items, err := profile.Achievements(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, items, len(entities.Achievements()))
	unlocked := 0
	for _, item := range items {
		if item.Unlocked {
			unlocked++
			assert.Equal(t, "first_blood", item.Achievement.ID)
			require.NotNil(t, item.UnlockedAt)
			assert.True(t, item.UnlockedAt.Equal(testNow))
		}
	}
	assert.Equal(t, 1, unlocked)
}

func TestRewardsForUnknownUserUseZeroState(t *testing.T) {
	profile := queries.ProfileUseCase{Repo: memory.NewStore(nil), Clock: fixedClock{}}

	view, err := profile.Rewards(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Empty(t, view.Redemptions)
	require.Len(t, view.Rewards, len(entities.Rewards()))

	byID := make(map[string]queries.RewardStatus, len(view.Rewards))
	for _, item := range view.Rewards {
		byID[item.Reward.ID] = item
		assert.False(t, item.Eligible)
	}
	assert.Equal(t, entities.MessageInsufficientPts, byID["sticker_pack"].Reason)
	assert.Equal(t, -1, byID["sticker_pack"].Remaining)
	assert.Equal(t, 5, byID["conference_ticket"].Remaining)
	assert.Equal(t, entities.MessageRewardUnavailable, byID["legacy_tshirt"].Reason)
}
