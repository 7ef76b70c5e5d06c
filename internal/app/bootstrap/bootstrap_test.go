package bootstrap

import (
	"testing"
	"time"

	rankinglock "bountyboard/contexts/community-experience/ranking-engine/adapters/lock"
	rankingmemory "bountyboard/contexts/community-experience/ranking-engine/adapters/memory"
	"bountyboard/internal/platform/config"
	"bountyboard/internal/platform/db"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func TestNewLockerUsesAdvisoryLocksForPostgresWithoutRedis(t *testing.T) {
	cfg := config.Config{StorageDriver: config.StorageDriverPostgres, LockTTL: time.Second}
	locker := newLocker(cfg, infra{postgres: &db.Postgres{DB: &gorm.DB{}}})

	if _, ok := locker.(*rankinglock.PostgresLocker); !ok {
		t.Fatalf("expected postgres advisory locker, got %T", locker)
	}
}

func TestNewLockerPrefersRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	cfg := config.Config{StorageDriver: config.StorageDriverPostgres, LockTTL: time.Second}
	locker := newLocker(cfg, infra{postgres: &db.Postgres{DB: &gorm.DB{}}, redis: client})

	if _, ok := locker.(*rankinglock.RedisLocker); !ok {
		t.Fatalf("expected redis locker, got %T", locker)
	}
}

func TestNewLockerKeepsKeyedMutexForMemory(t *testing.T) {
	locker := newLocker(config.Config{StorageDriver: config.StorageDriverMemory}, infra{})

	if _, ok := locker.(*rankingmemory.KeyLocker); !ok {
		t.Fatalf("expected in-process keyed mutex, got %T", locker)
	}
}

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9090": ":9090", ":7070": ":7070"}
	for in, want := range cases {
		if got := normalizeAddr(in); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
