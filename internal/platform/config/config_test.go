package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaultsToMemoryWithoutDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StorageDriver)
	}
	if cfg.LeaderboardCacheTTL != 30*time.Second || cfg.LeaderboardCacheSize != 64 {
		t.Fatalf("unexpected cache defaults: ttl=%s size=%d", cfg.LeaderboardCacheTTL, cfg.LeaderboardCacheSize)
	}
	if cfg.WeeklyResetCron != "0 0 * * 1" {
		t.Fatalf("unexpected weekly cron %q", cfg.WeeklyResetCron)
	}
	if !cfg.EnableSubmissionConsumer {
		t.Fatalf("expected submission consumer enabled by default")
	}
	if cfg.OutboxPollInterval != 2*time.Second || cfg.OutboxBatchSize != 100 {
		t.Fatalf("unexpected outbox defaults: interval=%s batch=%d", cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	}
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing dsn error")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	if _, err := Load(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LEADERBOARD_CACHE_TTL", "5s")
	t.Setenv("LOCK_TTL", "2s")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "10")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("ENABLE_PERIOD_RESET", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LeaderboardCacheTTL != 5*time.Second || cfg.LockTTL != 2*time.Second {
		t.Fatalf("unexpected durations: cache=%s lock=%s", cfg.LeaderboardCacheTTL, cfg.LockTTL)
	}
	if cfg.OutboxPollInterval != 250*time.Millisecond || cfg.OutboxBatchSize != 10 {
		t.Fatalf("unexpected outbox settings: interval=%s batch=%d", cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	}
	if !reflect.DeepEqual(cfg.KafkaBrokers, []string{"a:9092", "b:9092"}) {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.EnablePeriodReset {
		t.Fatalf("expected period reset disabled")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LEADERBOARD_CACHE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}
