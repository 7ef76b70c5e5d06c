package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName     string
	HTTPPort        string
	StorageDriver   string
	PostgresDSN     string
	PostgresMigrate bool
	RedisURL        string
	KafkaBrokers    []string

	LogLevel  string
	LogFormat string

	LeaderboardCacheTTL  time.Duration
	LeaderboardCacheSize int
	LockTTL              time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int

	WeeklyResetCron  string
	MonthlyResetCron string

	EnablePeriodReset        bool
	EnableSubmissionConsumer bool
}

// Load reads the process environment. A .env file in the working directory is
// applied first without overriding variables that are already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "bountyboard"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_DRIVER")))
	if driver == "" {
		driver = StorageDriverPostgres
		if dsn == "" {
			driver = StorageDriverMemory
		}
	}
	switch driver {
	case StorageDriverPostgres:
		if dsn == "" {
			return Config{}, errors.New("POSTGRES_DSN is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	cacheTTL, err := envDuration("LEADERBOARD_CACHE_TTL", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	lockTTL, err := envDuration("LOCK_TTL", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cacheSize, err := envInt("LEADERBOARD_CACHE_SIZE", 64)
	if err != nil {
		return Config{}, err
	}
	pollInterval, err := envDuration("OUTBOX_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	batchSize, err := envInt("OUTBOX_BATCH_SIZE", 100)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:     service,
		HTTPPort:        port,
		StorageDriver:   driver,
		PostgresDSN:     dsn,
		PostgresMigrate: envBool("POSTGRES_MIGRATE", true),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		KafkaBrokers:    brokers,

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),

		LeaderboardCacheTTL:  cacheTTL,
		LeaderboardCacheSize: cacheSize,
		LockTTL:              lockTTL,

		OutboxPollInterval: pollInterval,
		OutboxBatchSize:    batchSize,

		WeeklyResetCron:  envString("WEEKLY_RESET_CRON", "0 0 * * 1"),
		MonthlyResetCron: envString("MONTHLY_RESET_CRON", "0 0 1 * *"),

		EnablePeriodReset:        envBool("ENABLE_PERIOD_RESET", true),
		EnableSubmissionConsumer: envBool("ENABLE_SUBMISSION_CONSUMER", true),
	}, nil
}

func envString(name string, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return raw
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return value, nil
}
