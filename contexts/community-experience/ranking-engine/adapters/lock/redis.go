package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes per-key mutations across replicas with SET NX leases.
// A lease expires after TTL so a crashed holder cannot block a key forever.
type RedisLocker struct {
	client  redis.Cmdable
	ttl     time.Duration
	maxWait time.Duration
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration, maxWait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if maxWait <= 0 {
		maxWait = ttl
	}
	return &RedisLocker{client: client, ttl: ttl, maxWait: maxWait}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = l.maxWait

	errBusy := errors.New("lock busy")
	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errBusy
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		if errors.Is(err, errBusy) {
			return nil, domainerrors.ErrLockTimeout
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrDependencyUnavailable, err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}

var _ ports.KeyLocker = (*RedisLocker)(nil)
