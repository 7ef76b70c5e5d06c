package lock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"time"

	domainerrors "bountyboard/contexts/community-experience/ranking-engine/domain/errors"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

// PostgresLocker serializes per-key mutations across replicas that share one
// database but no redis. Each held key pins a pooled connection, because
// advisory locks belong to the session that took them.
type PostgresLocker struct {
	db      *gorm.DB
	maxWait time.Duration
}

func NewPostgresLocker(db *gorm.DB, maxWait time.Duration) *PostgresLocker {
	if maxWait <= 0 {
		maxWait = 10 * time.Second
	}
	return &PostgresLocker{db: db, maxWait: maxWait}
}

func (l *PostgresLocker) Acquire(ctx context.Context, key string) (func(), error) {
	sqlDB, err := l.db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrDependencyUnavailable, err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrDependencyUnavailable, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 10 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = l.maxWait

	errBusy := errors.New("lock busy")
	err = backoff.Retry(func() error {
		var acquired bool
		row := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key)
		if err := row.Scan(&acquired); err != nil {
			return backoff.Permanent(err)
		}
		if !acquired {
			return errBusy
		}
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		_ = conn.Close()
		if errors.Is(err, errBusy) {
			return nil, domainerrors.ErrLockTimeout
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrDependencyUnavailable, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { releaseAdvisory(conn, key) })
	}, nil
}

// releaseAdvisory unlocks and hands the connection back to the pool. If the
// unlock fails the connection is discarded, which ends the session and drops
// the lock with it.
func releaseAdvisory(conn *sql.Conn, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
	_ = conn.Close()
}

var _ ports.KeyLocker = (*PostgresLocker)(nil)
