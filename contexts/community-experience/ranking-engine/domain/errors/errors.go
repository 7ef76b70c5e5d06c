package errors

import "errors"

var (
	ErrInvalidInput               = errors.New("ranking input is invalid")
	ErrInvalidSeverity            = errors.New("severity is not a known bucket")
	ErrInvalidPeriod              = errors.New("period must be weekly or monthly")
	ErrRankingNotFound            = errors.New("user ranking not found")
	ErrAchievementAlreadyUnlocked = errors.New("achievement already unlocked")
	ErrLockTimeout                = errors.New("timed out waiting for ranking lock")
	ErrDependencyUnavailable      = errors.New("ranking dependency is unavailable")
	ErrDuplicateSourceRef         = errors.New("source reference already recorded")
	ErrOutboxConflict             = errors.New("outbox event id reused with a different payload")
	ErrOutboxMessageNotFound      = errors.New("outbox message not found")
)
