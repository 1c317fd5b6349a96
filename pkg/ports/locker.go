package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of the same session across processes,
// so that a session log is never loaded and flushed by two turns at once.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done. The lock
	// expires after ttl if never released. The returned UnlockFunc must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
