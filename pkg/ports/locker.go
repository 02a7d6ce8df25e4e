package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates access to one session across processes sharing a store.
// session.Manager takes it on top of its in-process per-session mutex.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done. The lock expires after
	// ttl if the holder never releases it. The returned UnlockFunc MUST be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
