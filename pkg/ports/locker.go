package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It lets the workspace manager serialize dataset mutation and graph rebuilds
// across multiple server replicas sharing one store.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// The returned UnlockFunc MUST be called to release the lock; the ttl
	// bounds how long a crashed holder can keep it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
