package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// KeyLocker serializes writes per natural key so two concurrent use cases for
// the same farmer/scheme cannot interleave their find+merge+save cycles.
// With redis configured the lock spans instances; otherwise it degrades to a
// per-key in-process mutex.
type KeyLocker struct {
	locker *redislock.Client
	mu     sync.Mutex
	local  map[string]*sync.Mutex
}

func NewKeyLocker(locker *redislock.Client) *KeyLocker {
	return &KeyLocker{
		locker: locker,
		local:  map[string]*sync.Mutex{},
	}
}

// Lock acquires the lock for key and returns the release func.
func (k *KeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	if k.locker != nil {
		lock, err := k.locker.Obtain(ctx, "synclock:"+key, 30*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		})
		if err != nil {
			return nil, fmt.Errorf("could not acquire lock for key=%s: %w", key, err)
		}
		return func() { _ = lock.Release(context.Background()) }, nil
	}

	k.mu.Lock()
	m := k.local[key]
	if m == nil {
		m = &sync.Mutex{}
		k.local[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
