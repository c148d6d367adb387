package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker guards a due action so only one dispatcher instance runs it.
type Locker interface {
	Acquire(ctx context.Context, actionID string) bool
	Release(ctx context.Context, actionID string)
}

const leaseTTL = 5 * time.Minute

// RedisLock takes short leases in Redis, one key per action. SET NX makes
// acquisition atomic across dispatcher instances; the TTL frees leases held
// by a crashed instance.
type RedisLock struct {
	client *redis.Client
	prefix string
}

func NewRedisLock(addr, password string, db int) (*RedisLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return &RedisLock{client: client, prefix: "glowdesk:action-lease:"}, nil
}

func (l *RedisLock) Acquire(ctx context.Context, actionID string) bool {
	ok, err := l.client.SetNX(ctx, l.prefix+actionID, "1", leaseTTL).Result()
	if err != nil {
		return false
	}

	return ok
}

func (l *RedisLock) Release(ctx context.Context, actionID string) {
	l.client.Del(ctx, l.prefix+actionID)
}

func (l *RedisLock) Close() error {
	return l.client.Close()
}

// LocalLock is the single-instance fallback used with file persistence and
// in tests.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]bool)}
}

func (l *LocalLock) Acquire(_ context.Context, actionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[actionID] {
		return false
	}

	l.held[actionID] = true

	return true
}

func (l *LocalLock) Release(_ context.Context, actionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, actionID)
}
