package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-distributor/internal/config"
)

// ErrPaperBusy is returned when another edit holds the paper's lock.
var ErrPaperBusy = errors.New("paper is being modified, try again")

const (
	lockRetries    = 5
	lockRetryDelay = 100 * time.Millisecond
)

// Locker serializes read-modify-write cycles on one paper. The returned
// release func must be called once the write is done.
type Locker interface {
	Lock(ctx context.Context, examID string) (release func(), err error)
}

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every server process.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisLocker creates a RedisLocker whose locks expire after ttl.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisLocker {
	return &RedisLocker{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "paper_lock").Logger(),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, examID string) (func(), error) {
	key := config.CacheKey.PaperLockKey(examID)
	token := uuid.NewString()

	for attempt := 0; attempt < lockRetries; attempt++ {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire paper lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return nil, ErrPaperBusy
}

// release drops the lock. A failed release is logged; the TTL still frees it.
func (l *RedisLocker) release(key, token string) {
	if err := releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("Failed to release paper lock")
	}
}

// LocalLocker is an in-process Locker for single-node runs and tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*sync.Mutex{}}
}

func (l *LocalLocker) Lock(_ context.Context, examID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[examID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[examID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
