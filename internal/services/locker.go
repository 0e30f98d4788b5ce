package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker сериализует критические секции по естественному ключу инварианта
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// sortedUnique упорядочивает ключи, чтобы два запроса с одной парой
// не захватили их в разном порядке
func sortedUnique(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// MemoryLocker - блокировки внутри одного процесса
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]*keyLock)}
}

func (l *MemoryLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedUnique(keys)
	held := make([]string, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}

	for _, key := range keys {
		if err := l.acquire(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *MemoryLocker) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *MemoryLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		return
	}
	<-kl.ch
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// RedisLocker - блокировки через SET NX PX, переживают несколько процессов
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

// снимаем блокировку только если она все еще наша
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = sortedUnique(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	release := func() {
		// отдельный контекст: запрос мог быть уже отменен
		bg, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			unlockScript.Run(bg, l.client, []string{"lock:" + held[i]}, token)
		}
	}

	for _, key := range keys {
		for {
			ok, err := l.client.SetNX(ctx, "lock:"+key, token, l.ttl).Result()
			if err != nil {
				release()
				return nil, err
			}
			if ok {
				held = append(held, key)
				break
			}

			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(l.retry):
			}
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
