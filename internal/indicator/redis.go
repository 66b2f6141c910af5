package indicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// expiryMargin keeps a key alive slightly past the freshness TTL. Readers judge
// freshness from ComputedAt; expiry only reclaims space, and a reader that
// deletes an entry refreshed by another process costs one recomputation.
const expiryMargin = time.Second

// RedisStore shares cache entries between processes. Keys expire shortly after
// ttl, so a stale entry normally disappears before a reader sees it.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "movers:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Ping checks the connection to the Redis server.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisStore) key(k Key) string {
	return r.prefix + k.String()
}

func (r *RedisStore) expiry() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	return r.ttl + expiryMargin
}

func (r *RedisStore) Load(ctx context.Context, key Key) (Entry, bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("[WARN] redis get %s: %v", key, err)
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		log.Printf("[WARN] redis decode %s: %v", key, err)
		return Entry{}, false
	}
	return e, true
}

func (r *RedisStore) Save(ctx context.Context, key Key, e Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[WARN] redis encode %s: %v", key, err)
		return
	}
	if err := r.client.Set(ctx, r.key(key), data, r.expiry()).Err(); err != nil {
		log.Printf("[WARN] redis set %s: %v", key, err)
	}
}

func (r *RedisStore) Delete(ctx context.Context, key Key) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		log.Printf("[WARN] redis del %s: %v", key, err)
	}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
