package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soyeahso/sidekick/internal/flow"
	"github.com/soyeahso/sidekick/internal/logging"
)

const redisKeyPrefix = "sidekick:flow:"

// RedisFlowStore keeps active flows as JSON values whose TTL is refreshed
// on every save.
type RedisFlowStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

// OpenRedis connects to the server at url (redis://host:port/db) and checks
// it answers.
func OpenRedis(ctx context.Context, url string, ttl time.Duration, log *logging.Logger) (*RedisFlowStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	s := NewRedisFlowStore(client, ttl, log)
	s.log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("redis flow store connected")
	return s, nil
}

// NewRedisFlowStore wraps an existing client. ttl <= 0 keeps flows until
// deleted.
func NewRedisFlowStore(client *redis.Client, ttl time.Duration, log *logging.Logger) *RedisFlowStore {
	return &RedisFlowStore{client: client, ttl: ttl, log: log.Sub("store.redis")}
}

func redisKey(key string) string { return redisKeyPrefix + key }

func (s *RedisFlowStore) Load(ctx context.Context, key string) (flow.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return flow.Snapshot{}, false, nil
	}
	if err != nil {
		return flow.Snapshot{}, false, fmt.Errorf("loading flow %s: %w", key, err)
	}

	var snap flow.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return flow.Snapshot{}, false, fmt.Errorf("decoding flow %s: %w", key, err)
	}
	return snap, true, nil
}

func (s *RedisFlowStore) Save(ctx context.Context, key string, snap flow.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding flow %s: %w", key, err)
	}
	if err := s.client.Set(ctx, redisKey(key), data, max(s.ttl, 0)).Err(); err != nil {
		return fmt.Errorf("saving flow %s: %w", key, err)
	}
	return nil
}

func (s *RedisFlowStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("deleting flow %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (s *RedisFlowStore) Close() error {
	return s.client.Close()
}
