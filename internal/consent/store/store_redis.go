package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"physioflow/internal/consent/models"
)

const redisKeyPrefix = "consent:"

// RedisStore persists consent records in Redis, one JSON payload per client.
// The key layout matches the wire format in models.Record: the whole record
// lives under a single key, so replacement is atomic by construction.
type RedisStore struct {
	client redis.UniversalClient
	opts   options
}

// NewRedis constructs a Redis-backed consent store.
func NewRedis(client redis.UniversalClient, opts ...Option) *RedisStore {
	return &RedisStore{
		client: client,
		opts:   applyOptions(opts),
	}
}

func redisKey(clientID string) string {
	return redisKeyPrefix + clientID
}

func (s *RedisStore) Load(ctx context.Context, clientID string) (*models.Record, error) {
	raw, err := s.client.Get(ctx, redisKey(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load consent record: %w", err)
	}

	record, err := models.DecodeRecord(raw)
	if err != nil {
		// Best-effort removal; the record is reported absent either way.
		_ = s.client.Del(ctx, redisKey(clientID)).Err()
		s.opts.recovered(ctx, clientID, err)
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *RedisStore) Save(ctx context.Context, clientID string, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("consent record is required")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode consent record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(clientID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save consent record: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, clientID string) error {
	if err := s.client.Del(ctx, redisKey(clientID)).Err(); err != nil {
		return fmt.Errorf("clear consent record: %w", err)
	}
	return nil
}
