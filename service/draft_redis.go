package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hUstbit37/ipms-search-sub001/config"
)

// RedisDraftStore shares drafts between service replicas.
type RedisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDraftStore(ctx context.Context, cfg *config.RedisConfig) (*RedisDraftStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisDraftStore{rdb: rdb, ttl: cfg.TTL()}, nil
}

func (s *RedisDraftStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		observeDraftOp("redis", "get", nil)
		return "", false, nil
	}
	observeDraftOp("redis", "get", err)
	if err != nil {
		return "", false, fmt.Errorf("failed to read draft %s: %w", key, err)
	}
	return value, true, nil
}

// Set overwrites the draft. A zero TTL keeps it until deleted.
func (s *RedisDraftStore) Set(ctx context.Context, key, value string) error {
	err := s.rdb.Set(ctx, key, value, s.ttl).Err()
	observeDraftOp("redis", "set", err)
	if err != nil {
		return fmt.Errorf("failed to write draft %s: %w", key, err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, key string) error {
	err := s.rdb.Del(ctx, key).Err()
	observeDraftOp("redis", "delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", key, err)
	}
	return nil
}

func (s *RedisDraftStore) Close() error {
	return s.rdb.Close()
}
