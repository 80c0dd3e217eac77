package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/config"
)

// kv is the subset of redis.Cmdable used by RedisStore.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore shares the rule document between the API server and pollers.
// When Redis is unreachable it serves the last document it saw.
type RedisStore struct {
	client kv
	key    string
	local  *MemoryStore
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.RulesConfig) (*RedisStore, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStore(client, cfg.RedisKey, cfg.Default), client, nil
}

func newRedisStore(client kv, key, initial string) *RedisStore {
	return &RedisStore{client: client, key: key, local: NewMemoryStore(initial)}
}

func (s *RedisStore) Rules(ctx context.Context) string {
	text, err := s.client.Get(ctx, s.key).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return s.local.Rules(ctx)
	case err != nil:
		logrus.Warnf("Failed to read rules from Redis, using cached copy: %v", err)
		return s.local.Rules(ctx)
	}
	s.local.SetRules(ctx, text)
	return text
}

func (s *RedisStore) SetRules(ctx context.Context, text string) error {
	if err := s.client.Set(ctx, s.key, text, 0).Err(); err != nil {
		return fmt.Errorf("failed to store rules: %w", err)
	}
	return s.local.SetRules(ctx, text)
}
