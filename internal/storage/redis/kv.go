package rediskv

import (
	"context"
	"errors"

	"github.com/goliatone/go-signdesk/pkg/interfaces/kv"
	"github.com/redis/go-redis/v9"
)

// Storage keeps partitions as plain redis strings so several processes can
// share one substrate.
type Storage struct {
	client redis.UniversalClient
}

var _ kv.Storage = (*Storage)(nil)

// New wraps an existing client.
func New(client redis.UniversalClient) (*Storage, error) {
	if client == nil {
		return nil, errors.New("redis: client is required")
	}
	return &Storage{client: client}, nil
}

// Dial builds a client for addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int) (*Storage, error) {
	if addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Storage{client: client}, nil
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *Storage) Close() error {
	return s.client.Close()
}
