package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores one string key per session: session:{id}:token, expiring with the session.
type RedisBackend struct {
	client *redis.Client
}

func NewRedisClient(address, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       0,
		Protocol: 2,
	})
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Ping verifies the connection at startup.
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func tokenKey(sessionID string) string {
	return fmt.Sprintf("session:%s:token", sessionID)
}

func (r *RedisBackend) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := r.client.Get(ctx, tokenKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session token: %w", err)
	}
	return token, nil
}

func (r *RedisBackend) Set(ctx context.Context, sessionID, token string, ttl time.Duration) error {
	if err := r.client.Set(ctx, tokenKey(sessionID), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, tokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session token: %w", err)
	}
	return nil
}

func (r *RedisBackend) Close(context.Context) error {
	return r.client.Close()
}
