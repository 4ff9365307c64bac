package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// UserChannel is the pub/sub channel carrying one participant's events.
func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s:events", userID)
}

// PublishUserEvent publishes an encoded event to the participant's channel.
// It returns the number of subscribers that received it.
func (r *RedisClient) PublishUserEvent(ctx context.Context, userID string, payload []byte) (int64, error) {
	return r.client.Publish(ctx, UserChannel(userID), payload).Result()
}

// BroadcastChannel carries events addressed to every participant.
const BroadcastChannel = "broadcast:events"

func (r *RedisClient) PublishBroadcast(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, BroadcastChannel, payload).Err()
}
