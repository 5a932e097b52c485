package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// AvailabilityCache はイベントの残席数キャッシュを管理する
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetAvailableSeats はイベントの残席数をキャッシュから取得する
func (c *AvailabilityCache) GetAvailableSeats(ctx context.Context, eventID string) (int, error) {
	val, err := c.client.Get(ctx, c.key(eventID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetAvailableSeats はイベントの残席数をキャッシュに保存する
func (c *AvailabilityCache) SetAvailableSeats(ctx context.Context, eventID string, count int, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.key(eventID), count, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントのキャッシュを無効化する
// 座席が確保・返却されるたびに呼ばれる
func (c *AvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Del(ctx, c.key(eventID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) key(eventID string) string {
	return fmt.Sprintf("events:available:%s", eventID)
}
