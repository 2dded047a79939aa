package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisImportLock serializes importLines per upload with a SET NX key. The
// TTL bounds how long a crashed import can block a retry.
type RedisImportLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisImportLock(client *redis.Client, ttl time.Duration) *RedisImportLock {
	return &RedisImportLock{client: client, ttl: ttl}
}

func importLockKey(uploadID int) string {
	return fmt.Sprintf("statement:import:lock:%d", uploadID)
}

func (l *RedisImportLock) Acquire(ctx context.Context, uploadID int) (bool, error) {
	return l.client.SetNX(ctx, importLockKey(uploadID), time.Now().Unix(), l.ttl).Result()
}

func (l *RedisImportLock) Release(ctx context.Context, uploadID int) error {
	return l.client.Del(ctx, importLockKey(uploadID)).Err()
}
