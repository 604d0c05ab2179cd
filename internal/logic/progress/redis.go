package progress

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const (
	slotPrefix    = "progress:slot"
	latestSlotKey = "progress:latest_slot"
)

// 不同状态的 TTL
const (
	processedTTL = 3 * 24 * time.Hour
	pendingTTL   = 5 * time.Minute
	defaultTTL   = 24 * time.Hour
)

// RedisProgressStore 管理 Redis 中的 slot 状态记录（幂等控制）
type RedisProgressStore struct {
	rdb redis.UniversalClient
}

func NewRedisProgressStore(rdb redis.UniversalClient) *RedisProgressStore {
	return &RedisProgressStore{rdb: rdb}
}

func slotKey(slot uint64) string {
	return fmt.Sprintf("%s:%d", slotPrefix, slot)
}

func ttlOf(status SlotStatus) time.Duration {
	switch status {
	case SlotProcessed, SlotEmpty:
		return processedTTL
	case SlotPending:
		return pendingTTL
	default:
		return defaultTTL
	}
}

// GetSlotStatus 获取 slot 的状态，key 不存在时返回 SlotUnknown
func (r *RedisProgressStore) GetSlotStatus(ctx context.Context, slot uint64) (SlotStatus, error) {
	val, err := r.rdb.Get(ctx, slotKey(slot)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return SlotUnknown, nil
	case err != nil:
		return SlotUnknown, fmt.Errorf("redis get error: %w", err)
	}
	status := SlotStatus(val)
	if status < SlotUnknown || status > SlotMissing {
		return SlotUnknown, nil
	}
	return status, nil
}

// MarkSlotStatus 设置 slot 的状态
func (r *RedisProgressStore) MarkSlotStatus(ctx context.Context, slot uint64, status SlotStatus) error {
	return r.rdb.Set(ctx, slotKey(slot), int(status), ttlOf(status)).Err()
}

// TryMarkPending 仅当 slot 尚无记录时标记为处理中，返回是否抢占成功
func (r *RedisProgressStore) TryMarkPending(ctx context.Context, slot uint64) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, slotKey(slot), int(SlotPending), pendingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx error: %w", err)
	}
	return ok, nil
}

// UpdateLatestSlot 记录已处理的最大 slot（只增不减）
func (r *RedisProgressStore) UpdateLatestSlot(ctx context.Context, slot uint64) error {
	const script = `
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if tonumber(ARGV[1]) > cur then
  redis.call('SET', KEYS[1], ARGV[1])
  return 1
end
return 0`
	return r.rdb.Eval(ctx, script, []string{latestSlotKey}, strconv.FormatUint(slot, 10)).Err()
}

// LatestSlot 返回已处理的最大 slot，不存在时返回 0
func (r *RedisProgressStore) LatestSlot(ctx context.Context) (uint64, error) {
	v, err := r.rdb.Get(ctx, latestSlotKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
