package progress

import (
	"context"
	"time"
)

// ProgressManager 封装 slot 判重与状态写入
type ProgressManager struct {
	store           *RedisProgressStore
	recentThreshold time.Duration // 近期 block 的判断阈值
}

func NewProgressManager(store *RedisProgressStore, recentThresholdSec int) *ProgressManager {
	if recentThresholdSec <= 0 {
		recentThresholdSec = 60
	}
	return &ProgressManager{
		store:           store,
		recentThreshold: time.Duration(recentThresholdSec) * time.Second,
	}
}

// ShouldProcessSlot 判断是否需要处理该 slot：
//   - 近期 block 直接处理（实时推送不会重复）
//   - 旧 block（如重连后的回放）查询 Redis，已是终态则跳过
func (pm *ProgressManager) ShouldProcessSlot(ctx context.Context, slot uint64, blockTime int64) (bool, error) {
	if time.Since(time.Unix(blockTime, 0)) <= pm.recentThreshold {
		return true, nil
	}
	status, err := pm.store.GetSlotStatus(ctx, slot)
	if err != nil {
		return false, err
	}
	return !status.Done(), nil
}

// MarkSlotStatus 写入处理结果，已处理的 slot 同时推进 latest slot
func (pm *ProgressManager) MarkSlotStatus(ctx context.Context, slot uint64, status SlotStatus) error {
	if status == SlotUnknown {
		return nil
	}
	if err := pm.store.MarkSlotStatus(ctx, slot, status); err != nil {
		return err
	}
	if status == SlotProcessed {
		return pm.store.UpdateLatestSlot(ctx, slot)
	}
	return nil
}

func (pm *ProgressManager) Store() *RedisProgressStore {
	return pm.store
}
