package dispatcher

import (
	"fmt"

	"github.com/near/borsh-go"

	"sol-blockview/internal/consts"
	"sol-blockview/internal/logic/core"
	"sol-blockview/internal/mq"
	"sol-blockview/internal/utils"
)

const batchVersion = 1

// JobStats 本 slot 事件分发统计
type JobStats struct {
	Total  int
	ByType map[uint32]int
}

// BuildEventKafkaJobs 按事件 Key 将事件分到各分区，每个分区构造一个 KafkaJob（EventBatch）。
// 事件编码失败时整个 slot 返回错误，避免只发送部分事件。
func BuildEventKafkaJobs(
	txCtx *core.TxContext,
	topic string,
	partitions int,
	events []*core.Event,
) ([]*mq.KafkaJob, JobStats, error) {
	stats := JobStats{ByType: make(map[uint32]int)}
	if len(events) == 0 {
		return nil, stats, nil
	}
	if partitions <= 0 {
		partitions = 1
	}

	buckets := make([][][]byte, partitions)
	capacity := utils.CalcCapPerPartition(len(events), partitions, 10)
	for i := range buckets {
		buckets[i] = make([][]byte, 0, capacity)
	}

	for _, evt := range events {
		data, err := utils.EncodeEvent(evt.EventType, evt.Payload)
		if err != nil {
			return nil, stats, fmt.Errorf("event %d: %w", evt.ID, err)
		}
		pid := utils.PartitionHashBytes(evt.Key, uint32(partitions))
		buckets[pid] = append(buckets[pid], data)
		stats.Total++
		stats.ByType[evt.EventType]++
	}

	jobs := make([]*mq.KafkaJob, 0, partitions)
	for pid, list := range buckets {
		if len(list) == 0 {
			continue
		}
		value, err := borsh.Serialize(core.EventBatch{
			Version:   batchVersion,
			ChainID:   consts.ChainIDSolana,
			Slot:      txCtx.Slot,
			BlockTime: txCtx.BlockTime,
			BlockHash: txCtx.BlockHash,
			Events:    list,
		})
		if err != nil {
			return nil, stats, fmt.Errorf("serialize batch: %w", err)
		}
		jobs = append(jobs, &mq.KafkaJob{
			Topic:     topic,
			Partition: int32(pid),
			Value:     value,
		})
	}
	return jobs, stats, nil
}
