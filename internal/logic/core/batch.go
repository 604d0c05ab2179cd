package core

import (
	"sol-blockview/internal/types"
)

// EventBatch 是写入 Kafka 的单条消息体，包含同一 slot、同一分区的若干事件
type EventBatch struct {
	Version   uint8
	ChainID   uint32
	Slot      uint64
	BlockTime int64
	BlockHash types.Hash
	Events    [][]byte // 每个元素为 utils.EncodeEvent 的输出
}
