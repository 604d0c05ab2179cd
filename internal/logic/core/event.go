package core

import (
	"sol-blockview/internal/types"
)

// 事件类型，编码时写入消息前 4 字节
const (
	EventTypeUnknown uint32 = iota
	EventTypeTransfer
	EventTypeMintTo
	EventTypeBurn
	EventTypeComputeBudget
)

var eventTypeNames = []string{"unknown", "transfer", "mint_to", "burn", "compute_budget"}

func EventTypeName(t uint32) string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return eventTypeNames[0]
}

// Event 是解析得到的单个事件
type Event struct {
	ID        uint32      // slot 内唯一事件 ID（txIndex、ixIndex、innerIndex 组合）
	EventType uint32      // 事件类别
	Key       []byte      // Kafka 分区 key，通常为交易签名或 mint
	Payload   interface{} // borsh 可序列化的事件结构体
}

// BaseEvent 所有事件共有的字段
type BaseEvent struct {
	Slot        uint64
	BlockTime   int64
	TxHash      types.Signature
	FeePayer    types.Pubkey
	IxIndex     uint16
	InnerIndex  int16
	StackHeight uint32
}

// TransferEvent SPL Token Transfer / TransferChecked
type TransferEvent struct {
	Base        BaseEvent
	Program     types.Pubkey
	Source      types.Pubkey
	Destination types.Pubkey
	Authority   types.Pubkey
	Mint        types.Pubkey // Transfer 指令不携带 mint，为零值
	Amount      uint64
	Decimals    uint8 // TransferChecked 才有
	Checked     bool
}

// MintToEvent SPL Token MintTo / MintToChecked
type MintToEvent struct {
	Base        BaseEvent
	Program     types.Pubkey
	Mint        types.Pubkey
	Destination types.Pubkey
	Authority   types.Pubkey
	Amount      uint64
	Decimals    uint8
	Checked     bool
}

// BurnEvent SPL Token Burn / BurnChecked
type BurnEvent struct {
	Base      BaseEvent
	Program   types.Pubkey
	Account   types.Pubkey
	Mint      types.Pubkey
	Authority types.Pubkey
	Amount    uint64
	Decimals  uint8
	Checked   bool
}

// ComputeBudgetEvent 汇总一笔交易的 ComputeBudget 设置
type ComputeBudgetEvent struct {
	Base              BaseEvent
	UnitLimit         uint32
	UnitPriceMicroLam uint64
	HeapFrameBytes    uint32
}

// BuildEventID 构造事件唯一标识 ID（uint32），由 txIndex、ixIndex、innerIndex 组合而成：
//   - txIndex    (16 bits): 当前交易在区块中的序号，范围 0 ~ 65535
//   - ixIndex    (8 bits) : 当前交易中的主指令序号，范围 0 ~ 255
//   - innerIndex (8 bits) : inner 指令的序号，主指令时为 -1，编码时加 1 变为 0
//
// 编码结构：
//
//	[ 16 bits txIndex ] [ 8 bits ixIndex ] [ 8 bits (innerIndex + 1) ]
func BuildEventID(txIndex uint32, ixIndex uint16, innerIndex int16) uint32 {
	return (txIndex << 16) | (uint32(ixIndex&0xff) << 8) | uint32(uint8(innerIndex+1))
}
