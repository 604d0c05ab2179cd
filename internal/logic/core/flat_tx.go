package core

import (
	"sol-blockview/internal/types"
)

// TxContext 表示交易所属区块的上下文信息
type TxContext struct {
	BlockTime   int64      // 区块时间戳（Unix 秒）
	Slot        uint64     // 当前 Slot
	ParentSlot  uint64     // 父 Slot（用于分叉检测和回滚）
	BlockHeight uint64     // 区块高度
	BlockHash   types.Hash // 区块哈希
}

// FlatInstruction 表示展平后的一条主指令或 inner 指令，账户已解析为 Pubkey。
// 顺序与 blockview 深度优先遍历一致：每条主指令后紧跟其全部 inner 指令。
type FlatInstruction struct {
	IxIndex     uint16         // 主指令索引（从 0 开始）
	InnerIndex  int16          // inner 指令在主指令中的序号，主指令本身为 -1
	StackHeight uint32         // 调用栈深度，主指令或数据缺失时为 0
	ProgramID   types.Pubkey   // 指令对应的程序 ID
	Accounts    []types.Pubkey // 指令涉及的账户列表，保持原始顺序
	Data        []byte         // 指令原始数据
}

func (ix *FlatInstruction) IsRoot() bool {
	return ix.InnerIndex < 0
}

// FlattenedTx 是事件解析流程的输入
type FlattenedTx struct {
	TxCtx     *TxContext
	TxIndex   uint32          // 当前交易在区块中的序号
	Signature types.Signature // 交易签名
	Signers   []types.Pubkey  // 前 NumRequiredSignatures 个账户

	// Instructions 包含主指令和 inner 指令，已按执行顺序展平
	Instructions []*FlatInstruction

	LogMessages          []string
	ComputeUnitsConsumed uint64
}

// FeePayer 首个 signer 即手续费支付者
func (tx *FlattenedTx) FeePayer() types.Pubkey {
	if len(tx.Signers) == 0 {
		return types.Pubkey{}
	}
	return tx.Signers[0]
}
