package common

import (
	"github.com/mr-tron/base58"

	"sol-blockview/internal/logic/core"
)

// ParserContext 是传入每个事件 handler 的解析上下文
type ParserContext struct {
	Tx      *core.FlattenedTx
	TxIndex uint32

	base   core.BaseEvent // 公共字段模板，handler 通过 NewBase 复制后补充指令位置
	txHash string         // 惰性生成，仅用于日志
}

// InstructionHandler 定义了统一的指令解析函数签名。
//
// 参数：
//   - ctx:     当前解析上下文
//   - instrs:  当前交易中已展平的指令列表（含主指令与对应 inner 指令）
//   - current: 当前正在处理的指令索引（instrs[current]）
//
// 返回值：
//   - event: 若成功解析出事件，返回对应 *core.Event；否则为 nil
//   - next:  下一条待处理的指令索引（通常为 current+1，可跳过多条）
type InstructionHandler func(ctx *ParserContext, instrs []*core.FlatInstruction, current int) (event *core.Event, next int)

// BuildParserContext 构造解析上下文，提前填好 BaseEvent 模板
func BuildParserContext(tx *core.FlattenedTx) *ParserContext {
	base := core.BaseEvent{
		TxHash:   tx.Signature,
		FeePayer: tx.FeePayer(),
	}
	if tx.TxCtx != nil {
		base.Slot = tx.TxCtx.Slot
		base.BlockTime = tx.TxCtx.BlockTime
	}
	return &ParserContext{
		Tx:      tx,
		TxIndex: tx.TxIndex,
		base:    base,
	}
}

// NewBase 返回带指令位置的事件公共字段
func (ctx *ParserContext) NewBase(ix *core.FlatInstruction) core.BaseEvent {
	b := ctx.base
	b.IxIndex = ix.IxIndex
	b.InnerIndex = ix.InnerIndex
	b.StackHeight = ix.StackHeight
	return b
}

// EventID 返回指令对应的事件 ID
func (ctx *ParserContext) EventID(ix *core.FlatInstruction) uint32 {
	return core.BuildEventID(ctx.TxIndex, ix.IxIndex, ix.InnerIndex)
}

func (ctx *ParserContext) TxHashString() string {
	if ctx.txHash == "" {
		ctx.txHash = base58.Encode(ctx.Tx.Signature[:])
	}
	return ctx.txHash
}
