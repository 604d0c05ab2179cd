package computebudget

import (
	"fmt"

	"github.com/near/borsh-go"

	"sol-blockview/internal/consts"
	"sol-blockview/internal/logic/core"
	"sol-blockview/internal/logic/eventparser/common"
	"sol-blockview/internal/types"
	"sol-blockview/pkg/logger"
)

// https://github.com/anza-xyz/agave/blob/master/sdk/compute-budget-interface/src/lib.rs
const (
	ixRequestUnitsDeprecated         byte = 0
	ixRequestHeapFrame               byte = 1
	ixSetComputeUnitLimit            byte = 2
	ixSetComputeUnitPrice            byte = 3
	ixSetLoadedAccountsDataSizeLimit byte = 4
)

type u32Arg struct {
	Value uint32
}

type u64Arg struct {
	Value uint64
}

// RegisterHandlers 注册 ComputeBudget 指令处理逻辑
func RegisterHandlers(m map[types.Pubkey]common.InstructionHandler) {
	m[consts.ComputeBudgetProgram] = handleComputeBudget
}

// handleComputeBudget 将连续的 ComputeBudget 主指令合并为一个事件，返回第一条非 ComputeBudget 指令的位置
func handleComputeBudget(
	ctx *common.ParserContext,
	instrs []*core.FlatInstruction,
	current int,
) (*core.Event, int) {
	first := instrs[current]
	event := &core.ComputeBudgetEvent{Base: ctx.NewBase(first)}

	next := current
	matched := 0
	for ; next < len(instrs); next++ {
		ix := instrs[next]
		if ix.ProgramID != consts.ComputeBudgetProgram {
			break
		}
		if err := applyInstruction(event, ix.Data); err != nil {
			logger.Warnf("[ComputeBudget] tx=%s ix=%d: %v", ctx.TxHashString(), ix.IxIndex, err)
			continue
		}
		matched++
	}

	if matched == 0 {
		return nil, next
	}
	return &core.Event{
		ID:        ctx.EventID(first),
		EventType: core.EventTypeComputeBudget,
		Key:       ctx.Tx.Signature[:],
		Payload:   event,
	}, next
}

func applyInstruction(event *core.ComputeBudgetEvent, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty instruction data")
	}
	switch data[0] {
	case ixRequestHeapFrame:
		var arg u32Arg
		if err := borsh.Deserialize(&arg, data[1:]); err != nil {
			return fmt.Errorf("RequestHeapFrame: %w", err)
		}
		event.HeapFrameBytes = arg.Value

	case ixSetComputeUnitLimit:
		var arg u32Arg
		if err := borsh.Deserialize(&arg, data[1:]); err != nil {
			return fmt.Errorf("SetComputeUnitLimit: %w", err)
		}
		event.UnitLimit = arg.Value

	case ixSetComputeUnitPrice:
		var arg u64Arg
		if err := borsh.Deserialize(&arg, data[1:]); err != nil {
			return fmt.Errorf("SetComputeUnitPrice: %w", err)
		}
		event.UnitPriceMicroLam = arg.Value

	case ixRequestUnitsDeprecated, ixSetLoadedAccountsDataSizeLimit:
		// 不关心的设置
	default:
		return fmt.Errorf("unknown instruction %d", data[0])
	}
	return nil
}
