package eventparser

import (
	"runtime/debug"

	"github.com/mr-tron/base58"

	"sol-blockview/internal/logic/core"
	"sol-blockview/internal/logic/eventparser/common"
	"sol-blockview/internal/logic/eventparser/computebudget"
	"sol-blockview/internal/logic/eventparser/spltoken"
	"sol-blockview/internal/types"
	"sol-blockview/pkg/logger"
)

// handlers 是 ProgramID → 事件解析 handler 的路由表
var handlers = map[types.Pubkey]common.InstructionHandler{}

func init() {
	spltoken.RegisterHandlers(handlers)
	computebudget.RegisterHandlers(handlers)
}

// ExtractEventsFromTx 依次将展平后的指令交给对应 handler，返回本交易的全部事件
func ExtractEventsFromTx(tx *core.FlattenedTx) (result []*core.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[eventparser::ExtractEventsFromTx] panic tx=%s: %+v\nstack: %s",
				base58.Encode(tx.Signature[:]), r, debug.Stack())
			result = nil
		}
	}()

	ctx := common.BuildParserContext(tx)
	instrs := tx.Instructions

	for i := 0; i < len(instrs); {
		ix := instrs[i]
		if handler, ok := handlers[ix.ProgramID]; ok {
			event, next := handler(ctx, instrs, i)
			if event != nil {
				result = append(result, event)
			}
			if next > i {
				i = next
				continue
			}
		}
		i++
	}
	return result
}
