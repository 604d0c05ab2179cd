package spltoken

import (
	sdktoken "github.com/blocto/solana-go-sdk/program/token"

	"sol-blockview/internal/consts"
	"sol-blockview/internal/logic/core"
	"sol-blockview/internal/logic/eventparser/common"
	"sol-blockview/internal/types"
)

// 合约源代码:
// SplToken: https://github.com/solana-program/token/blob/main/program/src/instruction.rs
// Token2022: https://github.com/solana-program/token-2022

// RegisterHandlers 注册 token 的所有指令处理逻辑
func RegisterHandlers(m map[types.Pubkey]common.InstructionHandler) {
	m[consts.TokenProgram] = handleTokenInstruction
	m[consts.TokenProgram2022] = handleTokenInstruction
}

// handleTokenInstruction 按首字节分发 Token 指令
func handleTokenInstruction(
	ctx *common.ParserContext,
	instrs []*core.FlatInstruction,
	current int,
) (*core.Event, int) {
	ix := instrs[current]
	if len(ix.Data) == 0 {
		return nil, current + 1
	}

	switch ix.Data[0] {
	case byte(sdktoken.InstructionTransfer), byte(sdktoken.InstructionTransferChecked):
		return extractTransferEvent(ctx, ix), current + 1

	case byte(sdktoken.InstructionMintTo), byte(sdktoken.InstructionMintToChecked):
		return extractMintToEvent(ctx, ix), current + 1

	case byte(sdktoken.InstructionBurn), byte(sdktoken.InstructionBurnChecked):
		return extractBurnEvent(ctx, ix), current + 1

	default:
		// 非关心的 TokenProgram 指令，忽略
		return nil, current + 1
	}
}
