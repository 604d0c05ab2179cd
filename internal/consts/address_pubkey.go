package consts

import (
	"sol-blockview/internal/types"
)

// 公钥形式的地址常量（types.Pubkey），用于链上比对
var (
	SystemProgram          types.Pubkey
	VoteProgram            types.Pubkey
	TokenProgram           types.Pubkey
	TokenProgram2022       types.Pubkey
	AssociatedTokenProgram types.Pubkey
	ComputeBudgetProgram   types.Pubkey
	MemoProgram            types.Pubkey
)

// programNames 已知程序 → 可读名称，用于日志与 inspect 输出
var programNames map[types.Pubkey]string

// init 自动将 base58 字符串地址转换为 types.Pubkey
func init() {
	SystemProgram = types.PubkeyFromBase58(SystemProgramStr)
	VoteProgram = types.PubkeyFromBase58(VoteProgramStr)
	TokenProgram = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022 = types.PubkeyFromBase58(TokenProgram2022Str)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)
	ComputeBudgetProgram = types.PubkeyFromBase58(ComputeBudgetProgramIdStr)
	MemoProgram = types.PubkeyFromBase58(MemoProgramStr)

	programNames = map[types.Pubkey]string{
		SystemProgram:          "system",
		VoteProgram:            "vote",
		TokenProgram:           "spl-token",
		TokenProgram2022:       "spl-token-2022",
		AssociatedTokenProgram: "associated-token",
		ComputeBudgetProgram:   "compute-budget",
		MemoProgram:            "memo",
	}
}

// ProgramName 返回已知程序的名称，未知程序返回空字符串
func ProgramName(program types.Pubkey) string {
	return programNames[program]
}
