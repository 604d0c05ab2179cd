package consts

// GrpcAccountInclude 用于 Yellowstone gRPC 区块订阅过滤器，
// 区块中只要有交易涉及其中任一账户即推送
var GrpcAccountInclude = []string{
	SystemProgramStr,
	TokenProgramStr,
	TokenProgram2022Str,
	AssociatedTokenProgramStr,
	TokenMetaProgramIdStr,
	ComputeBudgetProgramIdStr,

	WSOLMintStr,
	USDCMintStr,
	USDTMintStr,
}
