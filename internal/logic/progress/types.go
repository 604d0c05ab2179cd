package progress

// SlotStatus 表示 slot 的处理状态
type SlotStatus int

const (
	SlotUnknown   SlotStatus = 0 // Redis 不存在
	SlotProcessed SlotStatus = 1 // 已处理成功
	SlotInvalid   SlotStatus = 2 // 结构错误，已跳过
	SlotPending   SlotStatus = 3 // 处理中
	SlotEmpty     SlotStatus = 4 // 经 RPC 确认为空块（leader 未出块）
	SlotMissing   SlotStatus = 5 // RPC 存在该块但未收到，疑似漏扫
)

func (s SlotStatus) String() string {
	switch s {
	case SlotProcessed:
		return "processed"
	case SlotInvalid:
		return "invalid"
	case SlotPending:
		return "pending"
	case SlotEmpty:
		return "empty"
	case SlotMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Done 是否为终态（无需再次处理）
func (s SlotStatus) Done() bool {
	return s == SlotProcessed || s == SlotInvalid || s == SlotEmpty
}

// Source 表示 slot 来源模块
const (
	SourceUnknown int16 = 0
	SourceGrpc    int16 = 1
	SourceRpc     int16 = 2
)

func SourceName(src int16) string {
	switch src {
	case SourceGrpc:
		return "grpc"
	case SourceRpc:
		return "rpc"
	default:
		return "unknown"
	}
}
