package blockview

import (
	"iter"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// IsSuccessful 交易成功当且仅当 meta 存在且 meta.err 为空；缺少 meta 的交易视为失败。
func IsSuccessful(meta *pb.TransactionStatusMeta) bool {
	return meta != nil && meta.Err == nil
}

func (t *Transaction) IsSuccessful() bool {
	return IsSuccessful(t.meta)
}

// FilterSuccessful 惰性过滤，仅产出成功交易，保持原始顺序
func FilterSuccessful(txs iter.Seq[*Transaction]) iter.Seq[*Transaction] {
	return func(yield func(*Transaction) bool) {
		for tx := range txs {
			if tx == nil || !tx.IsSuccessful() {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}
