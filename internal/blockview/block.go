package blockview

import (
	"iter"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// Block 是单个区块的只读视图，交易按区块内原始顺序保存。
// 区块之间不共享任何状态，不同区块可在不同 goroutine 中并行处理。
type Block struct {
	Slot            uint64
	ParentSlot      uint64
	Blockhash       string
	ParentBlockhash string
	BlockTime       int64 // unix 秒，数据缺失时为 0
	BlockHeight     uint64

	txs []*Transaction
}

// FromConfirmedBlock 包装 RPC / 存储中的 ConfirmedBlock；ConfirmedBlock 不携带 slot，由调用方传入
func FromConfirmedBlock(slot uint64, b *pb.ConfirmedBlock) *Block {
	txs := make([]*Transaction, 0, len(b.GetTransactions()))
	for i, ct := range b.GetTransactions() {
		txs = append(txs, FromConfirmed(ct, uint64(i)))
	}
	return &Block{
		Slot:            slot,
		ParentSlot:      b.GetParentSlot(),
		Blockhash:       b.GetBlockhash(),
		ParentBlockhash: b.GetPreviousBlockhash(),
		BlockTime:       b.GetBlockTime().GetTimestamp(),
		BlockHeight:     b.GetBlockHeight().GetBlockHeight(),
		txs:             txs,
	}
}

// FromGeyserBlock 包装 Yellowstone gRPC 推送的区块
func FromGeyserBlock(b *pb.SubscribeUpdateBlock) *Block {
	txs := make([]*Transaction, 0, len(b.GetTransactions()))
	for _, info := range b.GetTransactions() {
		if info == nil {
			continue
		}
		txs = append(txs, FromGeyser(info))
	}
	return &Block{
		Slot:            b.GetSlot(),
		ParentSlot:      b.GetParentSlot(),
		Blockhash:       b.GetBlockhash(),
		ParentBlockhash: b.GetParentBlockhash(),
		BlockTime:       b.GetBlockTime().GetTimestamp(),
		BlockHeight:     b.GetBlockHeight().GetBlockHeight(),
		txs:             txs,
	}
}

// NewBlock 由已包装的交易构造区块，主要用于测试与回放
func NewBlock(slot uint64, txs []*Transaction) *Block {
	return &Block{Slot: slot, txs: txs}
}

// Len 返回区块当前持有的交易数
func (b *Block) Len() int {
	return len(b.txs)
}

// Transactions 按原始顺序遍历全部交易（含失败交易）
func (b *Block) Transactions() iter.Seq[*Transaction] {
	return func(yield func(*Transaction) bool) {
		for _, tx := range b.txs {
			if !yield(tx) {
				return
			}
		}
	}
}

// SuccessfulTransactions 按原始顺序遍历成功交易，不改变区块
func (b *Block) SuccessfulTransactions() iter.Seq[*Transaction] {
	return FilterSuccessful(b.Transactions())
}

// TakeSuccessfulTransactions 取走区块的交易列表并返回其中的成功交易；
// 调用后区块不再持有任何交易，再次调用返回空切片。
func (b *Block) TakeSuccessfulTransactions() []*Transaction {
	txs := b.txs
	b.txs = nil

	out := make([]*Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx != nil && tx.IsSuccessful() {
			out = append(out, tx)
		}
	}
	return out
}

// CompiledInstructions 依次遍历所有成功交易的主指令。
// 缺少 Transaction / Message 的交易产出一次 (nil, err)，随后继续下一笔交易。
func (b *Block) CompiledInstructions() iter.Seq2[*InstructionView, error] {
	return b.walk(true)
}

// WalkInstructions 依次对所有成功交易做深度优先遍历（主指令 + inner 指令）。
// 错误处理与 CompiledInstructions 一致。
func (b *Block) WalkInstructions() iter.Seq2[*InstructionView, error] {
	return b.walk(false)
}

func (b *Block) walk(compiledOnly bool) iter.Seq2[*InstructionView, error] {
	return func(yield func(*InstructionView, error) bool) {
		for tx := range b.SuccessfulTransactions() {
			w, err := newWalker(tx, compiledOnly)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			for v, ok := w.Next(); ok; v, ok = w.Next() {
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}
