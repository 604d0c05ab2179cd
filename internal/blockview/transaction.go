package blockview

import (
	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// Transaction 是区块中一笔交易（transaction + meta）的只读包装。
// 不拷贝、不修改底层 protobuf 记录，生命周期受所属区块约束。
type Transaction struct {
	tx     *pb.Transaction
	meta   *pb.TransactionStatusMeta
	index  uint64 // 在区块中的序号
	isVote bool
}

// NewTransaction 由原始 transaction 与 meta 构造，meta 允许为 nil（视为失败交易）
func NewTransaction(tx *pb.Transaction, meta *pb.TransactionStatusMeta, index uint64) *Transaction {
	return &Transaction{tx: tx, meta: meta, index: index}
}

// FromConfirmed 包装 ConfirmedBlock 中的交易，index 为其在区块中的位置
func FromConfirmed(ct *pb.ConfirmedTransaction, index uint64) *Transaction {
	return &Transaction{
		tx:    ct.GetTransaction(),
		meta:  ct.GetMeta(),
		index: index,
	}
}

// FromGeyser 包装 Yellowstone gRPC 推送的交易
func FromGeyser(info *pb.SubscribeUpdateTransactionInfo) *Transaction {
	return &Transaction{
		tx:     info.GetTransaction(),
		meta:   info.GetMeta(),
		index:  info.GetIndex(),
		isVote: info.GetIsVote(),
	}
}

func (t *Transaction) Index() uint64 {
	return t.index
}

// IsVote 仅 geyser 来源的交易携带该标记
func (t *Transaction) IsVote() bool {
	return t.isVote
}

// Raw 返回底层 pb.Transaction，可能为 nil
func (t *Transaction) Raw() *pb.Transaction {
	return t.tx
}

// Meta 返回执行结果元数据，可能为 nil
func (t *Transaction) Meta() *pb.TransactionStatusMeta {
	return t.meta
}

// Message 返回交易消息体；Transaction 或 Message 缺失时返回 *MissingStructureError
func (t *Transaction) Message() (*pb.Message, error) {
	if t.tx == nil {
		return nil, missing("transaction")
	}
	if t.tx.Message == nil {
		return nil, missing("message")
	}
	return t.tx.Message, nil
}

// Hash 返回交易哈希（首个签名的原始字节）
func (t *Transaction) Hash() ([]byte, error) {
	if t.tx == nil {
		return nil, missing("transaction")
	}
	if len(t.tx.Signatures) == 0 {
		return nil, missing("signature")
	}
	return t.tx.Signatures[0], nil
}

// ID 返回交易 ID（首个签名的 base58 编码）
func (t *Transaction) ID() (string, error) {
	hash, err := t.Hash()
	if err != nil {
		return "", err
	}
	return base58.Encode(hash), nil
}

// AddressSpace 构造本交易的统一地址空间
func (t *Transaction) AddressSpace() (AddressSpace, error) {
	msg, err := t.Message()
	if err != nil {
		return AddressSpace{}, err
	}
	return NewAddressSpace(msg, t.meta), nil
}

// ResolveAddress 将统一地址空间中的索引解析为地址
func (t *Transaction) ResolveAddress(index uint32) (Address, error) {
	space, err := t.AddressSpace()
	if err != nil {
		return nil, err
	}
	return space.Resolve(index)
}

// ResolvedAccounts 返回 accountKeys ++ loadedWritable ++ loadedReadonly
func (t *Transaction) ResolvedAccounts() ([]Address, error) {
	space, err := t.AddressSpace()
	if err != nil {
		return nil, err
	}
	return space.All(), nil
}

// ResolvedAccountsAsStrings 返回完整账户列表的 base58 形式
func (t *Transaction) ResolvedAccountsAsStrings() ([]string, error) {
	space, err := t.AddressSpace()
	if err != nil {
		return nil, err
	}
	return space.Strings(), nil
}

// TopLevelInstructions 仅遍历主指令，每条主指令对应一个 view，
// 需要 inner 指令时通过 view.InnerInstructions() 按需展开。
func (t *Transaction) TopLevelInstructions() (*Walker, error) {
	return newWalker(t, true)
}

// AllInstructionsDepthFirst 按两层深度优先顺序遍历：
// 每条主指令之后紧跟它的全部 inner 指令（原始顺序），再进入下一条主指令。
func (t *Transaction) AllInstructionsDepthFirst() (*Walker, error) {
	return newWalker(t, false)
}

// InstructionAt 返回下标为 topIndex 的主指令 view
func (t *Transaction) InstructionAt(topIndex int) (*InstructionView, error) {
	msg, err := t.Message()
	if err != nil {
		return nil, err
	}
	if topIndex < 0 || topIndex >= len(msg.Instructions) {
		return nil, instructionNotFound(topIndex, len(msg.Instructions))
	}
	space := NewAddressSpace(msg, t.meta)
	return newRootView(t, space, msg.Instructions[topIndex], topIndex, findInnerGroup(t.meta, topIndex)), nil
}

// ChildrenOf 返回主指令 topIndex 的 inner 指令 view（原始顺序），没有 inner 指令时返回空切片
func (t *Transaction) ChildrenOf(topIndex int) ([]*InstructionView, error) {
	root, err := t.InstructionAt(topIndex)
	if err != nil {
		return nil, err
	}
	return root.InnerInstructions(), nil
}

// VerifyAccountIndices 解析本交易所有指令引用的 programId 与账户索引，
// 返回遇到的第一个越界错误。格式正确的交易恒返回 nil。
func (t *Transaction) VerifyAccountIndices() error {
	w, err := t.AllInstructionsDepthFirst()
	if err != nil {
		return err
	}
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		if _, err := v.ProgramID(); err != nil {
			return err
		}
		if _, err := v.Accounts(); err != nil {
			return err
		}
	}
	return nil
}

// innerGroups 按父主指令下标索引 inner 指令组。同一下标出现多组时保留第一组。
func innerGroups(meta *pb.TransactionStatusMeta) map[uint32][]*pb.InnerInstruction {
	list := meta.GetInnerInstructions()
	groups := make(map[uint32][]*pb.InnerInstruction, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		if _, exists := groups[g.Index]; !exists {
			groups[g.Index] = g.Instructions
		}
	}
	return groups
}

// findInnerGroup 线性查找单个主指令的 inner 指令组，语义与 innerGroups 一致（首个匹配）
func findInnerGroup(meta *pb.TransactionStatusMeta, topIndex int) []*pb.InnerInstruction {
	for _, g := range meta.GetInnerInstructions() {
		if g != nil && int(g.Index) == topIndex {
			return g.Instructions
		}
	}
	return nil
}
