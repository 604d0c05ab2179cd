package blockview

import (
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// Position 描述指令在交易指令树中的位置
type Position struct {
	TopIndex   int // 所属主指令下标（从 0 开始）
	InnerIndex int // 在 inner 组中的下标，主指令为 -1
}

func (p Position) IsRoot() bool {
	return p.InnerIndex < 0
}

// InstructionView 是遍历时交给调用方的单条指令视图，组合了地址空间、指令形态与树位置。
// 地址在每次调用时按需解析，view 本身不缓存解析结果，构造后不可变，可并发读取。
type InstructionView struct {
	tx    *Transaction
	space AddressSpace
	shape Instruction
	pos   Position

	// root 为所属主指令（主指令 view 时即自身）
	root *pb.CompiledInstruction
	// group 为 root 的 inner 指令组：主指令 view 的子节点，或 inner view 的兄弟节点
	group []*pb.InnerInstruction
}

func newRootView(tx *Transaction, space AddressSpace, ix *pb.CompiledInstruction, topIndex int, group []*pb.InnerInstruction) *InstructionView {
	return &InstructionView{
		tx:    tx,
		space: space,
		shape: CompiledShape(ix),
		pos:   Position{TopIndex: topIndex, InnerIndex: -1},
		root:  ix,
		group: group,
	}
}

func newInnerView(tx *Transaction, space AddressSpace, root *pb.CompiledInstruction, topIndex int, group []*pb.InnerInstruction, innerIndex int) *InstructionView {
	return &InstructionView{
		tx:    tx,
		space: space,
		shape: InnerShape(group[innerIndex]),
		pos:   Position{TopIndex: topIndex, InnerIndex: innerIndex},
		root:  root,
		group: group,
	}
}

// ProgramID 返回解析后的程序地址
func (v *InstructionView) ProgramID() (Address, error) {
	return v.space.Resolve(v.shape.ProgramIDIndex())
}

// Accounts 返回解析后的账户列表，保持指令中的原始顺序
func (v *InstructionView) Accounts() ([]Address, error) {
	return v.space.ResolveAll(v.shape.AccountIndices())
}

func (v *InstructionView) Data() []byte {
	return v.shape.Data()
}

// StackHeight 返回调用栈深度；主指令以及未记录该字段的 inner 指令均为 0。
// 需要区分"未记录"与"记录为 0"时使用 MaybeStackHeight。
func (v *InstructionView) StackHeight() uint32 {
	h, _ := v.shape.StackHeight()
	return h
}

// MaybeStackHeight 返回原始的可选栈深度，ok=false 表示数据中没有该字段
func (v *InstructionView) MaybeStackHeight() (height uint32, ok bool) {
	return v.shape.StackHeight()
}

// IsRoot 主指令返回 true，inner 指令返回 false
func (v *InstructionView) IsRoot() bool {
	return v.pos.IsRoot()
}

func (v *InstructionView) Position() Position {
	return v.pos
}

// Instruction 返回底层指令形态
func (v *InstructionView) Instruction() Instruction {
	return v.shape
}

// InnerInstructions 返回主指令的直接子指令 view；inner 指令 view 返回 nil
func (v *InstructionView) InnerInstructions() []*InstructionView {
	if !v.IsRoot() || len(v.group) == 0 {
		return nil
	}
	out := make([]*InstructionView, len(v.group))
	for i := range v.group {
		out[i] = newInnerView(v.tx, v.space, v.root, v.pos.TopIndex, v.group, i)
	}
	return out
}

// InnerInstruction 返回主指令下标为 at 的子指令；非主指令或下标不存在时返回 false
func (v *InstructionView) InnerInstruction(at int) (*InstructionView, bool) {
	if !v.IsRoot() || at < 0 || at >= len(v.group) {
		return nil, false
	}
	return newInnerView(v.tx, v.space, v.root, v.pos.TopIndex, v.group, at), true
}

// CompiledInstruction 返回该指令所属的主指令 view；主指令 view 返回与自身等价的新 view
func (v *InstructionView) CompiledInstruction() *InstructionView {
	return newRootView(v.tx, v.space, v.root, v.pos.TopIndex, v.group)
}

// Transaction 返回所属交易
func (v *InstructionView) Transaction() *Transaction {
	return v.tx
}

// Message 返回所属交易的消息体（view 只能由 Message 存在的交易产生，因此不会为 nil）
func (v *InstructionView) Message() *pb.Message {
	return v.tx.tx.GetMessage()
}

// Meta 返回所属交易的 meta，可能为 nil
func (v *InstructionView) Meta() *pb.TransactionStatusMeta {
	return v.tx.meta
}

// ResolvedInstruction 是 view 的一次性快照，programId 与账户均已解析
type ResolvedInstruction struct {
	Position    Position
	ProgramID   Address
	Accounts    []Address
	Data        []byte
	StackHeight uint32
}

// Resolve 一次性解析 programId 与账户，返回快照
func (v *InstructionView) Resolve() (ResolvedInstruction, error) {
	programID, err := v.ProgramID()
	if err != nil {
		return ResolvedInstruction{}, err
	}
	accounts, err := v.Accounts()
	if err != nil {
		return ResolvedInstruction{}, err
	}
	return ResolvedInstruction{
		Position:    v.pos,
		ProgramID:   programID,
		Accounts:    accounts,
		Data:        v.Data(),
		StackHeight: v.StackHeight(),
	}, nil
}
