package blockview

import (
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// InstructionKind 区分指令的两种物理形态
type InstructionKind uint8

const (
	KindCompiled InstructionKind = iota // message.instructions 中的主指令
	KindInner                           // meta.innerInstructions 中的 inner 指令（CPI）
)

func (k InstructionKind) String() string {
	switch k {
	case KindCompiled:
		return "compiled"
	case KindInner:
		return "inner"
	default:
		return "unknown"
	}
}

// Instruction 将 pb.CompiledInstruction 与 pb.InnerInstruction 统一为同一组只读访问器，
// 遍历代码无需关心当前持有的是哪种形态。两个指针中有且只有一个非空。
type Instruction struct {
	kind     InstructionKind
	compiled *pb.CompiledInstruction
	inner    *pb.InnerInstruction
}

// CompiledShape 包装一条主指令
func CompiledShape(ix *pb.CompiledInstruction) Instruction {
	return Instruction{kind: KindCompiled, compiled: ix}
}

// InnerShape 包装一条 inner 指令
func InnerShape(ix *pb.InnerInstruction) Instruction {
	return Instruction{kind: KindInner, inner: ix}
}

func (i Instruction) Kind() InstructionKind {
	return i.kind
}

// ProgramIDIndex 返回程序 ID 在统一地址空间中的索引（未解析）
func (i Instruction) ProgramIDIndex() uint32 {
	if i.kind == KindInner {
		return i.inner.GetProgramIdIndex()
	}
	return i.compiled.GetProgramIdIndex()
}

// AccountIndices 返回账户索引列表（未解析），保持原始顺序
func (i Instruction) AccountIndices() []byte {
	if i.kind == KindInner {
		return i.inner.GetAccounts()
	}
	return i.compiled.GetAccounts()
}

// Data 返回指令原始数据
func (i Instruction) Data() []byte {
	if i.kind == KindInner {
		return i.inner.GetData()
	}
	return i.compiled.GetData()
}

// StackHeight 返回调用栈深度及其是否被记录。
// 主指令没有该字段，恒为 (0, false)；inner 指令在 v1.14.6 之前的数据中同样缺失。
func (i Instruction) StackHeight() (uint32, bool) {
	if i.kind != KindInner || i.inner == nil || i.inner.StackHeight == nil {
		return 0, false
	}
	return *i.inner.StackHeight, true
}

// Compiled 返回底层主指令；inner 形态返回 nil
func (i Instruction) Compiled() *pb.CompiledInstruction {
	return i.compiled
}

// Inner 返回底层 inner 指令；主指令形态返回 nil
func (i Instruction) Inner() *pb.InnerInstruction {
	return i.inner
}
