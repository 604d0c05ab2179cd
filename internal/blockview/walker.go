package blockview

import (
	"iter"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// walkState 遍历状态机：
//
//	atTop(i)      产出主指令 i，然后进入 atInner(i, 0)（compiledOnly 模式直接进入 atTop(i+1)）
//	atInner(i, j) 若 i 存在 inner 组且 j 在组内，产出该 inner 指令并进入 atInner(i, j+1)，否则进入 atTop(i+1)
//	atTop(i)      i >= len(instructions) 时进入 exhausted，不再产出
type walkState uint8

const (
	stateAtTop walkState = iota
	stateAtInner
	stateExhausted
)

// Walker 对单笔交易的指令树做惰性、只前进、不可重启的遍历。
// Walker 自身带状态，不可在多个 goroutine 间共享；同一交易可以并发创建多个 Walker。
type Walker struct {
	tx           *Transaction
	instructions []*pb.CompiledInstruction
	space        AddressSpace
	groups       map[uint32][]*pb.InnerInstruction
	compiledOnly bool

	state   walkState
	top     int
	inner   int
	emitted int // 已产出的元素数
}

func newWalker(tx *Transaction, compiledOnly bool) (*Walker, error) {
	msg, err := tx.Message()
	if err != nil {
		return nil, err
	}
	return &Walker{
		tx:           tx,
		instructions: msg.Instructions,
		space:        NewAddressSpace(msg, tx.meta),
		groups:       innerGroups(tx.meta),
		compiledOnly: compiledOnly,
		state:        stateAtTop,
	}, nil
}

// Next 返回下一条指令 view；遍历结束后恒返回 (nil, false)
func (w *Walker) Next() (*InstructionView, bool) {
	for {
		switch w.state {
		case stateAtTop:
			if w.top >= len(w.instructions) {
				w.state = stateExhausted
				return nil, false
			}
			view := newRootView(w.tx, w.space, w.instructions[w.top], w.top, w.groups[uint32(w.top)])
			if w.compiledOnly {
				w.top++
			} else {
				w.state = stateAtInner
				w.inner = 0
			}
			w.emitted++
			return view, true

		case stateAtInner:
			group := w.groups[uint32(w.top)]
			if w.inner < len(group) {
				view := newInnerView(w.tx, w.space, w.instructions[w.top], w.top, group, w.inner)
				w.inner++
				w.emitted++
				return view, true
			}
			w.state = stateAtTop
			w.top++

		default:
			return nil, false
		}
	}
}

// All 以 range-over-func 形式消费剩余元素；提前 break 后 Walker 停在当前位置
func (w *Walker) All() iter.Seq[*InstructionView] {
	return func(yield func(*InstructionView) bool) {
		for {
			v, ok := w.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Collect 消费剩余元素并返回切片
func (w *Walker) Collect() []*InstructionView {
	out := make([]*InstructionView, 0, w.Remaining())
	for v, ok := w.Next(); ok; v, ok = w.Next() {
		out = append(out, v)
	}
	return out
}

// Remaining 返回尚未产出的元素数
func (w *Walker) Remaining() int {
	return w.Count() - w.emitted
}

// Count 返回完整遍历的元素总数（与当前位置无关）：
// 主指令数 + （非 compiledOnly 时）各主指令 inner 组大小之和。
func (w *Walker) Count() int {
	n := len(w.instructions)
	if w.compiledOnly {
		return n
	}
	for i := range w.instructions {
		n += len(w.groups[uint32(i)])
	}
	return n
}
