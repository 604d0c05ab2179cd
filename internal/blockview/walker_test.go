package blockview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

func TestWalker_DepthFirstOrder(t *testing.T) {
	rawTx, meta := fullTx()
	tx := NewTransaction(rawTx, meta, 0)

	w, err := tx.AllInstructionsDepthFirst()
	require.NoError(t, err)
	assert.Equal(t, 6, w.Count())

	views := w.Collect()
	require.Len(t, views, 6)

	type want struct {
		pid      byte
		accounts []byte
		data     []byte
		depth    uint32
		root     bool
		pos      Position
	}
	wants := []want{
		{1, []byte{0, 1}, []byte{0x01, 0x02, 0x03}, 0, true, Position{0, -1}},
		{4, []byte{0, 1}, []byte{0x04, 0x05, 0x06}, 1, false, Position{0, 0}},
		{2, []byte{1, 2}, []byte{0x06, 0x07, 0x08}, 0, true, Position{1, -1}},
		{3, []byte{2}, []byte{0x09, 0x0a, 0x0b}, 0, true, Position{2, -1}},
		{5, []byte{0, 1}, []byte{0x0a, 0x0b, 0x0c}, 1, false, Position{2, 0}},
		{6, []byte{1, 2}, []byte{0x0d, 0x0e, 0x0f}, 2, false, Position{2, 1}},
	}
	for i, v := range views {
		exp := wants[i]
		pid, err := v.ProgramID()
		require.NoError(t, err)
		assert.True(t, pid.Equal(addr(exp.pid)), "view %d program id", i)

		accounts, err := v.Accounts()
		require.NoError(t, err)
		require.Len(t, accounts, len(exp.accounts))
		for j, a := range accounts {
			assert.True(t, a.Equal(addr(exp.accounts[j])), "view %d account %d", i, j)
		}

		assert.Equal(t, exp.data, v.Data())
		assert.Equal(t, exp.depth, v.StackHeight())
		assert.Equal(t, exp.root, v.IsRoot())
		assert.Equal(t, exp.pos, v.Position())
	}

	// 遍历结束后保持 Exhausted
	_, ok := w.Next()
	assert.False(t, ok)
	_, ok = w.Next()
	assert.False(t, ok)
}

func TestWalker_CompiledOnly(t *testing.T) {
	rawTx, meta := fullTx()
	tx := NewTransaction(rawTx, meta, 0)

	w, err := tx.TopLevelInstructions()
	require.NoError(t, err)
	assert.Equal(t, 3, w.Count())

	var pids []byte
	for v := range w.All() {
		assert.True(t, v.IsRoot())
		pid, err := v.ProgramID()
		require.NoError(t, err)
		pids = append(pids, pid[0])
	}
	assert.Equal(t, []byte{1, 2, 3}, pids)
}

func TestWalker_ChildrenOnDemand(t *testing.T) {
	rawTx, meta := fullTx()
	tx := NewTransaction(rawTx, meta, 0)

	w, err := tx.TopLevelInstructions()
	require.NoError(t, err)
	roots := w.Collect()
	require.Len(t, roots, 3)

	assert.Len(t, roots[0].InnerInstructions(), 1)
	assert.Empty(t, roots[1].InnerInstructions())
	children := roots[2].InnerInstructions()
	require.Len(t, children, 2)
	assert.Equal(t, Position{TopIndex: 2, InnerIndex: 1}, children[1].Position())

	// inner 指令不再向下展开
	assert.Nil(t, children[0].InnerInstructions())
	_, ok := children[0].InnerInstruction(0)
	assert.False(t, ok)

	second, ok := roots[2].InnerInstruction(1)
	require.True(t, ok)
	pid, err := second.ProgramID()
	require.NoError(t, err)
	assert.True(t, pid.Equal(addr(6)))

	_, ok = roots[2].InnerInstruction(2)
	assert.False(t, ok)
	_, ok = roots[2].InnerInstruction(-1)
	assert.False(t, ok)

	// 从 inner 指令回到所属主指令
	parent := second.CompiledInstruction()
	assert.True(t, parent.IsRoot())
	assert.Equal(t, Position{TopIndex: 2, InnerIndex: -1}, parent.Position())
	assert.Equal(t, []byte{0x09, 0x0a, 0x0b}, parent.Data())
	assert.Same(t, tx, second.Transaction())
	assert.Same(t, rawTx.Message, second.Message())
	assert.Same(t, meta, second.Meta())
}

func TestTransaction_ChildrenOf(t *testing.T) {
	rawTx, meta := fullTx()
	tx := NewTransaction(rawTx, meta, 0)

	children, err := tx.ChildrenOf(2)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, []byte{0x0a, 0x0b, 0x0c}, children[0].Data())

	children, err = tx.ChildrenOf(1)
	require.NoError(t, err)
	assert.Empty(t, children)

	_, err = tx.ChildrenOf(3)
	assert.ErrorIs(t, err, ErrInstructionNotFound)
}

func TestWalker_BreakLeavesPosition(t *testing.T) {
	rawTx, meta := fullTx()
	tx := NewTransaction(rawTx, meta, 0)

	w, err := tx.AllInstructionsDepthFirst()
	require.NoError(t, err)
	n := 0
	for range w.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 4, w.Remaining())
	rest := w.Collect()
	require.Len(t, rest, 4)
	assert.Equal(t, 4, cap(rest)) // 按剩余元素数分配
	assert.Equal(t, Position{TopIndex: 1, InnerIndex: -1}, rest[0].Position())
	assert.Zero(t, w.Remaining())
	assert.Empty(t, w.Collect())
	assert.Equal(t, 6, w.Count())
}

func TestWalker_MetaAbsent(t *testing.T) {
	rawTx, _ := fullTx()
	tx := NewTransaction(rawTx, nil, 0)

	w, err := tx.AllInstructionsDepthFirst()
	require.NoError(t, err)
	views := w.Collect()
	require.Len(t, views, 3)
	for _, v := range views {
		assert.True(t, v.IsRoot())
	}
}

func TestWalker_MissingStructure(t *testing.T) {
	_, err := NewTransaction(nil, nil, 0).AllInstructionsDepthFirst()
	var missingErr *MissingStructureError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "transaction", missingErr.Structure)

	_, err = NewTransaction(&pb.Transaction{}, nil, 0).TopLevelInstructions()
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "message", missingErr.Structure)
	assert.ErrorIs(t, err, ErrMissingStructure)
}

func TestWalker_DuplicateGroupFirstWins(t *testing.T) {
	rawTx, meta := fullTx()
	meta.InnerInstructions = append(meta.InnerInstructions, &pb.InnerInstructions{
		Index:        0,
		Instructions: []*pb.InnerInstruction{{ProgramIdIndex: 6}, {ProgramIdIndex: 5}},
	})
	tx := NewTransaction(rawTx, meta, 0)

	w, err := tx.AllInstructionsDepthFirst()
	require.NoError(t, err)
	assert.Equal(t, 6, w.Count())

	root, err := tx.InstructionAt(0)
	require.NoError(t, err)
	children := root.InnerInstructions()
	require.Len(t, children, 1)
	assert.Equal(t, uint32(4), children[0].Instruction().ProgramIDIndex())
}

func TestWalker_DoesNotMutateInput(t *testing.T) {
	rawTx, meta := fullTx()
	txBefore := proto.Clone(rawTx)
	metaBefore := proto.Clone(meta)

	tx := NewTransaction(rawTx, meta, 0)
	w, err := tx.AllInstructionsDepthFirst()
	require.NoError(t, err)
	for v := range w.All() {
		_, err := v.Resolve()
		require.NoError(t, err)
		v.InnerInstructions()
	}
	require.NoError(t, tx.VerifyAccountIndices())

	assert.True(t, proto.Equal(txBefore, rawTx))
	assert.True(t, proto.Equal(metaBefore, meta))
}
