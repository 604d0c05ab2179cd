package blockview

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// mixedBlock 交易 0、3 成功；1 执行失败；2 缺少 meta
func mixedBlock() *pb.ConfirmedBlock {
	ok0, meta0 := fullTx()
	bad, _ := fullTx()
	noMeta, _ := fullTx()
	ok3, meta3 := lookupTx()
	return &pb.ConfirmedBlock{
		PreviousBlockhash: "prev",
		Blockhash:         "hash",
		ParentSlot:        99,
		BlockTime:         &pb.UnixTimestamp{Timestamp: 1700000000},
		BlockHeight:       &pb.BlockHeight{BlockHeight: 88},
		Transactions: []*pb.ConfirmedTransaction{
			{Transaction: ok0, Meta: meta0},
			{Transaction: bad, Meta: failedMeta()},
			{Transaction: noMeta},
			{Transaction: ok3, Meta: meta3},
		},
	}
}

func TestIsSuccessful(t *testing.T) {
	assert.False(t, IsSuccessful(nil))
	assert.False(t, IsSuccessful(failedMeta()))
	assert.True(t, IsSuccessful(&pb.TransactionStatusMeta{}))
}

func TestBlock_SuccessfulTransactions(t *testing.T) {
	block := FromConfirmedBlock(100, mixedBlock())
	assert.Equal(t, uint64(100), block.Slot)
	assert.Equal(t, uint64(99), block.ParentSlot)
	assert.Equal(t, "prev", block.ParentBlockhash)
	assert.Equal(t, int64(1700000000), block.BlockTime)
	assert.Equal(t, uint64(88), block.BlockHeight)

	var indexes []uint64
	for tx := range block.SuccessfulTransactions() {
		indexes = append(indexes, tx.Index())
	}
	assert.Equal(t, []uint64{0, 3}, indexes)

	// 重新过滤需要重新从区块开始
	again := slices.Collect(block.SuccessfulTransactions())
	assert.Len(t, again, 2)
	assert.Equal(t, 4, block.Len())
}

func TestBlock_TakeSuccessfulTransactions(t *testing.T) {
	block := FromConfirmedBlock(100, mixedBlock())

	taken := block.TakeSuccessfulTransactions()
	require.Len(t, taken, 2)
	assert.Equal(t, uint64(0), taken[0].Index())
	assert.Equal(t, uint64(3), taken[1].Index())

	assert.Equal(t, 0, block.Len())
	assert.Empty(t, block.TakeSuccessfulTransactions())
	assert.Empty(t, slices.Collect(block.SuccessfulTransactions()))
}

func TestBlock_FailedTxExcludedRegardlessOfContent(t *testing.T) {
	rawTx, meta := fullTx()
	meta.Err = &pb.TransactionError{Err: []byte{0}}
	block := NewBlock(1, []*Transaction{NewTransaction(rawTx, meta, 0)})

	assert.Empty(t, slices.Collect(block.SuccessfulTransactions()))
	for v, err := range block.WalkInstructions() {
		t.Fatalf("unexpected item %v %v", v, err)
	}
}

func TestBlock_WalkInstructions(t *testing.T) {
	block := FromConfirmedBlock(100, mixedBlock())

	var n int
	var txIndexes []uint64
	for v, err := range block.WalkInstructions() {
		require.NoError(t, err)
		n++
		if v.IsRoot() {
			txIndexes = append(txIndexes, v.Transaction().Index())
		}
	}
	// 交易 0：3 主 + 3 inner；交易 3：1 主
	assert.Equal(t, 7, n)
	assert.Equal(t, []uint64{0, 0, 0, 3}, txIndexes)

	n = 0
	for _, err := range block.CompiledInstructions() {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 4, n)
}

func TestBlock_WalkSkipsMalformedTransaction(t *testing.T) {
	good, goodMeta := fullTx()
	block := NewBlock(1, []*Transaction{
		NewTransaction(&pb.Transaction{}, &pb.TransactionStatusMeta{}, 0),
		NewTransaction(good, goodMeta, 1),
	})

	var errs []error
	var n int
	for v, err := range block.WalkInstructions() {
		if err != nil {
			assert.Nil(t, v)
			errs = append(errs, err)
			continue
		}
		n++
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrMissingStructure)
	assert.Equal(t, 6, n)
}

func TestFromGeyserBlock(t *testing.T) {
	rawTx, meta := fullTx()
	update := &pb.SubscribeUpdateBlock{
		Slot:            200,
		ParentSlot:      199,
		Blockhash:       "b",
		ParentBlockhash: "p",
		Transactions: []*pb.SubscribeUpdateTransactionInfo{
			{Signature: rawTx.Signatures[0], IsVote: true, Transaction: rawTx, Meta: meta, Index: 5},
			nil,
		},
	}
	block := FromGeyserBlock(update)
	assert.Equal(t, uint64(200), block.Slot)
	assert.Equal(t, int64(0), block.BlockTime)
	require.Equal(t, 1, block.Len())

	tx := slices.Collect(block.Transactions())[0]
	assert.True(t, tx.IsVote())
	assert.Equal(t, uint64(5), tx.Index())
	assert.True(t, tx.IsSuccessful())
}
