package grpc

import (
	"encoding/binary"
	"testing"
	"time"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"
	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-blockview/internal/blockview"
	"sol-blockview/internal/consts"
	"sol-blockview/internal/logic/core"
)

func key(n byte) []byte {
	b := make([]byte, 32)
	b[0] = n
	return b
}

func sig(n byte) []byte {
	b := make([]byte, 64)
	b[0] = n
	return b
}

func transferData(amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = byte(sdktoken.InstructionTransfer)
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

func txInfo(index uint64, programIdx uint32, meta *pb.TransactionStatusMeta, isVote bool) *pb.SubscribeUpdateTransactionInfo {
	return &pb.SubscribeUpdateTransactionInfo{
		Signature: sig(byte(index + 1)),
		IsVote:    isVote,
		Index:     index,
		Transaction: &pb.Transaction{
			Signatures: [][]byte{sig(byte(index + 1))},
			Message: &pb.Message{
				Header:      &pb.MessageHeader{NumRequiredSignatures: 1},
				AccountKeys: [][]byte{key(1), key(10), key(11), consts.TokenProgram[:]},
				Instructions: []*pb.CompiledInstruction{
					{ProgramIdIndex: programIdx, Accounts: []byte{1, 2, 0}, Data: transferData(500 + index)},
				},
			},
		},
		Meta: meta,
	}
}

func sampleBlock() *pb.SubscribeUpdateBlock {
	failed := &pb.TransactionStatusMeta{Err: &pb.TransactionError{Err: []byte{1}}}
	return &pb.SubscribeUpdateBlock{
		Slot:       900,
		ParentSlot: 899,
		Blockhash:  base58.Encode(key(7)),
		BlockTime:  &pb.UnixTimestamp{Timestamp: 1700000000},
		Transactions: []*pb.SubscribeUpdateTransactionInfo{
			txInfo(0, 3, &pb.TransactionStatusMeta{}, false),
			txInfo(1, 3, &pb.TransactionStatusMeta{}, true),
			txInfo(2, 3, failed, false),
			txInfo(3, 99, &pb.TransactionStatusMeta{}, false), // program 索引越界
			txInfo(4, 3, &pb.TransactionStatusMeta{}, false),
		},
	}
}

func TestParseBlock(t *testing.T) {
	result := ParseBlock(blockview.FromGeyserBlock(sampleBlock()), true, 2)

	assert.Equal(t, 5, result.TotalTxs)
	assert.Equal(t, 3, result.ValidTxs)
	assert.Equal(t, 1, result.FailedTxs)
	assert.Equal(t, uint64(900), result.TxCtx.Slot)
	assert.Equal(t, byte(7), result.TxCtx.BlockHash[0])

	require.Len(t, result.Events, 2)
	first := result.Events[0].Payload.(*core.TransferEvent)
	second := result.Events[1].Payload.(*core.TransferEvent)
	assert.Equal(t, uint64(500), first.Amount)
	assert.Equal(t, uint64(504), second.Amount)
	assert.Equal(t, core.BuildEventID(4, 0, -1), result.Events[1].ID)
	assert.Less(t, result.Events[0].ID, result.Events[1].ID)
}

func TestParseBlock_KeepVote(t *testing.T) {
	result := ParseBlock(blockview.FromGeyserBlock(sampleBlock()), false, 0)
	assert.Equal(t, 4, result.ValidTxs)
	assert.Len(t, result.Events, 3)
}

func TestParseBlock_BadBlockhash(t *testing.T) {
	block := sampleBlock()
	block.Blockhash = "not-base58-0OIl"
	result := ParseBlock(blockview.FromGeyserBlock(block), true, 1)
	assert.Equal(t, [32]byte{}, [32]byte(result.TxCtx.BlockHash))
	assert.Len(t, result.Events, 2)
}

func TestDetectGap(t *testing.T) {
	checker := newSlotChecker(nil, time.Second, nil)
	defer checker.Stop()
	p := NewBlockProcessor(nil, nil, checker)
	defer p.Stop()

	p.detectGap(100)
	p.detectGap(101)
	p.detectGap(105)
	p.detectGap(103) // 乱序到达，不回退

	require.Len(t, checker.rangeCh, 1)
	r := <-checker.rangeCh
	assert.Equal(t, uint64(102), r.From)
	assert.Equal(t, uint64(104), r.To)
	assert.Equal(t, uint64(105), p.lastSlot)
}

// transferTreeBlock 单笔交易：1 条主 Transfer + n 条 inner Transfer
func transferTreeBlock(n int) *pb.SubscribeUpdateBlock {
	inners := make([]*pb.InnerInstruction, n)
	for i := range inners {
		inners[i] = &pb.InnerInstruction{ProgramIdIndex: 3, Accounts: []byte{1, 2, 0}, Data: transferData(uint64(i + 1))}
	}
	meta := &pb.TransactionStatusMeta{
		InnerInstructions: []*pb.InnerInstructions{{Index: 0, Instructions: inners}},
	}
	return &pb.SubscribeUpdateBlock{
		Slot:         901,
		Blockhash:    base58.Encode(key(7)),
		Transactions: []*pb.SubscribeUpdateTransactionInfo{txInfo(0, 3, meta, false)},
	}
}

func TestParseBlock_EventIDsUnique(t *testing.T) {
	result := ParseBlock(blockview.FromGeyserBlock(transferTreeBlock(255)), true, 1)
	assert.Zero(t, result.FailedTxs)
	require.Len(t, result.Events, 256)

	seen := make(map[uint32]int, len(result.Events))
	for i, evt := range result.Events {
		prev, dup := seen[evt.ID]
		require.False(t, dup, "event id %#x: event %d and %d", evt.ID, prev, i)
		seen[evt.ID] = i
	}

	// 超出 ID 编码范围的交易整笔丢弃，不产出重复 ID
	result = ParseBlock(blockview.FromGeyserBlock(transferTreeBlock(256)), true, 1)
	assert.Equal(t, 1, result.FailedTxs)
	assert.Empty(t, result.Events)
}
