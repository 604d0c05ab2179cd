package blockview

import (
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

func u32(v uint32) *uint32 { return &v }

// addr 构造 32 字节测试地址，首字节为 n
func addr(n byte) []byte {
	b := make([]byte, 32)
	b[0] = n
	b[31] = 0xA0 + n
	return b
}

func addrs(ns ...byte) [][]byte {
	out := make([][]byte, len(ns))
	for i, n := range ns {
		out[i] = addr(n)
	}
	return out
}

// fullTx 账户池 a0..a6，三条主指令，主指令 0 与 2 带 inner 指令
func fullTx() (*pb.Transaction, *pb.TransactionStatusMeta) {
	tx := &pb.Transaction{
		Signatures: [][]byte{make([]byte, 64)},
		Message: &pb.Message{
			AccountKeys: addrs(0, 1, 2, 3, 4, 5, 6),
			Instructions: []*pb.CompiledInstruction{
				{ProgramIdIndex: 1, Accounts: []byte{0, 1}, Data: []byte{0x01, 0x02, 0x03}},
				{ProgramIdIndex: 2, Accounts: []byte{1, 2}, Data: []byte{0x06, 0x07, 0x08}},
				{ProgramIdIndex: 3, Accounts: []byte{2}, Data: []byte{0x09, 0x0a, 0x0b}},
			},
		},
	}
	meta := &pb.TransactionStatusMeta{
		InnerInstructions: []*pb.InnerInstructions{
			{
				Index: 0,
				Instructions: []*pb.InnerInstruction{
					{ProgramIdIndex: 4, Accounts: []byte{0, 1}, Data: []byte{0x04, 0x05, 0x06}, StackHeight: u32(1)},
				},
			},
			{
				Index: 2,
				Instructions: []*pb.InnerInstruction{
					{ProgramIdIndex: 5, Accounts: []byte{0, 1}, Data: []byte{0x0a, 0x0b, 0x0c}, StackHeight: u32(1)},
					{ProgramIdIndex: 6, Accounts: []byte{1, 2}, Data: []byte{0x0d, 0x0e, 0x0f}, StackHeight: u32(2)},
				},
			},
		},
	}
	return tx, meta
}

// lookupTx accountKeys=[k0,k1]，loadedWritable=[w0]，loadedReadonly=[r0,r1]
func lookupTx() (*pb.Transaction, *pb.TransactionStatusMeta) {
	tx := &pb.Transaction{
		Signatures: [][]byte{make([]byte, 64)},
		Message: &pb.Message{
			AccountKeys: addrs(10, 11),
			Instructions: []*pb.CompiledInstruction{
				{ProgramIdIndex: 4, Accounts: []byte{0, 2, 3}, Data: []byte{0xff}},
			},
		},
	}
	meta := &pb.TransactionStatusMeta{
		LoadedWritableAddresses: addrs(20),
		LoadedReadonlyAddresses: addrs(30, 31),
	}
	return tx, meta
}

func failedMeta() *pb.TransactionStatusMeta {
	return &pb.TransactionStatusMeta{Err: &pb.TransactionError{Err: []byte{1, 2, 3}}}
}
