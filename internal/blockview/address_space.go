package blockview

import (
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// AddressSpace 是单笔交易的统一账户索引空间，固定顺序为：
//
//	message.accountKeys ++ meta.loadedWritableAddresses ++ meta.loadedReadonlyAddresses
//
// 只保存三段切片的引用，不拷贝地址数据；值类型，可在多个 goroutine 中并发只读。
type AddressSpace struct {
	accountKeys    [][]byte
	loadedWritable [][]byte
	loadedReadonly [][]byte
}

// NewAddressSpace 由 message 与 meta 构造地址空间。meta 为 nil 时仅包含 accountKeys。
func NewAddressSpace(msg *pb.Message, meta *pb.TransactionStatusMeta) AddressSpace {
	return AddressSpace{
		accountKeys:    msg.GetAccountKeys(),
		loadedWritable: meta.GetLoadedWritableAddresses(),
		loadedReadonly: meta.GetLoadedReadonlyAddresses(),
	}
}

// Len 返回三段地址池的总长度
func (s AddressSpace) Len() int {
	return len(s.accountKeys) + len(s.loadedWritable) + len(s.loadedReadonly)
}

// Pools 返回三段地址池各自的长度（accountKeys, loadedWritable, loadedReadonly）
func (s AddressSpace) Pools() (accountKeys, loadedWritable, loadedReadonly int) {
	return len(s.accountKeys), len(s.loadedWritable), len(s.loadedReadonly)
}

// Resolve 按固定顺序依次扣减各段长度，定位 index 所在的地址池并返回对应地址。
// index 超出总长度时返回 *IndexOutOfRangeError。
func (s AddressSpace) Resolve(index uint32) (Address, error) {
	// 以 uint64 比较，32 位平台上 int(index) 可能为负
	i := uint64(index)
	for _, pool := range [...][][]byte{s.accountKeys, s.loadedWritable, s.loadedReadonly} {
		n := uint64(len(pool))
		if i < n {
			return pool[i], nil
		}
		i -= n
	}
	return nil, &IndexOutOfRangeError{
		Index:          index,
		AccountKeys:    len(s.accountKeys),
		LoadedWritable: len(s.loadedWritable),
		LoadedReadonly: len(s.loadedReadonly),
	}
}

// ResolveAll 依次解析一组账户索引（指令中 accounts 字段为单字节索引），遇到越界立即返回错误。
func (s AddressSpace) ResolveAll(indices []byte) ([]Address, error) {
	out := make([]Address, 0, len(indices))
	for _, idx := range indices {
		addr, err := s.Resolve(uint32(idx))
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// All 返回按固定顺序拼接的完整地址列表
func (s AddressSpace) All() []Address {
	out := make([]Address, 0, s.Len())
	for _, b := range s.accountKeys {
		out = append(out, b)
	}
	for _, b := range s.loadedWritable {
		out = append(out, b)
	}
	for _, b := range s.loadedReadonly {
		out = append(out, b)
	}
	return out
}

// Strings 返回完整地址列表的 base58 形式
func (s AddressSpace) Strings() []string {
	return AddressStrings(s.All())
}
