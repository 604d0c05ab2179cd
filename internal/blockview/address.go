package blockview

import (
	"bytes"

	"github.com/mr-tron/base58"

	"sol-blockview/internal/types"
)

// Address 是对区块中某个地址字节切片的只读视图，本身不持有数据。
// 生命周期受所属区块约束，调用方不得修改底层字节。
type Address []byte

// String 返回 base58 编码
func (a Address) String() string {
	return base58.Encode(a)
}

func (a Address) Bytes() []byte {
	return a
}

// Equal 按字节比较，可直接与 []byte、Pubkey[:] 等比较
func (a Address) Equal(other []byte) bool {
	return bytes.Equal(a, other)
}

// Pubkey 将地址拷贝为定长 Pubkey；长度不是 32 字节时返回 false
func (a Address) Pubkey() (types.Pubkey, bool) {
	var pk types.Pubkey
	if len(a) != types.PubkeySize {
		return pk, false
	}
	copy(pk[:], a)
	return pk, true
}

// AddressStrings 批量转换为 base58 字符串
func AddressStrings(addrs []Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}
