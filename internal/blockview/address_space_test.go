package blockview

import (
	"errors"
	"math"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressSpace_ResolveAcrossPools(t *testing.T) {
	rawTx, meta := lookupTx()
	tx := NewTransaction(rawTx, meta, 0)

	space, err := tx.AddressSpace()
	require.NoError(t, err)
	assert.Equal(t, 5, space.Len())
	keys, writable, readonly := space.Pools()
	assert.Equal(t, []int{2, 1, 2}, []int{keys, writable, readonly})

	expected := [][]byte{addr(10), addr(11), addr(20), addr(30), addr(31)}
	for i, exp := range expected {
		got, err := tx.ResolveAddress(uint32(i))
		require.NoError(t, err)
		assert.True(t, got.Equal(exp), "index %d", i)
	}

	_, err = tx.ResolveAddress(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	var rangeErr *IndexOutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, uint32(5), rangeErr.Index)
	assert.Equal(t, 2, rangeErr.AccountKeys)
	assert.Equal(t, 1, rangeErr.LoadedWritable)
	assert.Equal(t, 2, rangeErr.LoadedReadonly)

	// 高位索引同样返回越界错误而非 panic
	for _, index := range []uint32{1 << 31, math.MaxUint32} {
		_, err = tx.ResolveAddress(index)
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, index, rangeErr.Index)
	}
}

func TestAddressSpace_InstructionUsesLookupPools(t *testing.T) {
	rawTx, meta := lookupTx()
	tx := NewTransaction(rawTx, meta, 0)

	root, err := tx.InstructionAt(0)
	require.NoError(t, err)
	resolved, err := root.Resolve()
	require.NoError(t, err)

	assert.True(t, resolved.ProgramID.Equal(addr(31)))
	require.Len(t, resolved.Accounts, 3)
	assert.True(t, resolved.Accounts[0].Equal(addr(10)))
	assert.True(t, resolved.Accounts[1].Equal(addr(20)))
	assert.True(t, resolved.Accounts[2].Equal(addr(30)))
	assert.Equal(t, uint32(0), resolved.StackHeight)
}

func TestAddressSpace_MetaAbsentOnlyAccountKeys(t *testing.T) {
	rawTx, _ := lookupTx()
	tx := NewTransaction(rawTx, nil, 0)

	all, err := tx.ResolvedAccounts()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = tx.ResolveAddress(2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTransaction_ResolvedAccountsAsStrings(t *testing.T) {
	rawTx, meta := lookupTx()
	tx := NewTransaction(rawTx, meta, 0)

	strs, err := tx.ResolvedAccountsAsStrings()
	require.NoError(t, err)
	require.Len(t, strs, 5)
	assert.Equal(t, base58.Encode(addr(20)), strs[2])
	assert.Equal(t, base58.Encode(addr(31)), strs[4])
}

func TestView_OutOfRangeAccount(t *testing.T) {
	rawTx, meta := fullTx()
	rawTx.Message.Instructions[1].Accounts = []byte{1, 42}
	tx := NewTransaction(rawTx, meta, 0)

	v, err := tx.InstructionAt(1)
	require.NoError(t, err)
	_, err = v.Accounts()
	var rangeErr *IndexOutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, uint32(42), rangeErr.Index)

	_, err = v.Resolve()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	// program id 仍可解析
	pid, err := v.ProgramID()
	require.NoError(t, err)
	assert.True(t, pid.Equal(addr(2)))

	assert.ErrorIs(t, tx.VerifyAccountIndices(), ErrIndexOutOfRange)
}

func TestTransaction_VerifyWellFormed(t *testing.T) {
	rawTx, meta := fullTx()
	assert.NoError(t, NewTransaction(rawTx, meta, 0).VerifyAccountIndices())

	rawTx, meta = lookupTx()
	assert.NoError(t, NewTransaction(rawTx, meta, 0).VerifyAccountIndices())
}

func TestTransaction_ID(t *testing.T) {
	rawTx, meta := fullTx()
	rawTx.Signatures[0][0] = 7
	tx := NewTransaction(rawTx, meta, 0)

	hash, err := tx.Hash()
	require.NoError(t, err)
	assert.Len(t, hash, 64)

	id, err := tx.ID()
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(rawTx.Signatures[0]), id)

	rawTx.Signatures = nil
	_, err = tx.ID()
	assert.ErrorIs(t, err, ErrMissingStructure)
}

func TestAddress_Pubkey(t *testing.T) {
	a := Address(addr(3))
	pk, ok := a.Pubkey()
	require.True(t, ok)
	assert.True(t, a.Equal(pk[:]))
	assert.Equal(t, a.String(), pk.String())

	_, ok = Address([]byte{1, 2, 3}).Pubkey()
	assert.False(t, ok)
}
