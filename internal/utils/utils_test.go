package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	Slot    uint64
	Account [32]byte
	Amount  uint64
	Checked bool
}

func TestEncodeDecodeEvent(t *testing.T) {
	in := sampleEvent{Slot: 99, Amount: 12345, Checked: true}
	in.Account[3] = 7

	data, err := EncodeEvent(2, &in)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 0, 0}, data[:4])

	eventType, ok := PeekEventType(data)
	require.True(t, ok)
	assert.Equal(t, uint32(2), eventType)

	var out sampleEvent
	eventType, err = DecodeEvent(data, &out)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), eventType)
	assert.Equal(t, in, out)

	_, err = DecodeEvent([]byte{1}, &out)
	assert.Error(t, err)
}

func TestPartitionHashBytes(t *testing.T) {
	b := make([]byte, 64)
	b[27] = 0x0d
	b[7] = 0x01

	assert.Equal(t, uint32(0), PartitionHashBytes(b[:10], 8))
	assert.Equal(t, uint32(0), PartitionHashBytes(b, 1))
	assert.Equal(t, uint32(0x0d&7), PartitionHashBytes(b, 8))

	hash := uint32(0x01)<<24 | uint32(0x0d)
	assert.Equal(t, hash%12, PartitionHashBytes(b, 12))
	for mod := uint32(2); mod < 40; mod++ {
		assert.Less(t, PartitionHashBytes(b, mod), mod)
	}
}

func TestCalcCapPerPartition(t *testing.T) {
	assert.Equal(t, 100, CalcCapPerPartition(100, 1, 16))
	assert.Equal(t, 50, CalcCapPerPartition(100, 4, 16))
	assert.Equal(t, 16, CalcCapPerPartition(10, 4, 16))
	assert.Equal(t, 25, CalcCapPerPartition(100, 12, 16))
}
