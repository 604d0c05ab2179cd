package flatten

import (
	"errors"
	"fmt"

	"sol-blockview/internal/blockview"
	"sol-blockview/internal/logic/core"
	"sol-blockview/internal/types"
)

// BuildEventID 中 ixIndex 与 innerIndex+1 各占 8 bit，超出后事件 ID 会重复
const (
	maxTopLevelInstructions = 256 // 单笔交易主指令数上限
	maxInnerInstructions    = 255 // 单条主指令下 inner 指令数上限
)

// ErrTooManyInstructions 指令位置超出事件 ID 可编码的范围
var ErrTooManyInstructions = errors.New("too many instructions")

// resolvePubkeys 将统一地址空间一次性拷贝为定长 Pubkey，后续按索引直接取值
func resolvePubkeys(space blockview.AddressSpace) ([]types.Pubkey, error) {
	all := space.All()
	pubkeys := make([]types.Pubkey, len(all))
	for i, addr := range all {
		pk, ok := addr.Pubkey()
		if !ok {
			return nil, fmt.Errorf("invalid pubkey length %d at index %d", len(addr), i)
		}
		pubkeys[i] = pk
	}
	return pubkeys, nil
}

// buildFlatInstructions 按深度优先顺序展平主指令与 inner 指令
func buildFlatInstructions(tx *blockview.Transaction, space blockview.AddressSpace, pubkeys []types.Pubkey) ([]*core.FlatInstruction, error) {
	walker, err := tx.AllInstructionsDepthFirst()
	if err != nil {
		return nil, err
	}

	lookup := func(index uint32) (types.Pubkey, error) {
		if uint64(index) >= uint64(len(pubkeys)) {
			// 复用 AddressSpace 的越界错误，便于上层 errors.Is 判断
			_, err := space.Resolve(index)
			return types.Pubkey{}, err
		}
		return pubkeys[index], nil
	}

	instructions := make([]*core.FlatInstruction, 0, walker.Count())
	for view := range walker.All() {
		shape := view.Instruction()
		pos := view.Position()
		if pos.TopIndex >= maxTopLevelInstructions {
			return nil, fmt.Errorf("%w: top-level %d", ErrTooManyInstructions, pos.TopIndex+1)
		}
		if pos.InnerIndex >= maxInnerInstructions {
			return nil, fmt.Errorf("%w: ix %d has more than %d inner instructions", ErrTooManyInstructions, pos.TopIndex, maxInnerInstructions)
		}

		programID, err := lookup(shape.ProgramIDIndex())
		if err != nil {
			return nil, err
		}
		indices := shape.AccountIndices()
		accounts := make([]types.Pubkey, len(indices))
		for i, idx := range indices {
			if accounts[i], err = lookup(uint32(idx)); err != nil {
				return nil, err
			}
		}

		instructions = append(instructions, &core.FlatInstruction{
			IxIndex:     uint16(pos.TopIndex),
			InnerIndex:  int16(pos.InnerIndex),
			StackHeight: view.StackHeight(),
			ProgramID:   programID,
			Accounts:    accounts,
			Data:        view.Data(),
		})
	}
	return instructions, nil
}

// Flatten 将 blockview 交易转换为事件解析使用的 FlattenedTx。
// 完整流程：
//  1. 构建完整账户 Pubkey 列表（含 Address Lookup）；
//  2. 校验签名与 signer 数量；
//  3. 展平主指令与 inner 指令；
//
// 任意一步失败只影响当前交易，panic 会被 recover 为 error。
func Flatten(txCtx *core.TxContext, tx *blockview.Transaction) (_ *core.FlattenedTx, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flatten panic: %v", r)
		}
	}()

	msg, err := tx.Message()
	if err != nil {
		return nil, err
	}
	space, err := tx.AddressSpace()
	if err != nil {
		return nil, err
	}
	pubkeys, err := resolvePubkeys(space)
	if err != nil {
		return nil, fmt.Errorf("resolvePubkeys: %w", err)
	}

	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	signature, err := types.SignatureFromBytes(hash)
	if err != nil {
		return nil, err
	}

	// 前 N 个 accountKeys 为 signer
	signerCount := int(msg.GetHeader().GetNumRequiredSignatures())
	keys, _, _ := space.Pools()
	if signerCount == 0 || signerCount > keys {
		return nil, fmt.Errorf("invalid signer count: %d, account keys: %d", signerCount, keys)
	}

	instructions, err := buildFlatInstructions(tx, space, pubkeys)
	if err != nil {
		return nil, fmt.Errorf("buildFlatInstructions: %w", err)
	}

	meta := tx.Meta()
	return &core.FlattenedTx{
		TxCtx:                txCtx,
		TxIndex:              uint32(tx.Index()),
		Signature:            signature,
		Signers:              pubkeys[:signerCount:signerCount],
		Instructions:         instructions,
		LogMessages:          meta.GetLogMessages(),
		ComputeUnitsConsumed: meta.GetComputeUnitsConsumed(),
	}, nil
}
