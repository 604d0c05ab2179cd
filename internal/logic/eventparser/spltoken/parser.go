package spltoken

import (
	"encoding/binary"

	sdktoken "github.com/blocto/solana-go-sdk/program/token"

	"sol-blockview/internal/logic/core"
	"sol-blockview/pkg/logger"
)

// parseAmount 解析 [0]=instr, [1:9]=amount, [9]=decimals（仅 Checked 变体）
func parseAmount(data []byte, checked bool) (amount uint64, decimals uint8, ok bool) {
	need := 9
	if checked {
		need = 10
	}
	if len(data) < need {
		return 0, 0, false
	}
	amount = binary.LittleEndian.Uint64(data[1:9])
	if checked {
		decimals = data[9]
	}
	return amount, decimals, true
}

// Transfer:        accounts = [src_account, dest_account, authority]
// TransferChecked: accounts = [src_account, mint, dest_account, authority]
func parseTransfer(ix *core.FlatInstruction) (*core.TransferEvent, bool) {
	checked := ix.Data[0] == byte(sdktoken.InstructionTransferChecked)
	amount, decimals, ok := parseAmount(ix.Data, checked)
	if !ok {
		return nil, false
	}
	if checked {
		if len(ix.Accounts) < 4 {
			return nil, false
		}
		return &core.TransferEvent{
			Source:      ix.Accounts[0],
			Mint:        ix.Accounts[1],
			Destination: ix.Accounts[2],
			Authority:   ix.Accounts[3],
			Amount:      amount,
			Decimals:    decimals,
			Checked:     true,
		}, true
	}
	if len(ix.Accounts) < 3 {
		return nil, false
	}
	return &core.TransferEvent{
		Source:      ix.Accounts[0],
		Destination: ix.Accounts[1],
		Authority:   ix.Accounts[2],
		Amount:      amount,
	}, true
}

// MintTo / MintToChecked: accounts = [mint, dest_account, authority]
func parseMintTo(ix *core.FlatInstruction) (*core.MintToEvent, bool) {
	checked := ix.Data[0] == byte(sdktoken.InstructionMintToChecked)
	amount, decimals, ok := parseAmount(ix.Data, checked)
	if !ok || len(ix.Accounts) < 3 {
		return nil, false
	}
	return &core.MintToEvent{
		Mint:        ix.Accounts[0],
		Destination: ix.Accounts[1],
		Authority:   ix.Accounts[2],
		Amount:      amount,
		Decimals:    decimals,
		Checked:     checked,
	}, true
}

// Burn / BurnChecked: accounts = [src_account, mint, authority]
func parseBurn(ix *core.FlatInstruction) (*core.BurnEvent, bool) {
	checked := ix.Data[0] == byte(sdktoken.InstructionBurnChecked)
	amount, decimals, ok := parseAmount(ix.Data, checked)
	if !ok || len(ix.Accounts) < 3 {
		return nil, false
	}
	return &core.BurnEvent{
		Account:   ix.Accounts[0],
		Mint:      ix.Accounts[1],
		Authority: ix.Accounts[2],
		Amount:    amount,
		Decimals:  decimals,
		Checked:   checked,
	}, true
}

func logMalformed(kind string, ix *core.FlatInstruction, txHash string) {
	logger.Warnf("[Token::%s] tx=%s ix=%d inner=%d: malformed instruction, data_len=%d accounts=%d",
		kind, txHash, ix.IxIndex, ix.InnerIndex, len(ix.Data), len(ix.Accounts))
}
