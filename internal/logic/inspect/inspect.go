package inspect

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"sol-blockview/internal/blockview"
	"sol-blockview/internal/consts"
)

const (
	KindConfirmed = "confirmed" // pb.ConfirmedBlock（RPC / 存储）
	KindGeyser    = "geyser"    // pb.SubscribeUpdateBlock（Yellowstone 推送）

	FormatProto = "proto"
	FormatJSON  = "json"
)

type Options struct {
	CompiledOnly  bool // 只输出主指令
	IncludeFailed bool // 同时输出失败交易
	ShowAccounts  bool // 输出交易的统一地址空间
}

type BlockSummary struct {
	Slot         uint64      `yaml:"slot"`
	ParentSlot   uint64      `yaml:"parent_slot"`
	Blockhash    string      `yaml:"blockhash"`
	BlockTime    int64       `yaml:"block_time"`
	TotalTxs     int         `yaml:"total_txs"`
	Instructions int         `yaml:"instructions"`
	Transactions []TxSummary `yaml:"transactions"`
}

type TxSummary struct {
	Index        uint64               `yaml:"index"`
	Signature    string               `yaml:"signature"`
	Success      bool                 `yaml:"success"`
	Vote         bool                 `yaml:"vote,omitempty"`
	Accounts     []string             `yaml:"accounts,omitempty"`
	Instructions []InstructionSummary `yaml:"instructions,omitempty"`
	Error        string               `yaml:"error,omitempty"`
}

type InstructionSummary struct {
	Position    string   `yaml:"position"` // 主指令为 "i"，inner 指令为 "i.j"
	Program     string   `yaml:"program"`
	ProgramName string   `yaml:"program_name,omitempty"`
	Accounts    []string `yaml:"accounts"`
	Data        string   `yaml:"data"` // base58
	StackHeight uint32   `yaml:"stack_height,omitempty"`
}

// LoadBlock 解码区块文件；ConfirmedBlock 不携带 slot，需由调用方指定
func LoadBlock(data []byte, kind, format string, slot uint64) (*blockview.Block, error) {
	unmarshal := func(m proto.Message) error {
		switch format {
		case FormatProto:
			return proto.Unmarshal(data, m)
		case FormatJSON:
			return protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(data, m)
		default:
			return fmt.Errorf("unknown format: %q", format)
		}
	}

	switch kind {
	case KindConfirmed:
		var b pb.ConfirmedBlock
		if err := unmarshal(&b); err != nil {
			return nil, fmt.Errorf("decode confirmed block: %w", err)
		}
		return blockview.FromConfirmedBlock(slot, &b), nil
	case KindGeyser:
		var b pb.SubscribeUpdateBlock
		if err := unmarshal(&b); err != nil {
			return nil, fmt.Errorf("decode geyser block: %w", err)
		}
		return blockview.FromGeyserBlock(&b), nil
	default:
		return nil, fmt.Errorf("unknown block kind: %q", kind)
	}
}

// Summarize 遍历区块生成可读摘要，单笔交易的结构错误记录在该交易的 Error 中
func Summarize(block *blockview.Block, opt Options) *BlockSummary {
	summary := &BlockSummary{
		Slot:       block.Slot,
		ParentSlot: block.ParentSlot,
		Blockhash:  block.Blockhash,
		BlockTime:  block.BlockTime,
		TotalTxs:   block.Len(),
	}

	var txs iter.Seq[*blockview.Transaction]
	if opt.IncludeFailed {
		txs = block.Transactions()
	} else {
		txs = block.SuccessfulTransactions()
	}
	for tx := range txs {
		if tx == nil {
			continue
		}
		s := summarizeTx(tx, opt)
		summary.Instructions += len(s.Instructions)
		summary.Transactions = append(summary.Transactions, s)
	}
	return summary
}

func summarizeTx(tx *blockview.Transaction, opt Options) TxSummary {
	s := TxSummary{
		Index:   tx.Index(),
		Success: tx.IsSuccessful(),
		Vote:    tx.IsVote(),
	}
	if id, err := tx.ID(); err == nil {
		s.Signature = id
	}

	if opt.ShowAccounts {
		accounts, err := tx.ResolvedAccountsAsStrings()
		if err != nil {
			s.Error = err.Error()
			return s
		}
		s.Accounts = accounts
	}

	var (
		w   *blockview.Walker
		err error
	)
	if opt.CompiledOnly {
		w, err = tx.TopLevelInstructions()
	} else {
		w, err = tx.AllInstructionsDepthFirst()
	}
	if err != nil {
		s.Error = err.Error()
		return s
	}

	s.Instructions = make([]InstructionSummary, 0, w.Count())
	for v := range w.All() {
		ix, err := v.Resolve()
		if err != nil {
			s.Error = err.Error()
			break
		}
		s.Instructions = append(s.Instructions, summarizeInstruction(ix))
	}
	return s
}

func summarizeInstruction(ix blockview.ResolvedInstruction) InstructionSummary {
	pos := strconv.Itoa(ix.Position.TopIndex)
	if !ix.Position.IsRoot() {
		pos += "." + strconv.Itoa(ix.Position.InnerIndex)
	}
	out := InstructionSummary{
		Position:    pos,
		Program:     ix.ProgramID.String(),
		Accounts:    blockview.AddressStrings(ix.Accounts),
		Data:        base58.Encode(ix.Data),
		StackHeight: ix.StackHeight,
	}
	if pk, ok := ix.ProgramID.Pubkey(); ok {
		out.ProgramName = consts.ProgramName(pk)
	}
	return out
}
