package spltoken

import (
	"sol-blockview/internal/logic/core"
	"sol-blockview/internal/logic/eventparser/common"
)

func extractTransferEvent(ctx *common.ParserContext, ix *core.FlatInstruction) *core.Event {
	event, ok := parseTransfer(ix)
	if !ok {
		logMalformed("Transfer", ix, ctx.TxHashString())
		return nil
	}
	event.Base = ctx.NewBase(ix)
	event.Program = ix.ProgramID
	return &core.Event{
		ID:        ctx.EventID(ix),
		EventType: core.EventTypeTransfer,
		Key:       event.Source[:],
		Payload:   event,
	}
}

func extractMintToEvent(ctx *common.ParserContext, ix *core.FlatInstruction) *core.Event {
	event, ok := parseMintTo(ix)
	if !ok {
		logMalformed("MintTo", ix, ctx.TxHashString())
		return nil
	}
	event.Base = ctx.NewBase(ix)
	event.Program = ix.ProgramID
	return &core.Event{
		ID:        ctx.EventID(ix),
		EventType: core.EventTypeMintTo,
		Key:       event.Mint[:],
		Payload:   event,
	}
}

func extractBurnEvent(ctx *common.ParserContext, ix *core.FlatInstruction) *core.Event {
	event, ok := parseBurn(ix)
	if !ok {
		logMalformed("Burn", ix, ctx.TxHashString())
		return nil
	}
	event.Base = ctx.NewBase(ix)
	event.Program = ix.ProgramID
	return &core.Event{
		ID:        ctx.EventID(ix),
		EventType: core.EventTypeBurn,
		Key:       event.Mint[:],
		Payload:   event,
	}
}
