package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"

	"sol-blockview/internal/blockview"
	"sol-blockview/internal/consts"
	"sol-blockview/internal/logic/core"
	"sol-blockview/internal/logic/dispatcher"
	"sol-blockview/internal/logic/eventparser"
	"sol-blockview/internal/logic/flatten"
	"sol-blockview/internal/logic/progress"
	"sol-blockview/internal/mq"
	"sol-blockview/internal/svc"
	"sol-blockview/internal/types"
	"sol-blockview/pkg/utils"
)

const (
	defaultSlotTimeout      = 5 * time.Second
	defaultEventSendTimeout = 3 * time.Second
)

type BlockProcessor struct {
	sc          *svc.GrpcServiceContext
	blockChan   chan *pb.SubscribeUpdateBlock // 接收 block 的 channel
	slotChecker *SlotChecker                  // 可为 nil
	lastSlot    uint64                        // 上一个收到的 slot，用于检测断档
	ctx         context.Context
	cancel      func(err error)
	logx.Logger
}

// BlockResult 单个区块的解析结果
type BlockResult struct {
	TxCtx     *core.TxContext
	Events    []*core.Event // 按交易顺序排列
	TotalTxs  int
	ValidTxs  int // 成功且通过过滤的交易
	FailedTxs int // 结构错误，无法展平
}

type parsedTx struct {
	events []*core.Event
	err    error
}

func NewBlockProcessor(sc *svc.GrpcServiceContext, blockChan chan *pb.SubscribeUpdateBlock, slotChecker *SlotChecker) *BlockProcessor {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &BlockProcessor{
		sc:          sc,
		blockChan:   blockChan,
		slotChecker: slotChecker,
		Logger:      logx.WithContext(ctx).WithFields(logx.Field("service", "block_processor")),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (p *BlockProcessor) Start() {
	for {
		select {
		case <-p.ctx.Done():
			return // 退出
		case block, ok := <-p.blockChan:
			if !ok {
				return
			}
			p.procBlock(block)
			if len(p.blockChan) > 10 {
				p.Debugf("block chan len:%v", len(p.blockChan))
			}
		}
	}
}

func (p *BlockProcessor) Stop() {
	p.cancel(errors.New("service stop"))
}

func (p *BlockProcessor) procBlock(update *pb.SubscribeUpdateBlock) {
	startTime := time.Now()
	block := blockview.FromGeyserBlock(update)
	defer func() {
		p.Infof("区块处理总耗时: %v, slot: %d", time.Since(startTime), block.Slot)
	}()

	p.detectGap(block.Slot)

	conf := p.sc.Config.ProcessorConf
	ctx, cancel := context.WithTimeout(p.ctx, durationOrDefault(conf.SlotTimeoutMs, defaultSlotTimeout))
	defer cancel()

	// 1. 判重
	pm := p.sc.ProgressManager
	if pm != nil {
		ok, err := pm.ShouldProcessSlot(ctx, block.Slot, block.BlockTime)
		if err != nil {
			p.Errorf("查询 slot 进度失败，继续处理: slot=%d, err=%v", block.Slot, err)
		} else if !ok {
			p.Infof("slot %d 已处理，跳过", block.Slot)
			return
		}
	}

	// 2. 解析
	result := ParseBlock(block, conf.SkipVote, conf.Workers)
	p.Infof("总tx数量: %v, 有效tx数量: %v, 结构错误tx数量: %v, 总事件数量: %v",
		result.TotalTxs, result.ValidTxs, result.FailedTxs, len(result.Events))

	// 3. 发送
	if err := p.publish(ctx, result); err != nil {
		// 不写进度，回放时重新处理
		p.Errorf("[严重] 事件发送失败: slot=%d, err=%v", block.Slot, err)
		return
	}

	// 4. 记录进度
	if pm != nil {
		if err := pm.MarkSlotStatus(ctx, block.Slot, progress.SlotProcessed); err != nil {
			p.Errorf("写入 slot 进度失败: slot=%d, err=%v", block.Slot, err)
		}
	}
}

// detectGap 发现 slot 断档时提交给 SlotChecker 延迟确认
func (p *BlockProcessor) detectGap(slot uint64) {
	last := p.lastSlot
	if slot > last {
		p.lastSlot = slot
	}
	if last == 0 || slot <= last+1 {
		return
	}
	p.Infof("slot 断档: (%d, %d)", last, slot)
	if p.slotChecker != nil {
		p.slotChecker.Submit(last+1, slot-1)
	}
}

func (p *BlockProcessor) publish(ctx context.Context, result *BlockResult) error {
	producer := p.sc.Producer
	if producer == nil || len(result.Events) == 0 {
		return nil
	}

	kafkaConf := p.sc.Config.KafkaProducerConf
	jobs, stats, err := dispatcher.BuildEventKafkaJobs(result.TxCtx, kafkaConf.Topic, kafkaConf.Partitions, result.Events)
	if err != nil {
		return err
	}

	sendStart := time.Now()
	timeout := durationOrDefault(p.sc.Config.ProcessorConf.EventSendTimeoutMs, defaultEventSendTimeout)
	results := mq.SendKafkaJobs(ctx, producer, jobs, timeout)
	if n, err := mq.FirstError(results); n > 0 {
		return fmt.Errorf("%d/%d kafka jobs failed, partitions=%v: %w", n, len(jobs), mq.FailedPartitions(results), err)
	}
	p.Infof("事件发送耗时: %v, 分区数: %d, 事件数: %d, 分类: %v", time.Since(sendStart), len(jobs), stats.Total, stats.ByType)
	return nil
}

// ParseBlock 过滤失败交易（可选跳过 vote），并发展平并提取事件。
// 单笔交易结构错误只计数，不影响区块内其他交易。
func ParseBlock(block *blockview.Block, skipVote bool, workers int) *BlockResult {
	txCtx := buildTxContext(block)

	result := &BlockResult{TxCtx: txCtx, TotalTxs: block.Len()}
	txs := block.TakeSuccessfulTransactions()
	if skipVote {
		kept := txs[:0]
		for _, tx := range txs {
			if !tx.IsVote() {
				kept = append(kept, tx)
			}
		}
		txs = kept
	}
	result.ValidTxs = len(txs)

	if workers <= 0 {
		workers = consts.CpuCount + 2
	}
	parsed := utils.ParallelMap(txs, workers, func(tx *blockview.Transaction) parsedTx {
		return parseTx(txCtx, tx)
	})

	total := 0
	for _, r := range parsed {
		total += len(r.events)
	}
	result.Events = make([]*core.Event, 0, total)
	for i, r := range parsed {
		if r.err != nil {
			result.FailedTxs++
			logx.Debugf("交易展平失败: slot=%d, tx=%d, err=%v", block.Slot, txs[i].Index(), r.err)
			continue
		}
		result.Events = append(result.Events, r.events...)
	}
	return result
}

func parseTx(txCtx *core.TxContext, tx *blockview.Transaction) parsedTx {
	flat, err := flatten.Flatten(txCtx, tx)
	if err != nil {
		return parsedTx{err: err}
	}
	return parsedTx{events: eventparser.ExtractEventsFromTx(flat)}
}

func buildTxContext(block *blockview.Block) *core.TxContext {
	// 尝试解析 blockHash，如果失败只打日志但继续执行
	blockHash, err := types.HashFromBase58(block.Blockhash)
	if err != nil {
		logx.Errorf("[严重] BlockHash 无法解析，将使用零值：slot=%d, blockhash=%s, err=%v",
			block.Slot, block.Blockhash, err)
	}
	return &core.TxContext{
		BlockTime:   block.BlockTime,
		Slot:        block.Slot,
		ParentSlot:  block.ParentSlot,
		BlockHeight: block.BlockHeight,
		BlockHash:   blockHash, // 若解析失败为零值
	}
}

func durationOrDefault(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}
