package grpc

import (
	"context"
	"sort"
	"time"

	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/cenkalti/backoff/v4"

	"sol-blockview/internal/logic/progress"
	"sol-blockview/pkg/logger"
)

const (
	maxPendingRanges    = 200
	maxRangeSize        = 10000 // 单次 getBlocks 查询的最大跨度
	checkInterval       = 10 * time.Second
	defaultCheckDelay   = 30 * time.Second
	getBlocksTimeout    = 6 * time.Second
	getBlocksMaxRetries = 3
)

type SlotRange struct {
	From     uint64
	To       uint64
	SubmitAt time.Time
}

// blocksFetcher 返回 [from, to] 内实际出块的 slot 列表
type blocksFetcher func(ctx context.Context, from, to uint64) ([]uint64, error)

// SlotChecker 对 gRPC 推送中缺失的 slot 做延迟确认：
// 通过 RPC getBlocks 区分空块（leader 跳过）与漏扫，结果写入进度存储。
type SlotChecker struct {
	fetch    blocksFetcher
	progress *progress.ProgressManager // 可为 nil
	delay    time.Duration
	rangeCh  chan SlotRange
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSlotChecker(endpoint string, delay time.Duration, pm *progress.ProgressManager) *SlotChecker {
	client := rpc.NewRpcClient(endpoint)
	fetch := func(ctx context.Context, from, to uint64) ([]uint64, error) {
		resp, err := client.GetBlocks(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return resp.Result, nil
	}
	return newSlotChecker(fetch, delay, pm)
}

func newSlotChecker(fetch blocksFetcher, delay time.Duration, pm *progress.ProgressManager) *SlotChecker {
	if delay <= 0 {
		delay = defaultCheckDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SlotChecker{
		fetch:    fetch,
		progress: pm,
		delay:    delay,
		rangeCh:  make(chan SlotRange, 300),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *SlotChecker) Start() {
	s.run()
}

func (s *SlotChecker) Stop() {
	s.cancel()
}

// Submit 提交一个 slot 范围进行空块检测，闭区间 [from, to]
func (s *SlotChecker) Submit(from, to uint64) {
	if from > to {
		logger.Warnf("[SlotChecker] invalid slot range: from (%d) > to (%d)", from, to)
		return
	}
	select {
	case s.rangeCh <- SlotRange{From: from, To: to, SubmitAt: time.Now()}:
	default:
		logger.Warnf("[SlotChecker] slot range channel full, dropped: [%d, %d]", from, to)
	}
}

func (s *SlotChecker) run() {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	ranges := make([]SlotRange, 0, 32)
	for {
		select {
		case <-s.ctx.Done():
			logger.Infof("[SlotChecker] stopped")
			return

		case r := <-s.rangeCh:
			if len(ranges) >= maxPendingRanges {
				logger.Warnf("[SlotChecker] too many pending ranges (%d), drop [%d, %d]", len(ranges), r.From, r.To)
				continue
			}
			ranges = append(ranges, r)

		case now := <-ticker.C:
			drainTicker(ticker)
			var ready []SlotRange
			ready, ranges = splitReady(ranges, now, s.delay)
			if len(ready) > 0 {
				// 串行执行，防止 goroutine 累积
				s.report(s.checkSlotRanges(ready))
			}
		}
	}
}

// splitReady 将提交时间超过 delay 的范围分离出来
func splitReady(ranges []SlotRange, now time.Time, delay time.Duration) (ready, pending []SlotRange) {
	for _, r := range ranges {
		if now.Sub(r.SubmitAt) >= delay {
			ready = append(ready, r)
		} else {
			pending = append(pending, r)
		}
	}
	return ready, pending
}

func drainTicker(t *time.Ticker) {
	for {
		select {
		case <-t.C:
		default:
			return
		}
	}
}

// checkSlotRanges 返回每个可确认 slot 的状态（SlotEmpty / SlotMissing），RPC 失败的范围不出现在结果中
func (s *SlotChecker) checkSlotRanges(ranges []SlotRange) map[uint64]progress.SlotStatus {
	merged := mergeRanges(ranges)
	if len(merged) == 0 {
		return nil
	}

	total := 0
	for _, r := range ranges {
		total += int(r.To - r.From + 1)
	}
	empty := make(map[uint64]struct{}, total)
	var failedRanges []SlotRange

	for _, r := range merged {
		if s.ctx.Err() != nil {
			return nil
		}
		blocks, err := s.getBlocksWithRetry(r.From, r.To)
		if err != nil {
			logger.Warnf("[SlotChecker] getBlocks [%d, %d] failed after retries: %v", r.From, r.To, err)
			failedRanges = append(failedRanges, r)
			continue
		}
		fillEmptySlots(r.From, r.To, blocks, empty)
	}

	result := make(map[uint64]progress.SlotStatus, total)
	for _, r := range ranges {
		for slot := r.From; slot <= r.To; slot++ {
			if slotInFailedRanges(slot, failedRanges) {
				continue
			}
			if _, ok := empty[slot]; ok {
				result[slot] = progress.SlotEmpty
			} else {
				result[slot] = progress.SlotMissing
			}
		}
	}
	return result
}

func (s *SlotChecker) report(result map[uint64]progress.SlotStatus) {
	for slot, status := range result {
		if status == progress.SlotMissing {
			logger.Errorf("[SlotChecker] slot %d is missing，疑似漏扫", slot)
		} else {
			logger.Debugf("[SlotChecker] slot %d is confirmed empty", slot)
		}
		if s.progress == nil {
			continue
		}
		if err := s.progress.MarkSlotStatus(s.ctx, slot, status); err != nil {
			logger.Warnf("[SlotChecker] mark slot %d %s failed: %v", slot, status, err)
		}
	}
}

// slotInFailedRanges 二分查找 slot 是否落在失败范围内（failedRanges 来自 mergeRanges，有序且不相交）
func slotInFailedRanges(slot uint64, failedRanges []SlotRange) bool {
	i := sort.Search(len(failedRanges), func(i int) bool {
		return failedRanges[i].From > slot
	})
	if i == 0 {
		return false
	}
	r := failedRanges[i-1]
	return slot >= r.From && slot <= r.To
}

func (s *SlotChecker) getBlocksWithRetry(from, to uint64) (blocks []uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[SlotChecker] panic during getBlocks: %v", r)
			blocks, err = nil, context.Canceled
		}
	}()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, getBlocksMaxRetries-1), s.ctx)

	return backoff.RetryWithData[[]uint64](func() ([]uint64, error) {
		ctx, cancel := context.WithTimeout(s.ctx, getBlocksTimeout)
		defer cancel()
		return s.fetch(ctx, from, to)
	}, policy)
}

// mergeRanges 拆分并合并 SlotRange，使每段长度不超过 maxRangeSize，且尽可能合并相邻或重叠段：
//  1. 拆分：每个输入范围按 maxRangeSize 拆成多段；
//  2. 排序：按 From 升序，From 相同时按 To 升序；
//  3. 合并：相邻或重叠的段合并，合并后仍受 maxRangeSize 限制。
func mergeRanges(ranges []SlotRange) []SlotRange {
	if len(ranges) == 0 {
		return nil
	}

	split := make([]SlotRange, 0, len(ranges))
	for _, r := range ranges {
		for from := r.From; ; {
			maxTo := from + maxRangeSize - 1
			if r.To <= maxTo {
				split = append(split, SlotRange{From: from, To: r.To, SubmitAt: r.SubmitAt})
				break
			}
			split = append(split, SlotRange{From: from, To: maxTo, SubmitAt: r.SubmitAt})
			from = maxTo + 1
		}
	}

	sort.Slice(split, func(i, j int) bool {
		if split[i].From == split[j].From {
			return split[i].To < split[j].To
		}
		return split[i].From < split[j].From
	})

	merged := make([]SlotRange, 1, len(split))
	merged[0] = split[0]
	for _, r := range split[1:] {
		last := &merged[len(merged)-1]
		if r.To <= last.To {
			continue // 已被覆盖
		}
		if r.From > last.To+1 {
			merged = append(merged, r)
			continue
		}
		maxTo := last.From + maxRangeSize - 1
		if r.To <= maxTo {
			last.To = r.To
			continue
		}
		last.To = maxTo
		merged = append(merged, SlotRange{From: maxTo + 1, To: r.To, SubmitAt: r.SubmitAt})
	}
	return merged
}

// fillEmptySlots 将 [from, to] 中不在 confirmed 里的 slot 写入 empty
func fillEmptySlots(from, to uint64, confirmed []uint64, empty map[uint64]struct{}) {
	if len(confirmed) == 0 {
		for slot := from; slot <= to; slot++ {
			empty[slot] = struct{}{}
		}
		return
	}

	exists := make(map[uint64]struct{}, len(confirmed))
	for _, slot := range confirmed {
		exists[slot] = struct{}{}
	}
	if len(exists) >= int(to-from+1) {
		return
	}
	for slot := from; slot <= to; slot++ {
		if _, ok := exists[slot]; !ok {
			empty[slot] = struct{}{}
		}
	}
}
