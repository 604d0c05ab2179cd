package mq

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaJob 表示一条需要发送的 Kafka 消息，通常对应一个分区的 EventBatch
type KafkaJob struct {
	Topic     string
	Partition int32
	Key       []byte
	Value     []byte
}

// KafkaSendResult 单个 job 的投递结果
type KafkaSendResult struct {
	Job    *KafkaJob
	Offset kafka.Offset // 成功时为写入位置
	Err    error
}

// SendKafkaJobs 投递一个 slot 的全部 job，所有 job 共用一个 delivery channel，
// 通过 Opaque 携带 job 下标匹配 ack。返回结果与 jobs 按下标一一对应。
// 超过 timeout 或 ctx 结束时，未收到 ack 的 job 记为失败。
func SendKafkaJobs(
	ctx context.Context,
	producer *kafka.Producer,
	jobs []*KafkaJob,
	timeout time.Duration,
) []KafkaSendResult {
	results := make([]KafkaSendResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	// 容量等于 job 数，超时后未读取的 ack 也不会阻塞 librdkafka 回调
	deliveryChan := make(chan kafka.Event, len(jobs))
	acked := make([]bool, len(jobs))
	pending := 0
	for i, job := range jobs {
		results[i].Job = job
		err := producer.Produce(&kafka.Message{
			TopicPartition: kafka.TopicPartition{
				Topic:     &job.Topic,
				Partition: job.Partition,
			},
			Key:    job.Key,
			Value:  job.Value,
			Opaque: i,
		}, deliveryChan)
		if err != nil {
			results[i].Err = fmt.Errorf("produce error: %w", err)
			acked[i] = true
			continue
		}
		pending++
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for pending > 0 {
		select {
		case e := <-deliveryChan:
			i, ok := applyDelivery(results, acked, e)
			if ok {
				acked[i] = true
				pending--
			}
		case <-timer.C:
			markUnacked(results, acked, fmt.Errorf("delivery timeout (>%v)", timeout))
			return results
		case <-ctx.Done():
			markUnacked(results, acked, fmt.Errorf("ctx cancelled: %w", ctx.Err()))
			return results
		}
	}
	return results
}

// applyDelivery 将一条 delivery report 写入对应 job 的结果，返回 job 下标
func applyDelivery(results []KafkaSendResult, acked []bool, e kafka.Event) (int, bool) {
	msg, ok := e.(*kafka.Message)
	if !ok {
		return 0, false
	}
	i, ok := msg.Opaque.(int)
	if !ok || i < 0 || i >= len(results) || acked[i] {
		return 0, false
	}
	results[i].Err = msg.TopicPartition.Error
	results[i].Offset = msg.TopicPartition.Offset
	return i, true
}

func markUnacked(results []KafkaSendResult, acked []bool, err error) {
	for i := range results {
		if !acked[i] {
			results[i].Err = err
		}
	}
}

// FirstError 返回失败 job 数与首个错误
func FirstError(results []KafkaSendResult) (int, error) {
	n := 0
	var first error
	for _, r := range results {
		if r.Err == nil {
			continue
		}
		if first == nil {
			first = r.Err
		}
		n++
	}
	return n, first
}

// FailedPartitions 返回发送失败的分区，升序
func FailedPartitions(results []KafkaSendResult) []int32 {
	var out []int32
	for _, r := range results {
		if r.Err != nil && r.Job != nil {
			out = append(out, r.Job.Partition)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
