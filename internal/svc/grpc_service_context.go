package svc

import (
	"context"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"

	"sol-blockview/internal/config"
	"sol-blockview/internal/logic/progress"
	"sol-blockview/internal/mq"
	"sol-blockview/pkg/logger"
)

// GrpcServiceContext 包含GRPC服务资源
type GrpcServiceContext struct {
	Config          config.GrpcConfig
	Producer        *kafka.Producer           // publish 关闭时为 nil
	Redis           redis.UniversalClient     // 未配置 redis_addr 时为 nil
	ProgressManager *progress.ProgressManager // 依赖 Redis，可为 nil
}

// NewGrpcServiceContext 创建一个新的 GRPC 服务上下文
func NewGrpcServiceContext(c config.GrpcConfig) (*GrpcServiceContext, error) {
	ctx := &GrpcServiceContext{Config: c}

	// 1. Kafka 生产者
	if c.ProcessorConf.Publish {
		producer, err := mq.NewKafkaProducer(c.KafkaProducerConf.ToKafkaOption())
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			return nil, err
		}
		ctx.Producer = producer
	}

	// 2. Redis + 进度管理
	if c.RedisAddr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{c.RedisAddr},
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Errorf("Redis 连接失败: %v", err)
			ctx.Close()
			_ = rdb.Close()
			return nil, err
		}
		ctx.Redis = rdb
		ctx.ProgressManager = progress.NewProgressManager(progress.NewRedisProgressStore(rdb), c.ProgressConf.RecentThresholdSec)
	}

	logger.Infof("GRPC 服务上下文初始化完成, publish=%v, progress=%v", ctx.Producer != nil, ctx.ProgressManager != nil)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *GrpcServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
}
