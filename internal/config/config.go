package config

import (
	"sol-blockview/internal/mq"
	"sol-blockview/pkg/logger"
)

type LogConfig struct {
	Format   string `json:"format,optional" yaml:"format"`     // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional" yaml:"log_dir"`   // 日志目录（可为相对路径或绝对路径）
	Level    string `json:"level,optional" yaml:"level"`       // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional" yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers    string `json:"brokers,optional" yaml:"brokers"`       // Kafka broker 地址，多个用英文逗号分隔
	BatchSize  int    `json:"batch_size,optional" yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs   int    `json:"linger_ms,optional" yaml:"linger_ms"`   // 批处理最大延迟（毫秒）
	Topic      string `json:"topic,optional" yaml:"topic"`           // 指令事件 topic
	Partitions int    `json:"partitions,optional" yaml:"partitions"` // topic 分区数
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
		Topics: []mq.TopicOption{
			{Topic: c.Topic, Partitions: c.Partitions},
		},
	}
}

// ProcessorConfig 区块处理相关配置
type ProcessorConfig struct {
	Workers            int  `json:"workers,optional" yaml:"workers"`                             // 单区块内并发解析的 goroutine 数，<=0 时按 CPU 数计算
	SkipVote           bool `json:"skip_vote,optional" yaml:"skip_vote"`                         // 是否跳过 vote 交易
	Publish            bool `json:"publish,optional" yaml:"publish"`                             // 是否将事件发送到 Kafka
	SlotTimeoutMs      int  `json:"slot_timeout_ms,optional" yaml:"slot_timeout_ms"`             // 单个 slot 发送 + 记录进度的最大耗时
	EventSendTimeoutMs int  `json:"event_send_timeout_ms,optional" yaml:"event_send_timeout_ms"` // 单个 slot 全部分区 job 等待 ack 的超时时间
}

// SlotCheckerConfig 漏块检测配置
type SlotCheckerConfig struct {
	RpcEndpoint         string `json:"rpc_endpoint,optional" yaml:"rpc_endpoint"`                     // Solana JSON-RPC 地址，为空时不启用
	DelayBeforeCheckSec int    `json:"delay_before_check_sec,optional" yaml:"delay_before_check_sec"` // 提交后延迟多久再查询（秒）
}

// GrpcConfig 是主配置结构体，用于驱动索引服务
type GrpcConfig struct {
	LogConf           LogConfig           `json:"logger,optional" yaml:"logger"`                 // 日志配置
	KafkaProducerConf KafkaProducerConfig `json:"kafka_producer,optional" yaml:"kafka_producer"` // Kafka 生产者配置
	ProcessorConf     ProcessorConfig     `json:"processor,optional" yaml:"processor"`           // 区块处理配置
	SlotCheckerConf   SlotCheckerConfig   `json:"slot_checker,optional" yaml:"slot_checker"`     // 漏块检测配置

	RedisAddr    string `json:"redis_addr,optional" yaml:"redis_addr"` // Redis 地址，为空时不记录进度
	ProgressConf struct {
		RecentThresholdSec int `json:"recent_threshold_sec,optional" yaml:"recent_threshold_sec"` // 判定为“近期 block”的时间阈值（秒）
	} `json:"progress,optional" yaml:"progress"`

	// gRPC 客户端连接相关配置
	Grpc struct {
		Endpoint string `json:"endpoint,optional" yaml:"endpoint"` // gRPC 服务端地址
		XToken   string `json:"x_token,optional" yaml:"x_token"`   // x-token 认证

		// 订阅过滤
		AccountInclude []string `json:"account_include,optional" yaml:"account_include"` // 区块订阅账户过滤，为空时使用内置列表
		Commitment     string   `json:"commitment,optional" yaml:"commitment"`           // processed / confirmed / finalized，默认 confirmed

		// 应用级逻辑心跳（ping）配置
		StreamPingIntervalSec int `json:"stream_ping_interval_sec,optional" yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

		// gRPC Keepalive 底层连接检测配置
		KeepalivePingIntervalSec int `json:"keepalive_ping_interval_sec,optional" yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
		KeepalivePingTimeoutSec  int `json:"keepalive_ping_timeout_sec,optional" yaml:"keepalive_ping_timeout_sec"`   // 底层 keepalive 超时（秒）

		// gRPC 窗口大小调优（用于大数据流推送）
		InitialWindowSize     int `json:"initial_window_size,optional" yaml:"initial_window_size"`           // 单流窗口大小（字节）
		InitialConnWindowSize int `json:"initial_conn_window_size,optional" yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

		// 消息体大小限制
		MaxCallSendMsgSize int `json:"max_call_send_msg_size,optional" yaml:"max_call_send_msg_size"` // 单条消息最大发送字节数
		MaxCallRecvMsgSize int `json:"max_call_recv_msg_size,optional" yaml:"max_call_recv_msg_size"` // 单条消息最大接收字节数

		// 超时与重连策略
		ReconnectIntervalSec int `json:"reconnect_interval_sec,optional" yaml:"reconnect_interval_sec"` // 重连最小间隔（秒）
		ConnectTimeoutSec    int `json:"connect_timeout_sec,optional" yaml:"connect_timeout_sec"`       // 连接建立超时（秒）
		SendTimeoutSec       int `json:"send_timeout_sec,optional" yaml:"send_timeout_sec"`             // 发送超时（秒）
		BlockRecvTimeoutSec  int `json:"block_recv_timeout_sec,optional" yaml:"block_recv_timeout_sec"` // 超过该时间未收到 block 则重连（秒）
	} `json:"grpc,optional" yaml:"grpc"`
}
