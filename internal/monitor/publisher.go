package monitor

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/AdminStatusFinance/seaport/internal/config"
)

// Publisher 将事件转发到外部消息系统。
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

// KafkaPublisher 同步写入 Kafka 主题。
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher 按配置创建 Kafka 写入端；未启用时返回 nil。
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	if !cfg.Enabled {
		return nil
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish 写入单条消息。
func (p *KafkaPublisher) Publish(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// Close 关闭写入端。
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
