// Package messaging 提供订单事件的 Kafka 发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/mq"
)

// KafkaEventPublisher 将订单事件写入 Kafka，按订单号作为分区 key，
// 同一订单的事件保持有序
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishOrderEvent 发布订单事件
func (p *KafkaEventPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.OrderNumber, event)
}

// NoopEventPublisher 空实现，Kafka 未启用时作为降级方案
type NoopEventPublisher struct{}

// PublishOrderEvent 丢弃事件
func (NoopEventPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	return nil
}
