package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 订单生命周期事件类型
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
)

// OrderEvent 订单生命周期事件
type OrderEvent struct {
	// 事件类型
	Type string `json:"type"`
	// 订单号
	OrderNumber string `json:"order_number"`
	// 订单 ID
	OrderID uint `json:"order_id"`
	// 用户 ID
	UserID uint `json:"user_id"`
	// 当前状态
	Status OrderStatus `json:"status"`
	// 流转前状态（仅状态变更事件）
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	// 订单总额
	TotalAmount decimal.Decimal `json:"total_amount"`
	// 事件时间
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher 订单事件发布接口。
// 发布在事务提交之后进行，失败只记录日志，不影响请求结果：
// 一致性由同步缓存失效保证，事件流只做通知。
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
