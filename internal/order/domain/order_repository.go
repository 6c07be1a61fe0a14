package domain

import (
	"context"

	"gorm.io/gorm"
)

// OrderRepository 订单仓储接口。订单与订单项始终作为一个聚合读写
type OrderRepository interface {
	// Save 保存订单及其订单项
	Save(ctx context.Context, order *Order) error
	// GetByID 按 ID 获取订单（含订单项）
	GetByID(ctx context.Context, id uint) (*Order, error)
	// GetByOrderNumber 按订单号获取订单（含订单项）
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// ListByUser 获取用户的全部订单（含订单项）
	ListByUser(ctx context.Context, userID uint) ([]*Order, error)
	// ListAll 获取全部订单（含订单项）
	ListAll(ctx context.Context) ([]*Order, error)
	// UpdateStatus 更新订单状态
	UpdateStatus(ctx context.Context, id uint, status OrderStatus) error
	// DeleteAll 清空订单表（仅初始化数据时使用）
	DeleteAll(ctx context.Context) error
	// WithTx 返回绑定到指定事务的仓储
	WithTx(tx *gorm.DB) OrderRepository
}
