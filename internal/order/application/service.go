// Package application 实现订单工作流：创建、状态流转、取消与带缓存的查询。
// 每个变更操作在单个数据库事务内执行，提交后同步刷新相关缓存区域，
// 再发布事件并返回响应。
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	identitydomain "github.com/wyfcoding/storefront/internal/identity/domain"
	"github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/errs"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"gorm.io/gorm"
)

// TxRunner 事务执行接口，由 pkg/db.DB 实现
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*gorm.DB) error) error
}

// ReadCache 读缓存接口，由 pkg/cache.RegionCache 实现
type ReadCache interface {
	GetJSON(ctx context.Context, region, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, region, key string, value interface{}) error
	FlushRegions(ctx context.Context, regions ...string) error
}

// OrderService 订单工作流应用服务
type OrderService struct {
	tx       TxRunner
	orders   domain.OrderRepository
	products catalogdomain.ProductRepository
	users    identitydomain.UserRepository
	cache    ReadCache
	events   domain.EventPublisher
	metrics  *metrics.Metrics
}

// NewOrderService 创建订单工作流应用服务，metrics 可以为 nil
func NewOrderService(
	tx TxRunner,
	orders domain.OrderRepository,
	products catalogdomain.ProductRepository,
	users identitydomain.UserRepository,
	readCache ReadCache,
	events domain.EventPublisher,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		tx:       tx,
		orders:   orders,
		products: products,
		users:    users,
		cache:    readCache,
		events:   events,
		metrics:  m,
	}
}

// OrderItemRequest 订单行请求
type OrderItemRequest struct {
	ProductID uint
	Quantity  int
}

// CreateOrderCommand 创建订单命令
type CreateOrderCommand struct {
	UserID          uint
	ShippingAddress string
	Notes           string
	Items           []OrderItemRequest
}

// CreateOrder 创建订单。
// 整个流程在一个事务内执行：解析用户、逐行原子扣减库存并以当时价格
// 生成订单项、重算总额、保存聚合。任何一行失败则整个事务回滚，
// 已扣减的库存一并恢复，不留下部分提交。
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*OrderView, error) {
	if len(cmd.Items) == 0 {
		return nil, &errs.InvalidOperationError{Reason: "order must contain at least one item"}
	}
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return nil, &errs.InvalidOperationError{Reason: "item quantity must be positive"}
		}
	}

	logger.Info(ctx, "Creating order", "user_id", cmd.UserID, "items", len(cmd.Items))

	var view *OrderView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)

		user, err := users.GetByID(ctx, cmd.UserID)
		if err != nil {
			return err
		}

		order := domain.NewOrder(cmd.UserID, cmd.ShippingAddress, cmd.Notes)

		for _, line := range cmd.Items {
			product, err := products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}

			reserved, err := products.ReserveStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !reserved {
				return &errs.InsufficientStockError{
					ProductName: product.Name,
					Requested:   line.Quantity,
					Available:   product.Stock,
				}
			}

			// 单价与小计在扣减库存的同一时刻定格
			order.AddItem(product.ID, product.Name, line.Quantity, product.Price)
		}

		order.CalculateTotal()

		if err := orders.Save(ctx, order); err != nil {
			return err
		}

		view = NewOrderView(order, user)
		return nil
	})
	if err != nil {
		var insufficient *errs.InsufficientStockError
		if errors.As(err, &insufficient) {
			s.metrics.IncStockRejections()
			logger.Warn(ctx, "Order rejected for insufficient stock",
				"user_id", cmd.UserID,
				"product", insufficient.ProductName,
				"requested", insufficient.Requested,
				"available", insufficient.Available,
			)
		}
		return nil, err
	}

	// 库存变了，商品缓存也必须一起失效
	if err := s.cache.FlushRegions(ctx, cache.RegionOrders, cache.RegionUserOrders, cache.RegionProducts); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.OrderEvent{
		Type:        domain.EventOrderCreated,
		OrderNumber: view.OrderNumber,
		OrderID:     view.ID,
		UserID:      view.UserID,
		Status:      view.Status,
		TotalAmount: view.TotalAmount,
		OccurredAt:  time.Now(),
	})

	s.metrics.IncOrdersCreated()
	logger.Info(ctx, "Order created successfully", "order_number", view.OrderNumber, "total", view.TotalAmount)
	return view, nil
}

// UpdateOrderStatus 订单状态流转。终态（CANCELLED、DELIVERED）订单拒绝任何流转
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, newStatus domain.OrderStatus) (*OrderView, error) {
	var (
		view     *OrderView
		previous domain.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		users := s.users.WithTx(tx)

		order, err := orders.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !order.CanTransitionTo(newStatus) {
			return &errs.InvalidStateTransitionError{
				Current: string(order.Status),
				Target:  string(newStatus),
			}
		}

		if err := orders.UpdateStatus(ctx, id, newStatus); err != nil {
			return err
		}

		user, err := users.GetByID(ctx, order.UserID)
		if err != nil {
			return err
		}

		previous = order.Status
		order.Status = newStatus
		order.UpdatedAt = time.Now()
		view = NewOrderView(order, user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.FlushRegions(ctx, cache.RegionOrders, cache.RegionUserOrders); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, domain.OrderEvent{
		Type:           domain.EventOrderStatusChanged,
		OrderNumber:    view.OrderNumber,
		OrderID:        view.ID,
		UserID:         view.UserID,
		Status:         view.Status,
		PreviousStatus: previous,
		TotalAmount:    view.TotalAmount,
		OccurredAt:     time.Now(),
	})

	s.metrics.IncStatusTransitions()
	logger.Info(ctx, "Order status updated", "order_id", id, "from", previous, "to", newStatus)
	return view, nil
}

// CancelOrder 取消订单。创建时扣减的库存逐行回补，是创建的结构性逆操作；
// 已发货/已签收的订单拒绝取消，重复取消被终态检查直接挡下
func (s *OrderService) CancelOrder(ctx context.Context, id uint) error {
	var event domain.OrderEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		products := s.products.WithTx(tx)

		order, err := orders.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if !order.CanBeCancelled() {
			return &errs.InvalidOperationError{
				Reason: fmt.Sprintf("cannot cancel order that is already %s", order.Status),
			}
		}

		for _, item := range order.Items {
			if err := products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := orders.UpdateStatus(ctx, id, domain.OrderStatusCancelled); err != nil {
			return err
		}

		event = domain.OrderEvent{
			Type:        domain.EventOrderCancelled,
			OrderNumber: order.OrderNumber,
			OrderID:     order.ID,
			UserID:      order.UserID,
			Status:      domain.OrderStatusCancelled,
			TotalAmount: order.TotalAmount,
			OccurredAt:  time.Now(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 库存变了，商品缓存也必须一起失效
	if err := s.cache.FlushRegions(ctx, cache.RegionOrders, cache.RegionUserOrders, cache.RegionProducts); err != nil {
		return err
	}

	s.publishEvent(ctx, event)

	s.metrics.IncOrdersCancelled()
	logger.Info(ctx, "Order cancelled", "order_id", id)
	return nil
}

// GetOrder 按 ID 获取订单视图，读穿缓存；未命中实体不缓存
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*OrderView, error) {
	key := fmt.Sprintf("id:%d", id)

	var cached OrderView
	if hit, _ := s.cache.GetJSON(ctx, cache.RegionOrders, key, &cached); hit {
		return &cached, nil
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view, err := s.buildView(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.RegionOrders, key, view); err != nil {
		logger.Warn(ctx, "Failed to populate order cache", "key", key, "error", err)
	}
	return view, nil
}

// GetOrderByNumber 按订单号获取订单视图，读穿缓存
func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderView, error) {
	key := "number:" + orderNumber

	var cached OrderView
	if hit, _ := s.cache.GetJSON(ctx, cache.RegionOrders, key, &cached); hit {
		return &cached, nil
	}

	order, err := s.orders.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	view, err := s.buildView(ctx, order)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.RegionOrders, key, view); err != nil {
		logger.Warn(ctx, "Failed to populate order cache", "key", key, "error", err)
	}
	return view, nil
}

// ListOrdersForUser 获取用户订单视图列表，读穿缓存
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint) ([]*OrderView, error) {
	key := fmt.Sprintf("user:%d", userID)

	var cached []*OrderView
	if hit, _ := s.cache.GetJSON(ctx, cache.RegionUserOrders, key, &cached); hit {
		return cached, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, NewOrderView(order, user))
	}

	if err := s.cache.SetJSON(ctx, cache.RegionUserOrders, key, views); err != nil {
		logger.Warn(ctx, "Failed to populate user orders cache", "key", key, "error", err)
	}
	return views, nil
}

// ListAllOrders 获取全部订单视图，不走缓存
func (s *OrderService) ListAllOrders(ctx context.Context) ([]*OrderView, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// 批量解析用户，避免逐单查询
	idSet := make(map[uint]struct{}, len(orders))
	ids := make([]uint, 0, len(orders))
	for _, order := range orders {
		if _, ok := idSet[order.UserID]; !ok {
			idSet[order.UserID] = struct{}{}
			ids = append(ids, order.UserID)
		}
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	usersByID := make(map[uint]*identitydomain.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	views := make([]*OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, NewOrderView(order, usersByID[order.UserID]))
	}
	return views, nil
}

// buildView 加载用户信息并构造订单视图
func (s *OrderService) buildView(ctx context.Context, order *domain.Order) (*OrderView, error) {
	user, err := s.users.GetByID(ctx, order.UserID)
	if err != nil {
		if errs.IsNotFound(err) {
			// 用户被删除的历史订单仍可返回，视图缺省用户信息
			return NewOrderView(order, nil), nil
		}
		return nil, err
	}
	return NewOrderView(order, user), nil
}

// publishEvent 发布订单事件，失败只记录日志
func (s *OrderService) publishEvent(ctx context.Context, event domain.OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		logger.Error(ctx, "Failed to publish order event",
			"type", event.Type,
			"order_number", event.OrderNumber,
			"error", err,
		)
	}
}
