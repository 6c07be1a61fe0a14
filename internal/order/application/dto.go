package application

import (
	"time"

	"github.com/shopspring/decimal"
	identitydomain "github.com/wyfcoding/storefront/internal/identity/domain"
	"github.com/wyfcoding/storefront/internal/order/domain"
)

// OrderItemView 订单项视图
type OrderItemView struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderView 面向调用方的订单视图
type OrderView struct {
	ID              uint               `json:"id"`
	OrderNumber     string             `json:"order_number"`
	UserID          uint               `json:"user_id"`
	UserName        string             `json:"user_name"`
	UserEmail       string             `json:"user_email"`
	Items           []OrderItemView    `json:"items"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Status          domain.OrderStatus `json:"status"`
	ShippingAddress string             `json:"shipping_address"`
	Notes           string             `json:"notes"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewOrderView 由订单聚合与用户信息构造视图
func NewOrderView(order *domain.Order, user *identitydomain.User) *OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal,
		})
	}

	view := &OrderView{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Items:           items,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
	if user != nil {
		view.UserName = user.Name
		view.UserEmail = user.Email
	}
	return view
}
