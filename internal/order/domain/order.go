// Package domain 包含订单聚合的领域模型
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

// ParseStatus 解析状态字符串
func ParseStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(s))
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return status, true
	}
	return "", false
}

// IsTerminal 是否为终态。终态订单不允许任何后续流转
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusDelivered
}

// Order 订单聚合根。
// Items 由订单独占持有，随订单一起作为一个事务单元持久化；
// 对 User 和 Product 只保留 ID 引用，不持有对象链接。
type Order struct {
	gorm.Model
	// 订单号，创建时生成，唯一
	OrderNumber string `gorm:"column:order_number;type:varchar(32);uniqueIndex;not null" json:"order_number"`
	// 用户 ID，创建后不可变
	UserID uint `gorm:"column:user_id;index;not null" json:"user_id"`
	// 订单项，写入顺序即行项顺序
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	// 订单总额，始终等于各订单项小计之和，从不单独设置
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(10,2);not null" json:"total_amount"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	// 收货地址
	ShippingAddress string `gorm:"column:shipping_address;type:varchar(500)" json:"shipping_address"`
	// 备注
	Notes string `gorm:"column:notes;type:varchar(1000)" json:"notes"`
}

// TableName 指定表名
func (Order) TableName() string { return "orders" }

// OrderItem 订单项。
// Price 为下单时刻的商品单价快照，Subtotal 在创建时计算并持久化，
// 之后商品调价不影响已有订单。
type OrderItem struct {
	gorm.Model
	// 所属订单 ID
	OrderID uint `gorm:"column:order_id;index;not null" json:"order_id"`
	// 商品 ID（非拥有引用）
	ProductID uint `gorm:"column:product_id;index;not null" json:"product_id"`
	// 商品名称快照
	ProductName string `gorm:"column:product_name;type:varchar(255);not null" json:"product_name"`
	// 数量
	Quantity int `gorm:"column:quantity;not null" json:"quantity"`
	// 下单时刻单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	// 小计 = 单价 × 数量，创建时计算并持久化
	Subtotal decimal.Decimal `gorm:"column:subtotal;type:decimal(10,2);not null" json:"subtotal"`
}

// TableName 指定表名
func (OrderItem) TableName() string { return "order_items" }

// NewOrder 创建 PENDING 状态的订单，总额为零
func NewOrder(userID uint, shippingAddress, notes string) *Order {
	return &Order{
		OrderNumber:     NewOrderNumber(),
		UserID:          userID,
		Status:          OrderStatusPending,
		TotalAmount:     decimal.Zero,
		ShippingAddress: shippingAddress,
		Notes:           notes,
	}
}

// NewOrderNumber 生成订单号，格式 ORD-<epoch-millis>-<8 位大写随机后缀>
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

// AddItem 以商品快照追加订单项，小计在此刻计算
func (o *Order) AddItem(productID uint, productName string, quantity int, unitPrice decimal.Decimal) {
	o.Items = append(o.Items, OrderItem{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		Price:       unitPrice,
		Subtotal:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	})
}

// CalculateTotal 将总额重算为各订单项小计之和
func (o *Order) CalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	o.TotalAmount = total
}

// CanTransitionTo 终态订单拒绝一切流转；其余流转一律放行，
// 不强制正向推进（业务上尚未要求）
func (o *Order) CanTransitionTo(target OrderStatus) bool {
	return !o.Status.IsTerminal()
}

// CanBeCancelled 已发货和已签收的订单不可取消
func (o *Order) CanBeCancelled() bool {
	return o.Status != OrderStatusShipped && o.Status != OrderStatusDelivered &&
		o.Status != OrderStatusCancelled
}
