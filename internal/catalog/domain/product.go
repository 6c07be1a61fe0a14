// Package domain 包含商品目录的领域模型
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 商品实体
// 库存只会被订单创建（扣减）和订单取消（回补）修改，且永远不会降到负数
type Product struct {
	gorm.Model
	// 商品名称，在售目录内唯一
	Name string `gorm:"column:name;type:varchar(255);uniqueIndex;not null" json:"name"`
	// 商品描述
	Description string `gorm:"column:description;type:text" json:"description"`
	// 单价
	Price decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null" json:"price"`
	// 库存数量
	Stock int `gorm:"column:stock;not null;default:0" json:"stock"`
	// 是否在售
	Active bool `gorm:"column:active;not null;default:true" json:"active"`
	// 分类
	Category string `gorm:"column:category;type:varchar(100);index" json:"category"`
	// 图片地址
	ImageURL string `gorm:"column:image_url;type:varchar(500)" json:"image_url"`
}

// TableName 指定表名
func (Product) TableName() string { return "products" }

// HasStock 是否有足够库存
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

// ProductRepository 商品仓储接口。
// ReserveStock / RestoreStock 必须以单条原子语句执行检查与增减，
// 并发下单对同一商品的竞争由数据库行级串行化保证，不依赖应用层锁。
type ProductRepository interface {
	// Save 保存商品
	Save(ctx context.Context, product *Product) error
	// GetByID 按 ID 获取商品
	GetByID(ctx context.Context, id uint) (*Product, error)
	// ExistsByName 按名称判断商品是否存在
	ExistsByName(ctx context.Context, name string) (bool, error)
	// List 获取全部商品
	List(ctx context.Context) ([]*Product, error)
	// ListActive 获取在售商品
	ListActive(ctx context.Context) ([]*Product, error)
	// ListByCategory 按分类获取商品
	ListByCategory(ctx context.Context, category string) ([]*Product, error)
	// ReserveStock 原子扣减库存，库存不足时返回 false 且不产生任何变更
	ReserveStock(ctx context.Context, id uint, quantity int) (bool, error)
	// RestoreStock 原子回补库存
	RestoreStock(ctx context.Context, id uint, quantity int) error
	// DeleteAll 清空商品表（仅初始化数据时使用）
	DeleteAll(ctx context.Context) error
	// WithTx 返回绑定到指定事务的仓储
	WithTx(tx *gorm.DB) ProductRepository
}
