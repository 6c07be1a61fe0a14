// Package bootstrap 负责启动时的缓存清理与演示数据写入
package bootstrap

import (
	"context"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// Seeder 演示数据初始化器
type Seeder struct {
	products catalogdomain.ProductRepository
	orders   orderdomain.OrderRepository
	cache    *cache.RegionCache
}

// NewSeeder 创建初始化器
func NewSeeder(products catalogdomain.ProductRepository, orders orderdomain.OrderRepository, regionCache *cache.RegionCache) *Seeder {
	return &Seeder{products: products, orders: orders, cache: regionCache}
}

// Run 清理缓存与旧数据并写入演示商品。
// 缓存必须先清：上一次运行留下的条目可能是旧结构，反序列化会失败
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.cache.FlushAll(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "Cache regions cleared")

	if err := s.orders.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.products.DeleteAll(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "Previous orders and products cleaned up")

	for _, p := range demoProducts() {
		exists, err := s.products.ExistsByName(ctx, p.Name)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		product := p
		if err := s.products.Save(ctx, &product); err != nil {
			return err
		}
		logger.Info(ctx, "Added demo product", "name", product.Name)
	}

	logger.Info(ctx, "Data initialization complete")
	return nil
}

// demoProducts 演示商品目录
func demoProducts() []catalogdomain.Product {
	price := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	return []catalogdomain.Product{
		{
			Name:        "MacBook Pro 16",
			Description: "M3 Max chip, 32GB RAM, 1TB SSD. The ultimate pro laptop.",
			Price:       price("2499.99"),
			Stock:       15,
			Active:      true,
			Category:    "Electronics",
			ImageURL:    "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=500",
		},
		{
			Name:        "Sony WH-1000XM5",
			Description: "Industry-leading noise cancelling wireless headphones.",
			Price:       price("399.99"),
			Stock:       40,
			Active:      true,
			Category:    "Electronics",
			ImageURL:    "https://images.unsplash.com/photo-1618366712010-f4ae9c647dcb?w=500",
		},
		{
			Name:        "Mechanical Keyboard K8",
			Description: "Hot-swappable wireless mechanical keyboard with RGB.",
			Price:       price("89.99"),
			Stock:       60,
			Active:      true,
			Category:    "Electronics",
			ImageURL:    "https://images.unsplash.com/photo-1587829741301-dc798b83add3?w=500",
		},
		{
			Name:        "Espresso Machine Classic",
			Description: "15-bar pump espresso machine with milk frother.",
			Price:       price("249.50"),
			Stock:       25,
			Active:      true,
			Category:    "Home",
			ImageURL:    "https://images.unsplash.com/photo-1510017803434-a899398421b3?w=500",
		},
		{
			Name:        "Cast Iron Skillet 12in",
			Description: "Pre-seasoned cast iron skillet, oven safe.",
			Price:       price("39.95"),
			Stock:       80,
			Active:      true,
			Category:    "Home",
			ImageURL:    "https://images.unsplash.com/photo-1585515320310-259814833e62?w=500",
		},
		{
			Name:        "Trail Running Shoes",
			Description: "Lightweight trail shoes with aggressive grip.",
			Price:       price("129.00"),
			Stock:       50,
			Active:      true,
			Category:    "Sports",
			ImageURL:    "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=500",
		},
		{
			Name:        "Yoga Mat Pro",
			Description: "Non-slip 6mm yoga mat with carrying strap.",
			Price:       price("34.99"),
			Stock:       100,
			Active:      true,
			Category:    "Sports",
			ImageURL:    "https://images.unsplash.com/photo-1599447421416-3414500d18a5?w=500",
		},
		{
			Name:        "Vintage Film Camera",
			Description: "Discontinued collector's item, display only.",
			Price:       price("599.00"),
			Stock:       0,
			Active:      false,
			Category:    "Electronics",
			ImageURL:    "https://images.unsplash.com/photo-1526170375885-4d8ecf77b99f?w=500",
		},
	}
}
