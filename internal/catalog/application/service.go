// Package application 提供商品目录的应用服务
package application

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/errs"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// ReadCache 读缓存接口，由 pkg/cache.RegionCache 实现
type ReadCache interface {
	GetJSON(ctx context.Context, region, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, region, key string, value interface{}) error
	FlushRegions(ctx context.Context, regions ...string) error
}

// CatalogService 商品目录应用服务
type CatalogService struct {
	repo  domain.ProductRepository
	cache ReadCache
}

// NewCatalogService 创建商品目录应用服务
func NewCatalogService(repo domain.ProductRepository, readCache ReadCache) *CatalogService {
	return &CatalogService{repo: repo, cache: readCache}
}

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Active      bool
	Category    string
	ImageURL    string
}

// CreateProduct 创建商品
func (s *CatalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if cmd.Name == "" {
		return nil, &errs.InvalidOperationError{Reason: "product name is required"}
	}
	if !cmd.Price.IsPositive() {
		return nil, &errs.InvalidOperationError{Reason: "product price must be positive"}
	}
	if cmd.Stock < 0 {
		return nil, &errs.InvalidOperationError{Reason: "product stock must not be negative"}
	}

	exists, err := s.repo.ExistsByName(ctx, cmd.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &errs.DuplicateResourceError{Resource: "Product", Field: "name", Value: cmd.Name}
	}

	p := &domain.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Active:      cmd.Active,
		Category:    cmd.Category,
		ImageURL:    cmd.ImageURL,
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	if err := s.cache.FlushRegions(ctx, cache.RegionProducts); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// UpdateProduct 更新商品并刷新商品缓存区域
func (s *CatalogService) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if !product.Price.IsPositive() {
		return nil, &errs.InvalidOperationError{Reason: "product price must be positive"}
	}
	if product.Stock < 0 {
		return nil, &errs.InvalidOperationError{Reason: "product stock must not be negative"}
	}

	if _, err := s.repo.GetByID(ctx, product.ID); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	if err := s.cache.FlushRegions(ctx, cache.RegionProducts); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Product updated", "product_id", product.ID)
	return product, nil
}

// GetProduct 按 ID 获取商品，读穿缓存；未命中实体不缓存
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*domain.Product, error) {
	key := fmt.Sprintf("id:%d", id)

	var cached domain.Product
	if hit, _ := s.cache.GetJSON(ctx, cache.RegionProducts, key, &cached); hit {
		return &cached, nil
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.RegionProducts, key, p); err != nil {
		logger.Warn(ctx, "Failed to populate product cache", "key", key, "error", err)
	}
	return p, nil
}

// ListProducts 获取全部商品，读穿缓存
func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.listCached(ctx, "all", s.repo.List)
}

// ListActiveProducts 获取在售商品，读穿缓存
func (s *CatalogService) ListActiveProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.listCached(ctx, "active", s.repo.ListActive)
}

// ListProductsByCategory 按分类获取商品，读穿缓存
func (s *CatalogService) ListProductsByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	return s.listCached(ctx, "category:"+category, func(ctx context.Context) ([]*domain.Product, error) {
		return s.repo.ListByCategory(ctx, category)
	})
}

// listCached 商品列表查询的读穿缓存通用路径
func (s *CatalogService) listCached(ctx context.Context, key string, load func(context.Context) ([]*domain.Product, error)) ([]*domain.Product, error) {
	var cached []*domain.Product
	if hit, _ := s.cache.GetJSON(ctx, cache.RegionProducts, key, &cached); hit {
		return cached, nil
	}

	products, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, cache.RegionProducts, key, products); err != nil {
		logger.Warn(ctx, "Failed to populate product cache", "key", key, "error", err)
	}
	return products, nil
}
