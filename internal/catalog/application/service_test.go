package application

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/errs"
	"gorm.io/gorm"
)

type fakeProductRepo struct {
	products map[uint]*domain.Product
	nextID   uint
	listHit  int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uint]*domain.Product), nextID: 1}
}

func (r *fakeProductRepo) Save(ctx context.Context, p *domain.Product) error {
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errs.NewNotFound("Product", "id", id)
	}
	return p, nil
}

func (r *fakeProductRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, p := range r.products {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) List(ctx context.Context) ([]*domain.Product, error) {
	r.listHit++
	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) ListActive(ctx context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListByCategory(ctx context.Context, category string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range r.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ReserveStock(ctx context.Context, id uint, quantity int) (bool, error) {
	p, ok := r.products[id]
	if !ok {
		return false, errs.NewNotFound("Product", "id", id)
	}
	if p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

func (r *fakeProductRepo) RestoreStock(ctx context.Context, id uint, quantity int) error {
	p, ok := r.products[id]
	if !ok {
		return errs.NewNotFound("Product", "id", id)
	}
	p.Stock += quantity
	return nil
}

func (r *fakeProductRepo) DeleteAll(ctx context.Context) error {
	r.products = make(map[uint]*domain.Product)
	return nil
}

func (r *fakeProductRepo) WithTx(tx *gorm.DB) domain.ProductRepository { return r }

type fakeCache struct {
	entries map[string][]byte
	flushed [][]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) GetJSON(ctx context.Context, region, key string, dest interface{}) (bool, error) {
	data, ok := c.entries[region+":"+key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *fakeCache) SetJSON(ctx context.Context, region, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[region+":"+key] = data
	return nil
}

func (c *fakeCache) FlushRegions(ctx context.Context, regions ...string) error {
	c.flushed = append(c.flushed, regions)
	for _, region := range regions {
		for key := range c.entries {
			if strings.HasPrefix(key, region+":") {
				delete(c.entries, key)
			}
		}
	}
	return nil
}

func newService() (*CatalogService, *fakeProductRepo, *fakeCache) {
	repo := newFakeProductRepo()
	readCache := newFakeCache()
	return NewCatalogService(repo, readCache), repo, readCache
}

func TestCreateProduct(t *testing.T) {
	service, repo, readCache := newService()

	p, err := service.CreateProduct(context.Background(), CreateProductCommand{
		Name:     "Widget",
		Price:    decimal.RequireFromString("10.00"),
		Stock:    5,
		Active:   true,
		Category: "Tools",
	})
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Widget", repo.products[p.ID].Name)

	// 创建后刷新商品区域
	require.NotEmpty(t, readCache.flushed)
	assert.Equal(t, []string{cache.RegionProducts}, readCache.flushed[len(readCache.flushed)-1])
}

func TestCreateProductValidation(t *testing.T) {
	service, _, _ := newService()

	var invalid *errs.InvalidOperationError

	_, err := service.CreateProduct(context.Background(), CreateProductCommand{
		Price: decimal.RequireFromString("10.00"),
	})
	require.ErrorAs(t, err, &invalid)

	_, err = service.CreateProduct(context.Background(), CreateProductCommand{
		Name:  "Widget",
		Price: decimal.Zero,
	})
	require.ErrorAs(t, err, &invalid)

	_, err = service.CreateProduct(context.Background(), CreateProductCommand{
		Name:  "Widget",
		Price: decimal.RequireFromString("-1.00"),
	})
	require.ErrorAs(t, err, &invalid)

	_, err = service.CreateProduct(context.Background(), CreateProductCommand{
		Name:  "Widget",
		Price: decimal.RequireFromString("10.00"),
		Stock: -1,
	})
	require.ErrorAs(t, err, &invalid)
}

func TestCreateProductDuplicateName(t *testing.T) {
	service, _, _ := newService()

	cmd := CreateProductCommand{
		Name:  "Widget",
		Price: decimal.RequireFromString("10.00"),
		Stock: 5,
	}
	_, err := service.CreateProduct(context.Background(), cmd)
	require.NoError(t, err)

	_, err = service.CreateProduct(context.Background(), cmd)
	var duplicate *errs.DuplicateResourceError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, "Widget", duplicate.Value)
}

func TestGetProductReadThrough(t *testing.T) {
	service, repo, readCache := newService()

	created, err := service.CreateProduct(context.Background(), CreateProductCommand{
		Name:  "Widget",
		Price: decimal.RequireFromString("10.00"),
		Stock: 5,
	})
	require.NoError(t, err)

	p, err := service.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)

	// 已缓存：直接改库不经过服务，读取仍返回缓存条目
	repo.products[created.ID].Name = "Renamed"
	p, err = service.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)

	// 刷新后读到新值
	require.NoError(t, readCache.FlushRegions(context.Background(), cache.RegionProducts))
	p, err = service.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
}

func TestGetProductMissNotCached(t *testing.T) {
	service, _, readCache := newService()

	_, err := service.GetProduct(context.Background(), 42)
	assert.True(t, errs.IsNotFound(err))
	assert.Empty(t, readCache.entries)
}

func TestListProductsCached(t *testing.T) {
	service, repo, _ := newService()

	for _, name := range []string{"A", "B"} {
		_, err := service.CreateProduct(context.Background(), CreateProductCommand{
			Name:  name,
			Price: decimal.RequireFromString("1.00"),
			Stock: 1,
		})
		require.NoError(t, err)
	}

	repo.listHit = 0

	products, err := service.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 1, repo.listHit)

	// 第二次命中缓存
	products, err = service.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, 1, repo.listHit)
}

func TestListActiveProducts(t *testing.T) {
	service, _, _ := newService()

	active, err := service.CreateProduct(context.Background(), CreateProductCommand{
		Name:   "Active",
		Price:  decimal.RequireFromString("1.00"),
		Stock:  1,
		Active: true,
	})
	require.NoError(t, err)
	_, err = service.CreateProduct(context.Background(), CreateProductCommand{
		Name:   "Inactive",
		Price:  decimal.RequireFromString("1.00"),
		Stock:  0,
		Active: false,
	})
	require.NoError(t, err)

	products, err := service.ListActiveProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, active.ID, products[0].ID)
}

func TestListProductsByCategory(t *testing.T) {
	service, _, _ := newService()

	_, err := service.CreateProduct(context.Background(), CreateProductCommand{
		Name:     "Laptop",
		Price:    decimal.RequireFromString("999.00"),
		Stock:    3,
		Active:   true,
		Category: "Electronics",
	})
	require.NoError(t, err)
	_, err = service.CreateProduct(context.Background(), CreateProductCommand{
		Name:     "Skillet",
		Price:    decimal.RequireFromString("39.00"),
		Stock:    10,
		Active:   true,
		Category: "Home",
	})
	require.NoError(t, err)

	products, err := service.ListProductsByCategory(context.Background(), "Electronics")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Laptop", products[0].Name)

	products, err = service.ListProductsByCategory(context.Background(), "Garden")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestUpdateProduct(t *testing.T) {
	service, repo, readCache := newService()

	created, err := service.CreateProduct(context.Background(), CreateProductCommand{
		Name:  "Widget",
		Price: decimal.RequireFromString("10.00"),
		Stock: 5,
	})
	require.NoError(t, err)

	created.Price = decimal.RequireFromString("12.50")
	created.Stock = 8

	updated, err := service.UpdateProduct(context.Background(), created)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 8, repo.products[created.ID].Stock)
	assert.Equal(t, []string{cache.RegionProducts}, readCache.flushed[len(readCache.flushed)-1])
}

func TestUpdateProductUnknown(t *testing.T) {
	service, _, _ := newService()

	missing := &domain.Product{
		Name:  "Ghost",
		Price: decimal.RequireFromString("1.00"),
	}
	missing.ID = 42

	_, err := service.UpdateProduct(context.Background(), missing)
	assert.True(t, errs.IsNotFound(err))
}
