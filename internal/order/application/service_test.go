package application

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	identitydomain "github.com/wyfcoding/storefront/internal/identity/domain"
	"github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/errs"
	"gorm.io/gorm"
)

// ---- 内存假实现 ----

type fakeProductRepo struct {
	products map[uint]*catalogdomain.Product
	nextID   uint
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uint]*catalogdomain.Product), nextID: 1}
}

func (r *fakeProductRepo) add(name string, price string, stock int) *catalogdomain.Product {
	p := &catalogdomain.Product{
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	}
	p.ID = r.nextID
	r.nextID++
	r.products[p.ID] = p
	return p
}

func (r *fakeProductRepo) Save(ctx context.Context, p *catalogdomain.Product) error {
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uint) (*catalogdomain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errs.NewNotFound("Product", "id", id)
	}
	c := *p
	return &c, nil
}

func (r *fakeProductRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	for _, p := range r.products {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) List(ctx context.Context) ([]*catalogdomain.Product, error) {
	out := make([]*catalogdomain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) ListActive(ctx context.Context) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
	for _, p := range r.products {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListByCategory(ctx context.Context, category string) ([]*catalogdomain.Product, error) {
	var out []*catalogdomain.Product
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
	r.products = make(map[uint]*catalogdomain.Product)
	return nil
}

func (r *fakeProductRepo) WithTx(tx *gorm.DB) catalogdomain.ProductRepository { return r }

type fakeUserRepo struct {
	users  map[uint]*identitydomain.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*identitydomain.User), nextID: 1}
}

func (r *fakeUserRepo) add(name, email string) *identitydomain.User {
	u := &identitydomain.User{Name: name, Email: email, Role: identitydomain.RoleUser}
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) Save(ctx context.Context, u *identitydomain.User) error {
	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*identitydomain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errs.NewNotFound("User", "id", id)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*identitydomain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errs.NewNotFound("User", "email", email)
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []uint) ([]*identitydomain.User, error) {
	var out []*identitydomain.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*identitydomain.User, error) {
	out := make([]*identitydomain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) WithTx(tx *gorm.DB) identitydomain.UserRepository { return r }

type fakeOrderRepo struct {
	orders     map[uint]*domain.Order
	nextID     uint
	getByIDHit int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uint]*domain.Order), nextID: 1}
}

func (r *fakeOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	if order.ID == 0 {
		order.ID = r.nextID
		r.nextID++
	}
	c := *order
	r.orders[order.ID] = &c
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	r.getByIDHit++
	o, ok := r.orders[id]
	if !ok {
		return nil, errs.NewNotFound("Order", "id", id)
	}
	c := *o
	return &c, nil
}

func (r *fakeOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			c := *o
			return &c, nil
		}
	}
	return nil, errs.NewNotFound("Order", "orderNumber", orderNumber)
}

func (r *fakeOrderRepo) ListByUser(ctx context.Context, userID uint) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListAll(ctx context.Context) ([]*domain.Order, error) {
	out := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		c := *o
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus) error {
	o, ok := r.orders[id]
	if !ok {
		return errs.NewNotFound("Order", "id", id)
	}
	o.Status = status
	return nil
}

func (r *fakeOrderRepo) DeleteAll(ctx context.Context) error {
	r.orders = make(map[uint]*domain.Order)
	return nil
}

func (r *fakeOrderRepo) WithTx(tx *gorm.DB) domain.OrderRepository { return r }

// fakeTxRunner 模拟事务：回调失败时把库存和订单恢复到调用前的快照
type fakeTxRunner struct {
	products *fakeProductRepo
	orders   *fakeOrderRepo
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*gorm.DB) error) error {
	stocks := make(map[uint]int, len(f.products.products))
	for id, p := range f.products.products {
		stocks[id] = p.Stock
	}
	snapshot := make(map[uint]domain.Order, len(f.orders.orders))
	for id, o := range f.orders.orders {
		snapshot[id] = *o
	}

	if err := fn(nil); err != nil {
		for id, stock := range stocks {
			f.products.products[id].Stock = stock
		}
		f.orders.orders = make(map[uint]*domain.Order, len(snapshot))
		for id := range snapshot {
			o := snapshot[id]
			f.orders.orders[id] = &o
		}
		return err
	}
	return nil
}

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

func (c *fakeCache) lastFlush() []string {
	if len(c.flushed) == 0 {
		return nil
	}
	return c.flushed[len(c.flushed)-1]
}

type fakePublisher struct {
	events []domain.OrderEvent
}

func (p *fakePublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	p.events = append(p.events, event)
	return nil
}

// ---- 测试装置 ----

type fixture struct {
	service   *OrderService
	products  *fakeProductRepo
	users     *fakeUserRepo
	orders    *fakeOrderRepo
	cache     *fakeCache
	publisher *fakePublisher
}

func newFixture() *fixture {
	products := newFakeProductRepo()
	users := newFakeUserRepo()
	orders := newFakeOrderRepo()
	readCache := newFakeCache()
	publisher := &fakePublisher{}

	service := NewOrderService(
		&fakeTxRunner{products: products, orders: orders},
		orders,
		products,
		users,
		readCache,
		publisher,
		nil,
	)

	return &fixture{
		service:   service,
		products:  products,
		users:     users,
		orders:    orders,
		cache:     readCache,
		publisher: publisher,
	}
}

// ---- 创建订单 ----

func TestCreateOrderComputesTotalAndDecrementsStock(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID:          user.ID,
		ShippingAddress: "123 Main St",
		Items:           []OrderItemRequest{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, view.Status)
	assert.True(t, view.TotalAmount.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, "Alice", view.UserName)
	assert.Equal(t, "alice@example.com", view.UserEmail)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Widget", view.Items[0].ProductName)

	assert.Equal(t, 2, f.products.products[product.ID].Stock)

	// 事件发布与缓存刷新
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventOrderCreated, f.publisher.events[0].Type)
	assert.Equal(t, view.OrderNumber, f.publisher.events[0].OrderNumber)
	assert.ElementsMatch(t,
		[]string{cache.RegionOrders, cache.RegionUserOrders, cache.RegionProducts},
		f.cache.lastFlush(),
	)
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	_, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	// 剩余 2 件，再订 3 件必须被拒绝
	_, err = f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 3}},
	})
	var insufficient *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Widget", insufficient.ProductName)
	assert.Equal(t, 3, insufficient.Requested)
	assert.Equal(t, 2, insufficient.Available)

	// 库存不变，订单未落库
	assert.Equal(t, 2, f.products.products[product.ID].Stock)
	assert.Len(t, f.orders.orders, 1)
}

func TestCreateOrderNoPartialDecrementOnFailure(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	p1 := f.products.add("P1", "5.00", 10)
	p2 := f.products.add("P2", "20.00", 1)

	_, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items: []OrderItemRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 5},
		},
	})
	var insufficient *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	// 第二行失败时第一行已扣的库存必须随事务回滚
	assert.Equal(t, 10, f.products.products[p1.ID].Stock)
	assert.Equal(t, 1, f.products.products[p2.ID].Stock)
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	var invalid *errs.InvalidOperationError

	_, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{UserID: user.ID})
	require.ErrorAs(t, err, &invalid)

	_, err = f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 0}},
	})
	require.ErrorAs(t, err, &invalid)

	_, err = f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: -1}},
	})
	require.ErrorAs(t, err, &invalid)

	assert.Equal(t, 5, f.products.products[product.ID].Stock)
}

func TestCreateOrderUnknownUser(t *testing.T) {
	f := newFixture()
	product := f.products.add("Widget", "10.00", 5)

	_, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: 99,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	assert.True(t, errs.IsNotFound(err))
	assert.Equal(t, 5, f.products.products[product.ID].Stock)
}

func TestCreateOrderPriceSnapshotSurvivesRepricing(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	// 下单后调价，已有订单的单价和总额保持下单时刻的快照
	f.products.products[product.ID].Price = decimal.RequireFromString("99.99")

	stored, err := f.orders.GetByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("20.00")))
}

func TestCreateOrderTwoLineTotal(t *testing.T) {
	f := newFixture()
	user := f.users.add("Bob", "bob@example.com")
	p1 := f.products.add("P1", "5.00", 10)
	p2 := f.products.add("P2", "20.00", 3)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items: []OrderItemRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.True(t, view.TotalAmount.Equal(decimal.RequireFromString("30.00")))
	assert.Equal(t, 8, f.products.products[p1.ID].Stock)
	assert.Equal(t, 2, f.products.products[p2.ID].Stock)
}

// ---- 状态流转 ----

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := f.service.UpdateOrderStatus(context.Background(), view.ID, domain.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, domain.OrderStatusConfirmed, f.orders.orders[view.ID].Status)

	// 状态事件携带流转前状态
	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, domain.EventOrderStatusChanged, last.Type)
	assert.Equal(t, domain.OrderStatusPending, last.PreviousStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, last.Status)

	// 状态流转不触达库存，商品区域不刷新
	assert.ElementsMatch(t, []string{cache.RegionOrders, cache.RegionUserOrders}, f.cache.lastFlush())
}

func TestUpdateOrderStatusTerminalRejected(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	for _, terminal := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		require.NoError(t, f.orders.UpdateStatus(context.Background(), view.ID, terminal))

		_, err = f.service.UpdateOrderStatus(context.Background(), view.ID, domain.OrderStatusProcessing)
		var transition *errs.InvalidStateTransitionError
		require.ErrorAs(t, err, &transition, "terminal status %s", terminal)
		assert.Equal(t, string(terminal), transition.Current)
		assert.Equal(t, terminal, f.orders.orders[view.ID].Status)
	}
}

func TestUpdateOrderStatusUnknownOrder(t *testing.T) {
	f := newFixture()
	_, err := f.service.UpdateOrderStatus(context.Background(), 42, domain.OrderStatusConfirmed)
	assert.True(t, errs.IsNotFound(err))
}

// ---- 取消订单 ----

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	p1 := f.products.add("P1", "5.00", 10)
	p2 := f.products.add("P2", "20.00", 3)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items: []OrderItemRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, f.products.products[p1.ID].Stock)
	assert.Equal(t, 2, f.products.products[p2.ID].Stock)

	require.NoError(t, f.service.CancelOrder(context.Background(), view.ID))

	assert.Equal(t, domain.OrderStatusCancelled, f.orders.orders[view.ID].Status)
	assert.Equal(t, 10, f.products.products[p1.ID].Stock)
	assert.Equal(t, 3, f.products.products[p2.ID].Stock)

	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, domain.EventOrderCancelled, last.Type)
	assert.Equal(t, domain.OrderStatusCancelled, last.Status)

	assert.ElementsMatch(t,
		[]string{cache.RegionOrders, cache.RegionUserOrders, cache.RegionProducts},
		f.cache.lastFlush(),
	)
}

func TestCancelOrderRejectedAfterShipment(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	for _, status := range []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusDelivered} {
		require.NoError(t, f.orders.UpdateStatus(context.Background(), view.ID, status))

		err = f.service.CancelOrder(context.Background(), view.ID)
		var invalid *errs.InvalidOperationError
		require.ErrorAs(t, err, &invalid, "status %s", status)
		// 拒绝取消时不得回补库存
		assert.Equal(t, 3, f.products.products[product.ID].Stock)
	}
}

func TestCancelOrderTwiceRejected(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	view, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, f.service.CancelOrder(context.Background(), view.ID))
	assert.Equal(t, 5, f.products.products[product.ID].Stock)

	// 重复取消不能再次回补库存
	err = f.service.CancelOrder(context.Background(), view.ID)
	var invalid *errs.InvalidOperationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 5, f.products.products[product.ID].Stock)
}

// ---- 查询与缓存 ----

func TestGetOrderReadThrough(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	f.orders.getByIDHit = 0

	first, err := f.service.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.orders.getByIDHit)

	// 第二次命中缓存，不再触达仓储
	second, err := f.service.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.orders.getByIDHit)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	assert.True(t, first.TotalAmount.Equal(second.TotalAmount))
}

func TestGetOrderCacheInvalidatedByStatusChange(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	view, err := f.service.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, view.Status)

	_, err = f.service.UpdateOrderStatus(context.Background(), created.ID, domain.OrderStatusShipped)
	require.NoError(t, err)

	// 流转刷新了订单区域，读取必须看到新状态而不是缓存里的旧条目
	view, err = f.service.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, view.Status)
}

func TestGetOrderMissNotCached(t *testing.T) {
	f := newFixture()

	_, err := f.service.GetOrder(context.Background(), 42)
	assert.True(t, errs.IsNotFound(err))
	assert.Empty(t, f.cache.entries)
}

func TestGetOrderByNumber(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	view, err := f.service.GetOrderByNumber(context.Background(), created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)

	_, err = f.service.GetOrderByNumber(context.Background(), "ORD-0-MISSING1")
	assert.True(t, errs.IsNotFound(err))
}

func TestListOrdersForUser(t *testing.T) {
	f := newFixture()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	product := f.products.add("Widget", "10.00", 10)

	for _, userID := range []uint{alice.ID, alice.ID, bob.ID} {
		_, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
			UserID: userID,
			Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	views, err := f.service.ListOrdersForUser(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, alice.ID, v.UserID)
		assert.Equal(t, "Alice", v.UserName)
	}

	_, err = f.service.ListOrdersForUser(context.Background(), 99)
	assert.True(t, errs.IsNotFound(err))
}

func TestListAllOrdersResolvesUsers(t *testing.T) {
	f := newFixture()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	product := f.products.add("Widget", "10.00", 10)

	for _, userID := range []uint{alice.ID, bob.ID} {
		_, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
			UserID: userID,
			Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		})
		require.NoError(t, err)
	}

	views, err := f.service.ListAllOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	names := make(map[uint]string)
	for _, v := range views {
		names[v.UserID] = v.UserName
	}
	assert.Equal(t, "Alice", names[alice.ID])
	assert.Equal(t, "Bob", names[bob.ID])
}

func TestGetOrderForDeletedUser(t *testing.T) {
	f := newFixture()
	user := f.users.add("Alice", "alice@example.com")
	product := f.products.add("Widget", "10.00", 5)

	created, err := f.service.CreateOrder(context.Background(), CreateOrderCommand{
		UserID: user.ID,
		Items:  []OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// 用户被删除后历史订单仍可读取，视图缺省用户信息
	delete(f.users.users, user.ID)

	view, err := f.service.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, view.UserID)
	assert.Empty(t, view.UserName)
	assert.Empty(t, view.UserEmail)
}
