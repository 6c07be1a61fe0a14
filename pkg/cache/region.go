package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
)

// 缓存区域名称。失效按整个区域刷新，不做 key 级别的精确失效：
// 一次事务可能触达的缓存 key 集合是无界的（任意分类、任意用户的列表）。
const (
	// RegionOrders 单个订单（按 id / 订单号）
	RegionOrders = "orders"
	// RegionUserOrders 用户订单列表
	RegionUserOrders = "user-orders"
	// RegionProducts 商品与商品列表
	RegionProducts = "products"
)

// Regions 所有缓存区域
var Regions = []string{RegionOrders, RegionUserOrders, RegionProducts}

// RegionCache 按区域划分的读缓存。
// key 形如 <prefix>:<region>:<key>，条目带 TTL 兜底过期。
type RegionCache struct {
	redis   *RedisCache
	prefix  string
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewRegionCache 创建区域缓存，metrics 可以为 nil
func NewRegionCache(redis *RedisCache, prefix string, ttl time.Duration, m *metrics.Metrics) *RegionCache {
	if prefix == "" {
		prefix = "storefront"
	}
	if ttl <= 0 {
		ttl = 60 * time.Minute
	}
	return &RegionCache{
		redis:   redis,
		prefix:  prefix,
		ttl:     ttl,
		metrics: m,
	}
}

// Key 构造完整缓存 key
func (c *RegionCache) Key(region, key string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, region, key)
}

// GetJSON 读取缓存条目，返回是否命中。
// 缓存读取失败不向上传播：读路径退化为直接查库。
func (c *RegionCache) GetJSON(ctx context.Context, region, key string, dest interface{}) (bool, error) {
	hit, err := c.redis.GetJSON(ctx, c.Key(region, key), dest)
	if err != nil {
		logger.Warn(ctx, "Cache read failed, falling through to store", "region", region, "key", key, "error", err)
		c.metrics.IncCacheMisses()
		return false, nil
	}
	if hit {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return hit, nil
}

// SetJSON 写入缓存条目。nil 值由调用方过滤，未命中实体不缓存。
func (c *RegionCache) SetJSON(ctx context.Context, region, key string, value interface{}) error {
	return c.redis.SetJSON(ctx, c.Key(region, key), value, c.ttl)
}

// FlushRegions 同步刷新整个缓存区域，在变更操作提交后、响应返回前调用
func (c *RegionCache) FlushRegions(ctx context.Context, regions ...string) error {
	for _, region := range regions {
		if err := c.redis.DeleteByPrefix(ctx, fmt.Sprintf("%s:%s:", c.prefix, region)); err != nil {
			return fmt.Errorf("failed to flush cache region %s: %w", region, err)
		}
	}
	return nil
}

// FlushAll 刷新所有区域。进程启动时调用，避免上一次运行留下的旧格式条目
func (c *RegionCache) FlushAll(ctx context.Context) error {
	return c.FlushRegions(ctx, Regions...)
}
