// Package metrics 提供 Prometheus 指标注册与暴露
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 缓存命中/未命中计数
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// 业务指标
	OrdersCreatedTotal    prometheus.Counter
	OrdersCancelledTotal  prometheus.Counter
	StockRejectionsTotal  prometheus.Counter
	StatusTransitionsTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "cache_hits_total",
			Help:      "Total read cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "cache_misses_total",
			Help:      "Total read cache misses",
		}),
		OrdersCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "orders_created_total",
			Help:      "Total orders created",
		}),
		OrdersCancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Total orders cancelled",
		}),
		StockRejectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "stock_rejections_total",
			Help:      "Total order creations rejected for insufficient stock",
		}),
		StatusTransitionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: serviceName,
			Name:      "status_transitions_total",
			Help:      "Total accepted order status transitions",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.OrdersCreatedTotal,
		m.OrdersCancelledTotal,
		m.StockRejectionsTotal,
		m.StatusTransitionsTotal,
	}

	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// 以下辅助方法对 nil 接收者安全，未启用指标的调用方可以传 nil

// IncCacheHits 缓存命中计数 +1
func (m *Metrics) IncCacheHits() {
	if m != nil {
		m.CacheHitsTotal.Inc()
	}
}

// IncCacheMisses 缓存未命中计数 +1
func (m *Metrics) IncCacheMisses() {
	if m != nil {
		m.CacheMissesTotal.Inc()
	}
}

// IncOrdersCreated 订单创建计数 +1
func (m *Metrics) IncOrdersCreated() {
	if m != nil {
		m.OrdersCreatedTotal.Inc()
	}
}

// IncOrdersCancelled 订单取消计数 +1
func (m *Metrics) IncOrdersCancelled() {
	if m != nil {
		m.OrdersCancelledTotal.Inc()
	}
}

// IncStockRejections 库存不足拒单计数 +1
func (m *Metrics) IncStockRejections() {
	if m != nil {
		m.StockRejectionsTotal.Inc()
	}
}

// IncStatusTransitions 状态流转计数 +1
func (m *Metrics) IncStatusTransitions() {
	if m != nil {
		m.StatusTransitionsTotal.Inc()
	}
}

// StartHTTPServer 启动独立的指标 HTTP 服务
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "Metrics HTTP server error", "error", err)
		}
	}()

	logger.Info(context.Background(), "Metrics HTTP server started", "addr", addr, "path", path)
	return nil
}
