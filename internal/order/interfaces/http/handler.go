// Package http 提供订单相关的 HTTP 接口
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/internal/order/application"
	"github.com/wyfcoding/storefront/internal/order/domain"
	"github.com/wyfcoding/storefront/pkg/errs"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	service *application.OrderService
}

// NewOrderHandler 创建订单 HTTP 处理器
func NewOrderHandler(service *application.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/orders")
	{
		api.POST("", h.CreateOrder)                       // 创建订单
		api.GET("", h.ListAllOrders)                      // 全部订单
		api.GET("/:id", h.GetOrder)                       // 订单详情
		api.GET("/number/:orderNumber", h.GetOrderByNumber) // 按订单号查询
		api.GET("/user/:userId", h.ListOrdersForUser)     // 用户订单列表
		api.PATCH("/:id/status", h.UpdateOrderStatus)     // 状态流转
		api.POST("/:id/cancel", h.CancelOrder)            // 取消订单
	}
}

// CreateOrderItemRequest 创建订单的行请求
type CreateOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	UserID          uint                     `json:"user_id" binding:"required"`
	ShippingAddress string                   `json:"shipping_address"`
	Notes           string                   `json:"notes"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder 创建订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	items := make([]application.OrderItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, application.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	view, err := h.service.CreateOrder(c.Request.Context(), application.CreateOrderCommand{
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Items:           items,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to create order", "error", err)
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Created(c, view)
}

// GetOrder 订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, view)
}

// GetOrderByNumber 按订单号查询
func (h *OrderHandler) GetOrderByNumber(c *gin.Context) {
	orderNumber := c.Param("orderNumber")
	if orderNumber == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "order number is required", "")
		return
	}

	view, err := h.service.GetOrderByNumber(c.Request.Context(), orderNumber)
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, view)
}

// ListOrdersForUser 用户订单列表
func (h *OrderHandler) ListOrdersForUser(c *gin.Context) {
	userID, ok := parseID(c, "userId")
	if !ok {
		return
	}

	views, err := h.service.ListOrdersForUser(c.Request.Context(), userID)
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, views)
}

// ListAllOrders 全部订单
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	views, err := h.service.ListAllOrders(c.Request.Context())
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, views)
}

// UpdateOrderStatusRequest 状态流转请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus 状态流转
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	status, valid := domain.ParseStatus(req.Status)
	if !valid {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown order status: "+req.Status, "")
		return
	}

	view, err := h.service.UpdateOrderStatus(c.Request.Context(), id, status)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to update order status", "order_id", id, "error", err)
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, view)
}

// CancelOrder 取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.CancelOrder(c.Request.Context(), id); err != nil {
		logger.Error(c.Request.Context(), "Failed to cancel order", "order_id", id, "error", err)
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, gin.H{"order_id": id, "status": domain.OrderStatusCancelled})
}

// parseID 解析路径中的数字 ID
func parseID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid "+name, raw)
		return 0, false
	}
	return uint(id), true
}
