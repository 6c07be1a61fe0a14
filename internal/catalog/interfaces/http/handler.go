// Package http 提供商品目录相关的 HTTP 接口
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/storefront/internal/catalog/application"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
	"github.com/wyfcoding/storefront/pkg/errs"
	"github.com/wyfcoding/storefront/pkg/response"
)

// ProductHandler 商品 HTTP 处理器
type ProductHandler struct {
	service *application.CatalogService
}

// NewProductHandler 创建商品 HTTP 处理器
func NewProductHandler(service *application.CatalogService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/products")
	{
		api.GET("", h.ListProducts)          // 商品列表，支持 ?active=true / ?category=
		api.GET("/:id", h.GetProduct)        // 商品详情
		api.POST("", h.CreateProduct)        // 创建商品
		api.PUT("/:id", h.UpdateProduct)     // 更新商品
	}
}

// ListProducts 商品列表
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var (
		products []*domain.Product
		err      error
	)

	switch {
	case c.Query("category") != "":
		products, err = h.service.ListProductsByCategory(c.Request.Context(), c.Query("category"))
	case c.Query("active") == "true":
		products, err = h.service.ListActiveProducts(c.Request.Context())
	default:
		products, err = h.service.ListProducts(c.Request.Context())
	}
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, products)
}

// GetProduct 商品详情
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", c.Param("id"))
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), uint(id))
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, product)
}

// ProductRequest 创建/更新商品请求
type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
}

// CreateProduct 创建商品
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), application.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Active:      req.Active,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Created(c, product)
}

// UpdateProduct 更新商品
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid product id", c.Param("id"))
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	existing, err := h.service.GetProduct(c.Request.Context(), uint(id))
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Price = req.Price
	existing.Stock = req.Stock
	existing.Active = req.Active
	existing.Category = req.Category
	existing.ImageURL = req.ImageURL

	product, err := h.service.UpdateProduct(c.Request.Context(), existing)
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, product)
}
