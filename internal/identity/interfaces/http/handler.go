// Package http 提供用户与认证相关的 HTTP 接口
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/storefront/internal/identity/application"
	"github.com/wyfcoding/storefront/internal/identity/domain"
	"github.com/wyfcoding/storefront/pkg/errs"
	"github.com/wyfcoding/storefront/pkg/response"
)

// IdentityHandler 用户与认证 HTTP 处理器
type IdentityHandler struct {
	service *application.IdentityService
}

// NewIdentityHandler 创建用户与认证 HTTP 处理器
func NewIdentityHandler(service *application.IdentityService) *IdentityHandler {
	return &IdentityHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *IdentityHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register) // 注册
		auth.POST("/login", h.Login)       // 登录
	}

	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)    // 全部用户
		users.GET("/:id", h.GetUser)  // 用户详情
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

// Register 注册
func (h *IdentityHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), application.RegisterCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Created(c, result)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 登录
func (h *IdentityHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// 凭证错误统一返回 401，不区分用户不存在和密码错误
		response.ErrorWithStatus(c, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	response.Success(c, result)
}

// ListUsers 全部用户
func (h *IdentityHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, users)
}

// GetUser 用户详情
func (h *IdentityHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid user id", c.Param("id"))
		return
	}

	user, err := h.service.ResolveUser(c.Request.Context(), uint(id))
	if err != nil {
		response.ErrorWithStatus(c, errs.HTTPStatus(err), err.Error(), "")
		return
	}

	response.Success(c, user)
}
