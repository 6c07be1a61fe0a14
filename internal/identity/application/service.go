// Package application 提供用户注册、登录与身份解析
package application

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/storefront/internal/identity/domain"
	"github.com/wyfcoding/storefront/pkg/errs"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/utils"
)

// IdentityService 身份应用服务
type IdentityService struct {
	repo      domain.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewIdentityService 创建身份应用服务
func NewIdentityService(repo domain.UserRepository, jwtSecret string, tokenTTL time.Duration) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &IdentityService{
		repo:      repo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// RegisterCommand 注册命令
type RegisterCommand struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	Role     domain.Role
}

// AuthResult 认证结果
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expires_at"`
	UserID    uint        `json:"user_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

// Register 注册新用户，邮箱已存在时返回 DuplicateResource
func (s *IdentityService) Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return nil, &errs.InvalidOperationError{Reason: "email and password are required"}
	}

	if _, err := s.repo.GetByEmail(ctx, cmd.Email); err == nil {
		return nil, &errs.DuplicateResourceError{Resource: "User", Field: "email", Value: cmd.Email}
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	role := cmd.Role
	if role == "" {
		role = domain.RoleUser
	}

	user := &domain.User{
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: utils.SHA256HashWithSalt(cmd.Password, cmd.Email),
		Phone:        cmd.Phone,
		Address:      cmd.Address,
		Role:         role,
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "User registered", "user_id", user.ID, "email", user.Email)
	return s.issueToken(user)
}

// Login 登录，校验凭证并签发 token
func (s *IdentityService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, &errs.InvalidOperationError{Reason: "invalid credentials"}
		}
		return nil, err
	}

	if user.PasswordHash != utils.SHA256HashWithSalt(password, email) {
		return nil, &errs.InvalidOperationError{Reason: "invalid credentials"}
	}

	logger.Info(ctx, "User logged in", "user_id", user.ID, "email", user.Email)
	return s.issueToken(user)
}

// ResolveUser 按 ID 解析用户
func (s *IdentityService) ResolveUser(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveUserByEmail 按邮箱解析用户
func (s *IdentityService) ResolveUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// ListUsers 获取全部用户
func (s *IdentityService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// issueToken 签发 JWT
func (s *IdentityService) issueToken(user *domain.User) (*AuthResult, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}
