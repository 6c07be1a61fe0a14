// Package domain 包含用户身份的领域模型
package domain

import (
	"context"

	"gorm.io/gorm"
)

// Role 用户角色
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User 用户实体
type User struct {
	gorm.Model
	// 姓名
	Name string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	// 邮箱，唯一
	Email string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	// 密码哈希，永不出现在响应中
	PasswordHash string `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	// 电话
	Phone string `gorm:"column:phone;type:varchar(20)" json:"phone"`
	// 地址
	Address string `gorm:"column:address;type:varchar(500)" json:"address"`
	// 角色
	Role Role `gorm:"column:role;type:varchar(20);not null;default:'USER'" json:"role"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// UserRepository 用户仓储接口
type UserRepository interface {
	// Save 保存用户
	Save(ctx context.Context, user *User) error
	// GetByID 按 ID 获取用户
	GetByID(ctx context.Context, id uint) (*User, error)
	// GetByEmail 按邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*User, error)
	// ListByIDs 批量获取用户
	ListByIDs(ctx context.Context, ids []uint) ([]*User, error)
	// List 获取全部用户
	List(ctx context.Context) ([]*User, error)
	// WithTx 返回绑定到指定事务的仓储
	WithTx(tx *gorm.DB) UserRepository
}
