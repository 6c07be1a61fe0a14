// Package errs 定义业务错误类型及其 HTTP 状态码映射。
// 所有业务规则失败都会中止所在事务，调用方通过 errors.As 识别类型。
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// NotFoundError 资源不存在
type NotFoundError struct {
	Resource string
	Field    string
	Value    interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with %s: %v", e.Resource, e.Field, e.Value)
}

// NewNotFound 创建 NotFoundError
func NewNotFound(resource, field string, value interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, Field: field, Value: value}
}

// InsufficientStockError 库存不足
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// InvalidStateTransitionError 终态订单不允许再流转
type InvalidStateTransitionError struct {
	Current string
	Target  string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot change status of %s order to %s", e.Current, e.Target)
}

// InvalidOperationError 当前状态下不允许的操作
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return e.Reason
}

// DuplicateResourceError 资源已存在
type DuplicateResourceError struct {
	Resource string
	Field    string
	Value    interface{}
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("%s already exists with %s: %v", e.Resource, e.Field, e.Value)
}

// IsNotFound 判断是否为 NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// HTTPStatus 将业务错误映射为 HTTP 状态码，未知错误映射为 500
func HTTPStatus(err error) int {
	var (
		notFound     *NotFoundError
		insufficient *InsufficientStockError
		transition   *InvalidStateTransitionError
		operation    *InvalidOperationError
		duplicate    *DuplicateResourceError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &insufficient),
		errors.As(err, &transition),
		errors.As(err, &operation),
		errors.As(err, &duplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
