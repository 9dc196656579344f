package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 用于统一管理接入层错误，包含错误码和错误消息
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回服务器错误
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeTokenInvalid = 10003
	CodeTokenExpired = 10004

	// 请求相关 11000-11999
	CodeInvalidParams = 11002

	// 对局相关 20000-20999
	CodeSessionNotFound = 20001
	CodeSessionClosed   = 20002
	CodeNotAccepting    = 20003

	// 系统错误 50000-50999
	CodeServerError = 50001
	CodeUnavailable = 50004
)

// ============== 预定义错误 ==============

var (
	ErrTokenInvalid = NewError(CodeTokenInvalid, "Token 无效")
	ErrTokenExpired = NewError(CodeTokenExpired, "Token 已过期")

	ErrInvalidParams = NewError(CodeInvalidParams, "参数校验失败")

	ErrSessionNotFound = NewError(CodeSessionNotFound, "对局不存在")
	ErrSessionClosed   = NewError(CodeSessionClosed, "对局已关闭")
	ErrNotAccepting    = NewError(CodeNotAccepting, "服务器暂不接受新玩家")

	ErrServerError = NewError(CodeServerError, "服务器内部错误")
	ErrUnavailable = NewError(CodeUnavailable, "服务暂不可用")
)
