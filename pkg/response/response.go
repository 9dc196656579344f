package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "sudooom.tablegame/pkg/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// 错误码常量（使用 pkg/errors 包的定义）
const (
	CodeSuccess = appErrors.CodeSuccess

	CodeTokenInvalid = appErrors.CodeTokenInvalid
	CodeTokenExpired = appErrors.CodeTokenExpired

	CodeInvalidParams = appErrors.CodeInvalidParams

	CodeSessionNotFound = appErrors.CodeSessionNotFound

	CodeServerError = appErrors.CodeServerError
	CodeUnavailable = appErrors.CodeUnavailable
)

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应
func ErrorFromAppError(c *gin.Context, err error) {
	c.JSON(http.StatusOK, Response{
		Code:    appErrors.GetCode(err),
		Message: appErrors.GetMessage(err),
		Data:    nil,
	})
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Code:    appErrors.GetCode(err),
		Message: appErrors.GetMessage(err),
		Data:    nil,
	})
}

// Unavailable 服务不可用
func Unavailable(c *gin.Context, data any) {
	c.JSON(http.StatusServiceUnavailable, Response{
		Code:    CodeUnavailable,
		Message: appErrors.ErrUnavailable.Message,
		Data:    data,
	})
}
