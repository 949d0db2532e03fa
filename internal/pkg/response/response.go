package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/tomato-share/internal/pkg/errors"
	"github.com/lk2023060901/tomato-share/internal/pkg/i18n"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`              // 业务错误码（0表示成功）
	Message string      `json:"message,omitempty"` // 提示信息（按请求语言本地化）
	Data    interface{} `json:"data"`              // 实际数据（可能为空对象 {}）
}

// Success 成功响应（200）
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

// Created 创建资源成功（201）
func Created(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusCreated, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

// ErrorWithCode 使用错误码的错误响应, 文案取自 i18n 目录
func ErrorWithCode(c *gin.Context, code int) {
	c.JSON(apperrors.GetHTTPStatus(code), Response{
		Code:    code,
		Message: localize(c, code),
		Data:    struct{}{},
	})
}

// HandleError 统一错误处理（使用AppError）
// 底层错误原因只进日志, 不返回给调用方
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	ErrorWithCode(c, apperrors.ExtractCode(err))
}

// AbortWithError 与 HandleError 相同, 但会中止后续中间件
func AbortWithError(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}

func localize(c *gin.Context, code int) string {
	key := apperrors.GetKey(code)
	msg := i18n.T(c.Request.Context(), key)
	if msg == key {
		return apperrors.GetMessage(code)
	}
	return msg
}
