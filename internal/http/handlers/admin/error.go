package admin

import (
	"errors"

	handlershared "github.com/padaria-next/internal/http/handlers/shared"
	"github.com/padaria-next/internal/http/response"
	"github.com/padaria-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondErrorWithData(c *gin.Context, code int, msg string, data interface{}, err error) {
	handlershared.RespondErrorWithData(c, code, msg, data, err)
}

// commitErrorCode 将交付失败分类映射为响应码
func commitErrorCode(err error) int {
	switch {
	case errors.Is(err, service.ErrInsufficientStock):
		return response.CodeConflict
	case errors.Is(err, service.ErrOrderNotFound):
		return response.CodeNotFound
	case errors.Is(err, service.ErrInvalidQuantity):
		return response.CodeBadRequest
	default:
		return response.CodeInternal
	}
}

// resolveErrorCode 将需求解析错误映射为响应码
func resolveErrorCode(err error) int {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return response.CodeNotFound
	case errors.Is(err, service.ErrConfiguration),
		errors.Is(err, service.ErrNoValidItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidOrderMode):
		return response.CodeUnprocessable
	default:
		return response.CodeInternal
	}
}
