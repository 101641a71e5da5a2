package admin

import (
	"errors"
	"io"

	handlershared "github.com/padaria-next/internal/http/handlers/shared"
	"github.com/padaria-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func parseID(c *gin.Context) (uint, bool) {
	return handlershared.ParseUintParam(c, "id")
}

func readPagination(c *gin.Context) (int, int) {
	return handlershared.ReadPagination(c)
}

// bindOptionalJSON 请求体可为空；非空但无法解析时返回 400
func bindOptionalJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return false
	}
	return true
}
