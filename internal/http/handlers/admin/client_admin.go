package admin

import (
	"errors"
	"strings"

	"github.com/padaria-next/internal/http/response"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateClientRequest 创建客户请求
type CreateClientRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ListClients 客户列表
func (h *Handler) ListClients(c *gin.Context) {
	page, pageSize := readPagination(c)
	clients, total, err := h.ClientService.List(c.Request.Context(), repository.ClientListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: c.Query("active") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch clients", err)
		return
	}
	response.SuccessWithPage(c, clients, response.BuildPagination(page, pageSize, total))
}

// CreateClient 创建客户
func (h *Handler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	client, err := h.ClientService.Create(c.Request.Context(), service.CreateClientInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		if errors.Is(err, service.ErrClientNameRequired) {
			respondError(c, response.CodeBadRequest, "client name required", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to create client", err)
		return
	}
	response.Success(c, client)
}
