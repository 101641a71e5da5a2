package admin

import (
	"errors"
	"strings"

	handlershared "github.com/padaria-next/internal/http/handlers/shared"
	"github.com/padaria-next/internal/http/response"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RecordMovementRequest 录入库存流水请求（entrada 生产入库 / ajuste 盘点调整）
type RecordMovementRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	Direction string `json:"direction"`
	Quantity  int    `json:"quantity" binding:"required"`
	Note      string `json:"note"`
}

// GetBalances 商品库存余额，product_ids 为空时返回全部商品
func (h *Handler) GetBalances(c *gin.Context) {
	balances, err := h.InventoryService.Balances(c.Request.Context(), handlershared.QueryUintList(c, "product_ids"))
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch balances", err)
		return
	}
	response.Success(c, balances)
}

// GetLowStock 低于阈值的启用商品
func (h *Handler) GetLowStock(c *gin.Context) {
	low, err := h.InventoryService.LowStock(c.Request.Context(), nil)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch balances", err)
		return
	}
	response.Success(c, gin.H{
		"threshold": h.InventoryService.LowStockThreshold(),
		"products":  low,
	})
}

// ListMovements 库存流水
func (h *Handler) ListMovements(c *gin.Context) {
	page, pageSize := readPagination(c)
	movements, total, err := h.InventoryService.ListMovements(c.Request.Context(), repository.MovementListFilter{
		Page:           page,
		PageSize:       pageSize,
		ProductID:      handlershared.QueryUint(c, "product_id"),
		OrderID:        handlershared.QueryUint(c, "order_id"),
		Kind:           strings.TrimSpace(c.Query("kind")),
		ExecutionToken: strings.TrimSpace(c.Query("execution_token")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch movements", err)
		return
	}
	response.SuccessWithPage(c, movements, response.BuildPagination(page, pageSize, total))
}

// RecordMovement 录入库存流水；出库（saida）只能由交付产生
func (h *Handler) RecordMovement(c *gin.Context) {
	var req RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	movement, err := h.InventoryService.RecordMovement(c.Request.Context(), service.RecordMovementInput{
		ProductID: req.ProductID,
		Kind:      req.Kind,
		Direction: req.Direction,
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "product not found", nil)
		case errors.Is(err, service.ErrMovementInvalid):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrMovementWouldGoNegative):
			respondError(c, response.CodeConflict, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "failed to record movement", err)
		}
		return
	}
	response.Success(c, movement)
}
