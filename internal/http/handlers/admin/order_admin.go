package admin

import (
	"errors"
	"strings"
	"time"

	handlershared "github.com/padaria-next/internal/http/handlers/shared"
	"github.com/padaria-next/internal/http/response"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/service"

	"github.com/gin-gonic/gin"
)

const scheduledDateLayout = "2006-01-02"

// CreateOrderRequest 创建配送订单请求
type CreateOrderRequest struct {
	ClientID      uint                      `json:"client_id" binding:"required"`
	TotalQuantity int                       `json:"total_quantity"`
	Mode          string                    `json:"mode"`
	ScheduledFor  string                    `json:"scheduled_for"`
	Note          string                    `json:"note"`
	Items         []service.CustomItemInput `json:"items"`
}

// NoteRequest 仅包含备注的请求
type NoteRequest struct {
	Note string `json:"note"`
}

// CreateOrder 创建配送订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	scheduledFor, err := parseDateNullable(req.ScheduledFor)
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid scheduled_for, expected YYYY-MM-DD", nil)
		return
	}
	order, err := h.OrderService.Create(c.Request.Context(), service.CreateOrderInput{
		ClientID:      req.ClientID,
		TotalQuantity: req.TotalQuantity,
		Mode:          req.Mode,
		ScheduledFor:  scheduledFor,
		Note:          req.Note,
		Items:         req.Items,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			respondError(c, response.CodeNotFound, "client not found", nil)
		case errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrInvalidOrderMode),
			errors.Is(err, service.ErrOrderItemsRequired):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "failed to create order", err)
		}
		return
	}
	response.Success(c, order)
}

// ListOrders 配送订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := readPagination(c)
	scheduledFrom, err := parseDateNullable(c.Query("scheduled_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid scheduled_from", nil)
		return
	}
	scheduledTo, err := parseDateNullable(c.Query("scheduled_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid scheduled_to", nil)
		return
	}
	orders, total, err := h.OrderService.List(c.Request.Context(), repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		ClientID:      handlershared.QueryUint(c, "client_id"),
		Status:        strings.TrimSpace(c.Query("status")),
		Mode:          strings.TrimSpace(c.Query("mode")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		ScheduledFrom: scheduledFrom,
		ScheduledTo:   scheduledTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch orders", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 配送订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.OrderService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch order", err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消待交付订单
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req NoteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.OrderService.Cancel(c.Request.Context(), id, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderNotPending):
			respondError(c, response.CodeConflict, "only pending orders can be canceled", nil)
		default:
			respondError(c, response.CodeInternal, "failed to cancel order", err)
		}
		return
	}
	response.Success(c, order)
}

func parseDateNullable(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(scheduledDateLayout, value, time.Local)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, err
		}
	}
	return &parsed, nil
}
