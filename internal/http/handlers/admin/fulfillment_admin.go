package admin

import (
	"errors"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/http/response"
	"github.com/padaria-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderIDsRequest 订单 ID 列表请求
type OrderIDsRequest struct {
	OrderIDs []uint `json:"order_ids" binding:"required"`
	Note     string `json:"note"`
}

// CommitRequest 单个订单提交请求；execution_token 为空时由服务端生成
type CommitRequest struct {
	OrderID        uint   `json:"order_id" binding:"required"`
	ExecutionToken string `json:"execution_token"`
	Note           string `json:"note"`
}

// GetOrderRequirements 预览订单的商品需求
func (h *Handler) GetOrderRequirements(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, err := h.DeliveryService.ResolveOrder(c.Request.Context(), id)
	if err != nil {
		code := resolveErrorCode(err)
		msg := err.Error()
		if code == response.CodeInternal {
			msg = "failed to resolve order"
		}
		respondError(c, code, msg, err)
		return
	}
	response.Success(c, req)
}

// ValidateOrders 汇总校验多个订单的库存，返回缺口报告（为空表示可全部交付）
func (h *Handler) ValidateOrders(c *gin.Context) {
	var req OrderIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	shortages, err := h.DeliveryService.ValidateOrders(c.Request.Context(), req.OrderIDs)
	if err != nil {
		if errors.Is(err, service.ErrBatchEmpty) {
			respondError(c, response.CodeBadRequest, "order_ids required", nil)
			return
		}
		code := resolveErrorCode(err)
		msg := err.Error()
		if code == response.CodeInternal {
			msg = "failed to validate orders"
		}
		respondError(c, code, msg, err)
		return
	}
	if shortages == nil {
		shortages = []service.ShortageEntry{}
	}
	response.Success(c, gin.H{
		"ok":        len(shortages) == 0,
		"shortages": shortages,
		"summaries": service.ShortageSummaries(shortages),
	})
}

// CommitDelivery 以执行令牌提交单个订单（重试时复用同一令牌）
func (h *Handler) CommitDelivery(c *gin.Context) {
	var req CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	outcome, err := h.DeliveryService.Commit(c.Request.Context(), service.CommitInput{
		OrderID:        req.OrderID,
		ExecutionToken: req.ExecutionToken,
		Note:           req.Note,
	})
	respondCommit(c, outcome, err)
}

// ConfirmOrder 单个订单确认：解析、校验后提交，库存不足时返回缺口报告
func (h *Handler) ConfirmOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req NoteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	outcome, err := h.DeliveryService.ConfirmDelivery(c.Request.Context(), id, req.Note)
	respondCommit(c, outcome, err)
}

// ConfirmBatch 同步批量确认
func (h *Handler) ConfirmBatch(c *gin.Context) {
	var req OrderIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	result, err := h.BatchService.ConfirmBatchByIDs(c.Request.Context(), req.OrderIDs, req.Note, nil)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchEmpty):
			respondError(c, response.CodeBadRequest, "order_ids required", nil)
		case result == nil:
			respondError(c, response.CodeInternal, "batch confirmation failed", err)
		case errors.Is(err, service.ErrBatchShortage):
			respondErrorWithData(c, response.CodeConflict, result.Summary(), result, nil)
		case errors.Is(err, service.ErrBatchResolveFailed):
			respondErrorWithData(c, response.CodeUnprocessable, result.Summary(), result, nil)
		default:
			respondErrorWithData(c, response.CodeConflict, result.Summary(), result, err)
		}
		return
	}
	if result.Status == constants.BatchStatusPartial {
		requestLog(c).Warnw("delivery_batch_partial", "batch_id", result.BatchID, "failed", len(result.FailedOrders))
	}
	response.SuccessWithMsg(c, result.Summary(), result)
}

// EnqueueBatch 异步批量确认，立即返回批次号与固定的执行令牌
func (h *Handler) EnqueueBatch(c *gin.Context) {
	var req OrderIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	ticket, err := h.BatchService.EnqueueBatch(c.Request.Context(), req.OrderIDs, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchEmpty):
			respondError(c, response.CodeBadRequest, "order_ids required", nil)
		case errors.Is(err, service.ErrQueueUnavailable):
			respondError(c, response.CodeUnavailable, "async queue is not enabled", nil)
		default:
			respondError(c, response.CodeInternal, "failed to enqueue batch", err)
		}
		return
	}
	response.SuccessWithMsg(c, "batch accepted", ticket)
}

func respondCommit(c *gin.Context, outcome *service.CommitOutcome, err error) {
	if err == nil {
		response.SuccessWithMsg(c, outcome.Message, outcome)
		return
	}
	var cerr *service.CommitError
	if !errors.As(err, &cerr) || outcome == nil {
		code := resolveErrorCode(err)
		msg := err.Error()
		if code == response.CodeInternal {
			msg = "delivery failed"
		}
		respondError(c, code, msg, err)
		return
	}
	code := commitErrorCode(err)
	var logged error
	if code == response.CodeInternal {
		logged = err
	}
	respondErrorWithData(c, code, outcome.Message, outcome, logged)
}
