package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/metrics"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/queue"

	"github.com/google/uuid"
)

// BatchInput 批量确认参数；Tokens 可为每个订单固定执行令牌（异步任务重试时使用）
type BatchInput struct {
	BatchID string
	Orders  []models.DeliveryOrder
	Tokens  map[uint]string
	Note    string
}

// BatchFailure 批量中单个订单的失败
type BatchFailure struct {
	OrderID    uint   `json:"order_id"`
	OrderNo    string `json:"order_no,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

// BatchResult 批量确认结果
type BatchResult struct {
	BatchID        string                  `json:"batch_id"`
	Status         string                  `json:"status"`
	Stage          string                  `json:"stage"`
	PerOrder       map[uint]*CommitOutcome `json:"per_order"`
	SucceededCount int                     `json:"succeeded_count"`
	FailedOrders   []BatchFailure          `json:"failed_orders"`
	Shortages      []ShortageEntry         `json:"shortages,omitempty"`
	Warnings       []string                `json:"warnings,omitempty"`
}

// BatchTicket 异步批量确认的受理回执
type BatchTicket struct {
	BatchID  string          `json:"batch_id"`
	OrderIDs []uint          `json:"order_ids"`
	Tokens   map[uint]string `json:"tokens"`
}

// BatchService 批量确认：全部解析 → 汇总校验 → 逐单提交
type BatchService struct {
	orders    OrderReader
	resolver  *RequirementResolver
	validator *FulfillmentValidator
	delivery  *DeliveryService
	publisher BatchTaskPublisher
	metrics   *metrics.Recorder
}

// NewBatchService 创建批量确认服务，publisher 与 recorder 可为 nil
func NewBatchService(orders OrderReader, resolver *RequirementResolver, validator *FulfillmentValidator, delivery *DeliveryService, publisher BatchTaskPublisher, recorder *metrics.Recorder) *BatchService {
	return &BatchService{
		orders:    orders,
		resolver:  resolver,
		validator: validator,
		delivery:  delivery,
		publisher: publisher,
		metrics:   recorder,
	}
}

// ConfirmBatchByIDs 按订单 ID 批量确认，缺失的订单在解析阶段中止整个批次
func (s *BatchService) ConfirmBatchByIDs(ctx context.Context, orderIDs []uint, note string, tokens map[uint]string) (*BatchResult, error) {
	return s.confirmByIDs(ctx, "", orderIDs, note, tokens)
}

func (s *BatchService) confirmByIDs(ctx context.Context, batchID string, orderIDs []uint, note string, tokens map[uint]string) (*BatchResult, error) {
	orders, err := loadOrders(ctx, s.orders, orderIDs)
	if err != nil {
		if errors.Is(err, ErrBatchEmpty) {
			return nil, err
		}
		result := newBatchResult(batchID)
		s.abort(result, constants.BatchStageResolve, err)
		return result, fmt.Errorf("%w: %w", ErrBatchResolveFailed, err)
	}
	return s.ConfirmBatch(ctx, BatchInput{BatchID: batchID, Orders: orders, Tokens: tokens, Note: note})
}

// ConfirmBatch 批量确认。解析或汇总校验失败时整批中止且不提交任何订单；
// 提交阶段单个订单的失败互不影响，全部失败时返回 ErrBatchAllFailed。
func (s *BatchService) ConfirmBatch(ctx context.Context, in BatchInput) (*BatchResult, error) {
	orders := uniqueOrders(in.Orders)
	if len(orders) == 0 {
		return nil, ErrBatchEmpty
	}
	result := newBatchResult(in.BatchID)
	ctx = logger.WithFields(ctx, "batch_id", result.BatchID)

	// 使用固定令牌且已交付的订单直接进入提交阶段重放
	toResolve := make([]models.DeliveryOrder, 0, len(orders))
	for _, order := range orders {
		if replayable(order, in.Tokens) {
			continue
		}
		if order.Status != constants.OrderStatusPending {
			err := &OrderResolveError{OrderID: order.ID, OrderNo: order.OrderNo, ClientName: order.ClientName(), Err: ErrOrderNotPending}
			s.abort(result, constants.BatchStageResolve, err)
			return result, fmt.Errorf("%w: %w", ErrBatchResolveFailed, err)
		}
		toResolve = append(toResolve, order)
	}

	reqs, err := s.resolver.ResolveAll(ctx, toResolve)
	if err != nil {
		s.abort(result, constants.BatchStageResolve, err)
		return result, fmt.Errorf("%w: %w", ErrBatchResolveFailed, err)
	}
	for _, req := range reqs {
		for _, warning := range req.Warnings {
			result.Warnings = append(result.Warnings, fmt.Sprintf("order %d: %s", req.OrderID, warning))
		}
	}

	result.Stage = constants.BatchStageValidate
	shortages, err := s.validator.Validate(ctx, reqs)
	if err != nil {
		return nil, err
	}
	if len(shortages) > 0 {
		result.Status = constants.BatchStatusAborted
		result.Shortages = shortages
		for _, entry := range shortages {
			s.metrics.SetShortage(entry.ProductName, entry.Missing)
		}
		s.metrics.ObserveBatch(result.Status, result.Stage)
		logger.FromContext(ctx).Infow("delivery_batch_shortage",
			"orders", len(orders),
			"short_products", len(shortages),
		)
		return result, ErrBatchShortage
	}

	result.Stage = constants.BatchStageCommit
	for _, order := range orders {
		outcome, commitErr := s.delivery.Commit(ctx, CommitInput{
			OrderID:        order.ID,
			ExecutionToken: strings.TrimSpace(in.Tokens[order.ID]),
			Note:           in.Note,
		})
		if outcome != nil {
			outcome.OrderNo = order.OrderNo
			outcome.ClientName = order.ClientName()
			result.PerOrder[order.ID] = outcome
		}
		if commitErr == nil && outcome.Succeeded() {
			result.SucceededCount++
			continue
		}
		failure := BatchFailure{
			OrderID:    order.ID,
			OrderNo:    order.OrderNo,
			ClientName: order.ClientName(),
			Status:     constants.CommitStatusUnknown,
			Reason:     "delivery failed",
		}
		if outcome != nil {
			failure.Status = outcome.Status
			failure.Reason = outcome.Message
		} else if commitErr != nil {
			failure.Reason = commitErr.Error()
		}
		result.FailedOrders = append(result.FailedOrders, failure)
	}

	switch {
	case result.SucceededCount == 0:
		result.Status = constants.BatchStatusFailed
	case len(result.FailedOrders) > 0:
		result.Status = constants.BatchStatusPartial
	default:
		result.Status = constants.BatchStatusSuccess
	}
	s.metrics.ObserveBatch(result.Status, result.Stage)
	logger.FromContext(ctx).Infow("delivery_batch_finished",
		"status", result.Status,
		"succeeded", result.SucceededCount,
		"failed", len(result.FailedOrders),
	)
	if result.Status == constants.BatchStatusFailed {
		return result, ErrBatchAllFailed
	}
	return result, nil
}

// EnqueueBatch 为每个订单固定执行令牌后投递异步批量确认任务
func (s *BatchService) EnqueueBatch(ctx context.Context, orderIDs []uint, note string) (*BatchTicket, error) {
	ids := uniqueIDs(orderIDs)
	if len(ids) == 0 {
		return nil, ErrBatchEmpty
	}
	if s.publisher == nil {
		return nil, ErrQueueUnavailable
	}
	ticket := &BatchTicket{
		BatchID:  uuid.NewString(),
		OrderIDs: ids,
		Tokens:   make(map[uint]string, len(ids)),
	}
	for _, id := range ids {
		ticket.Tokens[id] = NewExecutionToken()
	}
	err := s.publisher.EnqueueDeliveryBatchConfirm(queue.DeliveryBatchConfirmPayload{
		BatchID:  ticket.BatchID,
		OrderIDs: ticket.OrderIDs,
		Tokens:   ticket.Tokens,
		Note:     note,
	})
	if err != nil {
		if errors.Is(err, queue.ErrQueueDisabled) {
			return nil, ErrQueueUnavailable
		}
		return nil, err
	}
	logger.FromContext(ctx).Infow("delivery_batch_enqueued", "batch_id", ticket.BatchID, "orders", len(ids))
	return ticket, nil
}

// HandleBatchTask 执行异步批量确认任务（worker 调用）
func (s *BatchService) HandleBatchTask(ctx context.Context, payload queue.DeliveryBatchConfirmPayload) (*BatchResult, error) {
	return s.confirmByIDs(ctx, payload.BatchID, payload.OrderIDs, payload.Note, payload.Tokens)
}

func (s *BatchService) abort(result *BatchResult, stage string, err error) {
	result.Status = constants.BatchStatusAborted
	result.Stage = stage
	var resolveErr *OrderResolveError
	if errors.As(err, &resolveErr) {
		status, reason := describeResolveFailure(resolveErr.Err)
		result.FailedOrders = append(result.FailedOrders, BatchFailure{
			OrderID:    resolveErr.OrderID,
			OrderNo:    resolveErr.OrderNo,
			ClientName: resolveErr.ClientName,
			Status:     status,
			Reason:     reason,
		})
	}
	s.metrics.ObserveBatch(result.Status, result.Stage)
}

func newBatchResult(batchID string) *BatchResult {
	if strings.TrimSpace(batchID) == "" {
		batchID = uuid.NewString()
	}
	return &BatchResult{
		BatchID:      batchID,
		Stage:        constants.BatchStageResolve,
		PerOrder:     make(map[uint]*CommitOutcome),
		FailedOrders: []BatchFailure{},
	}
}

func replayable(order models.DeliveryOrder, tokens map[uint]string) bool {
	if order.Status != constants.OrderStatusDelivered {
		return false
	}
	token := strings.TrimSpace(tokens[order.ID])
	return token != "" && token == order.ExecutionToken
}

func uniqueOrders(orders []models.DeliveryOrder) []models.DeliveryOrder {
	seen := make(map[uint]struct{}, len(orders))
	out := make([]models.DeliveryOrder, 0, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.ID]; ok {
			continue
		}
		seen[order.ID] = struct{}{}
		out = append(out, order)
	}
	return out
}
