package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/metrics"
	"github.com/padaria-next/internal/models"
	"github.com/padaria-next/internal/queue"
	"github.com/padaria-next/internal/repository"
	"github.com/padaria-next/internal/requirement"

	"github.com/google/uuid"
)

// NewExecutionToken 生成新的执行令牌（UUIDv4），每次交付尝试一个
func NewExecutionToken() string {
	return uuid.NewString()
}

// CommitInput 交付提交参数；ExecutionToken 为空时生成新令牌，重试同一次尝试时应复用令牌
type CommitInput struct {
	OrderID        uint   `json:"order_id"`
	ExecutionToken string `json:"execution_token"`
	Note           string `json:"note"`
}

// CommitOutcome 单个订单的交付结果
type CommitOutcome struct {
	OrderID        uint               `json:"order_id"`
	OrderNo        string             `json:"order_no,omitempty"`
	ClientName     string             `json:"client_name,omitempty"`
	ExecutionToken string             `json:"execution_token"`
	Status         string             `json:"status"`
	Lines          []requirement.Line `json:"lines,omitempty"`
	TotalUnits     int                `json:"total_units"`
	DeliveredAt    *time.Time         `json:"delivered_at,omitempty"`
	Shortages      []ShortageEntry    `json:"shortages,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
	Message        string             `json:"message"`
}

// Succeeded 成功或已处理均视为成功
func (o *CommitOutcome) Succeeded() bool {
	if o == nil {
		return false
	}
	return o.Status == constants.CommitStatusSuccess || o.Status == constants.CommitStatusAlreadyProcessed
}

// CommitError 交付失败，Status 为失败分类，支持 errors.Is 匹配对应的哨兵错误
type CommitError struct {
	Status    string
	OrderID   uint
	Shortages []ShortageEntry
	Err       error
}

func (e *CommitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("order %d: %s", e.OrderID, e.Status)
	}
	return fmt.Sprintf("order %d: %s: %v", e.OrderID, e.Status, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// Is 按失败分类匹配哨兵错误
func (e *CommitError) Is(target error) bool {
	switch e.Status {
	case constants.CommitStatusInsufficientStock:
		return target == ErrInsufficientStock
	case constants.CommitStatusOrderNotFound:
		return target == ErrOrderNotFound
	case constants.CommitStatusInvalidQuantity:
		return target == ErrInvalidQuantity
	case constants.CommitStatusUnknown:
		return target == ErrCommitUnknown
	}
	return false
}

// DeliveryServiceOptions 交付服务可选依赖
type DeliveryServiceOptions struct {
	Locker  CommitLocker
	Events  DeliveryEventPublisher
	Metrics *metrics.Recorder
}

// DeliveryService 交付服务：解析 → 校验 → 原子提交
type DeliveryService struct {
	orders    OrderReader
	resolver  *RequirementResolver
	validator *FulfillmentValidator
	committer DeliveryCommitter
	locker    CommitLocker
	events    DeliveryEventPublisher
	metrics   *metrics.Recorder
}

// NewDeliveryService 创建交付服务
func NewDeliveryService(orders OrderReader, resolver *RequirementResolver, validator *FulfillmentValidator, committer DeliveryCommitter, opts DeliveryServiceOptions) *DeliveryService {
	return &DeliveryService{
		orders:    orders,
		resolver:  resolver,
		validator: validator,
		committer: committer,
		locker:    opts.Locker,
		events:    opts.Events,
		metrics:   opts.Metrics,
	}
}

// ResolveOrder 预览订单需求（不写入任何数据）
func (s *DeliveryService) ResolveOrder(ctx context.Context, orderID uint) (*requirement.Requirement, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.resolver.Resolve(ctx, order)
}

// ValidateOrders 汇总多个订单的需求并校验库存
func (s *DeliveryService) ValidateOrders(ctx context.Context, orderIDs []uint) ([]ShortageEntry, error) {
	orders, err := loadOrders(ctx, s.orders, orderIDs)
	if err != nil {
		return nil, err
	}
	reqs, err := s.resolver.ResolveAll(ctx, orders)
	if err != nil {
		return nil, err
	}
	shortages, err := s.validator.Validate(ctx, reqs)
	if err != nil {
		return nil, err
	}
	s.recordShortages(shortages)
	return shortages, nil
}

// ConfirmDelivery 单个订单确认：解析、校验，库存不足时直接返回缺口报告而不提交
func (s *DeliveryService) ConfirmDelivery(ctx context.Context, orderID uint, note string) (*CommitOutcome, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		cerr := &CommitError{Status: constants.CommitStatusOrderNotFound, OrderID: orderID, Err: ErrOrderNotFound}
		return failureOutcome(orderID, "", cerr), cerr
	}
	if order.Status != constants.OrderStatusPending {
		cerr := &CommitError{Status: constants.CommitStatusOrderNotFound, OrderID: orderID, Err: ErrOrderNotPending}
		outcome := failureOutcome(orderID, order.ExecutionToken, cerr)
		outcome.OrderNo = order.OrderNo
		outcome.ClientName = order.ClientName()
		return outcome, cerr
	}

	req, err := s.resolver.Resolve(ctx, order)
	if err != nil {
		return nil, err
	}
	shortages, err := s.validator.Validate(ctx, []*requirement.Requirement{req})
	if err != nil {
		return nil, err
	}
	if len(shortages) > 0 {
		s.recordShortages(shortages)
		cerr := &CommitError{Status: constants.CommitStatusInsufficientStock, OrderID: orderID, Shortages: shortages, Err: ErrInsufficientStock}
		outcome := failureOutcome(orderID, "", cerr)
		outcome.OrderNo = order.OrderNo
		outcome.ClientName = order.ClientName()
		outcome.Lines = req.Lines
		outcome.Warnings = req.Warnings
		logger.FromContext(ctx).Infow("delivery_confirm_shortage",
			"order_id", orderID,
			"shortages", len(shortages),
		)
		return outcome, cerr
	}

	outcome, err := s.Commit(ctx, CommitInput{OrderID: orderID, Note: note})
	if outcome != nil {
		outcome.OrderNo = order.OrderNo
		outcome.ClientName = order.ClientName()
	}
	return outcome, err
}

// Commit 以执行令牌提交交付。成功或同令牌重放时 error 为 nil；
// 失败时同时返回带分类的结果与 *CommitError。
func (s *DeliveryService) Commit(ctx context.Context, in CommitInput) (*CommitOutcome, error) {
	token := strings.TrimSpace(in.ExecutionToken)
	if token == "" {
		token = NewExecutionToken()
	}
	ctx = logger.WithFields(ctx, "order_id", in.OrderID, "execution_token", token)
	if in.OrderID == 0 {
		cerr := &CommitError{Status: constants.CommitStatusOrderNotFound, OrderID: 0, Err: ErrOrderNotFound}
		s.metrics.ObserveCommit(cerr.Status, 0)
		return failureOutcome(0, token, cerr), cerr
	}

	unlock := s.acquireLock(ctx, in.OrderID)
	defer unlock()

	receipt, err := s.committer.CommitDelivery(ctx, repository.DeliveryCommand{
		OrderID:        in.OrderID,
		ExecutionToken: token,
		Note:           in.Note,
	})
	if err != nil {
		cerr := classifyCommitError(in.OrderID, err)
		s.metrics.ObserveCommit(cerr.Status, 0)
		if cerr.Status == constants.CommitStatusUnknown {
			logger.FromContext(ctx).Errorw("delivery_commit_failed", "status", cerr.Status, "error", err)
		} else {
			logger.FromContext(ctx).Warnw("delivery_commit_rejected", "status", cerr.Status, "error", err)
		}
		return failureOutcome(in.OrderID, token, cerr), cerr
	}

	status := constants.CommitStatusSuccess
	message := fmt.Sprintf("order %d delivered: %d units", receipt.OrderID, receipt.TotalUnits)
	if receipt.Replayed {
		status = constants.CommitStatusAlreadyProcessed
		message = fmt.Sprintf("order %d already delivered with this token", receipt.OrderID)
	}
	deliveredAt := receipt.DeliveredAt
	outcome := &CommitOutcome{
		OrderID:        receipt.OrderID,
		ExecutionToken: receipt.ExecutionToken,
		Status:         status,
		Lines:          receipt.Lines,
		TotalUnits:     receipt.TotalUnits,
		DeliveredAt:    &deliveredAt,
		Warnings:       receipt.Warnings,
		Message:        message,
	}
	if receipt.Replayed {
		s.metrics.ObserveCommit(status, 0)
		logger.FromContext(ctx).Infow("delivery_commit_replayed")
		return outcome, nil
	}
	s.metrics.ObserveCommit(status, receipt.TotalUnits)
	logger.FromContext(ctx).Infow("delivery_commit_succeeded", "total_units", receipt.TotalUnits)
	s.publishConfirmed(ctx, receipt)
	return outcome, nil
}

func (s *DeliveryService) acquireLock(ctx context.Context, orderID uint) func() {
	if s.locker == nil {
		return func() {}
	}
	unlock, err := s.locker.Lock(ctx, orderID)
	if err != nil {
		logger.FromContext(ctx).Warnw("delivery_commit_lock_unavailable", "error", err)
	}
	if unlock == nil {
		return func() {}
	}
	return unlock
}

func (s *DeliveryService) publishConfirmed(ctx context.Context, receipt *repository.DeliveryReceipt) {
	if s.events == nil {
		return
	}
	productIDs := make([]uint, 0, len(receipt.Lines))
	for _, line := range receipt.Lines {
		if line.Quantity > 0 {
			productIDs = append(productIDs, line.ProductID)
		}
	}
	err := s.events.EnqueueDeliveryConfirmed(queue.DeliveryConfirmedPayload{
		OrderID:        receipt.OrderID,
		ExecutionToken: receipt.ExecutionToken,
		ProductIDs:     productIDs,
	})
	if err != nil {
		logger.FromContext(ctx).Warnw("delivery_confirmed_enqueue_failed", "error", err)
	}
}

func (s *DeliveryService) recordShortages(shortages []ShortageEntry) {
	for _, entry := range shortages {
		s.metrics.SetShortage(entry.ProductName, entry.Missing)
	}
}

func classifyCommitError(orderID uint, err error) *CommitError {
	var shortageErr *repository.StockShortageError
	switch {
	case errors.As(err, &shortageErr):
		shortages := make([]ShortageEntry, 0, len(shortageErr.Shortages))
		for _, item := range shortageErr.Shortages {
			shortages = append(shortages, ShortageEntry{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Required:    item.Required,
				Available:   item.Available,
				Missing:     item.Missing,
			})
		}
		return &CommitError{Status: constants.CommitStatusInsufficientStock, OrderID: orderID, Shortages: shortages, Err: err}
	case errors.Is(err, repository.ErrDeliveryOrderNotFound):
		return &CommitError{Status: constants.CommitStatusOrderNotFound, OrderID: orderID, Err: err}
	case errors.Is(err, repository.ErrDeliveryInvalidQuantity), errors.Is(err, requirement.ErrInvalidQuantity):
		return &CommitError{Status: constants.CommitStatusInvalidQuantity, OrderID: orderID, Err: err}
	case errors.Is(err, repository.ErrExecutionTokenConflict):
		return &CommitError{Status: constants.CommitStatusUnknown, OrderID: orderID, Err: fmt.Errorf("%w: %v", ErrExecutionTokenConflict, err)}
	default:
		return &CommitError{Status: constants.CommitStatusUnknown, OrderID: orderID, Err: err}
	}
}

func failureOutcome(orderID uint, token string, cerr *CommitError) *CommitOutcome {
	return &CommitOutcome{
		OrderID:        orderID,
		ExecutionToken: token,
		Status:         cerr.Status,
		Shortages:      cerr.Shortages,
		Message:        describeFailure(cerr),
	}
}

func loadOrders(ctx context.Context, reader OrderReader, orderIDs []uint) ([]models.DeliveryOrder, error) {
	ids := uniqueIDs(orderIDs)
	if len(ids) == 0 {
		return nil, ErrBatchEmpty
	}
	orders, err := reader.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(orders) != len(ids) {
		found := make(map[uint]struct{}, len(orders))
		for _, order := range orders {
			found[order.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				return nil, &OrderResolveError{OrderID: id, Err: ErrOrderNotFound}
			}
		}
	}
	return orders, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
