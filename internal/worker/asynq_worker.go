package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/padaria-next/internal/constants"
	"github.com/padaria-next/internal/logger"
	"github.com/padaria-next/internal/provider"
	"github.com/padaria-next/internal/queue"
	"github.com/padaria-next/internal/service"

	"github.com/hibiken/asynq"
)

type lowStockChecker interface {
	LowStock(ctx context.Context, productIDs []uint) ([]service.BalanceView, error)
}

type batchHandler interface {
	HandleBatchTask(ctx context.Context, payload queue.DeliveryBatchConfirmPayload) (*service.BatchResult, error)
}

// Consumer 异步任务消费者
type Consumer struct {
	inventory lowStockChecker
	batches   batchHandler
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	if c == nil {
		return &Consumer{}
	}
	return &Consumer{
		inventory: c.InventoryService,
		batches:   c.BatchService,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskDeliveryConfirmed, c.handleDeliveryConfirmed)
	mux.HandleFunc(queue.TaskDeliveryBatchConfirm, c.handleDeliveryBatchConfirm)
	mux.HandleFunc(queue.TaskStockLowCheck, c.handleStockLowCheck)
}

func (c *Consumer) handleDeliveryConfirmed(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_confirmed_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliveryConfirmedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_confirmed_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || len(payload.ProductIDs) == 0 {
		logger.Debugw("worker_delivery_confirmed_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.inventory == nil {
		logger.Warnw("worker_delivery_confirmed_skip_inventory_nil", "order_id", payload.OrderID)
		return nil
	}
	ctx = logger.WithFields(ctx, "order_id", payload.OrderID, "execution_token", payload.ExecutionToken)
	return c.reportLowStock(ctx, payload.ProductIDs)
}

func (c *Consumer) handleDeliveryBatchConfirm(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_delivery_batch_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.DeliveryBatchConfirmPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_delivery_batch_unmarshal_failed", "error", err)
		return err
	}
	if len(payload.OrderIDs) == 0 {
		logger.Debugw("worker_delivery_batch_skip_empty", "batch_id", payload.BatchID)
		return nil
	}
	if c.batches == nil {
		logger.Warnw("worker_delivery_batch_skip_service_nil", "batch_id", payload.BatchID)
		return nil
	}
	result, err := c.batches.HandleBatchTask(ctx, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBatchShortage), errors.Is(err, service.ErrBatchResolveFailed):
			// 重试无法改变结果，由操作员处理后重新提交
			logger.Warnw("worker_delivery_batch_aborted", "batch_id", payload.BatchID, "error", err)
			return nil
		case errors.Is(err, service.ErrBatchEmpty):
			logger.Debugw("worker_delivery_batch_skip_empty", "batch_id", payload.BatchID)
			return nil
		default:
			logger.Warnw("worker_delivery_batch_failed", "batch_id", payload.BatchID, "error", err)
			return err
		}
	}
	if result != nil && result.Status == constants.BatchStatusPartial {
		logger.Warnw("worker_delivery_batch_partial",
			"batch_id", payload.BatchID,
			"succeeded", result.SucceededCount,
			"failures", result.FailureSummaries(),
		)
	}
	return nil
}

func (c *Consumer) handleStockLowCheck(ctx context.Context, _ *asynq.Task) error {
	if c == nil || c.inventory == nil {
		logger.Debugw("worker_stock_low_check_skip_nil", "consumer_nil", c == nil)
		return nil
	}
	return c.reportLowStock(ctx, nil)
}

func (c *Consumer) reportLowStock(ctx context.Context, productIDs []uint) error {
	low, err := c.inventory.LowStock(ctx, productIDs)
	if err != nil {
		logger.FromContext(ctx).Warnw("worker_stock_low_check_failed", "error", err)
		return err
	}
	for _, view := range low {
		logger.FromContext(ctx).Warnw("stock_low",
			"product_id", view.ProductID,
			"product_name", view.ProductName,
			"balance", view.Balance,
		)
	}
	return nil
}
