package queue

import (
	"encoding/json"

	"github.com/padaria-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskDeliveryConfirmed 交付成功后的后续处理任务
	TaskDeliveryConfirmed = constants.TaskDeliveryConfirmed
	// TaskDeliveryBatchConfirm 异步批量确认任务
	TaskDeliveryBatchConfirm = constants.TaskDeliveryBatchConfirm
	// TaskStockLowCheck 定时低库存巡检任务
	TaskStockLowCheck = constants.TaskStockLowCheck
)

// DeliveryConfirmedPayload 交付成功任务载荷
type DeliveryConfirmedPayload struct {
	OrderID        uint   `json:"order_id"`
	ExecutionToken string `json:"execution_token"`
	ProductIDs     []uint `json:"product_ids"`
}

// DeliveryBatchConfirmPayload 批量确认任务载荷；Tokens 在入队时固定，任务重试时复用同一令牌
type DeliveryBatchConfirmPayload struct {
	BatchID  string          `json:"batch_id"`
	OrderIDs []uint          `json:"order_ids"`
	Tokens   map[uint]string `json:"tokens"`
	Note     string          `json:"note"`
}

// NewDeliveryConfirmedTask 创建交付成功任务
func NewDeliveryConfirmedTask(payload DeliveryConfirmedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryConfirmed, body), nil
}

// NewDeliveryBatchConfirmTask 创建批量确认任务
func NewDeliveryBatchConfirmTask(payload DeliveryBatchConfirmPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryBatchConfirm, body), nil
}

// NewStockLowCheckTask 创建低库存巡检任务（无载荷）
func NewStockLowCheckTask() *asynq.Task {
	return asynq.NewTask(TaskStockLowCheck, nil)
}
