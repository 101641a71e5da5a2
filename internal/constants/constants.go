package constants

// 配送订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// 配送订单模式常量
const (
	OrderModeStandard   = "standard"
	OrderModeCustomized = "customized"
)

// 库存流水类型常量
const (
	MovementKindEntrada = "entrada"
	MovementKindSaida   = "saida"
	MovementKindAjuste  = "ajuste"
)

// 库存流水方向常量
const (
	MovementDirectionIn  = "in"
	MovementDirectionOut = "out"
)

// 交付提交结果常量
const (
	CommitStatusSuccess           = "success"
	CommitStatusAlreadyProcessed  = "already_processed"
	CommitStatusInsufficientStock = "insufficient_stock"
	CommitStatusOrderNotFound     = "order_not_found"
	CommitStatusInvalidQuantity   = "invalid_quantity"
	CommitStatusUnknown           = "unknown"
)

// 解析阶段失败状态常量
const (
	ResolveStatusConfiguration = "configuration_error"
	ResolveStatusNoValidItems  = "no_valid_items"
	ResolveStatusInvalidMode   = "invalid_mode"
)

// 批量交付结果常量
const (
	BatchStatusSuccess = "success"
	BatchStatusPartial = "partial"
	BatchStatusFailed  = "failed"
	BatchStatusAborted = "aborted"
)

// 批量交付阶段常量
const (
	BatchStageResolve  = "resolve"
	BatchStageValidate = "validate"
	BatchStageCommit   = "commit"
)

// 队列与任务常量
const (
	QueueDefault             = "default"
	QueueCritical            = "critical"
	TaskDeliveryConfirmed    = "delivery:confirmed"
	TaskDeliveryBatchConfirm = "delivery:batch_confirm"
	TaskStockLowCheck        = "stock:low_check"
)
