package service

import (
	"errors"

	"github.com/padaria-next/internal/requirement"
)

var (
	// ErrConfiguration 标准订单没有可分配的启用商品
	ErrConfiguration = requirement.ErrConfiguration
	// ErrNoValidItems 定制订单没有任何可匹配的商品
	ErrNoValidItems = requirement.ErrNoValidItems
	// ErrInvalidQuantity 订单数量非法
	ErrInvalidQuantity = requirement.ErrInvalidQuantity
	// ErrInvalidOrderMode 订单模式非法
	ErrInvalidOrderMode = requirement.ErrInvalidMode

	// ErrOrderNotFound 订单不存在（或已不再是待交付状态）
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPending 订单不是待交付状态
	ErrOrderNotPending = errors.New("order is not pending")
	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrCommitUnknown 交付失败（未分类错误）
	ErrCommitUnknown = errors.New("delivery commit failed")
	// ErrExecutionTokenConflict 执行令牌已用于其他订单
	ErrExecutionTokenConflict = errors.New("execution token belongs to another order")

	// ErrBatchEmpty 批量确认没有订单
	ErrBatchEmpty = errors.New("batch has no orders")
	// ErrBatchResolveFailed 批量确认解析阶段失败
	ErrBatchResolveFailed = errors.New("batch aborted: requirement resolution failed")
	// ErrBatchShortage 批量确认校验阶段发现库存不足
	ErrBatchShortage = errors.New("batch aborted: insufficient stock for aggregated demand")
	// ErrBatchAllFailed 批量确认没有任何订单成功
	ErrBatchAllFailed = errors.New("batch failed: no order committed")

	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
	// ErrProductSlugExists 商品 slug 已存在
	ErrProductSlugExists = errors.New("product slug already exists")
	// ErrProductNameRequired 商品名称为空
	ErrProductNameRequired = errors.New("product name required")
	// ErrCategoryNotFound 分类不存在
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryNameRequired 分类名称为空
	ErrCategoryNameRequired = errors.New("category name required")
	// ErrCategorySlugExists 分类 slug 已存在
	ErrCategorySlugExists = errors.New("category slug already exists")
	// ErrAllocationInvalid 分配百分比非法
	ErrAllocationInvalid = errors.New("allocation percentage invalid")
	// ErrAllocationOutOfBalance 启用商品的分配百分比之和不等于 100
	ErrAllocationOutOfBalance = errors.New("allocation percentages must sum to 100")

	// ErrClientNotFound 客户不存在
	ErrClientNotFound = errors.New("client not found")
	// ErrClientNameRequired 客户名称为空
	ErrClientNameRequired = errors.New("client name required")
	// ErrOrderItemsRequired 定制订单缺少商品
	ErrOrderItemsRequired = errors.New("customized order requires items")

	// ErrMovementInvalid 库存流水参数非法
	ErrMovementInvalid = errors.New("stock movement invalid")
	// ErrMovementWouldGoNegative 出库调整会导致余额为负
	ErrMovementWouldGoNegative = errors.New("adjustment would drive balance negative")

	// ErrQueueUnavailable 异步队列未启用
	ErrQueueUnavailable = errors.New("queue unavailable")
)
