package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	CategoryID uint
	Search     string
	OnlyActive bool
}

// ClientListFilter 查询客户列表的过滤条件
type ClientListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}

// OrderListFilter 查询配送订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	ClientID      uint
	Status        string
	Mode          string
	OrderNo       string
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
}

// MovementListFilter 查询库存流水列表的过滤条件
type MovementListFilter struct {
	Page           int
	PageSize       int
	ProductID      uint
	OrderID        uint
	Kind           string
	ExecutionToken string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}
