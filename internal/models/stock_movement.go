package models

import (
	"time"

	"github.com/padaria-next/internal/constants"
)

// StockMovement 库存流水（只追加，不修改不删除，更正使用反向流水）
type StockMovement struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                   // 主键
	ProductID      uint      `gorm:"index;not null" json:"product_id"`                       // 商品ID
	Kind           string    `gorm:"type:varchar(20);not null;index" json:"kind"`            // 类型（entrada/saida/ajuste）
	Direction      string    `gorm:"type:varchar(10);not null" json:"direction"`             // 方向（in/out）
	Quantity       int       `gorm:"not null" json:"quantity"`                               // 数量（正数）
	OrderID        *uint     `gorm:"index" json:"order_id,omitempty"`                        // 关联配送订单
	ExecutionToken string    `gorm:"type:varchar(64);index" json:"execution_token,omitempty"` // 交付执行令牌
	Note           string    `gorm:"type:text" json:"note"`                                  // 备注
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                // 创建时间
}

// TableName 指定表名
func (StockMovement) TableName() string {
	return "stock_movements"
}

// SignedQuantity 返回带符号数量
func (m StockMovement) SignedQuantity() int {
	if m.Direction == constants.MovementDirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}

// DeliveryExecution 已消费的执行令牌，同一令牌重复提交时直接返回该记录
type DeliveryExecution struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                    // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                          // 配送订单ID
	ExecutionToken string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"execution_token"` // 执行令牌
	TotalUnits     int       `gorm:"not null;default:0" json:"total_units"`                   // 出库总数
	LinesJSON      JSON      `gorm:"type:json" json:"lines"`                                  // 出库明细快照
	Note           string    `gorm:"type:text" json:"note"`                                   // 备注
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (DeliveryExecution) TableName() string {
	return "delivery_executions"
}
