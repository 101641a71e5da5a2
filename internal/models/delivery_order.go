package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryOrder 配送订单表（标准订单按百分比拆分，定制订单使用指定商品）
type DeliveryOrder struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单号
	ClientID       uint           `gorm:"index;not null" json:"client_id"`                               // 客户ID
	TotalQuantity  int            `gorm:"not null" json:"total_quantity"`                                // 标准数量
	Mode           string         `gorm:"type:varchar(20);not null;default:'standard'" json:"mode"`      // 模式（standard/customized）
	Status         string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // 状态（pending/delivered/canceled）
	ScheduledFor   *time.Time     `gorm:"index" json:"scheduled_for,omitempty"`                          // 计划配送日期
	DeliveredAt    *time.Time     `gorm:"index" json:"delivered_at,omitempty"`                           // 交付时间
	ExecutionToken string         `gorm:"type:varchar(64);index" json:"execution_token,omitempty"`       // 成功交付使用的执行令牌
	Note           string         `gorm:"type:text" json:"note"`                                         // 备注
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                                    // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	// 关联
	Client      *Client           `gorm:"foreignKey:ClientID" json:"client,omitempty"`     // 客户信息
	CustomItems []OrderCustomItem `gorm:"foreignKey:OrderID" json:"custom_items,omitempty"` // 定制商品
}

// TableName 指定表名
func (DeliveryOrder) TableName() string {
	return "delivery_orders"
}

// ClientName 返回客户名称（未加载时为空）
func (o DeliveryOrder) ClientName() string {
	if o.Client == nil {
		return ""
	}
	return o.Client.Name
}

// OrderCustomItem 定制订单商品（ProductRef 可为商品 ID、slug 或名称）
type OrderCustomItem struct {
	ID         uint      `gorm:"primarykey" json:"id"`                              // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`                    // 订单ID
	ProductRef string    `gorm:"type:varchar(160);not null" json:"product_ref"`     // 商品引用
	Quantity   int       `gorm:"not null" json:"quantity"`                          // 数量
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                           // 创建时间
}

// TableName 指定表名
func (OrderCustomItem) TableName() string {
	return "order_custom_items"
}
