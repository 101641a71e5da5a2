package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                             // 主键
	CategoryID           *uint          `gorm:"index" json:"category_id,omitempty"`                               // 分类ID
	Slug                 string         `gorm:"uniqueIndex;not null" json:"slug"`                                 // 唯一标识
	Name                 string         `gorm:"type:varchar(120);not null;index" json:"name"`                     // 名称
	AllocationPercentage Percentage     `gorm:"type:decimal(7,4);not null;default:0" json:"allocation_percentage"` // 标准订单分配百分比
	IsActive             bool           `gorm:"default:true;index" json:"is_active"`                              // 是否启用
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt            time.Time      `json:"updated_at"`                                                       // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                   // 软删除时间

	// 关联
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// CategoryOrder 返回分类排序值，未关联分类时为 nil
func (p Product) CategoryOrder() *int {
	if p.Category == nil || p.Category.ID == 0 {
		return nil
	}
	order := p.Category.SortOrder
	return &order
}
