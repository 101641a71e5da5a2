package models

import (
	"time"

	"gorm.io/gorm"
)

// Client 客户表
type Client struct {
	ID        uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name      string         `gorm:"type:varchar(160);not null;index" json:"name"` // 名称
	Phone     string         `gorm:"type:varchar(40)" json:"phone"`          // 电话
	Address   string         `gorm:"type:varchar(255)" json:"address"`       // 地址
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`    // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间
}

// TableName 指定表名
func (Client) TableName() string {
	return "clients"
}
