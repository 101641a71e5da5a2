package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Percentage 百分比类型（保留 4 位小数）
type Percentage struct {
	decimal.Decimal
}

// NewPercentage 从 decimal 创建百分比
func NewPercentage(value decimal.Decimal) Percentage {
	return Percentage{Decimal: value.Round(4)}
}

// MustPercentage 从字符串创建百分比，解析失败时 panic（仅用于常量与测试数据）
func MustPercentage(value string) Percentage {
	return NewPercentage(decimal.RequireFromString(value))
}

// MarshalJSON 输出字符串形式
func (p Percentage) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Decimal.Round(4).String())
}

// UnmarshalJSON 解析百分比（字符串或数字）
func (p *Percentage) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		p.Decimal = d.Round(4)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	p.Decimal = d.Round(4)
	return nil
}

// Value 用于数据库写入
func (p Percentage) Value() (driver.Value, error) {
	return p.Decimal.Round(4).Value()
}

// Scan 用于数据库读取
func (p *Percentage) Scan(value interface{}) error {
	if err := p.Decimal.Scan(value); err != nil {
		return err
	}
	p.Decimal = p.Decimal.Round(4)
	return nil
}

// String 返回字符串形式
func (p Percentage) String() string {
	return p.Decimal.Round(4).String()
}
