package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	moneyScale = 2
	costScale  = 4
)

// Money 统一金额类型（保留 2 位小数）
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// NewMoney 从浮点数创建金额
func NewMoney(value float64) Money {
	return Money{Decimal: decimal.NewFromFloat(value).Round(moneyScale)}
}

// MarshalJSON 统一输出 2 位小数的字符串
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Decimal.Round(moneyScale).StringFixed(moneyScale))
}

// UnmarshalJSON 解析金额（字符串或数字）
func (m *Money) UnmarshalJSON(b []byte) error {
	d, err := parseDecimalJSON(b)
	if err != nil {
		return err
	}
	m.Decimal = d.Round(moneyScale)
	return nil
}

// Value 用于数据库写入
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyScale).StringFixed(moneyScale), nil
}

// Scan 用于数据库读取
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(moneyScale)
	return nil
}

// String 返回 2 位小数格式
func (m Money) String() string {
	return m.Decimal.Round(moneyScale).StringFixed(moneyScale)
}

// Cost 成本单价（保留 4 位小数，加权平均后不丢精度）
type Cost struct {
	decimal.Decimal
}

// NewCostFromDecimal 从 decimal 创建成本
func NewCostFromDecimal(amount decimal.Decimal) Cost {
	return Cost{Decimal: amount.Round(costScale)}
}

// NewCost 从浮点数创建成本
func NewCost(value float64) Cost {
	return Cost{Decimal: decimal.NewFromFloat(value).Round(costScale)}
}

// MarshalJSON 输出 2 位小数，与金额展示一致
func (c Cost) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Decimal.Round(moneyScale).StringFixed(moneyScale))
}

// UnmarshalJSON 解析成本（字符串或数字）
func (c *Cost) UnmarshalJSON(b []byte) error {
	d, err := parseDecimalJSON(b)
	if err != nil {
		return err
	}
	c.Decimal = d.Round(costScale)
	return nil
}

// Value 用于数据库写入
func (c Cost) Value() (driver.Value, error) {
	return c.Decimal.Round(costScale).StringFixed(costScale), nil
}

// Scan 用于数据库读取
func (c *Cost) Scan(value interface{}) error {
	if err := c.Decimal.Scan(value); err != nil {
		return err
	}
	c.Decimal = c.Decimal.Round(costScale)
	return nil
}

// String 返回 2 位小数格式
func (c Cost) String() string {
	return c.Decimal.Round(moneyScale).StringFixed(moneyScale)
}

func parseDecimalJSON(b []byte) (decimal.Decimal, error) {
	if len(b) == 0 || string(b) == "null" {
		return decimal.Zero, nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return decimal.Zero, err
		}
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(f), nil
}
