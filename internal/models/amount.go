package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

const amountScale = 4

// Amount 十进制数值（折扣值等），保留 4 位小数
type Amount struct {
	decimal.Decimal
}

// NewAmount 从 decimal 创建数值
func NewAmount(value decimal.Decimal) Amount {
	return Amount{Decimal: value.Round(amountScale)}
}

// NewAmountFromString 从字符串创建数值
func NewAmountFromString(raw string) (Amount, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(d), nil
}

// MarshalJSON 输出去除多余零的字符串
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Decimal.Round(amountScale).String())
}

// UnmarshalJSON 解析数值（字符串或数字）
func (a *Amount) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
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
		a.Decimal = d.Round(amountScale)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	a.Decimal = d.Round(amountScale)
	return nil
}

// Value 用于数据库写入
func (a Amount) Value() (driver.Value, error) {
	return a.Decimal.Round(amountScale).Value()
}

// Scan 用于数据库读取
func (a *Amount) Scan(value interface{}) error {
	if err := a.Decimal.Scan(value); err != nil {
		return err
	}
	a.Decimal = a.Decimal.Round(amountScale)
	return nil
}

// String 返回去除多余零的字符串
func (a Amount) String() string {
	return a.Decimal.Round(amountScale).String()
}
