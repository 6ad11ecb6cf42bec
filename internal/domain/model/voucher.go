package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Voucher struct {
	Code      string          `gorm:"primaryKey;type:varchar(64)" json:"code"`
	Discount  decimal.Decimal `gorm:"not null;type:decimal(5,2)" json:"discount"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	BaseModel
}

// Valid 折扣必須落在 (0, 100], 有設定到期日則不可過期
func (v *Voucher) Valid(now time.Time) bool {
	if v == nil {
		return false
	}
	if !v.Discount.IsPositive() || v.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return false
	}
	if v.ExpiresAt != nil && !now.Before(*v.ExpiresAt) {
		return false
	}
	return true
}
