package model

import "time"

// 時間欄位一律由 service 注入的 clock 設定, 不依賴 db default 或 hook
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt" bson:"updatedAt"`
}

func (b *BaseModel) Stamp(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
