package model

import "github.com/shopspring/decimal"

type Product struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name            string          `gorm:"not null;type:varchar(255)" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	ImageURLs       []string        `gorm:"serializer:json;type:text" json:"imageUrls"`
	ShopID          string          `gorm:"not null;type:varchar(36);index" json:"shopId"`
	CategoryID      string          `gorm:"type:varchar(36)" json:"categoryId"`
	QuantityInStock int64           `gorm:"not null;default:0" json:"quantityInStock"`
	SoldQuantity    int64           `gorm:"not null;default:0" json:"soldQuantity"`
	Prices          decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"prices"`
	Discount        decimal.Decimal `gorm:"not null;type:decimal(5,2)" json:"discount"`
	PromotionPrice  decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"promotionPrice"`
	BaseModel
}
