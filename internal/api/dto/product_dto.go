package dto

import (
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/shopspring/decimal"
)

type CreateShopDTO struct {
	OwnerID string `json:"ownerId" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

type CreateProductDTO struct {
	ShopID          string          `json:"shopId" validate:"required"`
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"categoryId"`
	ImageURLs       []string        `json:"imageUrls"`
	Prices          decimal.Decimal `json:"prices"`
	Discount        decimal.Decimal `json:"discount"`
	QuantityInStock int64           `json:"quantityInStock"`
}

func (d CreateProductDTO) ToParams() service.CreateProductParams {
	return service.CreateProductParams{
		ShopID:          d.ShopID,
		Name:            d.Name,
		Description:     d.Description,
		CategoryID:      d.CategoryID,
		ImageURLs:       d.ImageURLs,
		Prices:          d.Prices,
		Discount:        d.Discount,
		QuantityInStock: d.QuantityInStock,
	}
}

// UpdateProductDTO 沒帶的欄位不修改
type UpdateProductDTO struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	CategoryID      *string          `json:"categoryId"`
	ImageURLs       []string         `json:"imageUrls"`
	Prices          *decimal.Decimal `json:"prices"`
	Discount        *decimal.Decimal `json:"discount"`
	QuantityInStock *int64           `json:"quantityInStock"`
}

func (d UpdateProductDTO) ToParams() service.UpdateProductParams {
	return service.UpdateProductParams{
		Name:            d.Name,
		Description:     d.Description,
		CategoryID:      d.CategoryID,
		ImageURLs:       d.ImageURLs,
		Prices:          d.Prices,
		Discount:        d.Discount,
		QuantityInStock: d.QuantityInStock,
	}
}
