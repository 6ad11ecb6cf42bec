package dto

import "github.com/RoyceAzure/lab/marketplace/internal/service"

type CheckoutDTO struct {
	UserID          string   `json:"userId" validate:"required"`
	CartID          string   `json:"cartId" validate:"required"`
	ShippingAddress string   `json:"shippingAddress"`
	Name            string   `json:"name" validate:"required"`
	Phone           string   `json:"phone" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	ProductIDs      []string `json:"productIds"`
	VoucherCode     string   `json:"voucherCode"`
}

func (d CheckoutDTO) ToParams() service.CheckoutParams {
	return service.CheckoutParams{
		UserID:          d.UserID,
		CartID:          d.CartID,
		ShippingAddress: d.ShippingAddress,
		Name:            d.Name,
		Phone:           d.Phone,
		Email:           d.Email,
		ProductIDs:      d.ProductIDs,
		VoucherCode:     d.VoucherCode,
	}
}

// ShopOrderActionDTO ship / cancel
type ShopOrderActionDTO struct {
	OrderID string `json:"orderId" validate:"required"`
	ShopID  string `json:"shopId" validate:"required"`
}

// DeliverOrderDTO shopId 可省略
type DeliverOrderDTO struct {
	OrderID string `json:"orderId" validate:"required"`
	ShopID  string `json:"shopId"`
}
