package dto

type CreatePaymentDTO struct {
	OrderIDs  []string `json:"orderIds" validate:"required,min=1"`
	ReturnURL string   `json:"returnUrl" validate:"omitempty,url"`
}

type PaymentURLResponse struct {
	PaymentURL string `json:"paymentUrl"`
}

type UpdatePaymentStatusDTO struct {
	OrderIDs  []string `json:"orderIds" validate:"required,min=1"`
	IsSuccess *bool    `json:"isSuccess" validate:"required"`
}

type UpdatePaymentStatusResponse struct {
	Updated int64 `json:"updated"`
}
