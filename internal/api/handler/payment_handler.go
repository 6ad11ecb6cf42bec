package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/ratelimit"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
)

type PaymentHandler struct {
	paymentService service.IPaymentService
}

func NewPaymentHandler(paymentService service.IPaymentService) *PaymentHandler {
	if paymentService == nil {
		panic("paymentService cannot be nil")
	}
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// CreatePayment POST /payment
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	payURL, err := h.paymentService.CreatePaymentURL(r.Context(), service.CreatePaymentParams{
		OrderIDs:  req.OrderIDs,
		ReturnURL: req.ReturnURL,
		ClientIP:  ratelimit.ClientKey(r),
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, dto.PaymentURLResponse{PaymentURL: payURL}, "")
}

// Callback GET /payment/callback, 付款閘道轉回時帶的 query
// 付款失敗或取消時回 400, data 仍帶處理結果
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	res, err := h.paymentService.HandleCallback(r.Context(), r.URL.Query())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if res.Result != service.PaymentResultOK {
		response.ErrorDataJSON(w, http.StatusBadRequest, res.Message, res)
		return
	}
	response.SuccessJSON(w, res, res.Message)
}

// UpdateStatus PUT /payment/status, 人工對帳
func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePaymentStatusDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	n, err := h.paymentService.UpdatePaymentStatus(r.Context(), req.OrderIDs, *req.IsSuccess)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, dto.UpdatePaymentStatusResponse{Updated: n}, "")
}
