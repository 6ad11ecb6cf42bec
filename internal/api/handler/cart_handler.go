package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cartService service.ICartService
}

func NewCartHandler(cartService service.ICartService) *CartHandler {
	if cartService == nil {
		panic("cartService cannot be nil")
	}
	return &CartHandler{
		cartService: cartService,
	}
}

// AddOrUpdate POST /cart
func (h *CartHandler) AddOrUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.AddToCartDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	cart, err := h.cartService.AddOrUpdate(r.Context(), req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, cart, "")
}

// DecrementOne PUT /cart
func (h *CartHandler) DecrementOne(w http.ResponseWriter, r *http.Request) {
	var req dto.DecrementCartDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	cart, err := h.cartService.DecrementOne(r.Context(), req.UserID, req.ProductID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, cart, "")
}

// GetByUser GET /cart/{userId}
func (h *CartHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.cartService.GetByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, grouped, "")
}

// RemoveLine DELETE /cart/{userId}/{productId}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.RemoveLine(r.Context(), chi.URLParam(r, "userId"), chi.URLParam(r, "productId"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, cart, "")
}

// Clear DELETE /cart/{userId}
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.Clear(r.Context(), chi.URLParam(r, "userId")); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, nil, "cart cleared")
}
