package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productService service.IProductService
}

func NewProductHandler(productService service.IProductService) *ProductHandler {
	if productService == nil {
		panic("productService cannot be nil")
	}
	return &ProductHandler{
		productService: productService,
	}
}

// CreateShop POST /shop
func (h *ProductHandler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateShopDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	shop, err := h.productService.CreateShop(r.Context(), service.CreateShopParams{OwnerID: req.OwnerID, Name: req.Name})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.CreatedJSON(w, shop, "")
}

// ApproveShop PUT /shop/{shopId}/approve
func (h *ProductHandler) ApproveShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.productService.ApproveShop(r.Context(), chi.URLParam(r, "shopId"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, shop, "")
}

// CreateProduct POST /product
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), req.ToParams())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.CreatedJSON(w, product, "")
}

// UpdateProduct PUT /product/{productId}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProductDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), chi.URLParam(r, "productId"), req.ToParams())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, product, "")
}

// GetProduct GET /product/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, product, "")
}

// ListProducts GET /product?shop=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	shopID := r.URL.Query().Get("shop")
	if shopID == "" {
		response.WriteError(w, r, apperr.New(apperr.InvalidInputCode, "query shop is required"))
		return
	}

	products, err := h.productService.ListProductsByShop(r.Context(), shopID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, products, "")
}
