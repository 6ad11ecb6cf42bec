package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api/dto"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	orderService  service.IOrderService
	reportService service.IReportService
}

func NewOrderHandler(orderService service.IOrderService, reportService service.IReportService) *OrderHandler {
	if orderService == nil || reportService == nil {
		panic("orderService and reportService cannot be nil")
	}
	return &OrderHandler{
		orderService:  orderService,
		reportService: reportService,
	}
}

// Checkout POST /order, 依 shop 拆單後回傳所有新訂單
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}

	orders, err := h.orderService.Checkout(r.Context(), req.ToParams())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.CreatedJSON(w, orders, "")
}

// GetOrder GET /order/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, order, "")
}

// ListOrders GET /order?user= | ?shop= | 全部
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		orders []model.Order
		err    error
	)
	switch {
	case q.Get("user") != "" && q.Get("shop") != "":
		err = apperr.New(apperr.InvalidInputCode, "use either user or shop, not both")
	case q.Get("user") != "":
		orders, err = h.orderService.ListOrdersByUser(r.Context(), q.Get("user"))
	case q.Get("shop") != "":
		orders, err = h.orderService.ListOrdersByShop(r.Context(), q.Get("shop"))
	default:
		orders, err = h.orderService.ListOrders(r.Context())
	}
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	response.SuccessJSON(w, orders, "")
}

func (h *OrderHandler) decodeShopAction(w http.ResponseWriter, r *http.Request) (dto.ShopOrderActionDTO, bool) {
	var req dto.ShopOrderActionDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return req, false
	}
	return req, true
}

// Ship PUT /order/ship
func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeShopAction(w, r)
	if !ok {
		return
	}
	order, err := h.orderService.Ship(r.Context(), req.OrderID, req.ShopID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, order, "")
}

// Cancel PUT /order/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeShopAction(w, r)
	if !ok {
		return
	}
	order, err := h.orderService.Cancel(r.Context(), req.OrderID, req.ShopID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, order, "")
}

// Deliver PUT /order/deliver
func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	var req dto.DeliverOrderDTO
	if err := dto.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	order, err := h.orderService.Deliver(r.Context(), req.OrderID, req.ShopID)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, order, "")
}

// Report GET /order/report?status&period&date[&shop]
func (h *OrderHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.reportService.OrdersByTimePeriod(r.Context(), service.OrdersByPeriodParams{
		Status: model.OrderStatus(q.Get("status")),
		Period: service.Period(q.Get("period")),
		Date:   q.Get("date"),
		ShopID: q.Get("shop"),
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, report, "")
}

// Revenue GET /order/revenue[?shop=]
func (h *OrderHandler) Revenue(w http.ResponseWriter, r *http.Request) {
	revenue, err := h.reportService.Revenue(r.Context(), r.URL.Query().Get("shop"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.SuccessJSON(w, revenue, "")
}
