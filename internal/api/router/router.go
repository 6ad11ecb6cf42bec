package router

import (
	"context"
	"net/http"

	"github.com/RoyceAzure/lab/marketplace/internal/api"
	m "github.com/RoyceAzure/lab/marketplace/internal/api/middleware"
	"github.com/RoyceAzure/lab/marketplace/internal/api/response"
	"github.com/RoyceAzure/lab/marketplace/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HealthCheck 回傳 nil 代表依賴都正常
type HealthCheck func(ctx context.Context) error

// SetupRouter limiter 為 nil 時不限流
func SetupRouter(server *api.Server, limiter ratelimit.ILimiter, health HealthCheck, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
				response.ErrorJSON(w, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		response.SuccessJSON(w, nil, "ok")
	})

	// API 路由
	r.Route("/api/v1", func(r chi.Router) {
		if limiter != nil {
			r.Use(ratelimit.NewRateLimitMiddleware(limiter))
		}

		r.Route("/shop", func(r chi.Router) {
			r.Post("/", server.ProductHandler.CreateShop)
			r.Put("/{shopId}/approve", server.ProductHandler.ApproveShop)
		})

		r.Route("/product", func(r chi.Router) {
			r.Post("/", server.ProductHandler.CreateProduct)
			r.Get("/", server.ProductHandler.ListProducts)
			r.Get("/{productId}", server.ProductHandler.GetProduct)
			r.Put("/{productId}", server.ProductHandler.UpdateProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/", server.CartHandler.AddOrUpdate)
			r.Put("/", server.CartHandler.DecrementOne)
			r.Get("/{userId}", server.CartHandler.GetByUser)
			r.Delete("/{userId}", server.CartHandler.Clear)
			r.Delete("/{userId}/{productId}", server.CartHandler.RemoveLine)
		})

		r.Route("/order", func(r chi.Router) {
			r.Post("/", server.OrderHandler.Checkout)
			r.Get("/", server.OrderHandler.ListOrders)
			r.Get("/report", server.OrderHandler.Report)
			r.Get("/revenue", server.OrderHandler.Revenue)
			r.Put("/ship", server.OrderHandler.Ship)
			r.Put("/cancel", server.OrderHandler.Cancel)
			r.Put("/deliver", server.OrderHandler.Deliver)
			r.Get("/{orderId}", server.OrderHandler.GetOrder)
		})

		r.Route("/payment", func(r chi.Router) {
			r.Post("/", server.PaymentHandler.CreatePayment)
			r.Get("/callback", server.PaymentHandler.Callback)
			r.Put("/status", server.PaymentHandler.UpdateStatus)
		})
	})

	// 設置完所有路由後記錄路由表
	chi.Walk(r, func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
		logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
		return nil
	})
	return r
}
