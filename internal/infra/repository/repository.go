package repository

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound 資料不存在
	ErrNotFound = errors.New("record not found")
	// ErrStockNotEnough 條件扣庫存沒有命中任何一筆
	ErrStockNotEnough = errors.New("product stock not enough")
	// ErrConflict 樂觀鎖或狀態條件更新失敗, 或唯一鍵重複
	ErrConflict = errors.New("concurrent modification")
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, productID string) (*model.Product, error)
	// GetProductsByIDs 不存在的 id 直接略過
	GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error)
	ListProductsByShop(ctx context.Context, shopID string) ([]model.Product, error)
	// UpdateProduct 只更新可編輯欄位, 不覆蓋 sold_quantity
	UpdateProduct(ctx context.Context, product *model.Product) error
	// DeductProductStock 原子條件扣庫存 quantity_in_stock >= quantity 才扣
	DeductProductStock(ctx context.Context, productID string, quantity int64, now time.Time) error
}

type ShopRepository interface {
	CreateShop(ctx context.Context, shop *model.Shop) error
	GetShopByID(ctx context.Context, shopID string) (*model.Shop, error)
	ApproveShop(ctx context.Context, shopID string, now time.Time) error
}

type VoucherRepository interface {
	GetVoucherByCode(ctx context.Context, code string) (*model.Voucher, error)
	UpsertVoucher(ctx context.Context, voucher *model.Voucher) error
}

type CartRepository interface {
	GetCartByID(ctx context.Context, cartID string) (*model.Cart, error)
	GetCartByUserID(ctx context.Context, userID string) (*model.Cart, error)
	// CreateCart 同一 user 已有 cart 時回傳 ErrConflict
	CreateCart(ctx context.Context, cart *model.Cart) error
	// SaveCart 以 cart.Version 做樂觀鎖, 成功後 Version+1
	SaveCart(ctx context.Context, cart *model.Cart) error
	DeleteCart(ctx context.Context, cartID string) error
}

// OrderFilter 報表查詢條件, 時間區間為 [From, To)
type OrderFilter struct {
	Status model.OrderStatus
	ShopID string
	From   time.Time
	To     time.Time
}

type RevenueSummary struct {
	Revenue         decimal.Decimal
	GrossOrderTotal decimal.Decimal
	DeliveredOrders int64
}

type OrderRepository interface {
	CreateOrders(ctx context.Context, orders []*model.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByIDs(ctx context.Context, orderIDs []string) ([]model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListOrdersByShop(ctx context.Context, shopID string) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	// TransitionOrder 以 status = from 為條件寫入狀態與 line 狀態, 沒命中回傳 ErrConflict
	TransitionOrder(ctx context.Context, order *model.Order, from model.OrderStatus) error
	// MarkOrdersPaid 只更新 is_paid = false 的訂單, 回傳實際更新筆數
	MarkOrdersPaid(ctx context.Context, orderIDs []string, now time.Time) (int64, error)
	// MarkOrdersPaymentStatus 失敗/取消標記, 已付款的訂單不會被改回
	MarkOrdersPaymentStatus(ctx context.Context, orderIDs []string, status model.PaymentStatus, now time.Time) (int64, error)
	FindOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	SumDeliveredRevenue(ctx context.Context, shopID string) (*RevenueSummary, error)
}

// Store 所有 repository 的集合
type Store interface {
	ProductRepository
	ShopRepository
	VoucherRepository
	CartRepository
	OrderRepository

	// ExecTx fn 內只能使用傳入的 txCtx 與 tx
	ExecTx(ctx context.Context, fn func(txCtx context.Context, tx Store) error) error
	InitMigrate(ctx context.Context) error
	Close(ctx context.Context) error
}
