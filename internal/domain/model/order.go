package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "Pending"
	OrderShipped   OrderStatus = "Shipped"
	OrderDelivered OrderStatus = "Delivered"
	OrderCancelled OrderStatus = "Cancelled"
)

// 合法轉換: Pending -> Shipped | Cancelled, Shipped -> Delivered
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderShipped, OrderCancelled},
	OrderShipped: {OrderDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal 終態之後只剩付款欄位可以變動
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "Unpaid"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentFailed    PaymentStatus = "Failed"
	PaymentCancelled PaymentStatus = "Cancelled"
)

// Order 一次結帳每間 shop 各一張, 同一次結帳共用 CheckoutID
type Order struct {
	ID              string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CheckoutID      string          `gorm:"not null;type:varchar(36);index" json:"checkoutId"`
	UserID          string          `gorm:"not null;type:varchar(36);index" json:"userId"`
	CartID          string          `gorm:"not null;type:varchar(36)" json:"cartId"`
	ShopID          string          `gorm:"not null;type:varchar(36);index" json:"shopId"`
	Lines           []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	ShippingAddress string          `gorm:"type:text" json:"shippingAddress"`
	Name            string          `gorm:"not null;type:varchar(255)" json:"name"`
	Phone           string          `gorm:"not null;type:varchar(32)" json:"phone"`
	Email           string          `gorm:"not null;type:varchar(255)" json:"email"`
	VoucherCode     string          `gorm:"type:varchar(64)" json:"voucherCode,omitempty"`
	TotalPrice      decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"totalPrice"`
	VAT             decimal.Decimal `gorm:"column:vat;not null;type:decimal(18,2)" json:"VAT"`
	ShippingFee     decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"shippingFee"`
	Discount        decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"discount"`
	OrderTotal      decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"orderTotal"`
	Status          OrderStatus     `gorm:"not null;type:varchar(16);index" json:"status"`
	IsPaid          bool            `gorm:"not null;default:false" json:"isPaid"`
	PaymentStatus   PaymentStatus   `gorm:"not null;type:varchar(16)" json:"paymentStatus"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updatedAt"`
}

// OrderLine 價格為結帳當下快照, 之後不再讀取商品現價
type OrderLine struct {
	OrderID     string          `gorm:"primaryKey;type:varchar(36)" json:"-"`
	ProductID   string          `gorm:"primaryKey;type:varchar(36)" json:"productId"`
	ShopID      string          `gorm:"not null;type:varchar(36);index" json:"shopId"`
	ProductName string          `gorm:"type:varchar(255)" json:"productName"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"not null;type:decimal(18,2)" json:"price"`
	Status      OrderStatus     `gorm:"not null;type:varchar(16)" json:"status"`
	Position    int             `gorm:"not null;default:0" json:"-"`
}

func (l OrderLine) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// PendingLinesOfShop 該 shop 尚未出貨的 line index
func (o *Order) PendingLinesOfShop(shopID string) []int {
	idx := make([]int, 0, len(o.Lines))
	for i, l := range o.Lines {
		if l.ShopID == shopID && l.Status == OrderPending {
			idx = append(idx, i)
		}
	}
	return idx
}

func (o *Order) HasShop(shopID string) bool {
	for _, l := range o.Lines {
		if l.ShopID == shopID {
			return true
		}
	}
	return o.ShopID == shopID
}

func (o *Order) AllLinesShipped() bool {
	for _, l := range o.Lines {
		if l.Status != OrderShipped {
			return false
		}
	}
	return len(o.Lines) > 0
}

func (o *Order) ItemCount() int64 {
	var n int64
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Payable 未取消且尚未付款
func (o *Order) Payable() bool {
	return o.Status != OrderCancelled && !o.IsPaid
}
