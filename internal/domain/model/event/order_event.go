package event

import (
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	BaseEvent
	CheckoutID string            `json:"checkoutId"`
	UserID     string            `json:"userId"`
	ShopID     string            `json:"shopId"`
	Lines      []model.OrderLine `json:"lines"`
	OrderTotal decimal.Decimal   `json:"orderTotal"`
}

func (e *OrderCreatedEvent) Type() EventType {
	return OrderCreatedEventName
}

func NewOrderCreatedEvent(o *model.Order, now time.Time) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent:  NewBaseEvent(o.ID, OrderCreatedEventName, now),
		CheckoutID: o.CheckoutID,
		UserID:     o.UserID,
		ShopID:     o.ShopID,
		Lines:      o.Lines,
		OrderTotal: o.OrderTotal,
	}
}

// OrderStateChangedEvent ship / cancel / deliver 共用
type OrderStateChangedEvent struct {
	BaseEvent
	ShopID    string            `json:"shopId"`
	FromState model.OrderStatus `json:"fromState"`
	ToState   model.OrderStatus `json:"toState"`
}

func (e *OrderStateChangedEvent) Type() EventType {
	return e.EventType
}

func NewOrderStateChangedEvent(orderID, shopID string, from, to model.OrderStatus, now time.Time) *OrderStateChangedEvent {
	var t EventType
	switch to {
	case model.OrderShipped:
		t = OrderShippedEventName
	case model.OrderCancelled:
		t = OrderCancelledEventName
	case model.OrderDelivered:
		t = OrderDeliveredEventName
	}
	return &OrderStateChangedEvent{
		BaseEvent: NewBaseEvent(orderID, t, now),
		ShopID:    shopID,
		FromState: from,
		ToState:   to,
	}
}

type OrderPaymentEvent struct {
	BaseEvent
	PaymentStatus model.PaymentStatus `json:"paymentStatus"`
	TxnRef        string              `json:"txnRef,omitempty"`
}

func (e *OrderPaymentEvent) Type() EventType {
	return e.EventType
}

func NewOrderPaymentEvent(orderID string, status model.PaymentStatus, txnRef string, now time.Time) *OrderPaymentEvent {
	t := OrderPaymentFailedName
	if status == model.PaymentPaid {
		t = OrderPaidEventName
	}
	return &OrderPaymentEvent{
		BaseEvent:     NewBaseEvent(orderID, t, now),
		PaymentStatus: status,
		TxnRef:        txnRef,
	}
}
