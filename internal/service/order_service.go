package service

import (
	"context"
	"errors"
	"strings"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model/event"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/pricing"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CheckoutParams struct {
	UserID          string
	CartID          string
	ShippingAddress string
	Name            string
	Phone           string
	Email           string
	ProductIDs      []string
	VoucherCode     string
}

type IOrderService interface {
	Checkout(ctx context.Context, arg CheckoutParams) ([]model.Order, error)
	Ship(ctx context.Context, orderID, shopID string) (*model.Order, error)
	Cancel(ctx context.Context, orderID, shopID string) (*model.Order, error)
	Deliver(ctx context.Context, orderID, shopID string) (*model.Order, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error)
	ListOrdersByShop(ctx context.Context, shopID string) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
}

type OrderService struct {
	store        repository.Store
	productCache redis_repo.IProductCacheRepository
	options
}

// NewOrderService productCache 可為 nil
func NewOrderService(store repository.Store, productCache redis_repo.IProductCacheRepository, opts ...Option) *OrderService {
	return &OrderService{
		store:        store,
		productCache: productCache,
		options:      newOptions(opts...),
	}
}

var _ IOrderService = (*OrderService)(nil)

func validateCheckout(arg CheckoutParams) error {
	missing := make([]string, 0)
	for name, v := range map[string]string{
		"userId": arg.UserID,
		"cartId": arg.CartID,
		"name":   arg.Name,
		"phone":  arg.Phone,
		"email":  arg.Email,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperr.Newf(apperr.InvalidInputCode, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if len(arg.ProductIDs) == 0 {
		return apperr.New(apperr.EmptyOrInvalidSelectionCode, "")
	}
	return nil
}

// voucherPercent 找不到或已失效的 voucher 視為沒有折扣
func (o *OrderService) voucherPercent(ctx context.Context, store repository.Store, code string) (*decimal.Decimal, error) {
	if code == "" {
		return nil, nil
	}
	v, err := store.GetVoucherByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			zerolog.Ctx(ctx).Info().Str("voucher", code).Msg("voucher not found, checkout without discount")
			return nil, nil
		}
		return nil, err
	}
	if !v.Valid(o.now()) {
		zerolog.Ctx(ctx).Info().Str("voucher", code).Msg("voucher invalid or expired, checkout without discount")
		return nil, nil
	}
	return &v.Discount, nil
}

func (o *OrderService) buildOrder(arg CheckoutParams, checkoutID, cartID string, group shopGroup, voucherPct *decimal.Decimal) *model.Order {
	now := o.now()
	orderID := uuid.NewString()

	lines := make([]model.OrderLine, 0, len(group.Lines))
	priced := make([]pricing.Line, 0, len(group.Lines))
	for i, sl := range group.Lines {
		lines = append(lines, model.OrderLine{
			OrderID:     orderID,
			ProductID:   sl.Product.ID,
			ShopID:      group.ShopID,
			ProductName: sl.Product.Name,
			Quantity:    sl.Line.Quantity,
			Price:       sl.Product.PromotionPrice,
			Status:      model.OrderPending,
			Position:    i,
		})
		priced = append(priced, pricing.Line{Price: sl.Product.PromotionPrice, Quantity: sl.Line.Quantity})
	}

	quote := o.policy.Quote(priced, voucherPct)
	order := &model.Order{
		ID:              orderID,
		CheckoutID:      checkoutID,
		UserID:          arg.UserID,
		CartID:          cartID,
		ShopID:          group.ShopID,
		Lines:           lines,
		ShippingAddress: arg.ShippingAddress,
		Name:            arg.Name,
		Phone:           arg.Phone,
		Email:           arg.Email,
		TotalPrice:      quote.TotalPrice,
		VAT:             quote.VAT,
		ShippingFee:     quote.ShippingFee,
		Discount:        quote.Discount,
		OrderTotal:      quote.OrderTotal,
		Status:          model.OrderPending,
		IsPaid:          false,
		PaymentStatus:   model.PaymentUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if voucherPct != nil {
		order.VoucherCode = arg.VoucherCode
	}
	return order
}

// Checkout 依 shop 拆單, 建立訂單與移除 cart line 在同一個交易
// 錯誤:
//   - InvalidInputCode: 必填欄位缺少
//   - NotFoundCode: cart 不存在或不屬於該 user
//   - EmptyOrInvalidSelectionCode: 沒有任何選取的商品在 cart 中
//   - InsufficientStockCode: 任一商品數量超過庫存, 不會寫入任何資料
//   - ConflictCode: cart 重試後仍被同時修改
func (o *OrderService) Checkout(ctx context.Context, arg CheckoutParams) ([]model.Order, error) {
	if err := validateCheckout(arg); err != nil {
		return nil, err
	}

	var created []*model.Order
	var err error
	for attempt := 0; attempt < constants.CartSaveRetry; attempt++ {
		created, err = o.checkoutOnce(ctx, arg)
		if !errors.Is(err, repository.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Newf(apperr.ConflictCode, "cart %s is modified concurrently", arg.CartID)
		}
		return nil, notFoundOr(err, "")
	}

	orders := make([]model.Order, 0, len(created))
	evts := make([]event.Event, 0, len(created))
	for _, c := range created {
		orders = append(orders, *c)
		evts = append(evts, event.NewOrderCreatedEvent(c, c.CreatedAt))
	}
	o.publish(ctx, evts...)

	zerolog.Ctx(ctx).Info().
		Str("user_id", arg.UserID).
		Str("checkout_id", orders[0].CheckoutID).
		Int("orders", len(orders)).
		Msg("checkout completed")
	return orders, nil
}

// checkoutOnce 交易內重新讀取所有狀態, mongo 重跑交易時不會用到舊資料
func (o *OrderService) checkoutOnce(ctx context.Context, arg CheckoutParams) ([]*model.Order, error) {
	var created []*model.Order
	err := o.store.ExecTx(ctx, func(txCtx context.Context, tx repository.Store) error {
		created = nil

		cart, err := tx.GetCartByID(txCtx, arg.CartID)
		if err != nil {
			return notFoundOr(err, "cart %s not found", arg.CartID)
		}
		if cart.UserID != arg.UserID {
			return apperr.Newf(apperr.NotFoundCode, "cart %s not found", arg.CartID)
		}

		products, err := tx.GetProductsByIDs(txCtx, cart.ProductIDs())
		if err != nil {
			return err
		}
		pm := productMap(products)

		selected := selectLines(cart, arg.ProductIDs, pm)
		if len(selected) == 0 {
			return apperr.New(apperr.EmptyOrInvalidSelectionCode, "")
		}
		for _, sl := range selected {
			if sl.Line.Quantity > sl.Product.QuantityInStock {
				return apperr.Newf(apperr.InsufficientStockCode,
					"shop %s: not enough stock for %s (%s), available: %d",
					sl.Line.ShopID, sl.Product.Name, sl.Product.ID, sl.Product.QuantityInStock)
			}
		}

		voucherPct, err := o.voucherPercent(txCtx, tx, arg.VoucherCode)
		if err != nil {
			return err
		}

		checkoutID := uuid.NewString()
		groups := splitByShop(selected)
		orders := make([]*model.Order, 0, len(groups))
		for _, g := range groups {
			orders = append(orders, o.buildOrder(arg, checkoutID, cart.ID, g, voucherPct))
		}
		if err := tx.CreateOrders(txCtx, orders); err != nil {
			return err
		}

		removed := make(map[string]struct{}, len(selected))
		for _, sl := range selected {
			removed[sl.Line.ProductID] = struct{}{}
		}
		cart.RemoveProducts(removed)
		cart.TotalPrice = cartTotal(cart, pm)
		cart.Stamp(o.now())
		if err := tx.SaveCart(txCtx, cart); err != nil {
			return err
		}

		created = orders
		return nil
	})
	return created, err
}

// Ship 出貨時才扣庫存, 扣庫存與訂單更新在同一個交易
// 錯誤:
//   - NotFoundCode: 訂單不存在
//   - InvalidStateCode: 訂單已取消
//   - NothingToShipCode: 該 shop 沒有待出貨的 line (已出貨/已送達/非本 shop), 或同時出貨的另一個請求先完成
//   - InsufficientStockCode: 任一商品庫存不足, 全部 rollback
func (o *OrderService) Ship(ctx context.Context, orderID, shopID string) (*model.Order, error) {
	var (
		shipped  *model.Order
		from     model.OrderStatus
		products []string
	)
	err := o.store.ExecTx(ctx, func(txCtx context.Context, tx repository.Store) error {
		order, err := tx.GetOrderByID(txCtx, orderID)
		if err != nil {
			return notFoundOr(err, "order %s not found", orderID)
		}
		if order.Status == model.OrderCancelled {
			return apperr.Newf(apperr.InvalidStateCode, "order %s is cancelled", orderID)
		}
		pending := order.PendingLinesOfShop(shopID)
		if len(pending) == 0 {
			return apperr.Newf(apperr.NothingToShipCode, "order %s has nothing to ship for shop %s", orderID, shopID)
		}

		now := o.now()
		products = products[:0]
		for _, i := range pending {
			line := &order.Lines[i]
			err := tx.DeductProductStock(txCtx, line.ProductID, line.Quantity, now)
			switch {
			case errors.Is(err, repository.ErrStockNotEnough):
				return apperr.Newf(apperr.InsufficientStockCode,
					"not enough stock for %s (%s) to ship %d", line.ProductName, line.ProductID, line.Quantity)
			case errors.Is(err, repository.ErrNotFound):
				return apperr.Newf(apperr.NotFoundCode, "product %s not found", line.ProductID)
			case err != nil:
				return err
			}
			line.Status = model.OrderShipped
			products = append(products, line.ProductID)
		}

		from = order.Status
		if order.AllLinesShipped() && order.Status.CanTransitionTo(model.OrderShipped) {
			order.Status = model.OrderShipped
			order.ShippedAt = &now
		}
		order.UpdatedAt = now

		if err := tx.TransitionOrder(txCtx, order, from); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperr.Newf(apperr.NothingToShipCode, "order %s has nothing to ship for shop %s", orderID, shopID)
			}
			return err
		}
		shipped = order
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "")
	}

	invalidateProducts(ctx, o.productCache, products...)
	if shipped.Status != from {
		o.publish(ctx, event.NewOrderStateChangedEvent(shipped.ID, shopID, from, shipped.Status, shipped.UpdatedAt))
	}
	zerolog.Ctx(ctx).Info().Str("order_id", orderID).Str("shop_id", shopID).Msg("order shipped")
	return shipped, nil
}

// Cancel 只能取消 Pending 的訂單, 不回補庫存 (出貨前未扣)
// 錯誤:
//   - NotFoundCode: 訂單不存在, 或訂單沒有該 shop 的 line
//   - InvalidStateCode: 訂單不是 Pending
func (o *OrderService) Cancel(ctx context.Context, orderID, shopID string) (*model.Order, error) {
	order, err := o.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", orderID)
	}
	if !order.Status.CanTransitionTo(model.OrderCancelled) {
		return nil, apperr.Newf(apperr.InvalidStateCode, "order %s is %s, only Pending can be cancelled", orderID, order.Status)
	}
	if !order.HasShop(shopID) {
		return nil, apperr.Newf(apperr.NotFoundCode, "order %s has no items of shop %s", orderID, shopID)
	}

	now := o.now()
	for i := range order.Lines {
		order.Lines[i].Status = model.OrderCancelled
	}
	order.Status = model.OrderCancelled
	order.CancelledAt = &now
	order.UpdatedAt = now

	if err := o.store.TransitionOrder(ctx, order, model.OrderPending); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Newf(apperr.InvalidStateCode, "order %s is no longer Pending", orderID)
		}
		return nil, notFoundOr(err, "order %s not found", orderID)
	}

	o.publish(ctx, event.NewOrderStateChangedEvent(order.ID, shopID, model.OrderPending, model.OrderCancelled, now))
	zerolog.Ctx(ctx).Info().Str("order_id", orderID).Str("shop_id", shopID).Msg("order cancelled")
	return order, nil
}

// Deliver 送達即視為已付款 (貨到付款), 重複呼叫不會有副作用
// 錯誤:
//   - NotFoundCode: 訂單不存在, 或指定的 shop 不是該訂單的 shop
//   - InvalidStateCode: 訂單尚未出貨或已取消
func (o *OrderService) Deliver(ctx context.Context, orderID, shopID string) (*model.Order, error) {
	order, err := o.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", orderID)
	}
	if shopID != "" && !order.HasShop(shopID) {
		return nil, apperr.Newf(apperr.NotFoundCode, "order %s has no items of shop %s", orderID, shopID)
	}
	if order.Status == model.OrderDelivered {
		return order, nil
	}
	if !order.Status.CanTransitionTo(model.OrderDelivered) {
		return nil, apperr.Newf(apperr.InvalidStateCode, "order %s is %s, only Shipped can be delivered", orderID, order.Status)
	}

	wasPaid := order.IsPaid
	now := o.now()
	order.Status = model.OrderDelivered
	order.DeliveredAt = &now
	order.IsPaid = true
	order.PaymentStatus = model.PaymentPaid
	order.UpdatedAt = now

	if err := o.store.TransitionOrder(ctx, order, model.OrderShipped); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, notFoundOr(err, "order %s not found", orderID)
		}
		// 另一個請求先送達
		current, getErr := o.store.GetOrderByID(ctx, orderID)
		if getErr != nil {
			return nil, notFoundOr(getErr, "order %s not found", orderID)
		}
		if current.Status == model.OrderDelivered {
			return current, nil
		}
		return nil, apperr.Newf(apperr.InvalidStateCode, "order %s is %s, only Shipped can be delivered", orderID, current.Status)
	}

	evts := []event.Event{event.NewOrderStateChangedEvent(order.ID, order.ShopID, model.OrderShipped, model.OrderDelivered, now)}
	if !wasPaid {
		evts = append(evts, event.NewOrderPaymentEvent(order.ID, model.PaymentPaid, "", now))
	}
	o.publish(ctx, evts...)
	zerolog.Ctx(ctx).Info().Str("order_id", orderID).Msg("order delivered")
	return order, nil
}

func (o *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := o.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "order %s not found", orderID)
	}
	return order, nil
}

func (o *OrderService) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := o.store.ListOrdersByUser(ctx, userID)
	return orders, notFoundOr(err, "")
}

func (o *OrderService) ListOrdersByShop(ctx context.Context, shopID string) ([]model.Order, error) {
	orders, err := o.store.ListOrdersByShop(ctx, shopID)
	return orders, notFoundOr(err, "")
}

func (o *OrderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := o.store.ListOrders(ctx)
	return orders, notFoundOr(err, "")
}
