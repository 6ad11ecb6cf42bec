package service

import (
	"sync"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model/event"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (suite *ServiceTestSuite) TestCheckoutSplitsByShop() {
	shopA := suite.seedShop()
	shopB := suite.seedShop()
	pa := suite.seedProduct(shopA.ID, "200000", 5)
	pb := suite.seedProduct(shopB.ID, "50000", 5)
	userID := uuid.NewString()

	suite.addToCart(userID, pa.ID, 1)
	cart := suite.addToCart(userID, pb.ID, 1)
	decEq(suite.T(), "250000", cart.TotalPrice)

	orders, err := suite.orders.Checkout(suite.ctx, suite.checkoutParams(userID, cart.ID, "", pa.ID, pb.ID))
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 2)

	a, b := orders[0], orders[1]
	require.Equal(suite.T(), shopA.ID, a.ShopID)
	require.Equal(suite.T(), shopB.ID, b.ShopID)
	require.Equal(suite.T(), a.CheckoutID, b.CheckoutID)

	decEq(suite.T(), "200000", a.TotalPrice)
	decEq(suite.T(), "20000", a.VAT)
	decEq(suite.T(), "800000", a.ShippingFee)
	decEq(suite.T(), "1020000", a.OrderTotal)

	decEq(suite.T(), "50000", b.TotalPrice)
	decEq(suite.T(), "5000", b.VAT)
	decEq(suite.T(), "800000", b.ShippingFee)
	decEq(suite.T(), "855000", b.OrderTotal)

	for _, o := range orders {
		require.Equal(suite.T(), model.OrderPending, o.Status)
		require.Equal(suite.T(), model.PaymentUnpaid, o.PaymentStatus)
		require.False(suite.T(), o.IsPaid)
		require.Len(suite.T(), o.Lines, 1)
		require.Equal(suite.T(), model.OrderPending, o.Lines[0].Status)
	}

	after, err := suite.carts.GetCart(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), after.Lines)
	require.True(suite.T(), after.TotalPrice.IsZero())

	// 結帳不扣庫存
	stored, err := suite.products.GetProduct(suite.ctx, pa.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(5), stored.QuantityInStock)

	require.Len(suite.T(), suite.eventsOf(event.OrderCreatedEventName), 2)

	byUser, err := suite.orders.ListOrdersByUser(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), byUser, 2)

	byShop, err := suite.orders.ListOrdersByShop(suite.ctx, shopB.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), byShop, 1)
	require.Equal(suite.T(), b.ID, byShop[0].ID)

	all, err := suite.orders.ListOrders(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), all, 2)
}

func (suite *ServiceTestSuite) TestCheckoutKeepsUnselectedLines() {
	shop := suite.seedShop()
	p1 := suite.seedProduct(shop.ID, "100", 5)
	p2 := suite.seedProduct(shop.ID, "30", 5)
	userID := uuid.NewString()

	suite.addToCart(userID, p1.ID, 2)
	cart := suite.addToCart(userID, p2.ID, 1)

	orders, err := suite.orders.Checkout(suite.ctx, suite.checkoutParams(userID, cart.ID, "", p1.ID, uuid.NewString()))
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 1)
	require.Len(suite.T(), orders[0].Lines, 1)
	decEq(suite.T(), "200", orders[0].TotalPrice)

	after, err := suite.carts.GetCart(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), after.Lines, 1)
	require.Equal(suite.T(), p2.ID, after.Lines[0].ProductID)
	decEq(suite.T(), "30", after.TotalPrice)
}

func (suite *ServiceTestSuite) TestCheckoutVoucher() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "200000", 10)
	expired := suite.now.Add(-time.Hour)
	require.NoError(suite.T(), suite.store.UpsertVoucher(suite.ctx, &model.Voucher{Code: "WELCOME10", Discount: decimal.NewFromInt(10)}))
	require.NoError(suite.T(), suite.store.UpsertVoucher(suite.ctx, &model.Voucher{Code: "OLD", Discount: decimal.NewFromInt(50), ExpiresAt: &expired}))

	testCases := []struct {
		name     string
		voucher  string
		discount string
		total    string
	}{
		{name: "valid voucher", voucher: "WELCOME10", discount: "102000", total: "918000"},
		{name: "expired voucher", voucher: "OLD", discount: "0", total: "1020000"},
		{name: "unknown voucher", voucher: "NOPE", discount: "0", total: "1020000"},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			userID := uuid.NewString()
			cart := suite.addToCart(userID, p.ID, 1)
			orders, err := suite.orders.Checkout(suite.ctx, suite.checkoutParams(userID, cart.ID, tc.voucher, p.ID))
			require.NoError(suite.T(), err)
			require.Len(suite.T(), orders, 1)
			decEq(suite.T(), tc.discount, orders[0].Discount)
			decEq(suite.T(), tc.total, orders[0].OrderTotal)
		})
	}
}

func (suite *ServiceTestSuite) TestCheckoutErrors() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 2)
	userID := uuid.NewString()
	cart := suite.addToCart(userID, p.ID, 2)

	otherUser := uuid.NewString()
	otherCart := suite.addToCart(otherUser, p.ID, 1)

	missingName := suite.checkoutParams(userID, cart.ID, "", p.ID)
	missingName.Name = ""

	testCases := []struct {
		name   string
		params CheckoutParams
		code   apperr.Code
	}{
		{name: "missing name", params: missingName, code: apperr.InvalidInputCode},
		{name: "no product", params: suite.checkoutParams(userID, cart.ID, ""), code: apperr.EmptyOrInvalidSelectionCode},
		{name: "product not in cart", params: suite.checkoutParams(userID, cart.ID, "", uuid.NewString()), code: apperr.EmptyOrInvalidSelectionCode},
		{name: "cart not found", params: suite.checkoutParams(userID, uuid.NewString(), "", p.ID), code: apperr.NotFoundCode},
		{name: "cart of other user", params: suite.checkoutParams(userID, otherCart.ID, "", p.ID), code: apperr.NotFoundCode},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.orders.Checkout(suite.ctx, tc.params)
			suite.requireCode(err, tc.code)
		})
	}

	// 加入購物車後庫存被調低
	stock := int64(1)
	_, err := suite.products.UpdateProduct(suite.ctx, p.ID, UpdateProductParams{QuantityInStock: &stock})
	require.NoError(suite.T(), err)

	_, err = suite.orders.Checkout(suite.ctx, suite.checkoutParams(userID, cart.ID, "", p.ID))
	suite.requireCode(err, apperr.InsufficientStockCode)

	after, err := suite.carts.GetCart(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), after.Lines, 1)
	orders, err := suite.orders.ListOrdersByUser(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Empty(suite.T(), orders)
	require.Empty(suite.T(), suite.eventsOf(event.OrderCreatedEventName))
}

func (suite *ServiceTestSuite) TestCheckoutStockFailureInOneShopWritesNothing() {
	shopA := suite.seedShop()
	shopB := suite.seedShop()
	pa := suite.seedProduct(shopA.ID, "200000", 5)
	pb := suite.seedProduct(shopB.ID, "50000", 2)
	userID := uuid.NewString()
	suite.addToCart(userID, pa.ID, 1)
	before := suite.addToCart(userID, pb.ID, 2)

	stock := int64(1)
	_, err := suite.products.UpdateProduct(suite.ctx, pb.ID, UpdateProductParams{QuantityInStock: &stock})
	require.NoError(suite.T(), err)

	_, err = suite.orders.Checkout(suite.ctx, suite.checkoutParams(userID, before.ID, "", pa.ID, pb.ID))
	suite.requireCode(err, apperr.InsufficientStockCode)
	require.Contains(suite.T(), err.Error(), shopB.ID)
	require.Contains(suite.T(), err.Error(), pb.ID)

	for _, shopID := range []string{shopA.ID, shopB.ID} {
		orders, err := suite.orders.ListOrdersByShop(suite.ctx, shopID)
		require.NoError(suite.T(), err)
		require.Empty(suite.T(), orders, "shop %s", shopID)
	}

	after, err := suite.carts.GetCart(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), after.Lines, 2)
	qty := map[string]int64{}
	for _, l := range after.Lines {
		qty[l.ProductID] = l.Quantity
	}
	require.Equal(suite.T(), map[string]int64{pa.ID: 1, pb.ID: 2}, qty)
	require.Equal(suite.T(), before.Version, after.Version)
	require.Empty(suite.T(), suite.eventsOf(event.OrderCreatedEventName))

	// 庫存未在結帳時扣除
	stored, err := suite.products.GetProduct(suite.ctx, pa.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(5), stored.QuantityInStock)
}

func (suite *ServiceTestSuite) TestShipDebitsStockOnce() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 5)
	order := suite.placeOrder(uuid.NewString(), p, 2)

	_, err := suite.orders.Ship(suite.ctx, order.ID, uuid.NewString())
	suite.requireCode(err, apperr.NothingToShipCode)

	shipped, err := suite.orders.Ship(suite.ctx, order.ID, shop.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderShipped, shipped.Status)
	require.NotNil(suite.T(), shipped.ShippedAt)
	require.Equal(suite.T(), model.OrderShipped, shipped.Lines[0].Status)

	_, err = suite.orders.Ship(suite.ctx, order.ID, shop.ID)
	suite.requireCode(err, apperr.NothingToShipCode)

	stored, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(3), stored.QuantityInStock)
	require.Equal(suite.T(), int64(2), stored.SoldQuantity)

	require.Len(suite.T(), suite.eventsOf(event.OrderShippedEventName), 1)

	_, err = suite.orders.Ship(suite.ctx, uuid.NewString(), shop.ID)
	suite.requireCode(err, apperr.NotFoundCode)
}

func (suite *ServiceTestSuite) TestConcurrentShip() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 5)
	order := suite.placeOrder(uuid.NewString(), p, 2)

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.orders.Ship(suite.ctx, order.ID, shop.ID)
		}(i)
	}
	wg.Wait()

	success := 0
	for _, err := range errs {
		if err == nil {
			success++
			continue
		}
		suite.requireCode(err, apperr.NothingToShipCode)
	}
	require.Equal(suite.T(), 1, success)

	stored, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(3), stored.QuantityInStock)
}

func (suite *ServiceTestSuite) TestShipInsufficientStockRollsBack() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 5)
	order := suite.placeOrder(uuid.NewString(), p, 3)

	stock := int64(1)
	_, err := suite.products.UpdateProduct(suite.ctx, p.ID, UpdateProductParams{QuantityInStock: &stock})
	require.NoError(suite.T(), err)

	_, err = suite.orders.Ship(suite.ctx, order.ID, shop.ID)
	suite.requireCode(err, apperr.InsufficientStockCode)

	stored, err := suite.orders.GetOrder(suite.ctx, order.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderPending, stored.Status)
	require.Equal(suite.T(), model.OrderPending, stored.Lines[0].Status)

	product, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(1), product.QuantityInStock)
	require.Zero(suite.T(), product.SoldQuantity)
}

func (suite *ServiceTestSuite) TestCancel() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 10)
	userID := uuid.NewString()

	pending := suite.placeOrder(userID, p, 1)
	_, err := suite.orders.Cancel(suite.ctx, pending.ID, uuid.NewString())
	suite.requireCode(err, apperr.NotFoundCode)

	cancelled, err := suite.orders.Cancel(suite.ctx, pending.ID, shop.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderCancelled, cancelled.Status)
	require.Equal(suite.T(), model.OrderCancelled, cancelled.Lines[0].Status)
	require.NotNil(suite.T(), cancelled.CancelledAt)

	_, err = suite.orders.Cancel(suite.ctx, pending.ID, shop.ID)
	suite.requireCode(err, apperr.InvalidStateCode)
	_, err = suite.orders.Ship(suite.ctx, pending.ID, shop.ID)
	suite.requireCode(err, apperr.InvalidStateCode)

	shipped := suite.placeOrder(userID, p, 1)
	_, err = suite.orders.Ship(suite.ctx, shipped.ID, shop.ID)
	require.NoError(suite.T(), err)
	_, err = suite.orders.Cancel(suite.ctx, shipped.ID, shop.ID)
	suite.requireCode(err, apperr.InvalidStateCode)

	product, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(9), product.QuantityInStock)
}

func (suite *ServiceTestSuite) TestDeliverIsIdempotent() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 10)
	order := suite.placeOrder(uuid.NewString(), p, 2)

	_, err := suite.orders.Deliver(suite.ctx, order.ID, shop.ID)
	suite.requireCode(err, apperr.InvalidStateCode)

	_, err = suite.orders.Ship(suite.ctx, order.ID, shop.ID)
	require.NoError(suite.T(), err)

	_, err = suite.orders.Deliver(suite.ctx, order.ID, uuid.NewString())
	suite.requireCode(err, apperr.NotFoundCode)

	delivered, err := suite.orders.Deliver(suite.ctx, order.ID, shop.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderDelivered, delivered.Status)
	require.True(suite.T(), delivered.IsPaid)
	require.Equal(suite.T(), model.PaymentPaid, delivered.PaymentStatus)

	again, err := suite.orders.Deliver(suite.ctx, order.ID, "")
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderDelivered, again.Status)

	require.Len(suite.T(), suite.eventsOf(event.OrderDeliveredEventName), 1)
	require.Len(suite.T(), suite.eventsOf(event.OrderPaidEventName), 1)

	revenue, err := suite.reports.Revenue(suite.ctx, shop.ID)
	require.NoError(suite.T(), err)
	decEq(suite.T(), "200", revenue.Revenue)
	require.Equal(suite.T(), int64(1), revenue.DeliveredOrders)
}
