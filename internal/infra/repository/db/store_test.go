package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *db.Store
	ctx   context.Context
	now   time.Time
}

func (suite *StoreTestSuite) SetupTest() {
	suite.store = dbtest.NewStore(suite.T())
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 11, 20, 3, 0, 0, 0, time.UTC)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (suite *StoreTestSuite) createProduct(stock int64, price string) *model.Product {
	p := &model.Product{
		ID:              uuid.NewString(),
		Name:            "product",
		ShopID:          uuid.NewString(),
		QuantityInStock: stock,
		Prices:          decimal.RequireFromString(price),
		Discount:        decimal.Zero,
		PromotionPrice:  decimal.RequireFromString(price),
		ImageURLs:       []string{"https://img/1.png"},
	}
	p.Stamp(suite.now)
	require.NoError(suite.T(), suite.store.CreateProduct(suite.ctx, p))
	return p
}

func (suite *StoreTestSuite) createOrder(status model.OrderStatus, createdAt time.Time, price string, qty int64) *model.Order {
	shopID := uuid.NewString()
	o := &model.Order{
		ID:            uuid.NewString(),
		CheckoutID:    uuid.NewString(),
		UserID:        uuid.NewString(),
		CartID:        uuid.NewString(),
		ShopID:        shopID,
		Name:          "buyer",
		Phone:         "0900000000",
		Email:         "buyer@example.com",
		TotalPrice:    decimal.RequireFromString(price).Mul(decimal.NewFromInt(qty)),
		OrderTotal:    decimal.RequireFromString(price).Mul(decimal.NewFromInt(qty)),
		Status:        status,
		PaymentStatus: model.PaymentUnpaid,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
		Lines: []model.OrderLine{{
			ProductID: uuid.NewString(),
			ShopID:    shopID,
			Quantity:  qty,
			Price:     decimal.RequireFromString(price),
			Status:    model.OrderPending,
		}},
	}
	require.NoError(suite.T(), suite.store.CreateOrders(suite.ctx, []*model.Order{o}))
	return o
}

func (suite *StoreTestSuite) TestDeductProductStock() {
	p := suite.createProduct(5, "100")

	require.NoError(suite.T(), suite.store.DeductProductStock(suite.ctx, p.ID, 3, suite.now))
	err := suite.store.DeductProductStock(suite.ctx, p.ID, 3, suite.now)
	require.ErrorIs(suite.T(), err, repository.ErrStockNotEnough)

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(2), got.QuantityInStock)
	require.Equal(suite.T(), int64(3), got.SoldQuantity)
	require.Equal(suite.T(), []string{"https://img/1.png"}, got.ImageURLs)

	err = suite.store.DeductProductStock(suite.ctx, uuid.NewString(), 1, suite.now)
	require.ErrorIs(suite.T(), err, repository.ErrNotFound)
}

func (suite *StoreTestSuite) TestUpdateProductKeepsSoldQuantity() {
	p := suite.createProduct(5, "100")
	require.NoError(suite.T(), suite.store.DeductProductStock(suite.ctx, p.ID, 2, suite.now))

	p.Name = "renamed"
	p.QuantityInStock = 10
	p.SoldQuantity = 0
	require.NoError(suite.T(), suite.store.UpdateProduct(suite.ctx, p))

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), "renamed", got.Name)
	require.Equal(suite.T(), int64(10), got.QuantityInStock)
	require.Equal(suite.T(), int64(2), got.SoldQuantity)
}

func (suite *StoreTestSuite) TestCartVersioning() {
	userID := uuid.NewString()
	cart := &model.Cart{ID: uuid.NewString(), UserID: userID, TotalPrice: decimal.Zero}
	cart.Stamp(suite.now)
	require.NoError(suite.T(), suite.store.CreateCart(suite.ctx, cart))

	dup := &model.Cart{ID: uuid.NewString(), UserID: userID, TotalPrice: decimal.Zero}
	dup.Stamp(suite.now)
	require.ErrorIs(suite.T(), suite.store.CreateCart(suite.ctx, dup), repository.ErrConflict)

	first, err := suite.store.GetCartByUserID(suite.ctx, userID)
	require.NoError(suite.T(), err)
	second, err := suite.store.GetCartByUserID(suite.ctx, userID)
	require.NoError(suite.T(), err)

	first.Lines = append(first.Lines, model.CartLine{ProductID: uuid.NewString(), ShopID: uuid.NewString(), Quantity: 1})
	first.TotalPrice = decimal.NewFromInt(10)
	require.NoError(suite.T(), suite.store.SaveCart(suite.ctx, first))
	require.Equal(suite.T(), int64(1), first.Version)

	second.Lines = append(second.Lines, model.CartLine{ProductID: uuid.NewString(), ShopID: uuid.NewString(), Quantity: 2})
	require.ErrorIs(suite.T(), suite.store.SaveCart(suite.ctx, second), repository.ErrConflict)

	got, err := suite.store.GetCartByID(suite.ctx, cart.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got.Lines, 1)
	require.Equal(suite.T(), int64(1), got.Lines[0].Quantity)

	require.NoError(suite.T(), suite.store.DeleteCart(suite.ctx, cart.ID))
	_, err = suite.store.GetCartByUserID(suite.ctx, userID)
	require.ErrorIs(suite.T(), err, repository.ErrNotFound)
	require.ErrorIs(suite.T(), suite.store.DeleteCart(suite.ctx, cart.ID), repository.ErrNotFound)
}

func (suite *StoreTestSuite) TestTransitionOrderIsConditional() {
	o := suite.createOrder(model.OrderPending, suite.now, "100", 1)

	shipped := *o
	shipped.Lines = append([]model.OrderLine(nil), o.Lines...)
	shipped.Status = model.OrderShipped
	shipped.Lines[0].Status = model.OrderShipped
	at := suite.now.Add(time.Hour)
	shipped.ShippedAt = &at
	shipped.UpdatedAt = at
	require.NoError(suite.T(), suite.store.TransitionOrder(suite.ctx, &shipped, model.OrderPending))

	// 第二次以 Pending 為條件不會命中
	require.ErrorIs(suite.T(), suite.store.TransitionOrder(suite.ctx, &shipped, model.OrderPending), repository.ErrConflict)

	got, err := suite.store.GetOrderByID(suite.ctx, o.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), model.OrderShipped, got.Status)
	require.Equal(suite.T(), model.OrderShipped, got.Lines[0].Status)
	require.NotNil(suite.T(), got.ShippedAt)
}

func (suite *StoreTestSuite) TestMarkOrdersPaidIsIdempotent() {
	o1 := suite.createOrder(model.OrderPending, suite.now, "100", 1)
	o2 := suite.createOrder(model.OrderPending, suite.now, "100", 1)
	ids := []string{o1.ID, o2.ID}

	n, err := suite.store.MarkOrdersPaid(suite.ctx, ids, suite.now)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(2), n)

	n, err = suite.store.MarkOrdersPaid(suite.ctx, ids, suite.now)
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), n)

	// 已付款不會被失敗回呼改回
	n, err = suite.store.MarkOrdersPaymentStatus(suite.ctx, ids, model.PaymentFailed, suite.now)
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), n)

	orders, err := suite.store.GetOrdersByIDs(suite.ctx, ids)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 2)
	for _, o := range orders {
		require.True(suite.T(), o.IsPaid)
		require.Equal(suite.T(), model.PaymentPaid, o.PaymentStatus)
	}
}

func (suite *StoreTestSuite) TestFindOrdersHalfOpenRange() {
	from := time.Date(2024, 11, 19, 17, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	suite.createOrder(model.OrderPending, from, "100", 1)
	suite.createOrder(model.OrderPending, to.Add(-time.Second), "100", 2)
	suite.createOrder(model.OrderPending, to, "100", 3)
	suite.createOrder(model.OrderShipped, from, "100", 4)

	orders, err := suite.store.FindOrders(suite.ctx, repository.OrderFilter{Status: model.OrderPending, From: from, To: to})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 2)
	require.Equal(suite.T(), int64(1), orders[0].Lines[0].Quantity)
	require.Equal(suite.T(), int64(2), orders[1].Lines[0].Quantity)
}

func (suite *StoreTestSuite) TestSumDeliveredRevenue() {
	delivered := suite.createOrder(model.OrderDelivered, suite.now, "100", 2)
	suite.createOrder(model.OrderDelivered, suite.now, "50", 1)
	suite.createOrder(model.OrderPending, suite.now, "1000", 1)

	sum, err := suite.store.SumDeliveredRevenue(suite.ctx, "")
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.NewFromInt(250).Equal(sum.Revenue), sum.Revenue.String())
	require.Equal(suite.T(), int64(2), sum.DeliveredOrders)

	sum, err = suite.store.SumDeliveredRevenue(suite.ctx, delivered.ShopID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.NewFromInt(200).Equal(sum.Revenue))
	require.True(suite.T(), decimal.NewFromInt(200).Equal(sum.GrossOrderTotal))

	// 重複讀取不會重複計算
	again, err := suite.store.SumDeliveredRevenue(suite.ctx, delivered.ShopID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), sum.Revenue.Equal(again.Revenue))
}

func (suite *StoreTestSuite) TestExecTxRollback() {
	p := suite.createProduct(5, "100")
	boom := errors.New("boom")

	err := suite.store.ExecTx(suite.ctx, func(txCtx context.Context, tx repository.Store) error {
		if err := tx.DeductProductStock(txCtx, p.ID, 5, suite.now); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(suite.T(), err, boom)

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(5), got.QuantityInStock)
}

func (suite *StoreTestSuite) TestVoucherUpsert() {
	v := &model.Voucher{Code: "SALE10", Discount: decimal.NewFromInt(10)}
	v.Stamp(suite.now)
	require.NoError(suite.T(), suite.store.UpsertVoucher(suite.ctx, v))

	v.Discount = decimal.NewFromInt(20)
	require.NoError(suite.T(), suite.store.UpsertVoucher(suite.ctx, v))

	got, err := suite.store.GetVoucherByCode(suite.ctx, "SALE10")
	require.NoError(suite.T(), err)
	require.True(suite.T(), decimal.NewFromInt(20).Equal(got.Discount))

	_, err = suite.store.GetVoucherByCode(suite.ctx, "NOPE")
	require.ErrorIs(suite.T(), err, repository.ErrNotFound)
}
