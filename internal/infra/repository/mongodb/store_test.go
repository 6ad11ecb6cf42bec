package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// 需要 replica set 的 mongo, 例如 MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0
type MongoStoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestMongoStoreTestSuite(t *testing.T) {
	if os.Getenv("MONGO_URI") == "" {
		t.Skip("MONGO_URI not set")
	}
	suite.Run(t, new(MongoStoreTestSuite))
}

func (suite *MongoStoreTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 11, 20, 3, 0, 0, 0, time.UTC)

	client, err := Connect(suite.ctx, os.Getenv("MONGO_URI"))
	require.NoError(suite.T(), err)
	suite.store = NewStore(client, "marketplace_test_"+uuid.NewString()[:8])
	require.NoError(suite.T(), suite.store.InitMigrate(suite.ctx))
}

func (suite *MongoStoreTestSuite) TearDownTest() {
	_ = suite.store.db.Drop(suite.ctx)
	_ = suite.store.Close(suite.ctx)
}

func (suite *MongoStoreTestSuite) TestDeductProductStock() {
	p := &model.Product{
		ID:              uuid.NewString(),
		Name:            "p",
		ShopID:          uuid.NewString(),
		QuantityInStock: 5,
		Prices:          decimal.NewFromInt(100),
		PromotionPrice:  decimal.NewFromInt(100),
	}
	p.Stamp(suite.now)
	require.NoError(suite.T(), suite.store.CreateProduct(suite.ctx, p))

	require.NoError(suite.T(), suite.store.DeductProductStock(suite.ctx, p.ID, 3, suite.now))
	err := suite.store.DeductProductStock(suite.ctx, p.ID, 3, suite.now)
	require.ErrorIs(suite.T(), err, repository.ErrStockNotEnough)
	err = suite.store.DeductProductStock(suite.ctx, uuid.NewString(), 1, suite.now)
	require.ErrorIs(suite.T(), err, repository.ErrNotFound)

	got, err := suite.store.GetProductByID(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(2), got.QuantityInStock)
	require.Equal(suite.T(), int64(3), got.SoldQuantity)
	require.True(suite.T(), got.Prices.Equal(decimal.NewFromInt(100)))
}

func (suite *MongoStoreTestSuite) TestCartVersioning() {
	cart := &model.Cart{ID: uuid.NewString(), UserID: uuid.NewString(), TotalPrice: decimal.Zero}
	cart.Stamp(suite.now)
	require.NoError(suite.T(), suite.store.CreateCart(suite.ctx, cart))

	dup := &model.Cart{ID: uuid.NewString(), UserID: cart.UserID}
	require.ErrorIs(suite.T(), suite.store.CreateCart(suite.ctx, dup), repository.ErrConflict)

	stale := *cart
	cart.Lines = []model.CartLine{{ProductID: "p1", ShopID: "s1", Quantity: 2}}
	require.NoError(suite.T(), suite.store.SaveCart(suite.ctx, cart))
	require.Equal(suite.T(), int64(1), cart.Version)
	require.ErrorIs(suite.T(), suite.store.SaveCart(suite.ctx, &stale), repository.ErrConflict)

	got, err := suite.store.GetCartByUserID(suite.ctx, cart.UserID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), got.Lines, 1)
	require.Equal(suite.T(), int64(2), got.Lines[0].Quantity)

	require.NoError(suite.T(), suite.store.DeleteCart(suite.ctx, cart.ID))
	require.ErrorIs(suite.T(), suite.store.DeleteCart(suite.ctx, cart.ID), repository.ErrNotFound)
}

func (suite *MongoStoreTestSuite) TestTransitionAndRevenue() {
	o := &model.Order{
		ID:            uuid.NewString(),
		CheckoutID:    uuid.NewString(),
		UserID:        uuid.NewString(),
		ShopID:        "s1",
		Status:        model.OrderShipped,
		PaymentStatus: model.PaymentUnpaid,
		OrderTotal:    decimal.NewFromInt(330),
		CreatedAt:     suite.now,
		UpdatedAt:     suite.now,
		Lines: []model.OrderLine{
			{ProductID: "p1", ShopID: "s1", Quantity: 2, Price: decimal.NewFromInt(100), Status: model.OrderShipped},
			{ProductID: "p2", ShopID: "s1", Quantity: 1, Price: decimal.NewFromInt(50), Status: model.OrderShipped},
		},
	}
	require.NoError(suite.T(), suite.store.CreateOrders(suite.ctx, []*model.Order{o}))

	o.Status = model.OrderDelivered
	o.IsPaid = true
	require.NoError(suite.T(), suite.store.TransitionOrder(suite.ctx, o, model.OrderShipped))
	require.ErrorIs(suite.T(), suite.store.TransitionOrder(suite.ctx, o, model.OrderShipped), repository.ErrConflict)

	n, err := suite.store.MarkOrdersPaymentStatus(suite.ctx, []string{o.ID}, model.PaymentFailed, suite.now)
	require.NoError(suite.T(), err)
	require.Zero(suite.T(), n)

	sum, err := suite.store.SumDeliveredRevenue(suite.ctx, "s1")
	require.NoError(suite.T(), err)
	require.True(suite.T(), sum.Revenue.Equal(decimal.NewFromInt(250)), sum.Revenue.String())
	require.True(suite.T(), sum.GrossOrderTotal.Equal(decimal.NewFromInt(330)))
	require.Equal(suite.T(), int64(1), sum.DeliveredOrders)

	found, err := suite.store.FindOrders(suite.ctx, repository.OrderFilter{
		Status: model.OrderDelivered,
		From:   suite.now,
		To:     suite.now.Add(time.Hour),
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), found, 1)
}
