package service

import (
	"context"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model/event"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/cache/cachetest"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/gateway/vnpay"
	mock_producer "github.com/RoyceAzure/lab/marketplace/internal/infra/producer/mock"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db/dbtest"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testHashSecret = "SECRETKEY123"

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	loc       *time.Location
	store     *db.Store
	ctrl      *gomock.Controller
	publisher *mock_producer.MockEventPublisher
	events    []event.Event

	productCacheStore *cachetest.MemoryCache
	gateway           *vnpay.Client
	opts              []Option

	products *ProductService
	carts    *CartService
	orders   *OrderService
	reports  *ReportService
	payments *PaymentService
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (suite *ServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	// 2024-11-20 10:00 GMT+7, 週三
	suite.now = time.Date(2024, 11, 20, 3, 0, 0, 0, time.UTC)
	suite.loc = time.FixedZone("ICT", 7*60*60)
	suite.store = dbtest.NewStore(suite.T())
	suite.events = nil

	suite.ctrl = gomock.NewController(suite.T())
	suite.publisher = mock_producer.NewMockEventPublisher(suite.ctrl)
	suite.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evts ...event.Event) error {
			suite.events = append(suite.events, evts...)
			return nil
		}).
		AnyTimes()

	opts := []Option{
		WithClock(func() time.Time { return suite.now }),
		WithPublisher(suite.publisher),
		WithLocation(suite.loc),
	}

	suite.productCacheStore = cachetest.NewMemoryCache()
	productCache := redis_repo.NewProductCacheRepo(suite.productCacheStore, time.Minute)
	ledger := redis_repo.NewCallbackLedgerRepo(cachetest.NewMemoryCache(), 0)
	suite.opts = opts
	suite.gateway = vnpay.NewClient(vnpay.Config{
		TmnCode:    "TMNCODE1",
		HashSecret: testHashSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		Location:   suite.loc,
	})

	suite.products = NewProductService(suite.store, productCache, opts...)
	suite.carts = NewCartService(suite.store, opts...)
	suite.orders = NewOrderService(suite.store, productCache, opts...)
	suite.reports = NewReportService(suite.store, opts...)
	suite.payments = suite.newPaymentService(ledger)
}

func (suite *ServiceTestSuite) newPaymentService(ledger redis_repo.ICallbackLedgerRepository) *PaymentService {
	return NewPaymentService(suite.store, suite.gateway, ledger, PaymentConfig{
		DefaultReturnURL: "http://localhost:8080/api/v1/payment/callback",
		ResultURL:        "http://localhost:3000/payment/result",
	}, suite.opts...)
}

func (suite *ServiceTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *ServiceTestSuite) requireCode(err error, code apperr.Code) {
	suite.T().Helper()
	require.Error(suite.T(), err)
	require.Equal(suite.T(), code, apperr.CodeOf(err), err.Error())
}

func (suite *ServiceTestSuite) eventsOf(t event.EventType) []event.Event {
	var out []event.Event
	for _, e := range suite.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

func (suite *ServiceTestSuite) seedShop() *model.Shop {
	shop, err := suite.products.CreateShop(suite.ctx, CreateShopParams{OwnerID: uuid.NewString(), Name: "shop"})
	require.NoError(suite.T(), err)
	shop, err = suite.products.ApproveShop(suite.ctx, shop.ID)
	require.NoError(suite.T(), err)
	return shop
}

func (suite *ServiceTestSuite) seedProduct(shopID, price string, stock int64) *model.Product {
	p, err := suite.products.CreateProduct(suite.ctx, CreateProductParams{
		ShopID:          shopID,
		Name:            "product-" + uuid.NewString()[:6],
		Prices:          decimal.RequireFromString(price),
		Discount:        decimal.Zero,
		QuantityInStock: stock,
	})
	require.NoError(suite.T(), err)
	return p
}

func (suite *ServiceTestSuite) addToCart(userID, productID string, qty int64) *model.Cart {
	cart, err := suite.carts.AddOrUpdate(suite.ctx, userID, productID, qty)
	require.NoError(suite.T(), err)
	return cart
}

func (suite *ServiceTestSuite) checkoutParams(userID, cartID, voucher string, productIDs ...string) CheckoutParams {
	return CheckoutParams{
		UserID:          userID,
		CartID:          cartID,
		ShippingAddress: "12 Nguyen Hue, District 1",
		Name:            "buyer",
		Phone:           "0900000000",
		Email:           "buyer@example.com",
		ProductIDs:      productIDs,
		VoucherCode:     voucher,
	}
}

// placeOrder 單一商品結帳, 回傳該張訂單
func (suite *ServiceTestSuite) placeOrder(userID string, product *model.Product, qty int64) *model.Order {
	cart := suite.addToCart(userID, product.ID, qty)
	orders, err := suite.orders.Checkout(suite.ctx, suite.checkoutParams(userID, cart.ID, "", product.ID))
	require.NoError(suite.T(), err)
	require.Len(suite.T(), orders, 1)
	return &orders[0]
}

func decEq(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}
