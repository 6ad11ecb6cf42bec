package service

import (
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func (suite *ServiceTestSuite) TestCreateProduct() {
	pending, err := suite.products.CreateShop(suite.ctx, CreateShopParams{OwnerID: uuid.NewString(), Name: "pending"})
	require.NoError(suite.T(), err)
	require.False(suite.T(), pending.IsApproved)

	_, err = suite.products.CreateShop(suite.ctx, CreateShopParams{OwnerID: pending.OwnerID, Name: "again"})
	suite.requireCode(err, apperr.ConflictCode)

	approved := suite.seedShop()

	testCases := []struct {
		name   string
		params CreateProductParams
		code   apperr.Code
	}{
		{
			name:   "shop not approved",
			params: CreateProductParams{ShopID: pending.ID, Name: "p", Prices: decimal.NewFromInt(100)},
			code:   apperr.InvalidStateCode,
		},
		{
			name:   "shop not found",
			params: CreateProductParams{ShopID: uuid.NewString(), Name: "p", Prices: decimal.NewFromInt(100)},
			code:   apperr.NotFoundCode,
		},
		{
			name:   "discount over 100",
			params: CreateProductParams{ShopID: approved.ID, Name: "p", Prices: decimal.NewFromInt(100), Discount: decimal.NewFromInt(120)},
			code:   apperr.InvalidInputCode,
		},
		{
			name:   "negative prices",
			params: CreateProductParams{ShopID: approved.ID, Name: "p", Prices: decimal.NewFromInt(-1)},
			code:   apperr.InvalidInputCode,
		},
		{
			name:   "negative stock",
			params: CreateProductParams{ShopID: approved.ID, Name: "p", Prices: decimal.NewFromInt(1), QuantityInStock: -1},
			code:   apperr.InvalidInputCode,
		},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.products.CreateProduct(suite.ctx, tc.params)
			suite.requireCode(err, tc.code)
		})
	}

	p, err := suite.products.CreateProduct(suite.ctx, CreateProductParams{
		ShopID:          approved.ID,
		Name:            "keyboard",
		Prices:          decimal.NewFromInt(200_000),
		Discount:        decimal.NewFromInt(10),
		QuantityInStock: 5,
	})
	require.NoError(suite.T(), err)
	decEq(suite.T(), "180000", p.PromotionPrice)
	require.Equal(suite.T(), suite.now, p.CreatedAt)
}

func (suite *ServiceTestSuite) TestUpdateProductInvalidatesCache() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 3)

	got, err := suite.products.GetProduct(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	decEq(suite.T(), "100", got.PromotionPrice)
	require.Equal(suite.T(), 1, suite.productCacheStore.Len())

	discount := decimal.NewFromInt(50)
	updated, err := suite.products.UpdateProduct(suite.ctx, p.ID, UpdateProductParams{Discount: &discount})
	require.NoError(suite.T(), err)
	decEq(suite.T(), "50", updated.PromotionPrice)
	require.Equal(suite.T(), 0, suite.productCacheStore.Len())

	got, err = suite.products.GetProduct(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	decEq(suite.T(), "50", got.PromotionPrice)

	bad := decimal.NewFromInt(101)
	_, err = suite.products.UpdateProduct(suite.ctx, p.ID, UpdateProductParams{Discount: &bad})
	suite.requireCode(err, apperr.InvalidInputCode)

	_, err = suite.products.GetProduct(suite.ctx, uuid.NewString())
	suite.requireCode(err, apperr.NotFoundCode)

	list, err := suite.products.ListProductsByShop(suite.ctx, shop.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), list, 1)
}

func (suite *ServiceTestSuite) TestApproveShopNotFound() {
	_, err := suite.products.ApproveShop(suite.ctx, uuid.NewString())
	suite.requireCode(err, apperr.NotFoundCode)
}
