package service

import (
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func (suite *ServiceTestSuite) TestCartAddIncreasesTotal() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "150.50", 10)
	userID := uuid.NewString()

	cart := suite.addToCart(userID, p.ID, 2)
	decEq(suite.T(), "301", cart.TotalPrice)

	cart = suite.addToCart(userID, p.ID, 3)
	require.Len(suite.T(), cart.Lines, 1)
	require.Equal(suite.T(), int64(5), cart.Lines[0].Quantity)
	// 加入 3 個, 總額增加 3 * 150.50
	decEq(suite.T(), "752.5", cart.TotalPrice)
}

func (suite *ServiceTestSuite) TestCartAddOverStockDoesNotMutate() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 3)
	userID := uuid.NewString()

	before := suite.addToCart(userID, p.ID, 2)

	_, err := suite.carts.AddOrUpdate(suite.ctx, userID, p.ID, 2)
	suite.requireCode(err, apperr.InsufficientStockCode)

	after, err := suite.carts.GetCart(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), before.Version, after.Version)
	require.Equal(suite.T(), int64(2), after.Lines[0].Quantity)
	decEq(suite.T(), "200", after.TotalPrice)
}

func (suite *ServiceTestSuite) TestCartValidation() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 3)
	userID := uuid.NewString()

	_, err := suite.carts.AddOrUpdate(suite.ctx, userID, p.ID, 0)
	suite.requireCode(err, apperr.InvalidInputCode)

	_, err = suite.carts.AddOrUpdate(suite.ctx, userID, uuid.NewString(), 1)
	suite.requireCode(err, apperr.NotFoundCode)

	_, err = suite.carts.DecrementOne(suite.ctx, userID, p.ID)
	suite.requireCode(err, apperr.NotFoundCode)

	suite.addToCart(userID, p.ID, 1)
	_, err = suite.carts.DecrementOne(suite.ctx, userID, p.ID)
	suite.requireCode(err, apperr.InvalidOperationCode)
}

func (suite *ServiceTestSuite) TestCartDecrementRemoveAndClear() {
	shopA := suite.seedShop()
	shopB := suite.seedShop()
	pa := suite.seedProduct(shopA.ID, "100", 5)
	pb := suite.seedProduct(shopB.ID, "40", 5)
	userID := uuid.NewString()

	suite.addToCart(userID, pa.ID, 3)
	suite.addToCart(userID, pb.ID, 1)

	cart, err := suite.carts.DecrementOne(suite.ctx, userID, pa.ID)
	require.NoError(suite.T(), err)
	decEq(suite.T(), "240", cart.TotalPrice)

	grouped, err := suite.carts.GetByUser(suite.ctx, userID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), grouped, 2)
	require.Equal(suite.T(), int64(2), grouped[shopA.ID][0].Quantity)
	require.NotNil(suite.T(), grouped[shopB.ID][0].Product)

	cart, err = suite.carts.RemoveLine(suite.ctx, userID, pa.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), cart.Lines, 1)
	decEq(suite.T(), "40", cart.TotalPrice)

	_, err = suite.carts.RemoveLine(suite.ctx, userID, pa.ID)
	suite.requireCode(err, apperr.NotFoundCode)

	require.NoError(suite.T(), suite.carts.Clear(suite.ctx, userID))
	suite.requireCode(suite.carts.Clear(suite.ctx, userID), apperr.NotFoundCode)
	_, err = suite.carts.GetByUser(suite.ctx, userID)
	suite.requireCode(err, apperr.NotFoundCode)
}
