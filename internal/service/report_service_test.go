package service

import (
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func (suite *ServiceTestSuite) TestOrdersByTimePeriod() {
	shopA := suite.seedShop()
	shopB := suite.seedShop()
	pa := suite.seedProduct(shopA.ID, "100", 100)
	pb := suite.seedProduct(shopB.ID, "100", 100)
	userID := uuid.NewString()

	at := func(utc time.Time, p *model.Product, qty int64) *model.Order {
		suite.now = utc
		return suite.placeOrder(userID, p, qty)
	}
	// 以 GMT+7 來看
	sunday := at(time.Date(2024, 11, 17, 16, 59, 0, 0, time.UTC), pa, 1)    // 11-17 23:59 週日
	tuesday := at(time.Date(2024, 11, 18, 17, 30, 0, 0, time.UTC), pa, 2)   // 11-19 00:30 週二
	wednesday := at(time.Date(2024, 11, 20, 3, 0, 0, 0, time.UTC), pb, 3)   // 11-20 10:00 週三
	nextMonday := at(time.Date(2024, 11, 24, 17, 0, 0, 0, time.UTC), pa, 1) // 11-25 00:00 週一

	ids := func(orders []model.Order) []string {
		out := make([]string, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.ID)
		}
		return out
	}

	testCases := []struct {
		name   string
		params OrdersByPeriodParams
		want   []string
	}{
		{
			name:   "day",
			params: OrdersByPeriodParams{Status: model.OrderPending, Period: PeriodDay, Date: "2024-11-19"},
			want:   []string{tuesday.ID},
		},
		{
			name:   "week starts on monday",
			params: OrdersByPeriodParams{Status: model.OrderPending, Period: PeriodWeek, Date: "2024-11-20"},
			want:   []string{tuesday.ID, wednesday.ID},
		},
		{
			name:   "sunday belongs to previous week",
			params: OrdersByPeriodParams{Status: model.OrderPending, Period: PeriodWeek, Date: "2024-11-17"},
			want:   []string{sunday.ID},
		},
		{
			name:   "month",
			params: OrdersByPeriodParams{Status: model.OrderPending, Period: PeriodMonth, Date: "2024-11-02"},
			want:   []string{sunday.ID, tuesday.ID, wednesday.ID, nextMonday.ID},
		},
		{
			name:   "week of one shop",
			params: OrdersByPeriodParams{Status: model.OrderPending, Period: PeriodWeek, Date: "2024-11-20", ShopID: shopB.ID},
			want:   []string{wednesday.ID},
		},
		{
			name:   "other status",
			params: OrdersByPeriodParams{Status: model.OrderDelivered, Period: PeriodMonth, Date: "2024-11-20"},
			want:   []string{},
		},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			report, err := suite.reports.OrdersByTimePeriod(suite.ctx, tc.params)
			require.NoError(suite.T(), err)
			require.Equal(suite.T(), tc.want, ids(report.Orders))
			require.Equal(suite.T(), len(tc.want), report.TotalOrders)
		})
	}

	report, err := suite.reports.OrdersByTimePeriod(suite.ctx, OrdersByPeriodParams{
		Status: model.OrderPending, Period: PeriodWeek, Date: "2024-11-20",
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), int64(5), report.TotalProducts)
	// (220 + 800000) + (330 + 800000)
	decEq(suite.T(), "1600550", report.TotalAmount)
	require.True(suite.T(), report.StartDate.Equal(time.Date(2024, 11, 18, 0, 0, 0, 0, suite.loc)), report.StartDate.String())
	require.True(suite.T(), report.EndDate.Equal(time.Date(2024, 11, 25, 0, 0, 0, 0, suite.loc)), report.EndDate.String())
}

func (suite *ServiceTestSuite) TestOrdersByTimePeriodValidation() {
	testCases := []struct {
		name   string
		params OrdersByPeriodParams
	}{
		{name: "bad status", params: OrdersByPeriodParams{Status: "Lost", Period: PeriodDay, Date: "2024-11-20"}},
		{name: "bad period", params: OrdersByPeriodParams{Status: model.OrderPending, Period: "year", Date: "2024-11-20"}},
		{name: "bad date", params: OrdersByPeriodParams{Status: model.OrderPending, Period: PeriodDay, Date: "20-11-2024"}},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			_, err := suite.reports.OrdersByTimePeriod(suite.ctx, tc.params)
			suite.requireCode(err, apperr.InvalidInputCode)
		})
	}
}

func (suite *ServiceTestSuite) TestRevenueCountsDeliveredOnly() {
	shop := suite.seedShop()
	p := suite.seedProduct(shop.ID, "100", 100)
	userID := uuid.NewString()

	delivered := suite.placeOrder(userID, p, 2)
	shippedOnly := suite.placeOrder(userID, p, 5)
	suite.placeOrder(userID, p, 7)

	for _, id := range []string{delivered.ID, shippedOnly.ID} {
		_, err := suite.orders.Ship(suite.ctx, id, shop.ID)
		require.NoError(suite.T(), err)
	}
	_, err := suite.orders.Deliver(suite.ctx, delivered.ID, shop.ID)
	require.NoError(suite.T(), err)

	all, err := suite.reports.Revenue(suite.ctx, "")
	require.NoError(suite.T(), err)
	decEq(suite.T(), "200", all.Revenue)
	decEq(suite.T(), "800220", all.GrossOrderTotal)
	require.Equal(suite.T(), int64(1), all.DeliveredOrders)

	other, err := suite.reports.Revenue(suite.ctx, uuid.NewString())
	require.NoError(suite.T(), err)
	require.True(suite.T(), other.Revenue.IsZero())
	require.Zero(suite.T(), other.DeliveredOrders)
}
