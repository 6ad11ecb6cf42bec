package service

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/RoyceAzure/lab/marketplace/internal/pkg/apperr"
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

type OrdersByPeriodParams struct {
	Status model.OrderStatus
	Period Period
	// Date YYYY-MM-DD, 以設定的時區解讀
	Date   string
	ShopID string
}

// PeriodReport EndDate 為區間的開放上界
type PeriodReport struct {
	Orders        []model.Order   `json:"orders"`
	TotalOrders   int             `json:"totalOrders"`
	TotalProducts int64           `json:"totalProducts"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
}

type RevenueReport struct {
	ShopID          string          `json:"shopId,omitempty"`
	Revenue         decimal.Decimal `json:"revenue"`
	GrossOrderTotal decimal.Decimal `json:"grossOrderTotal"`
	DeliveredOrders int64           `json:"deliveredOrders"`
}

type IReportService interface {
	OrdersByTimePeriod(ctx context.Context, arg OrdersByPeriodParams) (*PeriodReport, error)
	Revenue(ctx context.Context, shopID string) (*RevenueReport, error)
}

type ReportService struct {
	store repository.Store
	options
}

func NewReportService(store repository.Store, opts ...Option) *ReportService {
	return &ReportService{
		store:   store,
		options: newOptions(opts...),
	}
}

var _ IReportService = (*ReportService)(nil)

// periodRange 回傳 [start, end), week 從週一 00:00 開始
func periodRange(period Period, date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(constants.DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Newf(apperr.InvalidInputCode, "invalid date %q, expected YYYY-MM-DD", date)
	}

	switch period {
	case PeriodDay:
		return d, d.AddDate(0, 0, 1), nil
	case PeriodWeek:
		offset := (int(d.Weekday()) + 6) % 7
		start := d.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil
	case PeriodMonth:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0), nil
	}
	return time.Time{}, time.Time{}, apperr.Newf(apperr.InvalidInputCode, "invalid period %q, use day, week or month", period)
}

// OrdersByTimePeriod 依建立時間查詢, 指定 shop 時只統計該 shop 的訂單
func (r *ReportService) OrdersByTimePeriod(ctx context.Context, arg OrdersByPeriodParams) (*PeriodReport, error) {
	if !arg.Status.Valid() {
		return nil, apperr.Newf(apperr.InvalidInputCode, "invalid status %q", arg.Status)
	}
	start, end, err := periodRange(arg.Period, arg.Date, r.location)
	if err != nil {
		return nil, err
	}

	orders, err := r.store.FindOrders(ctx, repository.OrderFilter{
		Status: arg.Status,
		ShopID: arg.ShopID,
		From:   start.UTC(),
		To:     end.UTC(),
	})
	if err != nil {
		return nil, notFoundOr(err, "")
	}

	report := &PeriodReport{
		Orders:      orders,
		TotalOrders: len(orders),
		TotalAmount: decimal.Zero,
		StartDate:   start,
		EndDate:     end,
	}
	for i := range orders {
		report.TotalProducts += orders[i].ItemCount()
		report.TotalAmount = report.TotalAmount.Add(orders[i].OrderTotal)
	}
	report.TotalAmount = report.TotalAmount.Round(2)
	return report, nil
}

// Revenue shopID 為空時統計全部 shop
func (r *ReportService) Revenue(ctx context.Context, shopID string) (*RevenueReport, error) {
	sum, err := r.store.SumDeliveredRevenue(ctx, shopID)
	if err != nil {
		return nil, notFoundOr(err, "")
	}
	return &RevenueReport{
		ShopID:          shopID,
		Revenue:         sum.Revenue.Round(2),
		GrossOrderTotal: sum.GrossOrderTotal.Round(2),
		DeliveredOrders: sum.DeliveredOrders,
	}, nil
}
