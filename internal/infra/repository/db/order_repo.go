package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

func preloadOrderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (s *OrderRepo) withLines(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Lines", preloadOrderLines)
}

// Create - 同一次結帳的訂單一起寫入
func (s *OrderRepo) CreateOrders(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	for _, o := range orders {
		for i := range o.Lines {
			o.Lines[i].OrderID = o.ID
		}
	}
	return translateErr(s.db.WithContext(ctx).Create(orders).Error)
}

func (s *OrderRepo) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	if err := s.withLines(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, translateErr(err)
	}
	return &order, nil
}

func (s *OrderRepo) GetOrdersByIDs(ctx context.Context, orderIDs []string) ([]model.Order, error) {
	orders := make([]model.Order, 0, len(orderIDs))
	if len(orderIDs) == 0 {
		return orders, nil
	}
	err := s.withLines(ctx).Where("id IN ?", orderIDs).Find(&orders).Error
	return orders, translateErr(err)
}

func (s *OrderRepo) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	err := s.withLines(ctx).Where("user_id = ?", userID).Order("created_at desc, id").Find(&orders).Error
	return orders, translateErr(err)
}

func (s *OrderRepo) ListOrdersByShop(ctx context.Context, shopID string) ([]model.Order, error) {
	var orders []model.Order
	err := s.withLines(ctx).Where("shop_id = ?", shopID).Order("created_at desc, id").Find(&orders).Error
	return orders, translateErr(err)
}

func (s *OrderRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.withLines(ctx).Order("created_at desc, id").Find(&orders).Error
	return orders, translateErr(err)
}

// TransitionOrder 付款欄位只會往 Paid 寫, 避免覆蓋同時進來的付款回呼
func (s *OrderRepo) TransitionOrder(ctx context.Context, order *model.Order, from model.OrderStatus) error {
	updates := map[string]any{
		"status":     order.Status,
		"updated_at": order.UpdatedAt,
	}
	if order.IsPaid {
		updates["is_paid"] = true
		updates["payment_status"] = model.PaymentPaid
	}
	if order.ShippedAt != nil {
		updates["shipped_at"] = order.ShippedAt
	}
	if order.DeliveredAt != nil {
		updates["delivered_at"] = order.DeliveredAt
	}
	if order.CancelledAt != nil {
		updates["cancelled_at"] = order.CancelledAt
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrConflict
		}

		for _, l := range order.Lines {
			err := tx.Model(&model.OrderLine{}).
				Where("order_id = ? AND product_id = ?", order.ID, l.ProductID).
				Update("status", l.Status).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return translateErr(err)
}

func (s *OrderRepo) MarkOrdersPaid(ctx context.Context, orderIDs []string, now time.Time) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id IN ? AND is_paid = ?", orderIDs, false).
		Updates(map[string]any{
			"is_paid":        true,
			"payment_status": model.PaymentPaid,
			"updated_at":     now,
		})
	return res.RowsAffected, translateErr(res.Error)
}

func (s *OrderRepo) MarkOrdersPaymentStatus(ctx context.Context, orderIDs []string, status model.PaymentStatus, now time.Time) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id IN ? AND is_paid = ? AND payment_status <> ?", orderIDs, false, status).
		Updates(map[string]any{
			"payment_status": status,
			"updated_at":     now,
		})
	return res.RowsAffected, translateErr(res.Error)
}

func (s *OrderRepo) FindOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	q := s.withLines(ctx).
		Where("status = ?", filter.Status).
		Where("created_at >= ? AND created_at < ?", filter.From.UTC(), filter.To.UTC())
	if filter.ShopID != "" {
		q = q.Where("shop_id = ?", filter.ShopID)
	}

	var orders []model.Order
	err := q.Order("created_at, id").Find(&orders).Error
	return orders, translateErr(err)
}

// SumDeliveredRevenue 以 line 的 price*quantity 加總, 同時回傳訂單總額
func (s *OrderRepo) SumDeliveredRevenue(ctx context.Context, shopID string) (*repository.RevenueSummary, error) {
	var lineRow struct {
		Revenue decimal.Decimal
	}
	lq := s.db.WithContext(ctx).Table("order_lines AS l").
		Select("COALESCE(SUM(l.price * l.quantity), 0) AS revenue").
		Joins("JOIN orders o ON o.id = l.order_id").
		Where("o.status = ? AND l.status <> ?", model.OrderDelivered, model.OrderCancelled)
	if shopID != "" {
		lq = lq.Where("l.shop_id = ?", shopID)
	}
	if err := lq.Scan(&lineRow).Error; err != nil {
		return nil, translateErr(err)
	}

	var orderRow struct {
		Total decimal.Decimal
		Cnt   int64
	}
	oq := s.db.WithContext(ctx).Model(&model.Order{}).
		Select("COALESCE(SUM(order_total), 0) AS total, COUNT(*) AS cnt").
		Where("status = ?", model.OrderDelivered)
	if shopID != "" {
		oq = oq.Where("shop_id = ?", shopID)
	}
	if err := oq.Scan(&orderRow).Error; err != nil {
		return nil, translateErr(err)
	}

	return &repository.RevenueSummary{
		Revenue:         lineRow.Revenue.Round(2),
		GrossOrderTotal: orderRow.Total.Round(2),
		DeliveredOrders: orderRow.Cnt,
	}, nil
}
