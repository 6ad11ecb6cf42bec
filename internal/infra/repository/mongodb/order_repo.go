package mongodb

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}

func (s *Store) CreateOrders(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		docs = append(docs, newOrderDoc(o))
	}
	_, err := s.orders.InsertMany(ctx, docs)
	return translateErr(err)
}

func (s *Store) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	var doc orderDoc
	if err := s.orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&doc); err != nil {
		return nil, translateErr(err)
	}
	o := doc.toModel()
	return &o, nil
}

func (s *Store) findOrders(ctx context.Context, filter bson.M, sort bson.D) ([]model.Order, error) {
	cursor, err := s.orders.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, translateErr(err)
	}
	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateErr(err)
	}
	orders := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.toModel())
	}
	return orders, nil
}

func (s *Store) GetOrdersByIDs(ctx context.Context, orderIDs []string) ([]model.Order, error) {
	if len(orderIDs) == 0 {
		return []model.Order{}, nil
	}
	return s.findOrders(ctx, bson.M{"_id": bson.M{"$in": orderIDs}}, newestFirst)
}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return s.findOrders(ctx, bson.M{"userId": userID}, newestFirst)
}

func (s *Store) ListOrdersByShop(ctx context.Context, shopID string) ([]model.Order, error) {
	return s.findOrders(ctx, bson.M{"shopId": shopID}, newestFirst)
}

func (s *Store) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.findOrders(ctx, bson.M{}, newestFirst)
}

// TransitionOrder line 陣列除狀態外不可變, 直接整批覆寫
func (s *Store) TransitionOrder(ctx context.Context, order *model.Order, from model.OrderStatus) error {
	set := bson.M{
		"status":    string(order.Status),
		"lines":     newOrderLineDocs(order.Lines),
		"updatedAt": order.UpdatedAt,
	}
	if order.IsPaid {
		set["isPaid"] = true
		set["paymentStatus"] = string(model.PaymentPaid)
	}
	if order.ShippedAt != nil {
		set["shippedAt"] = order.ShippedAt
	}
	if order.DeliveredAt != nil {
		set["deliveredAt"] = order.DeliveredAt
	}
	if order.CancelledAt != nil {
		set["cancelledAt"] = order.CancelledAt
	}

	res, err := s.orders.UpdateOne(ctx, bson.M{"_id": order.ID, "status": string(from)}, bson.M{"$set": set})
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (s *Store) MarkOrdersPaid(ctx context.Context, orderIDs []string, now time.Time) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	res, err := s.orders.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": orderIDs}, "isPaid": false},
		bson.M{"$set": bson.M{
			"isPaid":        true,
			"paymentStatus": string(model.PaymentPaid),
			"updatedAt":     now,
		}})
	if err != nil {
		return 0, translateErr(err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) MarkOrdersPaymentStatus(ctx context.Context, orderIDs []string, status model.PaymentStatus, now time.Time) (int64, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	res, err := s.orders.UpdateMany(ctx,
		bson.M{
			"_id":           bson.M{"$in": orderIDs},
			"isPaid":        false,
			"paymentStatus": bson.M{"$ne": string(status)},
		},
		bson.M{"$set": bson.M{
			"paymentStatus": string(status),
			"updatedAt":     now,
		}})
	if err != nil {
		return 0, translateErr(err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) FindOrders(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	q := bson.M{
		"status":    string(filter.Status),
		"createdAt": bson.M{"$gte": filter.From, "$lt": filter.To},
	}
	if filter.ShopID != "" {
		q["shopId"] = filter.ShopID
	}
	return s.findOrders(ctx, q, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *Store) aggregateOne(ctx context.Context, pipeline mongo.Pipeline, out interface{}) (bool, error) {
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return false, err
	}
	defer cursor.Close(ctx)
	if !cursor.Next(ctx) {
		return false, cursor.Err()
	}
	return true, cursor.Decode(out)
}

func (s *Store) SumDeliveredRevenue(ctx context.Context, shopID string) (*repository.RevenueSummary, error) {
	summary := &repository.RevenueSummary{}

	orderMatch := bson.M{"status": string(model.OrderDelivered)}
	if shopID != "" {
		orderMatch["shopId"] = shopID
	}
	var orderRow struct {
		Total primitive.Decimal128 `bson:"total"`
		Cnt   int64                `bson:"cnt"`
	}
	found, err := s.aggregateOne(ctx, mongo.Pipeline{
		{{Key: "$match", Value: orderMatch}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$orderTotal"},
			"cnt":   bson.M{"$sum": 1},
		}}},
	}, &orderRow)
	if err != nil {
		return nil, err
	}
	if found {
		summary.GrossOrderTotal = fromDecimal128(orderRow.Total).Round(2)
		summary.DeliveredOrders = orderRow.Cnt
	}

	lineMatch := bson.M{"lines.status": bson.M{"$ne": string(model.OrderCancelled)}}
	if shopID != "" {
		lineMatch["lines.shopId"] = shopID
	}
	var lineRow struct {
		Revenue primitive.Decimal128 `bson:"revenue"`
	}
	found, err = s.aggregateOne(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": string(model.OrderDelivered)}}},
		{{Key: "$unwind", Value: "$lines"}},
		{{Key: "$match", Value: lineMatch}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"revenue": bson.M{"$sum": bson.M{"$multiply": bson.A{"$lines.price", "$lines.quantity"}}},
		}}},
	}, &lineRow)
	if err != nil {
		return nil, err
	}
	if found {
		summary.Revenue = fromDecimal128(lineRow.Revenue).Round(2)
	}
	return summary, nil
}
