package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	shopCollection    = "shops"
	productCollection = "products"
	voucherCollection = "vouchers"
	cartCollection    = "carts"
	orderCollection   = "orders"
)

// Connect 多文件交易需要 replica set
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Store mongo 版本的 repository.Store, 交易以 session context 傳遞
type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	shops    *mongo.Collection
	products *mongo.Collection
	vouchers *mongo.Collection
	carts    *mongo.Collection
	orders   *mongo.Collection
}

func NewStore(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		db:       db,
		shops:    db.Collection(shopCollection),
		products: db.Collection(productCollection),
		vouchers: db.Collection(voucherCollection),
		carts:    db.Collection(cartCollection),
		orders:   db.Collection(orderCollection),
	}
}

// ExecTx WithTransaction 遇到暫時性錯誤會重跑 fn, fn 需可重入
func (s *Store) ExecTx(ctx context.Context, fn func(txCtx context.Context, tx repository.Store) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

// InitMigrate 建立唯一索引與查詢索引, 冪等
func (s *Store) InitMigrate(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.shops: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.products: {
			{Keys: bson.D{{Key: "shopId", Value: 1}}},
		},
		s.carts: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.orders: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "shopId", Value: 1}}},
			{Keys: bson.D{{Key: "checkoutId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrConflict
	}
	return err
}

var _ repository.Store = (*Store)(nil)
