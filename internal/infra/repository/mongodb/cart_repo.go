package mongodb

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"go.mongodb.org/mongo-driver/bson"
)

func (s *Store) getCart(ctx context.Context, filter bson.M) (*model.Cart, error) {
	var doc cartDoc
	if err := s.carts.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) GetCartByID(ctx context.Context, cartID string) (*model.Cart, error) {
	return s.getCart(ctx, bson.M{"_id": cartID})
}

func (s *Store) GetCartByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	return s.getCart(ctx, bson.M{"userId": userID})
}

func (s *Store) CreateCart(ctx context.Context, cart *model.Cart) error {
	_, err := s.carts.InsertOne(ctx, newCartDoc(cart))
	return translateErr(err)
}

// SaveCart lines 與 version 在同一個文件, 單次 update 即可
func (s *Store) SaveCart(ctx context.Context, cart *model.Cart) error {
	res, err := s.carts.UpdateOne(ctx,
		bson.M{"_id": cart.ID, "version": cart.Version},
		bson.M{
			"$set": bson.M{
				"lines":      newCartLineDocs(cart.Lines),
				"totalPrice": toDecimal128(cart.TotalPrice),
				"updatedAt":  cart.UpdatedAt,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrConflict
	}
	cart.Version++
	return nil
}

func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	res, err := s.carts.DeleteOne(ctx, bson.M{"_id": cartID})
	if err != nil {
		return translateErr(err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
