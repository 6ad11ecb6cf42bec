package mongodb

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateShop(ctx context.Context, shop *model.Shop) error {
	_, err := s.shops.InsertOne(ctx, newShopDoc(shop))
	return translateErr(err)
}

func (s *Store) GetShopByID(ctx context.Context, shopID string) (*model.Shop, error) {
	var doc shopDoc
	if err := s.shops.FindOne(ctx, bson.M{"_id": shopID}).Decode(&doc); err != nil {
		return nil, translateErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) ApproveShop(ctx context.Context, shopID string, now time.Time) error {
	res, err := s.shops.UpdateOne(ctx, bson.M{"_id": shopID},
		bson.M{"$set": bson.M{"isApproved": true, "updatedAt": now}})
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	_, err := s.products.InsertOne(ctx, newProductDoc(product))
	return translateErr(err)
}

func (s *Store) GetProductByID(ctx context.Context, productID string) (*model.Product, error) {
	var doc productDoc
	if err := s.products.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc); err != nil {
		return nil, translateErr(err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *Store) findProducts(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]model.Product, error) {
	cursor, err := s.products.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translateErr(err)
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateErr(err)
	}
	products := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toModel())
	}
	return products, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error) {
	if len(productIDs) == 0 {
		return []model.Product{}, nil
	}
	return s.findProducts(ctx, bson.M{"_id": bson.M{"$in": productIDs}})
}

func (s *Store) ListProductsByShop(ctx context.Context, shopID string) ([]model.Product, error) {
	return s.findProducts(ctx, bson.M{"shopId": shopID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) UpdateProduct(ctx context.Context, product *model.Product) error {
	doc := newProductDoc(product)
	res, err := s.products.UpdateOne(ctx, bson.M{"_id": product.ID}, bson.M{"$set": bson.M{
		"name":            doc.Name,
		"description":     doc.Description,
		"imageUrls":       doc.ImageURLs,
		"categoryId":      doc.CategoryID,
		"quantityInStock": doc.QuantityInStock,
		"prices":          doc.Prices,
		"discount":        doc.Discount,
		"promotionPrice":  doc.PromotionPrice,
		"updatedAt":       doc.UpdatedAt,
	}})
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeductProductStock $gte 條件搭配 $inc, 單文件原子
func (s *Store) DeductProductStock(ctx context.Context, productID string, quantity int64, now time.Time) error {
	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": productID, "quantityInStock": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"quantityInStock": -quantity, "soldQuantity": quantity},
			"$set": bson.M{"updatedAt": now},
		})
	if err != nil {
		return translateErr(err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	count, err := s.products.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil {
		return translateErr(err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStockNotEnough
}

func (s *Store) GetVoucherByCode(ctx context.Context, code string) (*model.Voucher, error) {
	var doc voucherDoc
	if err := s.vouchers.FindOne(ctx, bson.M{"_id": code}).Decode(&doc); err != nil {
		return nil, translateErr(err)
	}
	return doc.toModel(), nil
}

func (s *Store) UpsertVoucher(ctx context.Context, voucher *model.Voucher) error {
	set := bson.M{
		"discount":  toDecimal128(voucher.Discount),
		"updatedAt": voucher.UpdatedAt,
	}
	if voucher.ExpiresAt != nil {
		set["expiresAt"] = voucher.ExpiresAt
	}
	_, err := s.vouchers.UpdateOne(ctx,
		bson.M{"_id": voucher.Code},
		bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": voucher.CreatedAt}},
		options.Update().SetUpsert(true))
	return translateErr(err)
}
