package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"gorm.io/gorm"
)

type ProductRepo struct {
	db *DbDao
}

func NewProductRepo(db *DbDao) *ProductRepo {
	return &ProductRepo{db: db}
}

func (s *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	return translateErr(s.db.WithContext(ctx).Create(product).Error)
}

func (s *ProductRepo) GetProductByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &product, nil
}

func (s *ProductRepo) GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error) {
	products := make([]model.Product, 0, len(productIDs))
	if len(productIDs) == 0 {
		return products, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error
	return products, translateErr(err)
}

func (s *ProductRepo) ListProductsByShop(ctx context.Context, shopID string) ([]model.Product, error) {
	var products []model.Product
	err := s.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("created_at, id").Find(&products).Error
	return products, translateErr(err)
}

// Update - 只更新賣家可編輯的欄位, shop_id 與 sold_quantity 不動
func (s *ProductRepo) UpdateProduct(ctx context.Context, product *model.Product) error {
	res := s.db.WithContext(ctx).Model(product).
		Select("name", "description", "image_urls", "category_id", "quantity_in_stock", "prices", "discount", "promotion_price", "updated_at").
		Updates(product)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeductProductStock 條件扣庫存, 沒命中時再查一次分辨不存在或庫存不足
func (s *ProductRepo) DeductProductStock(ctx context.Context, productID string, quantity int64, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND quantity_in_stock >= ?", productID, quantity).
		Updates(map[string]any{
			"quantity_in_stock": gorm.Expr("quantity_in_stock - ?", quantity),
			"sold_quantity":     gorm.Expr("sold_quantity + ?", quantity),
			"updated_at":        now,
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return translateErr(err)
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStockNotEnough
}
