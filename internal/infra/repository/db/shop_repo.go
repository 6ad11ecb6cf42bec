package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
)

type ShopRepo struct {
	db *DbDao
}

func NewShopRepo(db *DbDao) *ShopRepo {
	return &ShopRepo{db: db}
}

func (s *ShopRepo) CreateShop(ctx context.Context, shop *model.Shop) error {
	return translateErr(s.db.WithContext(ctx).Create(shop).Error)
}

func (s *ShopRepo) GetShopByID(ctx context.Context, shopID string) (*model.Shop, error) {
	var shop model.Shop
	if err := s.db.WithContext(ctx).Where("id = ?", shopID).First(&shop).Error; err != nil {
		return nil, translateErr(err)
	}
	return &shop, nil
}

func (s *ShopRepo) ApproveShop(ctx context.Context, shopID string, now time.Time) error {
	res := s.db.WithContext(ctx).Model(&model.Shop{}).Where("id = ?", shopID).
		Updates(map[string]any{"is_approved": true, "updated_at": now})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
