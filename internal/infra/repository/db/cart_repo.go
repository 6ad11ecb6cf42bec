package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"gorm.io/gorm"
)

type CartRepo struct {
	db *DbDao
}

func NewCartRepo(db *DbDao) *CartRepo {
	return &CartRepo{db: db}
}

func preloadCartLines(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (s *CartRepo) GetCartByID(ctx context.Context, cartID string) (*model.Cart, error) {
	var cart model.Cart
	err := s.db.WithContext(ctx).Preload("Lines", preloadCartLines).Where("id = ?", cartID).First(&cart).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &cart, nil
}

func (s *CartRepo) GetCartByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	var cart model.Cart
	err := s.db.WithContext(ctx).Preload("Lines", preloadCartLines).Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &cart, nil
}

func (s *CartRepo) CreateCart(ctx context.Context, cart *model.Cart) error {
	for i := range cart.Lines {
		cart.Lines[i].CartID = cart.ID
	}
	return translateErr(s.db.WithContext(ctx).Create(cart).Error)
}

// SaveCart version 不符代表有其他請求先寫入, 整批 line 重寫
func (s *CartRepo) SaveCart(ctx context.Context, cart *model.Cart) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Cart{}).
			Where("id = ? AND version = ?", cart.ID, cart.Version).
			Updates(map[string]any{
				"total_price": cart.TotalPrice,
				"version":     cart.Version + 1,
				"updated_at":  cart.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrConflict
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartLine{}).Error; err != nil {
			return err
		}
		if len(cart.Lines) == 0 {
			return nil
		}
		for i := range cart.Lines {
			cart.Lines[i].CartID = cart.ID
		}
		return tx.Create(&cart.Lines).Error
	})
	if err != nil {
		return translateErr(err)
	}
	cart.Version++
	return nil
}

func (s *CartRepo) DeleteCart(ctx context.Context, cartID string) error {
	return translateErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartLine{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", cartID).Delete(&model.Cart{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	}))
}
