package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository"
	"gorm.io/gorm"
)

// Store gorm 版本的 repository.Store
type Store struct {
	dao *DbDao
	*ProductRepo
	*ShopRepo
	*VoucherRepo
	*CartRepo
	*OrderRepo
}

func NewStore(conn *gorm.DB) *Store {
	dao := NewDbDao(conn)
	return &Store{
		dao:         dao,
		ProductRepo: NewProductRepo(dao),
		ShopRepo:    NewShopRepo(dao),
		VoucherRepo: NewVoucherRepo(dao),
		CartRepo:    NewCartRepo(dao),
		OrderRepo:   NewOrderRepo(dao),
	}
}

// ExecTx fn 回傳錯誤即 rollback, 巢狀呼叫時使用 savepoint
func (s *Store) ExecTx(ctx context.Context, fn func(txCtx context.Context, tx repository.Store) error) error {
	return s.dao.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}

func (s *Store) InitMigrate(ctx context.Context) error {
	return NewDbDao(s.dao.WithContext(ctx)).InitMigrate()
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.dao.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) GetDB() *gorm.DB {
	return s.dao.DB
}

var _ repository.Store = (*Store)(nil)
