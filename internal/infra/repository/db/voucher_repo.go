package db

import (
	"context"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"gorm.io/gorm/clause"
)

type VoucherRepo struct {
	db *DbDao
}

func NewVoucherRepo(db *DbDao) *VoucherRepo {
	return &VoucherRepo{db: db}
}

func (s *VoucherRepo) GetVoucherByCode(ctx context.Context, code string) (*model.Voucher, error) {
	var v model.Voucher
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&v).Error; err != nil {
		return nil, translateErr(err)
	}
	return &v, nil
}

// UpsertVoucher seed 資料使用, 重複執行只會覆蓋折扣與到期日
func (s *VoucherRepo) UpsertVoucher(ctx context.Context, voucher *model.Voucher) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"discount", "expires_at", "updated_at"}),
	}).Create(voucher).Error
	return translateErr(err)
}
