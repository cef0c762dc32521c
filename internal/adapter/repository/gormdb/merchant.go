package gormdb

import (
	"context"

	merchantDomain "bnpl-ledger/internal/domain/merchant"

	"gorm.io/gorm"
)

type MerchantRepository struct{ db *gorm.DB }

func NewMerchantRepository(db *gorm.DB) *MerchantRepository { return &MerchantRepository{db: db} }

func (r *MerchantRepository) Create(ctx context.Context, m *merchantDomain.Merchant) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MerchantRepository) Save(ctx context.Context, m *merchantDomain.Merchant) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MerchantRepository) GetByAddress(ctx context.Context, addr string) (*merchantDomain.Merchant, error) {
	var out merchantDomain.Merchant
	res := r.db.WithContext(ctx).Where("address = ?", addr).First(&out)
	return &out, res.Error
}

func (r *MerchantRepository) List(ctx context.Context) ([]merchantDomain.Merchant, error) {
	var out []merchantDomain.Merchant
	res := r.db.WithContext(ctx).Order("created_at ASC, address ASC").Find(&out)
	return out, res.Error
}
