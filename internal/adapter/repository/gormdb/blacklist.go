package gormdb

import (
	"context"

	blacklistDomain "bnpl-ledger/internal/domain/blacklist"

	"gorm.io/gorm"
)

type BlacklistRepository struct{ db *gorm.DB }

func NewBlacklistRepository(db *gorm.DB) *BlacklistRepository { return &BlacklistRepository{db: db} }

func (r *BlacklistRepository) Add(ctx context.Context, user string, reason blacklistDomain.Reason) (bool, error) {
	ok, err := r.Contains(ctx, user)
	if err != nil || ok {
		return false, err
	}
	e := &blacklistDomain.Entry{User: user, Reason: reason}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *BlacklistRepository) Remove(ctx context.Context, user string) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_address = ?", user).Delete(&blacklistDomain.Entry{})
	return res.RowsAffected > 0, res.Error
}

func (r *BlacklistRepository) Contains(ctx context.Context, user string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&blacklistDomain.Entry{}).Where("user_address = ?", user).Count(&n).Error
	return n > 0, err
}
