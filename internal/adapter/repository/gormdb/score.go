package gormdb

import (
	"context"
	"errors"

	scoreDomain "bnpl-ledger/internal/domain/score"

	"gorm.io/gorm"
)

type ScoreRepository struct{ db *gorm.DB }

func NewScoreRepository(db *gorm.DB) *ScoreRepository { return &ScoreRepository{db: db} }

func (r *ScoreRepository) Get(ctx context.Context, user string) (*scoreDomain.Score, error) {
	var out scoreDomain.Score
	err := r.db.WithContext(ctx).Where("user_address = ?", user).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &scoreDomain.Score{User: user}, nil
	}
	return &out, err
}

func (r *ScoreRepository) Save(ctx context.Context, s *scoreDomain.Score) error {
	return r.db.WithContext(ctx).Save(s).Error
}
