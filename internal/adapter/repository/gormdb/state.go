package gormdb

import (
	"context"

	poolDomain "bnpl-ledger/internal/domain/pool"
	protocolDomain "bnpl-ledger/internal/domain/protocol"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PoolRepository and ProtocolRepository each manage a single row that is
// created lazily on first read.

type PoolRepository struct{ db *gorm.DB }

func NewPoolRepository(db *gorm.DB) *PoolRepository { return &PoolRepository{db: db} }

func (r *PoolRepository) GetForUpdate(ctx context.Context) (*poolDomain.Pool, error) {
	var out poolDomain.Pool
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(poolDomain.Pool{ID: poolDomain.SingletonID}).
		FirstOrCreate(&out)
	return &out, res.Error
}

func (r *PoolRepository) Get(ctx context.Context) (*poolDomain.Pool, error) {
	var out poolDomain.Pool
	res := r.db.WithContext(ctx).Where(poolDomain.Pool{ID: poolDomain.SingletonID}).FirstOrCreate(&out)
	return &out, res.Error
}

func (r *PoolRepository) Save(ctx context.Context, p *poolDomain.Pool) error {
	p.ID = poolDomain.SingletonID
	return r.db.WithContext(ctx).Save(p).Error
}

type ProtocolRepository struct{ db *gorm.DB }

func NewProtocolRepository(db *gorm.DB) *ProtocolRepository { return &ProtocolRepository{db: db} }

func (r *ProtocolRepository) GetForUpdate(ctx context.Context) (*protocolDomain.State, error) {
	var out protocolDomain.State
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(protocolDomain.State{ID: protocolDomain.SingletonID}).
		FirstOrCreate(&out)
	return &out, res.Error
}

func (r *ProtocolRepository) Get(ctx context.Context) (*protocolDomain.State, error) {
	var out protocolDomain.State
	res := r.db.WithContext(ctx).Where(protocolDomain.State{ID: protocolDomain.SingletonID}).FirstOrCreate(&out)
	return &out, res.Error
}

func (r *ProtocolRepository) Save(ctx context.Context, s *protocolDomain.State) error {
	s.ID = protocolDomain.SingletonID
	return r.db.WithContext(ctx).Save(s).Error
}
