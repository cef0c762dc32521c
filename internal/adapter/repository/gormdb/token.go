package gormdb

import (
	"context"
	"errors"
	"math"

	"bnpl-ledger/internal/domain/errs"
	tokenDomain "bnpl-ledger/internal/domain/token"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository is the settlement token ledger. The spender (the pool
// account) moves its own funds without an allowance; every other debit
// consumes the owner's allowance.
type TokenRepository struct {
	db      *gorm.DB
	spender string
}

func NewTokenRepository(db *gorm.DB, spender string) *TokenRepository {
	return &TokenRepository{db: db, spender: spender}
}

func (r *TokenRepository) lock(ctx context.Context, addr string) (*tokenDomain.Account, error) {
	var out tokenDomain.Account
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(tokenDomain.Account{Address: addr}).
		FirstOrCreate(&out)
	return &out, res.Error
}

// credit adds amount to acc, refusing to wrap past math.MaxInt64.
func credit(acc *tokenDomain.Account, amount int64) error {
	if acc.Balance > math.MaxInt64-amount {
		return errs.New(errs.InvalidInput, "%s balance would overflow", acc.Address)
	}
	acc.Balance += amount
	return nil
}

func (r *TokenRepository) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return errs.ErrZeroAmount
	}
	src, err := r.lock(ctx, from)
	if err != nil {
		return err
	}
	// self-transfers consume allowance, the spender's included
	pull := from != r.spender || from == to
	if pull && src.Allowance < amount {
		return errs.New(errs.InsufficientAllowance, "%s approved %d, needs %d", from, src.Allowance, amount)
	}
	if src.Balance < amount {
		return errs.New(errs.InsufficientBalance, "%s holds %d, needs %d", from, src.Balance, amount)
	}
	if pull {
		src.Allowance -= amount
	}
	if from == to {
		return r.db.WithContext(ctx).Save(src).Error
	}

	dst, err := r.lock(ctx, to)
	if err != nil {
		return err
	}
	if err := credit(dst, amount); err != nil {
		return err
	}
	src.Balance -= amount
	if err := r.db.WithContext(ctx).Save(src).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(dst).Error
}

func (r *TokenRepository) Mint(ctx context.Context, to string, amount int64) error {
	if amount <= 0 {
		return errs.ErrZeroAmount
	}
	acc, err := r.lock(ctx, to)
	if err != nil {
		return err
	}
	if err := credit(acc, amount); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(acc).Error
}

func (r *TokenRepository) Approve(ctx context.Context, owner string, amount int64) error {
	if amount < 0 {
		return errs.New(errs.InvalidInput, "allowance must not be negative")
	}
	acc, err := r.lock(ctx, owner)
	if err != nil {
		return err
	}
	acc.Allowance = amount
	return r.db.WithContext(ctx).Save(acc).Error
}

func (r *TokenRepository) BalanceOf(ctx context.Context, addr string) (*tokenDomain.Account, error) {
	var out tokenDomain.Account
	err := r.db.WithContext(ctx).Where("address = ?", addr).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &tokenDomain.Account{Address: addr}, nil
	}
	return &out, err
}
