package loanmock

import (
	"context"

	domain "bnpl-ledger/internal/domain/loan"

	"gorm.io/gorm"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset lookups miss with gorm.ErrRecordNotFound; unset writes are no-ops.
type Repo struct {
	CreateFn              func(ctx context.Context, l *domain.Loan) error
	SaveFn                func(ctx context.Context, l *domain.Loan) error
	GetByIDFn             func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByIDForUpdateFn    func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetActiveByBorrowerFn func(ctx context.Context, borrower string) (*domain.Loan, error)
	ListByBorrowerFn      func(ctx context.Context, borrower string) ([]domain.Loan, error)
	ListFn                func(ctx context.Context, offset, limit int) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) GetActiveByBorrower(ctx context.Context, borrower string) (*domain.Loan, error) {
	if m.GetActiveByBorrowerFn != nil {
		return m.GetActiveByBorrowerFn(ctx, borrower)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *Repo) ListByBorrower(ctx context.Context, borrower string) ([]domain.Loan, error) {
	if m.ListByBorrowerFn != nil {
		return m.ListByBorrowerFn(ctx, borrower)
	}
	return nil, nil
}

func (m *Repo) List(ctx context.Context, offset, limit int) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, offset, limit)
	}
	return nil, nil
}
