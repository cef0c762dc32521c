package loan

import "context"

// Repository returns gorm.ErrRecordNotFound when a single lookup misses.
type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)
	GetActiveByBorrower(ctx context.Context, borrower string) (*Loan, error)
	ListByBorrower(ctx context.Context, borrower string) ([]Loan, error)
	List(ctx context.Context, offset, limit int) ([]Loan, error)
}
