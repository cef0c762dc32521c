package pool

import "context"

type Repository interface {
	// GetForUpdate returns the pool row, creating an empty one on first use,
	// and locks it for the rest of the transaction.
	GetForUpdate(ctx context.Context) (*Pool, error)
	Get(ctx context.Context) (*Pool, error)
	Save(ctx context.Context, p *Pool) error
}
