package merchant

import "context"

type Repository interface {
	Create(ctx context.Context, m *Merchant) error
	Save(ctx context.Context, m *Merchant) error
	GetByAddress(ctx context.Context, addr string) (*Merchant, error)
	List(ctx context.Context) ([]Merchant, error)
}
