package tokenmock

import (
	"context"

	domain "bnpl-ledger/internal/domain/token"
)

var _ domain.Service = (*Service)(nil)

// Service is a function-backed mock that satisfies token.Service.
// Unset functions succeed without moving anything.
type Service struct {
	TransferFn  func(ctx context.Context, from, to string, amount int64) error
	MintFn      func(ctx context.Context, to string, amount int64) error
	ApproveFn   func(ctx context.Context, owner string, amount int64) error
	BalanceOfFn func(ctx context.Context, addr string) (*domain.Account, error)
}

func (m *Service) Transfer(ctx context.Context, from, to string, amount int64) error {
	if m.TransferFn != nil {
		return m.TransferFn(ctx, from, to, amount)
	}
	return nil
}

func (m *Service) Mint(ctx context.Context, to string, amount int64) error {
	if m.MintFn != nil {
		return m.MintFn(ctx, to, amount)
	}
	return nil
}

func (m *Service) Approve(ctx context.Context, owner string, amount int64) error {
	if m.ApproveFn != nil {
		return m.ApproveFn(ctx, owner, amount)
	}
	return nil
}

func (m *Service) BalanceOf(ctx context.Context, addr string) (*domain.Account, error) {
	if m.BalanceOfFn != nil {
		return m.BalanceOfFn(ctx, addr)
	}
	return &domain.Account{Address: addr}, nil
}
