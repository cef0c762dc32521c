package uowmock

import (
	"context"
	"errors"

	"bnpl-ledger/internal/domain/protocol"
	"bnpl-ledger/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn       func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLedgerTxFn func(ctx context.Context, fn func(r uow.Repos, st *protocol.State) error) error
	ReaderFn         func(ctx context.Context) uow.Repos
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinLedgerTx(fn func(context.Context, func(uow.Repos, *protocol.State) error) error) *UoW {
	m.WithinLedgerTxFn = fn
	return m
}
func (m *UoW) WithReader(fn func(context.Context) uow.Repos) *UoW {
	m.ReaderFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Fixed runs every callback against repos with st as the locked protocol
// state, without any real transaction.
func Fixed(repos uow.Repos, st *protocol.State) *UoW {
	return New().
		WithWithinTx(func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) }).
		WithWithinLedgerTx(func(_ context.Context, fn func(uow.Repos, *protocol.State) error) error { return fn(repos, st) }).
		WithReader(func(context.Context) uow.Repos { return repos })
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinLedgerTx(ctx context.Context, fn func(r uow.Repos, st *protocol.State) error) error {
	if m.WithinLedgerTxFn != nil {
		return m.WithinLedgerTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) Reader(ctx context.Context) uow.Repos {
	if m.ReaderFn != nil {
		return m.ReaderFn(ctx)
	}
	return uow.Repos{}
}
