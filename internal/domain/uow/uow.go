package uow

import (
	"context"

	"bnpl-ledger/internal/domain/blacklist"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/domain/loan"
	"bnpl-ledger/internal/domain/merchant"
	"bnpl-ledger/internal/domain/pool"
	"bnpl-ledger/internal/domain/protocol"
	"bnpl-ledger/internal/domain/score"
	"bnpl-ledger/internal/domain/token"
)

// Repos are bound to one transaction (or to the plain connection for reads).
type Repos struct {
	Loans     loan.Repository
	Merchants merchant.Repository
	Pool      pool.Repository
	Protocol  protocol.Repository
	Scores    score.Repository
	Blacklist blacklist.Repository
	Events    event.Repository
	Tokens    token.Service
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLedgerTx serialises with every other ledger write: it locks the
	// protocol state row first and hands it in.
	WithinLedgerTx(ctx context.Context, fn func(r Repos, st *protocol.State) error) error
	// Reader returns repos on the plain connection for queries.
	Reader(ctx context.Context) Repos
}
