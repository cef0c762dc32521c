package gormdb

import (
	"context"
	"sync"

	"bnpl-ledger/internal/domain/protocol"
	"bnpl-ledger/internal/domain/uow"

	"gorm.io/gorm"
)

// GormUoW runs ledger writes one at a time: an in-process mutex plus a lock
// on the protocol state row, which also orders writers across processes.
type GormUoW struct {
	db          *gorm.DB
	poolAddress string
	mu          sync.Mutex
}

func NewGormUoW(db *gorm.DB, poolAddress string) *GormUoW {
	return &GormUoW{db: db, poolAddress: poolAddress}
}

func (u *GormUoW) repos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:     &LoanRepository{db: db},
		Merchants: &MerchantRepository{db: db},
		Pool:      &PoolRepository{db: db},
		Protocol:  &ProtocolRepository{db: db},
		Scores:    &ScoreRepository{db: db},
		Blacklist: &BlacklistRepository{db: db},
		Events:    &EventRepository{db: db},
		Tokens:    &TokenRepository{db: db, spender: u.poolAddress},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(u.repos(tx))
	})
}

func (u *GormUoW) WithinLedgerTx(ctx context.Context, fn func(r uow.Repos, st *protocol.State) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := u.repos(tx)
		// lock the state row up-front so writers are totally ordered
		st, err := r.Protocol.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		return fn(r, st)
	})
}

func (u *GormUoW) Reader(ctx context.Context) uow.Repos { return u.repos(u.db.WithContext(ctx)) }
