package oraclemock

import (
	"context"

	"bnpl-ledger/internal/domain/oracle"
)

var (
	_ oracle.WalletScorer = (*Wallet)(nil)
	_ oracle.ZKVerifier   = (*ZK)(nil)
)

// Wallet returns Bonus unless ScoreFn is set.
type Wallet struct {
	Bonus   uint64
	ScoreFn func(ctx context.Context, user string) (uint64, error)
}

func (m *Wallet) ScoreWalletBonus(ctx context.Context, user string) (uint64, error) {
	if m.ScoreFn != nil {
		return m.ScoreFn(ctx, user)
	}
	return m.Bonus, nil
}

// ZK reports Boost with Valid unless the function fields are set.
type ZK struct {
	Boost   uint64
	Valid   bool
	BoostFn func(ctx context.Context, user string) (uint64, error)
	ValidFn func(ctx context.Context, user string) (bool, error)
}

func (m *ZK) GetCreditBoost(ctx context.Context, user string) (uint64, error) {
	if m.BoostFn != nil {
		return m.BoostFn(ctx, user)
	}
	return m.Boost, nil
}

func (m *ZK) HasValidProof(ctx context.Context, user string) (bool, error) {
	if m.ValidFn != nil {
		return m.ValidFn(ctx, user)
	}
	return m.Valid, nil
}
