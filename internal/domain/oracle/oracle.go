package oracle

import "context"

const (
	MaxWalletBonus = 60
	MaxZKBoost     = 30
)

// WalletScorer scores a wallet's on-chain history. Values outside
// [0, MaxWalletBonus] are clamped by the caller.
type WalletScorer interface {
	ScoreWalletBonus(ctx context.Context, user string) (uint64, error)
}

// ZKVerifier reports the boost from a verified balance proof. A boost only
// counts while HasValidProof is true.
type ZKVerifier interface {
	GetCreditBoost(ctx context.Context, user string) (uint64, error)
	HasValidProof(ctx context.Context, user string) (bool, error)
}
