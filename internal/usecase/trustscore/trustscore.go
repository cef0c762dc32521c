// Package trustscore derives a borrower's credit profile from the stored
// repayment score and the two oracle bonuses.
package trustscore

import (
	"context"
	"fmt"

	"bnpl-ledger/internal/domain/oracle"
)

// Score deltas applied by the ledger.
const (
	EarlyPoints    uint64 = 15
	OnTimePoints   uint64 = 10
	LatePoints     uint64 = 5
	DefaultPenalty uint64 = 20
)

// Credit limit curve, in micro-units.
const (
	BaseCreditLimit int64  = 10_000_000
	ScoreDivisor    uint64 = 10
	ScoreMultiplier int64  = 5_000_000
)

type CreditProfile struct {
	RepaymentScore uint64 `json:"repayment_score"`
	WalletBonus    uint64 `json:"wallet_bonus"`
	ZKBoost        uint64 `json:"zk_boost"`
	TotalScore     uint64 `json:"total_score"`
	CreditLimit    int64  `json:"credit_limit"`
}

type Calculator struct {
	wallet oracle.WalletScorer
	zk     oracle.ZKVerifier
}

func NewCalculator(w oracle.WalletScorer, zk oracle.ZKVerifier) *Calculator {
	return &Calculator{wallet: w, zk: zk}
}

// CreditLimit is non-decreasing in total.
func CreditLimit(total uint64) int64 {
	return BaseCreditLimit + int64(total/ScoreDivisor)*ScoreMultiplier
}

// Profile queries both oracles; any oracle error fails the lookup.
func (c *Calculator) Profile(ctx context.Context, user string, repaymentScore uint64) (*CreditProfile, error) {
	walletBonus, err := c.walletBonus(ctx, user)
	if err != nil {
		return nil, err
	}
	zkBoost, err := c.zkBoost(ctx, user)
	if err != nil {
		return nil, err
	}

	total := repaymentScore + walletBonus + zkBoost
	return &CreditProfile{
		RepaymentScore: repaymentScore,
		WalletBonus:    walletBonus,
		ZKBoost:        zkBoost,
		TotalScore:     total,
		CreditLimit:    CreditLimit(total),
	}, nil
}

func (c *Calculator) walletBonus(ctx context.Context, user string) (uint64, error) {
	if c.wallet == nil {
		return 0, nil
	}
	v, err := c.wallet.ScoreWalletBonus(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("wallet scorer: %w", err)
	}
	return min(v, oracle.MaxWalletBonus), nil
}

func (c *Calculator) zkBoost(ctx context.Context, user string) (uint64, error) {
	if c.zk == nil {
		return 0, nil
	}
	valid, err := c.zk.HasValidProof(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("zk verifier: %w", err)
	}
	if !valid {
		return 0, nil
	}
	v, err := c.zk.GetCreditBoost(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("zk verifier: %w", err)
	}
	return min(v, oracle.MaxZKBoost), nil
}
