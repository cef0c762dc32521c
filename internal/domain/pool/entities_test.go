package pool

import (
	"errors"
	"math"
	"testing"

	"bnpl-ledger/internal/domain/errs"
)

func TestPool_RefusesToWrap(t *testing.T) {
	cases := map[string]struct {
		start Pool
		move  func(p *Pool) error
	}{
		"deposit into a full pool": {
			Pool{TotalDeposited: math.MaxInt64 - 1, AvailableBalance: math.MaxInt64 - 1},
			func(p *Pool) error { return p.Deposit(2) },
		},
		"penalty tips the balance": {
			Pool{TotalDeposited: math.MaxInt64 - 5, AvailableBalance: math.MaxInt64 - 5},
			func(p *Pool) error { return p.Collect(5, 1) },
		},
		"disbursed total at the limit": {
			Pool{TotalDisbursed: math.MaxInt64, AvailableBalance: 10},
			func(p *Pool) error { return p.Disburse(1) },
		},
		"withdrawn total at the limit": {
			Pool{TotalWithdrawn: math.MaxInt64, AvailableBalance: 10},
			func(p *Pool) error { return p.Withdraw(1) },
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := tc.start
			if err := tc.move(&p); !errors.Is(err, errs.ErrInvalidInput) {
				t.Fatalf("want InvalidInput, got %v", err)
			}
			if p != tc.start {
				t.Fatalf("refused move changed the pool: %+v", p)
			}
		})
	}
}

func TestPool_CountersTrackBalance(t *testing.T) {
	var p Pool
	for _, err := range []error{p.Deposit(100), p.Disburse(40), p.Collect(40, 2), p.Withdraw(10)} {
		if err != nil {
			t.Fatalf("move: %v", err)
		}
	}
	if p.AvailableBalance != 92 {
		t.Fatalf("AvailableBalance = %d, want 92", p.AvailableBalance)
	}
	if got := p.TotalDeposited - p.TotalWithdrawn - p.TotalDisbursed + p.TotalRepaid + p.TotalPenalties; got != p.AvailableBalance {
		t.Fatalf("counters sum to %d, balance %d", got, p.AvailableBalance)
	}
}
