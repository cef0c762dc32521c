package pool

import (
	"math"
	"time"

	"bnpl-ledger/internal/domain/errs"
)

// SingletonID is the primary key of the only pool row.
const SingletonID = 1

// Pool holds the shared liquidity. AvailableBalance is moved by every
// operation that moves value and always equals
// TotalDeposited - TotalWithdrawn - TotalDisbursed + TotalRepaid + TotalPenalties.
type Pool struct {
	ID               uint8     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	AvailableBalance int64     `gorm:"not null;default:0" json:"available_balance"`
	TotalDeposited   int64     `gorm:"not null;default:0" json:"total_deposited"`
	TotalWithdrawn   int64     `gorm:"not null;default:0" json:"total_withdrawn"`
	TotalDisbursed   int64     `gorm:"not null;default:0" json:"total_disbursed"`
	TotalRepaid      int64     `gorm:"not null;default:0" json:"total_repaid"`
	TotalPenalties   int64     `gorm:"not null;default:0" json:"total_penalties"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Pool) TableName() string { return "liquidity_pools" }

// sum adds non-negative amounts, refusing to wrap past math.MaxInt64.
func sum(a int64, bs ...int64) (int64, error) {
	for _, b := range bs {
		if a > math.MaxInt64-b {
			return 0, errs.New(errs.InvalidInput, "pool counter would overflow")
		}
		a += b
	}
	return a, nil
}

func (p *Pool) Deposit(amount int64) error {
	deposited, err := sum(p.TotalDeposited, amount)
	if err != nil {
		return err
	}
	available, err := sum(p.AvailableBalance, amount)
	if err != nil {
		return err
	}
	p.TotalDeposited, p.AvailableBalance = deposited, available
	return nil
}

func (p *Pool) Withdraw(amount int64) error {
	withdrawn, err := sum(p.TotalWithdrawn, amount)
	if err != nil {
		return err
	}
	p.TotalWithdrawn, p.AvailableBalance = withdrawn, p.AvailableBalance-amount
	return nil
}

func (p *Pool) Disburse(amount int64) error {
	disbursed, err := sum(p.TotalDisbursed, amount)
	if err != nil {
		return err
	}
	p.TotalDisbursed, p.AvailableBalance = disbursed, p.AvailableBalance-amount
	return nil
}

func (p *Pool) Collect(principal, penalty int64) error {
	repaid, err := sum(p.TotalRepaid, principal)
	if err != nil {
		return err
	}
	penalties, err := sum(p.TotalPenalties, penalty)
	if err != nil {
		return err
	}
	available, err := sum(p.AvailableBalance, principal, penalty)
	if err != nil {
		return err
	}
	p.TotalRepaid, p.TotalPenalties, p.AvailableBalance = repaid, penalties, available
	return nil
}
