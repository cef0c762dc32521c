package ledger

import (
	"context"
	"errors"

	"bnpl-ledger/internal/domain/errs"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/domain/loan"
	"bnpl-ledger/internal/domain/merchant"
	"bnpl-ledger/internal/domain/token"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func pageSize(limit int) int {
	switch {
	case limit <= 0:
		return defaultPageSize
	case limit > maxPageSize:
		return maxPageSize
	}
	return limit
}

func (u *Usecase) GetLoan(ctx context.Context, id uint64) (*loan.Loan, error) {
	l, err := u.uow.Reader(ctx).Loans.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrLoanNotFound
	}
	return l, err
}

// GetActiveLoan returns nil without error when user has no active loan.
func (u *Usecase) GetActiveLoan(ctx context.Context, user string) (*loan.Loan, error) {
	user, err := parseAccount("user", user)
	if err != nil {
		return nil, err
	}
	l, err := u.uow.Reader(ctx).Loans.GetActiveByBorrower(ctx, user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return l, err
}

func (u *Usecase) HasActiveLoan(ctx context.Context, user string) (bool, error) {
	l, err := u.GetActiveLoan(ctx, user)
	return l != nil, err
}

// GetUserLoans returns the borrower's full history, oldest first.
func (u *Usecase) GetUserLoans(ctx context.Context, user string) ([]loan.Loan, error) {
	user, err := parseAccount("user", user)
	if err != nil {
		return nil, err
	}
	return u.uow.Reader(ctx).Loans.ListByBorrower(ctx, user)
}

func (u *Usecase) ListLoans(ctx context.Context, offset, limit int) ([]loan.Loan, error) {
	return u.uow.Reader(ctx).Loans.List(ctx, max(offset, 0), pageSize(limit))
}

// GetRemainingBalance is 0 when there is no active loan.
func (u *Usecase) GetRemainingBalance(ctx context.Context, user string) (int64, error) {
	l, err := u.GetActiveLoan(ctx, user)
	if err != nil || l == nil {
		return 0, err
	}
	return l.Remaining(), nil
}

// GetMinInstallmentAmount is a hint only; smaller installments are accepted.
func (u *Usecase) GetMinInstallmentAmount(ctx context.Context, user string) (int64, error) {
	l, err := u.GetActiveLoan(ctx, user)
	if err != nil || l == nil {
		return 0, err
	}
	return l.MinInstallment(), nil
}

// GetCredit computes the credit profile on demand. Available credit is the
// whole limit without an active loan and zero with one.
func (u *Usecase) GetCredit(ctx context.Context, user string) (*Credit, error) {
	user, err := parseAccount("user", user)
	if err != nil {
		return nil, err
	}
	r := u.uow.Reader(ctx)

	sc, err := r.Scores.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	profile, err := u.credit.Profile(ctx, user, sc.RepaymentScore)
	if err != nil {
		return nil, err
	}

	out := &Credit{User: user, CreditProfile: *profile}
	_, err = r.Loans.GetActiveByBorrower(ctx, user)
	switch {
	case err == nil:
		out.HasActiveLoan = true
	case errors.Is(err, gorm.ErrRecordNotFound):
		out.AvailableCredit = profile.CreditLimit
	default:
		return nil, err
	}
	return out, nil
}

func (u *Usecase) GetMerchant(ctx context.Context, addr string) (*merchant.Merchant, error) {
	addr, err := parseAccount("merchant", addr)
	if err != nil {
		return nil, err
	}
	m, err := u.uow.Reader(ctx).Merchants.GetByAddress(ctx, addr)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrMerchantNotFound
	}
	return m, err
}

func (u *Usecase) ListMerchants(ctx context.Context) ([]merchant.Merchant, error) {
	return u.uow.Reader(ctx).Merchants.List(ctx)
}

func (u *Usecase) IsBlacklisted(ctx context.Context, user string) (bool, error) {
	user, err := parseAccount("user", user)
	if err != nil {
		return false, err
	}
	return u.uow.Reader(ctx).Blacklist.Contains(ctx, user)
}

func (u *Usecase) BalanceOf(ctx context.Context, addr string) (*token.Account, error) {
	addr, err := parseAccount("address", addr)
	if err != nil {
		return nil, err
	}
	return u.uow.Reader(ctx).Tokens.BalanceOf(ctx, addr)
}

// Stats reports protocol counters and the pool.
func (u *Usecase) Stats(ctx context.Context) (*Stats, error) {
	r := u.uow.Reader(ctx)
	st, err := r.Protocol.Get(ctx)
	if err != nil {
		return nil, err
	}
	p, err := r.Pool.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalLoans: st.LoanCount, TotalVolume: st.TotalVolume, Paused: st.Paused, Pool: *p}, nil
}

// ListEvents pages through committed events in commit order.
func (u *Usecase) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]event.Event, error) {
	return u.uow.Reader(ctx).Events.ListAfter(ctx, afterSeq, pageSize(limit))
}
