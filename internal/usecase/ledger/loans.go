package ledger

import (
	"context"
	"errors"

	"bnpl-ledger/internal/domain/blacklist"
	"bnpl-ledger/internal/domain/errs"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/domain/loan"
	"bnpl-ledger/internal/usecase/trustscore"

	"gorm.io/gorm"
)

// CreateLoan disburses amount from the pool to merchant and opens an Active
// loan for borrower. Preconditions are checked in a fixed order so callers
// always see the first failing one.
func (u *Usecase) CreateLoan(ctx context.Context, borrower string, amount int64, merchantAddr string) (*loan.Loan, error) {
	borrower, err := parseAccount("borrower", borrower)
	if err != nil {
		return nil, err
	}
	merchantAddr, err = parseAccount("merchant", merchantAddr)
	if err != nil {
		return nil, err
	}
	if err := u.requireUserAccount("borrower", borrower); err != nil {
		return nil, err
	}
	if err := u.requireUserAccount("merchant", merchantAddr); err != nil {
		return nil, err
	}

	var out *loan.Loan
	err = u.write(ctx, "create_loan", func(o *op) error {
		if o.st.Paused {
			return errs.ErrProtocolPaused
		}

		listed, err := o.r.Blacklist.Contains(ctx, borrower)
		if err != nil {
			return err
		}
		if listed {
			return errs.ErrBlacklistedUser
		}

		m, err := o.r.Merchants.GetByAddress(ctx, merchantAddr)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return errs.ErrMerchantNotApproved
		case err != nil:
			return err
		case !m.IsApproved:
			return errs.ErrMerchantNotApproved
		}

		if _, err := o.r.Loans.GetActiveByBorrower(ctx, borrower); err == nil {
			return errs.ErrActiveLoanExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if amount <= 0 {
			return errs.ErrZeroAmount
		}

		// no active loan here, so the whole limit is available
		sc, err := o.r.Scores.Get(ctx, borrower)
		if err != nil {
			return err
		}
		profile, err := u.credit.Profile(ctx, borrower, sc.RepaymentScore)
		if err != nil {
			return err
		}
		if amount > profile.CreditLimit {
			return errs.New(errs.ExceedsCreditLimit, "amount %d exceeds credit limit %d", amount, profile.CreditLimit)
		}

		p, err := o.lockPool()
		if err != nil {
			return err
		}
		if p.AvailableBalance < amount {
			return errs.New(errs.InsufficientLiquidity, "pool holds %d, loan needs %d", p.AvailableBalance, amount)
		}

		if err := o.r.Tokens.Transfer(ctx, u.params.Pool, merchantAddr, amount); err != nil {
			return err
		}
		if err := p.Disburse(amount); err != nil {
			return err
		}

		id := o.st.NextLoanID(amount)
		if err := o.r.Protocol.Save(ctx, o.st); err != nil {
			return err
		}

		due := o.now.Add(u.params.RepaymentPeriod)
		l := &loan.Loan{
			ID:             id,
			Borrower:       borrower,
			Merchant:       merchantAddr,
			Amount:         amount,
			CreatedAt:      o.now,
			DueDate:        due,
			GracePeriodEnd: due.Add(u.params.GracePeriod),
			Status:         loan.StatusActive,
		}
		if err := o.r.Loans.Create(ctx, l); err != nil {
			return err
		}

		o.addVolume("disbursed", amount)
		o.emit(event.Event{Type: event.LoanCreated, LoanID: id, Account: borrower, Counterparty: merchantAddr, Amount: amount})
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RepayLoan settles the whole remaining balance in one transfer.
func (u *Usecase) RepayLoan(ctx context.Context, borrower string) (*Repayment, error) {
	borrower, err := parseAccount("borrower", borrower)
	if err != nil {
		return nil, err
	}

	var out *Repayment
	err = u.write(ctx, "repay_loan", func(o *op) error {
		l, err := activeLoan(o, borrower)
		if err != nil {
			return err
		}
		principal := l.Remaining()
		if err := u.collect(o, l, principal, 0); err != nil {
			return err
		}
		points, err := u.finalize(o, l, u.repaymentPoints(o, l))
		if err != nil {
			return err
		}
		o.emit(event.Event{Type: event.LoanRepaid, LoanID: l.ID, Account: borrower, Amount: principal, ScoreDelta: int64(points)})
		out = &Repayment{Loan: l, Principal: principal, Completed: true, ScoreDelta: int64(points)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MakeInstallmentPayment pays part of the loan. Payments above the
// remaining balance are capped; the payment that clears the balance
// finalises the loan with early or on-time points.
func (u *Usecase) MakeInstallmentPayment(ctx context.Context, borrower string, amount int64) (*Repayment, error) {
	borrower, err := parseAccount("borrower", borrower)
	if err != nil {
		return nil, err
	}

	var out *Repayment
	err = u.write(ctx, "installment", func(o *op) error {
		l, err := activeLoan(o, borrower)
		if err != nil {
			return err
		}
		if amount <= 0 {
			return errs.ErrZeroAmount
		}

		actual := min(amount, l.Remaining())
		if err := u.collect(o, l, actual, 0); err != nil {
			return err
		}
		out = &Repayment{Loan: l, Principal: actual}

		if l.Remaining() > 0 {
			if err := o.r.Loans.Save(ctx, l); err != nil {
				return err
			}
			o.emit(event.Event{Type: event.PartialPayment, LoanID: l.ID, Account: borrower, Amount: actual})
			return nil
		}

		points, err := u.finalize(o, l, u.repaymentPoints(o, l))
		if err != nil {
			return err
		}
		out.Completed, out.ScoreDelta = true, int64(points)
		o.emit(event.Event{Type: event.LoanRepaid, LoanID: l.ID, Account: borrower, Amount: actual, ScoreDelta: int64(points)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RepayWithPenalty is the late path between the due date and the end of the
// grace period. The penalty is pool revenue on top of the principal part.
func (u *Usecase) RepayWithPenalty(ctx context.Context, borrower string, amount int64) (*Repayment, error) {
	borrower, err := parseAccount("borrower", borrower)
	if err != nil {
		return nil, err
	}

	var out *Repayment
	err = u.write(ctx, "late_repayment", func(o *op) error {
		l, err := activeLoan(o, borrower)
		if err != nil {
			return err
		}
		if amount <= 0 {
			return errs.ErrZeroAmount
		}
		if !o.now.After(l.DueDate) {
			return errs.ErrNotPastDueDate
		}
		if o.now.After(l.GracePeriodEnd) {
			return errs.ErrNotInGracePeriod
		}

		principal := min(amount, l.Remaining())
		penalty := principal * u.params.LatePenaltyPct / 100
		if err := u.collect(o, l, principal, penalty); err != nil {
			return err
		}
		o.emit(event.Event{Type: event.LateRepayment, LoanID: l.ID, Account: borrower, Amount: principal, Penalty: penalty})
		out = &Repayment{Loan: l, Principal: principal, Penalty: penalty}

		if l.Remaining() > 0 {
			return o.r.Loans.Save(ctx, l)
		}
		points, err := u.finalize(o, l, trustscore.LatePoints)
		if err != nil {
			return err
		}
		out.Completed, out.ScoreDelta = true, int64(points)
		o.emit(event.Event{Type: event.LoanRepaid, LoanID: l.ID, Account: borrower, Amount: principal, ScoreDelta: int64(points)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAsDefaulted closes an Active loan whose grace period has elapsed,
// blacklists the borrower and applies the default penalty to the score.
func (u *Usecase) MarkAsDefaulted(ctx context.Context, caller string, loanID uint64) (*loan.Loan, error) {
	if err := u.requireAdmin(caller); err != nil {
		return nil, err
	}

	var out *loan.Loan
	err := u.write(ctx, "mark_defaulted", func(o *op) error {
		l, err := o.r.Loans.GetByIDForUpdate(ctx, loanID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrLoanNotFound
		}
		if err != nil {
			return err
		}
		if !l.IsActive() {
			return errs.ErrLoanNotActive
		}
		if !o.now.After(l.GracePeriodEnd) {
			return errs.ErrGracePeriodNotOver
		}

		l.Status = loan.StatusDefaulted
		if err := o.r.Loans.Save(ctx, l); err != nil {
			return err
		}

		added, err := o.r.Blacklist.Add(ctx, l.Borrower, blacklist.ReasonDefault)
		if err != nil {
			return err
		}
		if added {
			o.emit(event.Event{Type: event.UserBlacklisted, Account: l.Borrower})
		}

		sc, err := o.r.Scores.Get(ctx, l.Borrower)
		if err != nil {
			return err
		}
		before := sc.RepaymentScore
		sc.Subtract(trustscore.DefaultPenalty)
		if err := o.r.Scores.Save(ctx, sc); err != nil {
			return err
		}

		o.emit(event.Event{
			Type:       event.LoanDefaulted,
			LoanID:     l.ID,
			Account:    l.Borrower,
			Amount:     l.Remaining(),
			ScoreDelta: int64(sc.RepaymentScore) - int64(before),
		})
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func activeLoan(o *op, borrower string) (*loan.Loan, error) {
	l, err := o.r.Loans.GetActiveByBorrower(o.ctx, borrower)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNoActiveLoan
	}
	return l, err
}

// collect pulls principal+penalty from the borrower into the pool. The
// transfer comes first; nothing is credited if it fails.
func (u *Usecase) collect(o *op, l *loan.Loan, principal, penalty int64) error {
	if err := o.r.Tokens.Transfer(o.ctx, l.Borrower, u.params.Pool, principal+penalty); err != nil {
		return err
	}
	p, err := o.lockPool()
	if err != nil {
		return err
	}
	if err := p.Collect(principal, penalty); err != nil {
		return err
	}
	l.AmountRepaid += principal
	l.PenaltiesPaid += penalty
	o.addVolume("repaid", principal)
	o.addVolume("penalty", penalty)
	return nil
}

func (u *Usecase) repaymentPoints(o *op, l *loan.Loan) uint64 {
	if !o.now.After(l.DueDate.Add(-u.params.EarlyThresholdWindow)) {
		return trustscore.EarlyPoints
	}
	return trustscore.OnTimePoints
}

// finalize marks l Repaid and credits points to the borrower's score.
func (u *Usecase) finalize(o *op, l *loan.Loan, points uint64) (uint64, error) {
	now := o.now
	l.Status = loan.StatusRepaid
	l.IsRepaid = true
	l.RepaidAt = &now
	if err := o.r.Loans.Save(o.ctx, l); err != nil {
		return 0, err
	}

	sc, err := o.r.Scores.Get(o.ctx, l.Borrower)
	if err != nil {
		return 0, err
	}
	sc.Add(points)
	if err := o.r.Scores.Save(o.ctx, sc); err != nil {
		return 0, err
	}
	return points, nil
}
