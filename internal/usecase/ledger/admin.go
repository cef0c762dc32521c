package ledger

import (
	"context"
	"errors"
	"strings"

	"bnpl-ledger/internal/domain/blacklist"
	"bnpl-ledger/internal/domain/errs"
	"bnpl-ledger/internal/domain/event"
	"bnpl-ledger/internal/domain/merchant"
	"bnpl-ledger/internal/domain/token"
	"bnpl-ledger/pkg/address"

	"gorm.io/gorm"
)

// AddMerchant registers an approved merchant. An address seen before is
// rejected even if the merchant was removed.
func (u *Usecase) AddMerchant(ctx context.Context, caller, addr, name, category string) (*merchant.Merchant, error) {
	if err := u.requireAdmin(caller); err != nil {
		return nil, err
	}
	addr, err := parseAccount("merchant", addr)
	if err != nil {
		return nil, err
	}
	if address.IsZero(addr) {
		return nil, errs.ErrZeroAddress
	}
	if err := u.requireUserAccount("merchant", addr); err != nil {
		return nil, err
	}

	var out *merchant.Merchant
	err = u.write(ctx, "add_merchant", func(o *op) error {
		_, err := o.r.Merchants.GetByAddress(ctx, addr)
		if err == nil {
			return errs.ErrMerchantAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m := &merchant.Merchant{
			Address:    addr,
			Name:       strings.TrimSpace(name),
			Category:   strings.TrimSpace(category),
			IsApproved: true,
		}
		if err := o.r.Merchants.Create(ctx, m); err != nil {
			return err
		}
		o.emit(event.Event{Type: event.MerchantAdded, Account: addr})
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveMerchant revokes approval. The record stays.
func (u *Usecase) RemoveMerchant(ctx context.Context, caller, addr string) (*merchant.Merchant, error) {
	if err := u.requireAdmin(caller); err != nil {
		return nil, err
	}
	addr, err := parseAccount("merchant", addr)
	if err != nil {
		return nil, err
	}

	var out *merchant.Merchant
	err = u.write(ctx, "remove_merchant", func(o *op) error {
		m, err := o.r.Merchants.GetByAddress(ctx, addr)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrMerchantNotFound
		}
		if err != nil {
			return err
		}
		out = m
		if !m.IsApproved {
			return nil
		}
		m.IsApproved = false
		if err := o.r.Merchants.Save(ctx, m); err != nil {
			return err
		}
		o.emit(event.Event{Type: event.MerchantRemoved, Account: addr})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) DepositLiquidity(ctx context.Context, caller string, amount int64) (*Stats, error) {
	if err := u.requireAdmin(caller); err != nil {
		return nil, err
	}
	err := u.write(ctx, "deposit_liquidity", func(o *op) error {
		if amount <= 0 {
			return errs.ErrZeroAmount
		}
		p, err := o.lockPool()
		if err != nil {
			return err
		}
		if err := o.r.Tokens.Transfer(ctx, u.params.Admin, u.params.Pool, amount); err != nil {
			return err
		}
		if err := p.Deposit(amount); err != nil {
			return err
		}
		o.addVolume("deposited", amount)
		o.emit(event.Event{Type: event.LiquidityDeposited, Account: u.params.Admin, Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.Stats(ctx)
}

func (u *Usecase) WithdrawLiquidity(ctx context.Context, caller string, amount int64) (*Stats, error) {
	if err := u.requireAdmin(caller); err != nil {
		return nil, err
	}
	err := u.write(ctx, "withdraw_liquidity", func(o *op) error {
		if amount <= 0 {
			return errs.ErrZeroAmount
		}
		p, err := o.lockPool()
		if err != nil {
			return err
		}
		if p.AvailableBalance < amount {
			return errs.New(errs.InsufficientLiquidity, "pool holds %d, withdrawal needs %d", p.AvailableBalance, amount)
		}
		if err := o.r.Tokens.Transfer(ctx, u.params.Pool, u.params.Admin, amount); err != nil {
			return err
		}
		if err := p.Withdraw(amount); err != nil {
			return err
		}
		o.addVolume("withdrawn", amount)
		o.emit(event.Event{Type: event.LiquidityWithdrawn, Account: u.params.Admin, Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u.Stats(ctx)
}

// BlacklistUser bars user from new loans. Existing loans are unaffected.
// Listing an already listed user is a no-op.
func (u *Usecase) BlacklistUser(ctx context.Context, caller, user string) error {
	return u.setBlacklisted(ctx, caller, user, true)
}

func (u *Usecase) UnblacklistUser(ctx context.Context, caller, user string) error {
	return u.setBlacklisted(ctx, caller, user, false)
}

func (u *Usecase) setBlacklisted(ctx context.Context, caller, user string, listed bool) error {
	if err := u.requireAdmin(caller); err != nil {
		return err
	}
	user, err := parseAccount("user", user)
	if err != nil {
		return err
	}
	if address.IsZero(user) {
		return errs.ErrZeroAddress
	}

	name := "unblacklist"
	if listed {
		name = "blacklist"
	}
	return u.write(ctx, name, func(o *op) error {
		if listed {
			added, err := o.r.Blacklist.Add(ctx, user, blacklist.ReasonAdmin)
			if err != nil || !added {
				return err
			}
			o.emit(event.Event{Type: event.UserBlacklisted, Account: user})
			return nil
		}
		removed, err := o.r.Blacklist.Remove(ctx, user)
		if err != nil || !removed {
			return err
		}
		o.emit(event.Event{Type: event.UserUnblacklisted, Account: user})
		return nil
	})
}

// Pause stops loan origination. Repayments and admin operations continue.
func (u *Usecase) Pause(ctx context.Context, caller string) error {
	return u.setPaused(ctx, caller, true)
}

func (u *Usecase) Unpause(ctx context.Context, caller string) error {
	return u.setPaused(ctx, caller, false)
}

func (u *Usecase) setPaused(ctx context.Context, caller string, paused bool) error {
	if err := u.requireAdmin(caller); err != nil {
		return err
	}
	name, typ := "unpause", event.ProtocolUnpaused
	if paused {
		name, typ = "pause", event.ProtocolPaused
	}
	return u.write(ctx, name, func(o *op) error {
		if o.st.Paused == paused {
			return nil
		}
		o.st.Paused = paused
		if err := o.r.Protocol.Save(ctx, o.st); err != nil {
			return err
		}
		o.emit(event.Event{Type: typ, Account: u.params.Admin})
		return nil
	})
}

// Mint credits settlement tokens out of thin air. Development faucet.
func (u *Usecase) Mint(ctx context.Context, caller, to string, amount int64) (*token.Account, error) {
	if err := u.requireAdmin(caller); err != nil {
		return nil, err
	}
	to, err := parseAccount("to", to)
	if err != nil {
		return nil, err
	}
	if address.IsZero(to) {
		return nil, errs.ErrZeroAddress
	}
	if to == u.params.Pool {
		return nil, errs.New(errs.InvalidInput, "to: the pool account is funded through DepositLiquidity")
	}
	err = u.write(ctx, "mint", func(o *op) error {
		return o.r.Tokens.Mint(ctx, to, amount)
	})
	if err != nil {
		return nil, err
	}
	return u.BalanceOf(ctx, to)
}

// Approve sets how much the ledger may pull from owner.
func (u *Usecase) Approve(ctx context.Context, owner string, amount int64) (*token.Account, error) {
	owner, err := parseAccount("owner", owner)
	if err != nil {
		return nil, err
	}
	err = u.write(ctx, "approve", func(o *op) error {
		return o.r.Tokens.Approve(ctx, owner, amount)
	})
	if err != nil {
		return nil, err
	}
	return u.BalanceOf(ctx, owner)
}
