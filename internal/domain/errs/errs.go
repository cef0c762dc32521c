package errs

import (
	"errors"
	"fmt"
)

// Kind names a precondition failure. Callers branch on it; the HTTP layer maps
// it to a status code.
type Kind string

const (
	ZeroAmount            Kind = "ZeroAmount"
	ZeroAddress           Kind = "ZeroAddress"
	MerchantNotApproved   Kind = "MerchantNotApproved"
	MerchantAlreadyExists Kind = "MerchantAlreadyExists"
	MerchantNotFound      Kind = "MerchantNotFound"
	ActiveLoanExists      Kind = "ActiveLoanExists"
	NoActiveLoan          Kind = "NoActiveLoan"
	LoanNotFound          Kind = "LoanNotFound"
	LoanNotActive         Kind = "LoanNotActive"
	ExceedsCreditLimit    Kind = "ExceedsCreditLimit"
	InsufficientAllowance Kind = "InsufficientAllowance"
	InsufficientBalance   Kind = "InsufficientBalance"
	InsufficientLiquidity Kind = "InsufficientLiquidity"
	BlacklistedUser       Kind = "BlacklistedUser"
	GracePeriodNotOver    Kind = "GracePeriodNotOver"
	NotInGracePeriod      Kind = "NotInGracePeriod"
	NotPastDueDate        Kind = "NotPastDueDate"
	Unauthorized          Kind = "Unauthorized"
	ProtocolPaused        Kind = "ProtocolPaused"
	InvalidInput          Kind = "InvalidInput"
)

type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Msg
}

// Is matches any *Error of the same kind, so errors.Is(err, errs.ErrZeroAmount)
// holds for errors built with New as well as the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

var (
	ErrZeroAmount            = &Error{Kind: ZeroAmount, Msg: "amount must be greater than zero"}
	ErrZeroAddress           = &Error{Kind: ZeroAddress, Msg: "zero address"}
	ErrMerchantNotApproved   = &Error{Kind: MerchantNotApproved, Msg: "merchant not approved"}
	ErrMerchantAlreadyExists = &Error{Kind: MerchantAlreadyExists, Msg: "merchant already exists"}
	ErrMerchantNotFound      = &Error{Kind: MerchantNotFound, Msg: "merchant not found"}
	ErrActiveLoanExists      = &Error{Kind: ActiveLoanExists, Msg: "borrower already has an active loan"}
	ErrNoActiveLoan          = &Error{Kind: NoActiveLoan, Msg: "no active loan"}
	ErrLoanNotFound          = &Error{Kind: LoanNotFound, Msg: "loan not found"}
	ErrLoanNotActive         = &Error{Kind: LoanNotActive, Msg: "loan is not active"}
	ErrExceedsCreditLimit    = &Error{Kind: ExceedsCreditLimit, Msg: "amount exceeds credit limit"}
	ErrInsufficientAllowance = &Error{Kind: InsufficientAllowance, Msg: "insufficient allowance"}
	ErrInsufficientBalance   = &Error{Kind: InsufficientBalance, Msg: "insufficient balance"}
	ErrInsufficientLiquidity = &Error{Kind: InsufficientLiquidity, Msg: "insufficient liquidity"}
	ErrBlacklistedUser       = &Error{Kind: BlacklistedUser, Msg: "user is blacklisted"}
	ErrGracePeriodNotOver    = &Error{Kind: GracePeriodNotOver, Msg: "grace period not over"}
	ErrNotInGracePeriod      = &Error{Kind: NotInGracePeriod, Msg: "not in grace period"}
	ErrNotPastDueDate        = &Error{Kind: NotPastDueDate, Msg: "not past due date"}
	ErrUnauthorized          = &Error{Kind: Unauthorized, Msg: "caller is not the admin"}
	ErrProtocolPaused        = &Error{Kind: ProtocolPaused, Msg: "protocol is paused"}
	ErrInvalidInput          = &Error{Kind: InvalidInput, Msg: "invalid input"}
)
