package http

import (
	"net/http"

	"bnpl-ledger/internal/adapter/middleware"
	"bnpl-ledger/internal/domain/loan"
	"bnpl-ledger/internal/usecase/ledger"

	"github.com/labstack/echo/v4"
)

// LoanHandler serves borrower-facing loan routes. The acting borrower is
// always the request's caller.
type LoanHandler struct{ uc *ledger.Usecase }

func NewLoanHandler(uc *ledger.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	Amount   int64  `json:"amount"`
	Merchant string `json:"merchant" validate:"required,address"`
}

type amountReq struct {
	Amount int64 `json:"amount"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.CreateLoan(c.Request().Context(), middleware.Caller(c), req.Amount, req.Merchant)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *LoanHandler) RepayLoan(c echo.Context) error {
	r, err := h.uc.RepayLoan(c.Request().Context(), middleware.Caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *LoanHandler) MakeInstallmentPayment(c echo.Context) error {
	var req amountReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	r, err := h.uc.MakeInstallmentPayment(c.Request().Context(), middleware.Caller(c), req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *LoanHandler) RepayWithPenalty(c echo.Context) error {
	var req amountReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	r, err := h.uc.RepayWithPenalty(c.Request().Context(), middleware.Caller(c), req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *LoanHandler) MarkAsDefaulted(c echo.Context) error {
	id, err := pathLoanID(c)
	if err != nil {
		return fail(c, err)
	}
	l, err := h.uc.MarkAsDefaulted(c.Request().Context(), middleware.Caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, err := pathLoanID(c)
	if err != nil {
		return fail(c, err)
	}
	l, err := h.uc.GetLoan(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return fail(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return fail(c, err)
	}
	ls, err := h.uc.ListLoans(c.Request().Context(), offset, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

func (h *LoanHandler) GetUserLoans(c echo.Context) error {
	ls, err := h.uc.GetUserLoans(c.Request().Context(), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

type activeLoanResp struct {
	HasActiveLoan    bool       `json:"has_active_loan"`
	Loan             *loan.Loan `json:"loan,omitempty"`
	RemainingBalance int64      `json:"remaining_balance"`
	MinInstallment   int64      `json:"min_installment"`
}

// GetActiveLoan reports the user's active loan with its remaining balance
// and minimum installment; all zero when there is none.
func (h *LoanHandler) GetActiveLoan(c echo.Context) error {
	l, err := h.uc.GetActiveLoan(c.Request().Context(), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	resp := activeLoanResp{}
	if l != nil {
		resp.HasActiveLoan = true
		resp.Loan = l
		resp.RemainingBalance = l.Remaining()
		resp.MinInstallment = l.MinInstallment()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *LoanHandler) GetCredit(c echo.Context) error {
	cr, err := h.uc.GetCredit(c.Request().Context(), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cr)
}
