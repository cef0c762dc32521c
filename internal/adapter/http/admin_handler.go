package http

import (
	"context"
	"net/http"

	"bnpl-ledger/internal/adapter/middleware"
	"bnpl-ledger/internal/domain/errs"
	"bnpl-ledger/internal/usecase/ledger"
	"bnpl-ledger/pkg/address"

	"github.com/labstack/echo/v4"
)

// ProofRecorder accepts balance proofs that were verified off-ledger.
type ProofRecorder interface {
	RecordProof(ctx context.Context, user string, boost uint64) error
}

// AdminHandler serves the merchant registry, liquidity, blacklist, pause,
// token and event routes. Admin checks happen in the usecase.
type AdminHandler struct {
	uc     *ledger.Usecase
	proofs ProofRecorder
}

func NewAdminHandler(uc *ledger.Usecase, proofs ProofRecorder) *AdminHandler {
	return &AdminHandler{uc: uc, proofs: proofs}
}

type addMerchantReq struct {
	Address  string `json:"address"  validate:"required,address,nonzeroaddr"`
	Name     string `json:"name"     validate:"required,max=128"`
	Category string `json:"category" validate:"max=64"`
}

type mintReq struct {
	To     string `json:"to" validate:"required,address"`
	Amount int64  `json:"amount"`
}

type zkProofReq struct {
	User  string `json:"user"  validate:"required,address"`
	Boost uint64 `json:"boost" validate:"lte=30"`
}

func (h *AdminHandler) AddMerchant(c echo.Context) error {
	var req addMerchantReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	m, err := h.uc.AddMerchant(c.Request().Context(), middleware.Caller(c), req.Address, req.Name, req.Category)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *AdminHandler) RemoveMerchant(c echo.Context) error {
	m, err := h.uc.RemoveMerchant(c.Request().Context(), middleware.Caller(c), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) GetMerchant(c echo.Context) error {
	m, err := h.uc.GetMerchant(c.Request().Context(), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminHandler) ListMerchants(c echo.Context) error {
	ms, err := h.uc.ListMerchants(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ms)
}

func (h *AdminHandler) DepositLiquidity(c echo.Context) error {
	var req amountReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	st, err := h.uc.DepositLiquidity(c.Request().Context(), middleware.Caller(c), req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) WithdrawLiquidity(c echo.Context) error {
	var req amountReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	st, err := h.uc.WithdrawLiquidity(c.Request().Context(), middleware.Caller(c), req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) Stats(c echo.Context) error {
	st, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

type blacklistResp struct {
	User        string `json:"user"`
	Blacklisted bool   `json:"blacklisted"`
}

func (h *AdminHandler) BlacklistUser(c echo.Context) error {
	return h.setBlacklisted(c, true)
}

func (h *AdminHandler) UnblacklistUser(c echo.Context) error {
	return h.setBlacklisted(c, false)
}

func (h *AdminHandler) setBlacklisted(c echo.Context, listed bool) error {
	ctx := c.Request().Context()
	set := h.uc.UnblacklistUser
	if listed {
		set = h.uc.BlacklistUser
	}
	if err := set(ctx, middleware.Caller(c), c.Param("address")); err != nil {
		return fail(c, err)
	}
	return h.IsBlacklisted(c)
}

func (h *AdminHandler) IsBlacklisted(c echo.Context) error {
	user := c.Param("address")
	listed, err := h.uc.IsBlacklisted(c.Request().Context(), user)
	if err != nil {
		return fail(c, err)
	}
	norm, _ := address.Normalize(user)
	return c.JSON(http.StatusOK, blacklistResp{User: norm, Blacklisted: listed})
}

func (h *AdminHandler) Pause(c echo.Context) error {
	return h.setPaused(c, true)
}

func (h *AdminHandler) Unpause(c echo.Context) error {
	return h.setPaused(c, false)
}

func (h *AdminHandler) setPaused(c echo.Context, paused bool) error {
	ctx := c.Request().Context()
	set := h.uc.Unpause
	if paused {
		set = h.uc.Pause
	}
	if err := set(ctx, middleware.Caller(c)); err != nil {
		return fail(c, err)
	}
	return h.Stats(c)
}

func (h *AdminHandler) Mint(c echo.Context) error {
	var req mintReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	acc, err := h.uc.Mint(c.Request().Context(), middleware.Caller(c), req.To, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, acc)
}

// Approve sets the caller's allowance for the ledger.
func (h *AdminHandler) Approve(c echo.Context) error {
	var req amountReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	acc, err := h.uc.Approve(c.Request().Context(), middleware.Caller(c), req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, acc)
}

func (h *AdminHandler) BalanceOf(c echo.Context) error {
	acc, err := h.uc.BalanceOf(c.Request().Context(), c.Param("address"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, acc)
}

func (h *AdminHandler) ListEvents(c echo.Context) error {
	after, err := queryUint(c, "after_seq")
	if err != nil {
		return fail(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return fail(c, err)
	}
	evs, err := h.uc.ListEvents(c.Request().Context(), after, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, evs)
}

// RecordZKProof stores a verified balance proof for a user. Admin only.
func (h *AdminHandler) RecordZKProof(c echo.Context) error {
	if h.proofs == nil {
		return c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "zk verifier does not accept proofs"})
	}
	if middleware.Caller(c) != h.uc.Params().Admin {
		return fail(c, errs.ErrUnauthorized)
	}
	var req zkProofReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	user, _ := address.Normalize(req.User)
	if err := h.proofs.RecordProof(c.Request().Context(), user, req.Boost); err != nil {
		return fail(c, err)
	}
	return h.credit(c, user)
}

func (h *AdminHandler) credit(c echo.Context, user string) error {
	cr, err := h.uc.GetCredit(c.Request().Context(), user)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cr)
}
