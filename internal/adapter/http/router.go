package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Register mounts the ledger API on e. mw runs on every ledger route, in
// order; health stays outside it.
func Register(e *echo.Echo, h *Handler, loans *LoanHandler, admin *AdminHandler, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	g := e.Group("", mw...)

	g.POST("/loans", loans.CreateLoan)
	g.POST("/loans/repay", loans.RepayLoan)
	g.POST("/loans/installments", loans.MakeInstallmentPayment)
	g.POST("/loans/late-repayments", loans.RepayWithPenalty)
	g.POST("/loans/:id/default", loans.MarkAsDefaulted)
	g.GET("/loans", loans.ListLoans)
	g.GET("/loans/:id", loans.GetLoan)
	g.GET("/users/:address/loans", loans.GetUserLoans)
	g.GET("/users/:address/active-loan", loans.GetActiveLoan)
	g.GET("/users/:address/credit", loans.GetCredit)

	g.POST("/merchants", admin.AddMerchant)
	g.DELETE("/merchants/:address", admin.RemoveMerchant)
	g.GET("/merchants/:address", admin.GetMerchant)
	g.GET("/merchants", admin.ListMerchants)

	g.POST("/liquidity/deposit", admin.DepositLiquidity)
	g.POST("/liquidity/withdraw", admin.WithdrawLiquidity)
	g.GET("/stats", admin.Stats)

	g.POST("/blacklist/:address", admin.BlacklistUser)
	g.DELETE("/blacklist/:address", admin.UnblacklistUser)
	g.GET("/blacklist/:address", admin.IsBlacklisted)

	g.POST("/admin/pause", admin.Pause)
	g.POST("/admin/unpause", admin.Unpause)
	g.POST("/admin/zk-proofs", admin.RecordZKProof)

	g.POST("/tokens/mint", admin.Mint)
	g.POST("/tokens/approve", admin.Approve)
	g.GET("/tokens/:address", admin.BalanceOf)

	g.GET("/events", admin.ListEvents)
}

// RegisterMetrics exposes a prometheus handler at /metrics.
func RegisterMetrics(e *echo.Echo, h http.Handler) {
	e.GET("/metrics", echo.WrapHandler(h))
}
