package ledger

import (
	"time"

	"bnpl-ledger/internal/domain/loan"
	"bnpl-ledger/internal/domain/pool"
	"bnpl-ledger/internal/usecase/trustscore"
)

// Params are the ledger's tunables. Durations are wall-clock.
type Params struct {
	RepaymentPeriod      time.Duration
	GracePeriod          time.Duration
	EarlyThresholdWindow time.Duration
	LatePenaltyPct       int64
	Admin                string
	Pool                 string
}

func DefaultParams() Params {
	return Params{
		RepaymentPeriod:      7 * 24 * time.Hour,
		GracePeriod:          7 * 24 * time.Hour,
		EarlyThresholdWindow: 3 * 24 * time.Hour,
		LatePenaltyPct:       10,
	}
}

// Repayment describes the value collected by one repayment call.
type Repayment struct {
	Loan       *loan.Loan `json:"loan"`
	Principal  int64      `json:"principal"`
	Penalty    int64      `json:"penalty"`
	Completed  bool       `json:"completed"`
	ScoreDelta int64      `json:"score_delta"`
}

type Credit struct {
	User string `json:"user"`
	trustscore.CreditProfile
	AvailableCredit int64 `json:"available_credit"`
	HasActiveLoan   bool  `json:"has_active_loan"`
}

type Stats struct {
	TotalLoans  uint64    `json:"total_loans"`
	TotalVolume int64     `json:"total_volume"`
	Paused      bool      `json:"paused"`
	Pool        pool.Pool `json:"pool"`
}
