package event

import "time"

type Type string

const (
	LoanCreated        Type = "LoanCreated"
	LoanRepaid         Type = "LoanRepaid"
	PartialPayment     Type = "PartialPayment"
	LateRepayment      Type = "LateRepayment"
	LoanDefaulted      Type = "LoanDefaulted"
	UserBlacklisted    Type = "UserBlacklisted"
	UserUnblacklisted  Type = "UserUnblacklisted"
	MerchantAdded      Type = "MerchantAdded"
	MerchantRemoved    Type = "MerchantRemoved"
	LiquidityDeposited Type = "LiquidityDeposited"
	LiquidityWithdrawn Type = "LiquidityWithdrawn"
	ProtocolPaused     Type = "ProtocolPaused"
	ProtocolUnpaused   Type = "ProtocolUnpaused"
)

// Event is an outbox row written in the same transaction as the state change
// it describes. Seq gives the global commit order.
type Event struct {
	Seq          uint64    `gorm:"primaryKey;autoIncrement;column:seq" json:"seq"`
	ID           string    `gorm:"size:36;not null;uniqueIndex" json:"id"`
	Type         Type      `gorm:"size:32;not null;index" json:"type"`
	LoanID       uint64    `gorm:"not null;default:0;index" json:"loan_id,omitempty"`
	Account      string    `gorm:"size:42" json:"account,omitempty"`
	Counterparty string    `gorm:"size:42" json:"counterparty,omitempty"`
	Amount       int64     `gorm:"not null;default:0" json:"amount,omitempty"`
	Penalty      int64     `gorm:"not null;default:0" json:"penalty,omitempty"`
	ScoreDelta   int64     `gorm:"not null;default:0" json:"score_delta,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (Event) TableName() string { return "ledger_events" }
