package loan

import (
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
)

// Loan is one BNPL advance. Amounts are micro-units (6 implied decimals).
// Repaid and Defaulted are terminal.
type Loan struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement:false;column:id" json:"id"`
	Borrower       string     `gorm:"size:42;not null;index:idx_loans_borrower_status" json:"borrower"`
	Merchant       string     `gorm:"size:42;not null;index" json:"merchant"`
	Amount         int64      `gorm:"not null" json:"amount"`
	AmountRepaid   int64      `gorm:"not null;default:0" json:"amount_repaid"`
	PenaltiesPaid  int64      `gorm:"not null;default:0" json:"penalties_paid"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	DueDate        time.Time  `gorm:"not null" json:"due_date"`
	GracePeriodEnd time.Time  `gorm:"not null" json:"grace_period_end"`
	RepaidAt       *time.Time `json:"repaid_at,omitempty"`
	IsRepaid       bool       `gorm:"not null;default:false" json:"is_repaid"`
	Status         Status     `gorm:"size:16;not null;index:idx_loans_borrower_status" json:"status"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

func (l *Loan) Remaining() int64 { return l.Amount - l.AmountRepaid }

// MinInstallment is a hint for callers; payments below it are still accepted.
func (l *Loan) MinInstallment() int64 { return l.Amount / 3 }

func (l *Loan) IsActive() bool { return l.Status == StatusActive }
