package token

import "time"

// Account is a balance in the settlement token. Allowance is what the owner
// has approved the ledger to pull.
type Account struct {
	Address   string    `gorm:"primaryKey;size:42;column:address" json:"address"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Allowance int64     `gorm:"not null;default:0" json:"allowance"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "token_accounts" }
