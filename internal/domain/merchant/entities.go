package merchant

import "time"

// Merchant records are never deleted; removal only clears IsApproved.
type Merchant struct {
	Address    string    `gorm:"primaryKey;size:42;column:address" json:"address"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	Category   string    `gorm:"size:64;not null" json:"category"`
	IsApproved bool      `gorm:"not null" json:"is_approved"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Merchant) TableName() string { return "merchants" }
