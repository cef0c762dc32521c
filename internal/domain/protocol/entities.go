package protocol

import "time"

const SingletonID = 1

// State is the ledger-wide row every mutating operation locks first.
// LoanCount is the last allocated loan id.
type State struct {
	ID          uint8     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Paused      bool      `gorm:"not null;default:false" json:"paused"`
	LoanCount   uint64    `gorm:"not null;default:0" json:"total_loans"`
	TotalVolume int64     `gorm:"not null;default:0" json:"total_volume"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (State) TableName() string { return "protocol_state" }

// NextLoanID allocates the next loan id and counts its principal.
func (s *State) NextLoanID(amount int64) uint64 {
	s.LoanCount++
	s.TotalVolume += amount
	return s.LoanCount
}
