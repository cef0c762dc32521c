package score

import "time"

// Score is the repayment score owned by the ledger. Wallet bonus and zk boost
// come from outside and are never stored here.
type Score struct {
	User           string    `gorm:"primaryKey;size:42;column:user_address" json:"user"`
	RepaymentScore uint64    `gorm:"not null;default:0" json:"repayment_score"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Score) TableName() string { return "trust_scores" }

func (s *Score) Add(points uint64) { s.RepaymentScore += points }

// Subtract floors at zero.
func (s *Score) Subtract(points uint64) {
	if points >= s.RepaymentScore {
		s.RepaymentScore = 0
		return
	}
	s.RepaymentScore -= points
}
