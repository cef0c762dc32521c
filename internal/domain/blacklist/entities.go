package blacklist

import "time"

type Reason string

const (
	ReasonAdmin   Reason = "admin"
	ReasonDefault Reason = "default"
)

type Entry struct {
	User      string    `gorm:"primaryKey;size:42;column:user_address" json:"user"`
	Reason    Reason    `gorm:"size:16;not null" json:"reason"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "blacklist" }
