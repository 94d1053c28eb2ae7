package model

import (
	"time"

	"github.com/google/uuid"
)

// Tier is the unit of trust progression. Expert is never assigned by the
// progression algorithm, only by explicit staff action, and is sticky.
type Tier string

const (
	TierNew     Tier = "new"
	TierBasic   Tier = "basic"
	TierTrusted Tier = "trusted"
	TierVeteran Tier = "veteran"
	TierExpert  Tier = "expert"
)

func (t Tier) Valid() bool {
	switch t {
	case TierNew, TierBasic, TierTrusted, TierVeteran, TierExpert:
		return true
	}
	return false
}

type TrustProfile struct {
	UserID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Tier                 Tier      `gorm:"size:20;not null;default:new" json:"tier"`
	PostCount            int       `gorm:"not null;default:0" json:"post_count"`
	ThreadCount          int       `gorm:"not null;default:0" json:"thread_count"`
	HelpfulReactionCount int       `gorm:"not null;default:0" json:"helpful_reaction_count"`
	LastSeenAt           time.Time `json:"last_seen_at"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TrustProfile) TableName() string {
	return "trust_profiles"
}
