package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionApprove      ActionType = "approve"
	ActionReject       ActionType = "reject"
	ActionRemovePost   ActionType = "remove_post"
	ActionRemoveThread ActionType = "remove_thread"
	ActionLockThread   ActionType = "lock_thread"
	ActionWarning      ActionType = "warning"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionRemovePost,
		ActionRemoveThread, ActionLockThread, ActionWarning:
		return true
	}
	return false
}

// ModerationAction is the append-only audit record of a flag resolution.
// Rows are never updated or deleted.
type ModerationAction struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FlagID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"flag_id"`
	Flag         Flag       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ModeratorID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"moderator_id"`
	ActionType   ActionType `gorm:"size:20;not null" json:"action_type"`
	Reason       string     `gorm:"type:text" json:"reason"`
	TargetUserID *uuid.UUID `gorm:"type:uuid;index" json:"target_user_id,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (a *ModerationAction) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}
