package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionLove    ReactionKind = "love"
	ReactionHelpful ReactionKind = "helpful"
	ReactionThanks  ReactionKind = "thanks"
)

func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionLove, ReactionHelpful, ReactionThanks:
		return true
	}
	return false
}

// Reaction holds a user's stance on a post. At most one row exists per
// (post, user, kind); toggling off flips IsActive instead of deleting.
type Reaction struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_tuple,priority:1" json:"post_id"`
	Post      Post         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reactions_tuple,priority:2" json:"user_id"`
	User      User         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Kind      ReactionKind `gorm:"size:20;not null;uniqueIndex:idx_reactions_tuple,priority:3" json:"kind"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID, err = uuid.NewV7()
	}
	return
}
