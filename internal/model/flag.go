package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ContentTypePost   = "post"
	ContentTypeThread = "thread"
)

type FlagReason string

const (
	FlagReasonSpam           FlagReason = "spam"
	FlagReasonHarassment     FlagReason = "harassment"
	FlagReasonInappropriate  FlagReason = "inappropriate"
	FlagReasonMisinformation FlagReason = "misinformation"
	FlagReasonAutoSpam       FlagReason = "auto_spam"
	FlagReasonOther          FlagReason = "other"
)

func (r FlagReason) Valid() bool {
	switch r {
	case FlagReasonSpam, FlagReasonHarassment, FlagReasonInappropriate,
		FlagReasonMisinformation, FlagReasonAutoSpam, FlagReasonOther:
		return true
	}
	return false
}

type FlagStatus string

const (
	FlagPending  FlagStatus = "pending"
	FlagApproved FlagStatus = "approved"
	FlagRejected FlagStatus = "rejected"
	FlagRemoved  FlagStatus = "removed"
)

// Flag is one report against exactly one piece of content: a post or a
// thread, never both. ReporterID is nil for flags raised automatically by
// the spam scorer. Pending is the only non-terminal status.
type Flag struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ContentType string     `gorm:"size:10;not null;index:idx_flags_target,priority:1" json:"content_type"`
	PostID      *uuid.UUID `gorm:"type:uuid;index:idx_flags_target,priority:2" json:"post_id,omitempty"`
	ThreadID    *uuid.UUID `gorm:"type:uuid;index:idx_flags_target,priority:3" json:"thread_id,omitempty"`
	ReporterID  *uuid.UUID `gorm:"type:uuid;index" json:"reporter_id,omitempty"`
	Reason      FlagReason `gorm:"size:30;not null" json:"reason"`
	Explanation string     `gorm:"type:text" json:"explanation"`
	Status      FlagStatus `gorm:"size:20;not null;default:pending;index" json:"status"`
	ReviewerID  *uuid.UUID `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ModNotes    string     `gorm:"type:text" json:"moderator_notes"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (f *Flag) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

// TargetID returns the flagged content's id per the ContentType discriminator.
func (f *Flag) TargetID() uuid.UUID {
	if f.ContentType == ContentTypeThread && f.ThreadID != nil {
		return *f.ThreadID
	}
	if f.ContentType == ContentTypePost && f.PostID != nil {
		return *f.PostID
	}
	return uuid.Nil
}
