package dto

import (
	"time"

	"anoa.com/forumguard/internal/model"
	"github.com/google/uuid"
)

type SubmitFlagRequest struct {
	ContentType string           `json:"content_type" binding:"required,oneof=post thread"`
	ContentID   uuid.UUID        `json:"content_id" binding:"required"`
	Reason      model.FlagReason `json:"reason" binding:"required,flagreason"`
	Explanation string           `json:"explanation" binding:"max=2000"`
}

type ResolveRequest struct {
	Action model.ActionType `json:"action" binding:"required,modaction"`
	Reason string           `json:"reason" binding:"max=2000"`
	Notes  string           `json:"notes" binding:"max=2000"`
}

type QueueFilter struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

type QueueResponse struct {
	Flags    []model.Flag `json:"flags"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// Stats is the aggregate read-side projection over flags and actions.
// Eventually consistent; served from a short-lived cache.
type Stats struct {
	TotalFlags   int64   `json:"total_flags"`
	Pending      int64   `json:"pending"`
	Approved     int64   `json:"approved"`
	Rejected     int64   `json:"rejected"`
	Removed      int64   `json:"removed"`
	FlagsToday   int64   `json:"flags_today"`
	TotalActions int64   `json:"total_actions"`
	ApprovalRate float64 `json:"approval_rate"`
}

type ActionSummary struct {
	ID          uuid.UUID        `json:"id"`
	FlagID      uuid.UUID        `json:"flag_id"`
	ModeratorID uuid.UUID        `json:"moderator_id"`
	ActionType  model.ActionType `json:"action_type"`
	CreatedAt   time.Time        `json:"created_at"`
}

type Dashboard struct {
	PendingCount    int64            `json:"pending_count"`
	OldestPendingAt *time.Time       `json:"oldest_pending_at,omitempty"`
	ResolvedToday   int64            `json:"resolved_today"`
	FlagsByReason   map[string]int64 `json:"flags_by_reason"`
	RecentActions   []ActionSummary  `json:"recent_actions"`
}

type UserHistory struct {
	UserID         uuid.UUID                `json:"user_id"`
	FlagsAgainst   []model.Flag             `json:"flags_against"`
	ActionsAgainst []model.ModerationAction `json:"actions_against"`
}
