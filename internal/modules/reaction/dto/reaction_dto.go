package dto

import (
	"anoa.com/forumguard/internal/model"
	"github.com/google/uuid"
)

type ToggleRequest struct {
	PostID uuid.UUID          `json:"post_id" binding:"required"`
	Kind   model.ReactionKind `json:"kind" binding:"required,reactionkind"`
}

type ToggleResponse struct {
	Active  bool `json:"active"`
	Created bool `json:"created"`
}
