package dto

import "anoa.com/forumguard/internal/model"

// TierInfo is the snapshot the CRUD layer renders on profile pages: the
// current tier, its allowances, and progress toward the next tier.
type TierInfo struct {
	Tier            model.Tier      `json:"tier"`
	PostsPerDay     int             `json:"posts_per_day"`
	ThreadsPerDay   int             `json:"threads_per_day"`
	ReactionsPerDay int             `json:"reactions_per_day"`
	Permissions     map[string]bool `json:"permissions"`

	NextTier       *model.Tier `json:"next_tier,omitempty"`
	DaysRemaining  int         `json:"days_remaining"`
	PostsRemaining int         `json:"posts_remaining"`
}
