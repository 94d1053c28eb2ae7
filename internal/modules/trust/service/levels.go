package trust

import "anoa.com/forumguard/internal/model"

// Unlimited marks a quota with no daily cap.
const Unlimited = -1

// Quota is the per-day action allowance for a tier.
type Quota struct {
	PostsPerDay     int `json:"posts_per_day"`
	ThreadsPerDay   int `json:"threads_per_day"`
	ReactionsPerDay int `json:"reactions_per_day"`
}

func (q Quota) Limit(kind model.ActionKind) int {
	switch kind {
	case model.ActionKindThread:
		return q.ThreadsPerDay
	case model.ActionKindReaction:
		return q.ReactionsPerDay
	default:
		return q.PostsPerDay
	}
}

// Progression thresholds. Boundaries are inclusive: exactly 90 days and
// exactly 100 posts is already veteran.
const (
	VeteranDays  = 90
	VeteranPosts = 100
	TrustedDays  = 30
	TrustedPosts = 25
	BasicDays    = 7
	BasicPosts   = 5
)

var tierQuotas = map[model.Tier]Quota{
	model.TierNew:     {PostsPerDay: 10, ThreadsPerDay: 3, ReactionsPerDay: 50},
	model.TierBasic:   {PostsPerDay: 30, ThreadsPerDay: 10, ReactionsPerDay: 200},
	model.TierTrusted: {PostsPerDay: 100, ThreadsPerDay: 25, ReactionsPerDay: 1000},
	model.TierVeteran: {PostsPerDay: Unlimited, ThreadsPerDay: Unlimited, ReactionsPerDay: Unlimited},
	model.TierExpert:  {PostsPerDay: Unlimited, ThreadsPerDay: Unlimited, ReactionsPerDay: Unlimited},
}

// can_moderate is never granted by tier; only staff roles moderate.
var tierPermissions = map[model.Tier]map[string]bool{
	model.TierNew: {
		"can_create_posts":  true,
		"can_edit_posts":    false,
		"can_upload_images": false,
		"can_moderate":      false,
	},
	model.TierBasic: {
		"can_create_posts":  true,
		"can_edit_posts":    true,
		"can_upload_images": false,
		"can_moderate":      false,
	},
	model.TierTrusted: {
		"can_create_posts":  true,
		"can_edit_posts":    true,
		"can_upload_images": true,
		"can_moderate":      false,
	},
	model.TierVeteran: {
		"can_create_posts":  true,
		"can_edit_posts":    true,
		"can_upload_images": true,
		"can_moderate":      false,
	},
	model.TierExpert: {
		"can_create_posts":  true,
		"can_edit_posts":    true,
		"can_upload_images": true,
		"can_moderate":      false,
	},
}

func QuotaFor(tier model.Tier) Quota {
	if q, ok := tierQuotas[tier]; ok {
		return q
	}
	return tierQuotas[model.TierNew]
}

// PermissionsFor returns a copy so callers cannot mutate the table.
func PermissionsFor(tier model.Tier) map[string]bool {
	src, ok := tierPermissions[tier]
	if !ok {
		src = tierPermissions[model.TierNew]
	}
	perms := make(map[string]bool, len(src))
	for k, v := range src {
		perms[k] = v
	}
	return perms
}

// computeTier derives the progression tier from tenure and active post
// count, highest threshold first. Expert is handled by the caller: it is
// never produced here.
func computeTier(daysSinceJoined, activePosts int) model.Tier {
	switch {
	case daysSinceJoined >= VeteranDays && activePosts >= VeteranPosts:
		return model.TierVeteran
	case daysSinceJoined >= TrustedDays && activePosts >= TrustedPosts:
		return model.TierTrusted
	case daysSinceJoined >= BasicDays && activePosts >= BasicPosts:
		return model.TierBasic
	default:
		return model.TierNew
	}
}

// nextTier returns the progression target above t. Expert is staff-assigned
// and never offered as a target.
func nextTier(t model.Tier) (model.Tier, bool) {
	switch t {
	case model.TierNew:
		return model.TierBasic, true
	case model.TierBasic:
		return model.TierTrusted, true
	case model.TierTrusted:
		return model.TierVeteran, true
	default:
		return "", false
	}
}

// tierRequirement returns the tenure/post thresholds for reaching t.
func tierRequirement(t model.Tier) (days, posts int) {
	switch t {
	case model.TierVeteran:
		return VeteranDays, VeteranPosts
	case model.TierTrusted:
		return TrustedDays, TrustedPosts
	case model.TierBasic:
		return BasicDays, BasicPosts
	default:
		return 0, 0
	}
}
