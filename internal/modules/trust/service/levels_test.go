package trust

import (
	"testing"

	"anoa.com/forumguard/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestComputeTier(t *testing.T) {
	cases := []struct {
		name  string
		days  int
		posts int
		want  model.Tier
	}{
		{"fresh account", 0, 0, model.TierNew},
		{"active but too young", 6, 500, model.TierNew},
		{"old but inactive", 365, 4, model.TierNew},
		{"basic boundary exact", 7, 5, model.TierBasic},
		{"basic one post short", 7, 4, model.TierNew},
		{"trusted boundary exact", 30, 25, model.TierTrusted},
		{"trusted one day short", 29, 25, model.TierBasic},
		{"veteran boundary exact", 90, 100, model.TierVeteran},
		{"veteran one post short falls to trusted", 90, 99, model.TierTrusted},
		{"veteran one day short falls to trusted", 89, 100, model.TierTrusted},
		{"well past veteran", 400, 5000, model.TierVeteran},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, computeTier(tc.days, tc.posts))
		})
	}
}

func TestQuotaFor(t *testing.T) {
	assert.Equal(t, Quota{PostsPerDay: 10, ThreadsPerDay: 3, ReactionsPerDay: 50}, QuotaFor(model.TierNew))
	assert.Equal(t, Quota{PostsPerDay: 30, ThreadsPerDay: 10, ReactionsPerDay: 200}, QuotaFor(model.TierBasic))
	assert.Equal(t, Quota{PostsPerDay: 100, ThreadsPerDay: 25, ReactionsPerDay: 1000}, QuotaFor(model.TierTrusted))

	for _, tier := range []model.Tier{model.TierVeteran, model.TierExpert} {
		q := QuotaFor(tier)
		assert.Equal(t, Unlimited, q.PostsPerDay)
		assert.Equal(t, Unlimited, q.ThreadsPerDay)
		assert.Equal(t, Unlimited, q.ReactionsPerDay)
	}

	// Unknown tiers fall back to the most restrictive quota.
	assert.Equal(t, QuotaFor(model.TierNew), QuotaFor(model.Tier("bogus")))
}

func TestQuotaLimitByKind(t *testing.T) {
	q := QuotaFor(model.TierNew)
	assert.Equal(t, 10, q.Limit(model.ActionKindPost))
	assert.Equal(t, 3, q.Limit(model.ActionKindThread))
	assert.Equal(t, 50, q.Limit(model.ActionKindReaction))
}

func TestPermissionsFor(t *testing.T) {
	for _, tier := range []model.Tier{model.TierNew, model.TierBasic, model.TierTrusted, model.TierVeteran, model.TierExpert} {
		perms := PermissionsFor(tier)
		assert.True(t, perms["can_create_posts"], "tier %s", tier)
		assert.False(t, perms["can_moderate"], "can_moderate is never tier-granted")
	}

	assert.False(t, PermissionsFor(model.TierNew)["can_edit_posts"])
	assert.True(t, PermissionsFor(model.TierBasic)["can_edit_posts"])
	assert.False(t, PermissionsFor(model.TierBasic)["can_upload_images"])
	assert.True(t, PermissionsFor(model.TierTrusted)["can_upload_images"])
}

func TestPermissionsForReturnsCopy(t *testing.T) {
	perms := PermissionsFor(model.TierNew)
	perms["can_moderate"] = true
	assert.False(t, PermissionsFor(model.TierNew)["can_moderate"])
}

func TestNextTier(t *testing.T) {
	next, ok := nextTier(model.TierNew)
	assert.True(t, ok)
	assert.Equal(t, model.TierBasic, next)

	next, ok = nextTier(model.TierTrusted)
	assert.True(t, ok)
	assert.Equal(t, model.TierVeteran, next)

	// Veteran is the progression ceiling; expert is only assigned by staff.
	_, ok = nextTier(model.TierVeteran)
	assert.False(t, ok)
	_, ok = nextTier(model.TierExpert)
	assert.False(t, ok)
}
