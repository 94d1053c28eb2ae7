package trust

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"anoa.com/forumguard/internal/model"
	contentRepo "anoa.com/forumguard/internal/modules/content/repository"
	trustDto "anoa.com/forumguard/internal/modules/trust/dto"
	trustRepo "anoa.com/forumguard/internal/modules/trust/repository"
	userRepo "anoa.com/forumguard/internal/modules/user/repository"
	"anoa.com/forumguard/pkg/apperror"
	"anoa.com/forumguard/pkg/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const promoteBatchSize = 200

// Notifier receives tier changes. The notification collaborator (out of
// this core's scope) implements it; the server wires a logging fallback.
type Notifier interface {
	TierChanged(ctx context.Context, userID uuid.UUID, oldTier, newTier model.Tier)
}

type PromotionResult struct {
	OldTier model.Tier
	NewTier model.Tier
	Changed bool
}

type TrustService interface {
	ComputeTier(ctx context.Context, userID uuid.UUID) (model.Tier, error)
	GetTier(ctx context.Context, userID uuid.UUID) (model.Tier, error)
	Promote(ctx context.Context, userID uuid.UUID) (*PromotionResult, error)
	CheckQuota(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error
	CanPerform(ctx context.Context, userID uuid.UUID, permission string) (bool, error)
	GetTierInfo(ctx context.Context, userID uuid.UUID) (*trustDto.TierInfo, error)
	// RecordContentCreated bumps the profile counters for a persisted write
	// and re-evaluates the tier. The CRUD collaborator calls it at the end
	// of its write transaction.
	RecordContentCreated(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error
	RecordHelpfulReaction(ctx context.Context, authorID uuid.UUID, delta int) error
	// PromoteAll re-evaluates every active user and returns how many tiers
	// changed. Per-user failures are logged and skipped.
	PromoteAll(ctx context.Context) (int, error)
}

type trustService struct {
	repo        trustRepo.TrustRepository
	userRepo    userRepo.UserRepository
	contentRepo contentRepo.ContentRepository
	cache       *cache.Client
	cacheTTL    time.Duration
	notifier    Notifier
}

func NewTrustService(repo trustRepo.TrustRepository, users userRepo.UserRepository, content contentRepo.ContentRepository, cacheClient *cache.Client, cacheTTL time.Duration, notifier Notifier) TrustService {
	return &trustService{
		repo:        repo,
		userRepo:    users,
		contentRepo: content,
		cache:       cacheClient,
		cacheTTL:    cacheTTL,
		notifier:    notifier,
	}
}

// tierSnapshot is what gets cached per user: the tier plus its derived
// tables, so a cache hit never recomputes quota/permission lookups.
type tierSnapshot struct {
	Tier        model.Tier      `json:"tier"`
	Quota       Quota           `json:"quota"`
	Permissions map[string]bool `json:"permissions"`
}

func snapshotKey(userID uuid.UUID) string {
	return "trust:snapshot:" + userID.String()
}

func (s *trustService) ComputeTier(ctx context.Context, userID uuid.UUID) (model.Tier, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load trust profile: %w", err)
	}
	// Expert is sticky and manual-only.
	if profile != nil && profile.Tier == model.TierExpert {
		return model.TierExpert, nil
	}

	activePosts, err := s.contentRepo.CountActivePostsByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("count active posts: %w", err)
	}

	days := int(time.Since(user.CreatedAt).Hours() / 24)
	return computeTier(days, int(activePosts)), nil
}

// snapshot serves tier + derived tables from cache, recomputing on miss.
// Cache failures fall through to a fresh computation.
func (s *trustService) snapshot(ctx context.Context, userID uuid.UUID) (*tierSnapshot, error) {
	key := snapshotKey(userID)

	var snap tierSnapshot
	if s.cache.Get(ctx, key, &snap) {
		return &snap, nil
	}

	tier, err := s.ComputeTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap = tierSnapshot{
		Tier:        tier,
		Quota:       QuotaFor(tier),
		Permissions: PermissionsFor(tier),
	}
	s.cache.Set(ctx, key, &snap, s.cacheTTL)
	return &snap, nil
}

func (s *trustService) GetTier(ctx context.Context, userID uuid.UUID) (model.Tier, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return "", err
	}
	return snap.Tier, nil
}

func (s *trustService) Promote(ctx context.Context, userID uuid.UUID) (*PromotionResult, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load trust profile: %w", err)
	}

	oldTier := model.TierNew
	if profile != nil {
		oldTier = profile.Tier
	}

	newTier, err := s.ComputeTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &PromotionResult{OldTier: oldTier, NewTier: newTier, Changed: newTier != oldTier}
	if !result.Changed {
		return result, nil
	}

	if profile == nil {
		err = s.repo.CreateProfile(ctx, &model.TrustProfile{UserID: userID, Tier: newTier, LastSeenAt: time.Now().UTC()})
	} else {
		err = s.repo.UpdateTier(ctx, userID, newTier)
	}
	if err != nil {
		return nil, fmt.Errorf("persist tier: %w", err)
	}

	s.cache.Delete(ctx, snapshotKey(userID))
	if s.notifier != nil {
		s.notifier.TierChanged(ctx, userID, oldTier, newTier)
	}
	slog.Info("tier changed", "user_id", userID, "old", oldTier, "new", newTier)
	return result, nil
}

// midnightUTC is the start of the current quota day.
func midnightUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *trustService) CheckQuota(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown action kind %q", apperror.ErrInvalidInput, kind)
	}

	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		// Quota checks fail closed: no tier data, no action.
		return fmt.Errorf("%w: %v", apperror.ErrDependencyUnavailable, err)
	}

	limit := snap.Quota.Limit(kind)
	if limit == Unlimited {
		return nil
	}

	// The count is always read fresh; caching it would grant extra quota
	// under staleness.
	since := midnightUTC(time.Now())
	var count int64
	switch kind {
	case model.ActionKindThread:
		count, err = s.contentRepo.CountThreadsSince(ctx, userID, since)
	case model.ActionKindReaction:
		count, err = s.contentRepo.CountReactionsSince(ctx, userID, since)
	default:
		count, err = s.contentRepo.CountPostsSince(ctx, userID, since)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrDependencyUnavailable, err)
	}

	if count >= int64(limit) {
		return &apperror.QuotaExceededError{Tier: string(snap.Tier), Action: string(kind), Limit: limit}
	}
	return nil
}

func (s *trustService) CanPerform(ctx context.Context, userID uuid.UUID, permission string) (bool, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if user.IsStaff() {
		return true, nil
	}

	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	return snap.Permissions[permission], nil
}

func (s *trustService) GetTierInfo(ctx context.Context, userID uuid.UUID) (*trustDto.TierInfo, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	info := &trustDto.TierInfo{
		Tier:            snap.Tier,
		PostsPerDay:     snap.Quota.PostsPerDay,
		ThreadsPerDay:   snap.Quota.ThreadsPerDay,
		ReactionsPerDay: snap.Quota.ReactionsPerDay,
		Permissions:     snap.Permissions,
	}

	next, ok := nextTier(snap.Tier)
	if !ok {
		return info, nil
	}
	info.NextTier = &next

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	activePosts, err := s.contentRepo.CountActivePostsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count active posts: %w", err)
	}

	reqDays, reqPosts := tierRequirement(next)
	days := int(time.Since(user.CreatedAt).Hours() / 24)
	if remaining := reqDays - days; remaining > 0 {
		info.DaysRemaining = remaining
	}
	if remaining := reqPosts - int(activePosts); remaining > 0 {
		info.PostsRemaining = remaining
	}
	return info, nil
}

func (s *trustService) RecordContentCreated(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error {
	if kind == model.ActionKindPost || kind == model.ActionKindThread {
		if err := s.repo.IncrementActivity(ctx, userID, kind); err != nil {
			return fmt.Errorf("increment activity: %w", err)
		}
	}
	s.cache.Delete(ctx, snapshotKey(userID))

	if _, err := s.Promote(ctx, userID); err != nil {
		// The write already happened; progression catches up on the next
		// recompute or the nightly sweep.
		slog.Warn("promotion after content create failed", "user_id", userID, "err", err)
	}
	return nil
}

func (s *trustService) RecordHelpfulReaction(ctx context.Context, authorID uuid.UUID, delta int) error {
	return s.repo.IncrementHelpful(ctx, authorID, delta)
}

func (s *trustService) PromoteAll(ctx context.Context) (int, error) {
	var changed atomic.Int64
	after := uuid.Nil

	for {
		ids, err := s.userRepo.ListIDsAfter(ctx, after, promoteBatchSize)
		if err != nil {
			return int(changed.Load()), fmt.Errorf("list users: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		after = ids[len(ids)-1]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for _, id := range ids {
			g.Go(func() error {
				res, err := s.Promote(gctx, id)
				if err != nil {
					// One bad user never aborts the sweep.
					slog.Warn("bulk promote skipped user", "user_id", id, "err", err)
					return nil
				}
				if res.Changed {
					changed.Add(1)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return int(changed.Load()), err
		}

		if len(ids) < promoteBatchSize {
			break
		}
	}

	slog.Info("bulk tier re-evaluation finished", "changed", changed.Load())
	return int(changed.Load()), nil
}
