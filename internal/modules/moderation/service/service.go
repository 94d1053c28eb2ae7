package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"anoa.com/forumguard/internal/model"
	contentRepo "anoa.com/forumguard/internal/modules/content/repository"
	moderationDto "anoa.com/forumguard/internal/modules/moderation/dto"
	moderationRepo "anoa.com/forumguard/internal/modules/moderation/repository"
	"anoa.com/forumguard/pkg/apperror"
	"anoa.com/forumguard/pkg/cache"
	"github.com/google/uuid"
)

const (
	statsCacheKey     = "moderation:stats"
	dashboardCacheKey = "moderation:dashboard"

	recentActionsLimit = 10
)

type ModerationService interface {
	SubmitFlag(ctx context.Context, reporterID uuid.UUID, req moderationDto.SubmitFlagRequest) (*model.Flag, error)
	// SubmitAutoFlag enters the same pending queue as user reports; only the
	// reason distinguishes it. Reporter is nil.
	SubmitAutoFlag(ctx context.Context, contentType string, contentID uuid.UUID, score int, reasons []string) (*model.Flag, error)
	Resolve(ctx context.Context, flagID, moderatorID uuid.UUID, req moderationDto.ResolveRequest) (*model.Flag, error)
	Queue(ctx context.Context, filter moderationDto.QueueFilter) (*moderationDto.QueueResponse, error)
	SearchQueue(ctx context.Context, query string, limit int64) ([]FlagDocument, error)
	Stats(ctx context.Context) (*moderationDto.Stats, error)
	Dashboard(ctx context.Context) (*moderationDto.Dashboard, error)
	UserHistory(ctx context.Context, userID uuid.UUID) (*moderationDto.UserHistory, error)
}

type moderationService struct {
	repo        moderationRepo.ModerationRepository
	contentRepo contentRepo.ContentRepository
	cache       *cache.Client
	cacheTTL    time.Duration
	indexer     FlagIndexer
}

func NewModerationService(repo moderationRepo.ModerationRepository, content contentRepo.ContentRepository, cacheClient *cache.Client, cacheTTL time.Duration, indexer FlagIndexer) ModerationService {
	return &moderationService{
		repo:        repo,
		contentRepo: content,
		cache:       cacheClient,
		cacheTTL:    cacheTTL,
		indexer:     indexer,
	}
}

// buildTarget resolves the discriminated target. User reports require the
// content to still be active; auto flags also cover content the gate just
// quarantined in a deactivated state.
func (s *moderationService) buildTarget(ctx context.Context, contentType string, contentID uuid.UUID, allowInactive bool) (*model.Flag, error) {
	flag := &model.Flag{ContentType: contentType, Status: model.FlagPending}

	switch contentType {
	case model.ContentTypePost:
		post, err := s.contentRepo.FindPostByID(ctx, contentID)
		if err != nil || (!post.IsActive && !allowInactive) {
			return nil, fmt.Errorf("%w: post not found", apperror.ErrNotFound)
		}
		id := post.ID
		flag.PostID = &id
	case model.ContentTypeThread:
		thread, err := s.contentRepo.FindThreadByID(ctx, contentID)
		if err != nil || (!thread.IsActive && !allowInactive) {
			return nil, fmt.Errorf("%w: thread not found", apperror.ErrNotFound)
		}
		id := thread.ID
		flag.ThreadID = &id
	default:
		return nil, fmt.Errorf("%w: invalid content type %q", apperror.ErrInvalidInput, contentType)
	}
	return flag, nil
}

func (s *moderationService) SubmitFlag(ctx context.Context, reporterID uuid.UUID, req moderationDto.SubmitFlagRequest) (*model.Flag, error) {
	if !req.Reason.Valid() {
		return nil, fmt.Errorf("%w: invalid flag reason %q", apperror.ErrInvalidInput, req.Reason)
	}

	flag, err := s.buildTarget(ctx, req.ContentType, req.ContentID, false)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.HasPendingFlag(ctx, &reporterID, req.ContentType, req.ContentID)
	if err != nil {
		return nil, fmt.Errorf("check pending flag: %w", err)
	}
	if exists {
		return nil, apperror.ErrDuplicateFlag
	}

	flag.ReporterID = &reporterID
	flag.Reason = req.Reason
	flag.Explanation = req.Explanation

	if err := s.repo.CreateFlag(ctx, flag); err != nil {
		return nil, fmt.Errorf("create flag: %w", err)
	}

	s.afterFlagWrite(ctx, flag)
	return flag, nil
}

func (s *moderationService) SubmitAutoFlag(ctx context.Context, contentType string, contentID uuid.UUID, score int, reasons []string) (*model.Flag, error) {
	flag, err := s.buildTarget(ctx, contentType, contentID, true)
	if err != nil {
		return nil, err
	}

	// One pending auto flag per content is enough; retries collapse.
	exists, err := s.repo.HasPendingFlag(ctx, nil, contentType, contentID)
	if err != nil {
		return nil, fmt.Errorf("check pending flag: %w", err)
	}
	if exists {
		return nil, apperror.ErrDuplicateFlag
	}

	flag.Reason = model.FlagReasonAutoSpam
	flag.Explanation = fmt.Sprintf("automatic spam detection: score %d (%s)", score, strings.Join(reasons, ", "))

	if err := s.repo.CreateFlag(ctx, flag); err != nil {
		return nil, fmt.Errorf("create auto flag: %w", err)
	}

	s.afterFlagWrite(ctx, flag)
	return flag, nil
}

func (s *moderationService) afterFlagWrite(ctx context.Context, flag *model.Flag) {
	s.cache.Delete(ctx, statsCacheKey, dashboardCacheKey)
	if err := s.indexer.IndexFlag(flag); err != nil {
		slog.Warn("flag indexing failed", "flag_id", flag.ID, "err", err)
	}
}

func (s *moderationService) Resolve(ctx context.Context, flagID, moderatorID uuid.UUID, req moderationDto.ResolveRequest) (*model.Flag, error) {
	if !req.Action.Valid() {
		return nil, fmt.Errorf("%w: invalid action %q", apperror.ErrInvalidInput, req.Action)
	}

	flag, action, err := s.repo.Resolve(ctx, moderationRepo.ResolveParams{
		FlagID:      flagID,
		ModeratorID: moderatorID,
		Action:      req.Action,
		Reason:      req.Reason,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}

	s.afterFlagWrite(ctx, flag)
	slog.Info("flag resolved",
		"flag_id", flag.ID,
		"moderator_id", moderatorID,
		"action", action.ActionType,
		"status", flag.Status)
	return flag, nil
}

func (s *moderationService) Queue(ctx context.Context, filter moderationDto.QueueFilter) (*moderationDto.QueueResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	flags, total, err := s.repo.PendingQueue(ctx, filter.Page, filter.PageSize)
	if err != nil {
		return nil, fmt.Errorf("load pending queue: %w", err)
	}
	return &moderationDto.QueueResponse{
		Flags:    flags,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *moderationService) SearchQueue(ctx context.Context, query string, limit int64) ([]FlagDocument, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.indexer.Search(query, limit)
}

func (s *moderationService) Stats(ctx context.Context) (*moderationDto.Stats, error) {
	var cached moderationDto.Stats
	if s.cache.Get(ctx, statsCacheKey, &cached) {
		return &cached, nil
	}

	byStatus, err := s.repo.CountFlagsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count flags: %w", err)
	}

	since := midnightUTC(time.Now())
	today, err := s.repo.CountFlagsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count flags today: %w", err)
	}
	actions, err := s.repo.CountActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count actions: %w", err)
	}

	stats := &moderationDto.Stats{
		Pending:      byStatus[model.FlagPending],
		Approved:     byStatus[model.FlagApproved],
		Rejected:     byStatus[model.FlagRejected],
		Removed:      byStatus[model.FlagRemoved],
		FlagsToday:   today,
		TotalActions: actions,
	}
	stats.TotalFlags = stats.Pending + stats.Approved + stats.Rejected + stats.Removed

	// Approval rate is approved over everything reviewed, rejections
	// included: it measures report validity, not moderator throughput.
	reviewed := stats.Approved + stats.Rejected + stats.Removed
	if reviewed > 0 {
		stats.ApprovalRate = float64(stats.Approved) / float64(reviewed)
	}

	s.cache.Set(ctx, statsCacheKey, stats, s.cacheTTL)
	return stats, nil
}

func (s *moderationService) Dashboard(ctx context.Context) (*moderationDto.Dashboard, error) {
	var cached moderationDto.Dashboard
	if s.cache.Get(ctx, dashboardCacheKey, &cached) {
		return &cached, nil
	}

	byStatus, err := s.repo.CountFlagsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count flags: %w", err)
	}
	oldest, err := s.repo.OldestPendingAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("oldest pending: %w", err)
	}
	byReason, err := s.repo.CountPendingByReason(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending by reason: %w", err)
	}
	resolvedToday, err := s.repo.CountActionsSince(ctx, midnightUTC(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("actions today: %w", err)
	}
	recent, err := s.repo.RecentActions(ctx, recentActionsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent actions: %w", err)
	}

	summaries := make([]moderationDto.ActionSummary, 0, len(recent))
	for _, a := range recent {
		summaries = append(summaries, moderationDto.ActionSummary{
			ID:          a.ID,
			FlagID:      a.FlagID,
			ModeratorID: a.ModeratorID,
			ActionType:  a.ActionType,
			CreatedAt:   a.CreatedAt,
		})
	}

	dashboard := &moderationDto.Dashboard{
		PendingCount:    byStatus[model.FlagPending],
		OldestPendingAt: oldest,
		ResolvedToday:   resolvedToday,
		FlagsByReason:   byReason,
		RecentActions:   summaries,
	}

	s.cache.Set(ctx, dashboardCacheKey, dashboard, s.cacheTTL)
	return dashboard, nil
}

func (s *moderationService) UserHistory(ctx context.Context, userID uuid.UUID) (*moderationDto.UserHistory, error) {
	flags, err := s.repo.FlagsAgainstUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("flags against user: %w", err)
	}
	actions, err := s.repo.ActionsAgainstUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("actions against user: %w", err)
	}
	return &moderationDto.UserHistory{
		UserID:         userID,
		FlagsAgainst:   flags,
		ActionsAgainst: actions,
	}, nil
}

func midnightUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
