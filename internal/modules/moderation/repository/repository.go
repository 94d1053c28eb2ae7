package repository

import (
	"context"
	"fmt"
	"time"

	"anoa.com/forumguard/internal/model"
	"anoa.com/forumguard/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResolveParams struct {
	FlagID      uuid.UUID
	ModeratorID uuid.UUID
	Action      model.ActionType
	Reason      string
	Notes       string
}

type ModerationRepository interface {
	CreateFlag(ctx context.Context, flag *model.Flag) error
	FindFlagByID(ctx context.Context, id uuid.UUID) (*model.Flag, error)
	HasPendingFlag(ctx context.Context, reporterID *uuid.UUID, contentType string, contentID uuid.UUID) (bool, error)
	PendingQueue(ctx context.Context, page, pageSize int) ([]model.Flag, int64, error)
	// Resolve runs the whole state transition in one transaction: lock the
	// flag, apply the content side effect, write the audit row.
	Resolve(ctx context.Context, p ResolveParams) (*model.Flag, *model.ModerationAction, error)

	CountFlagsByStatus(ctx context.Context) (map[model.FlagStatus]int64, error)
	CountFlagsSince(ctx context.Context, since time.Time) (int64, error)
	CountActions(ctx context.Context) (int64, error)
	CountActionsSince(ctx context.Context, since time.Time) (int64, error)
	CountPendingByReason(ctx context.Context) (map[string]int64, error)
	OldestPendingAt(ctx context.Context) (*time.Time, error)
	RecentActions(ctx context.Context, limit int) ([]model.ModerationAction, error)

	FlagsAgainstUser(ctx context.Context, userID uuid.UUID) ([]model.Flag, error)
	ActionsAgainstUser(ctx context.Context, userID uuid.UUID) ([]model.ModerationAction, error)
}

type moderationRepository struct {
	db *gorm.DB
}

func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) CreateFlag(ctx context.Context, flag *model.Flag) error {
	return r.db.WithContext(ctx).Create(flag).Error
}

func (r *moderationRepository) FindFlagByID(ctx context.Context, id uuid.UUID) (*model.Flag, error) {
	var flag model.Flag
	if err := r.db.WithContext(ctx).First(&flag, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &flag, nil
}

func (r *moderationRepository) HasPendingFlag(ctx context.Context, reporterID *uuid.UUID, contentType string, contentID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Flag{}).
		Where("content_type = ? AND status = ?", contentType, model.FlagPending)
	if contentType == model.ContentTypeThread {
		q = q.Where("thread_id = ?", contentID)
	} else {
		q = q.Where("post_id = ?", contentID)
	}
	if reporterID != nil {
		q = q.Where("reporter_id = ?", *reporterID)
	} else {
		q = q.Where("reporter_id IS NULL")
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *moderationRepository) PendingQueue(ctx context.Context, page, pageSize int) ([]model.Flag, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&model.Flag{}).Where("status = ?", model.FlagPending)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var flags []model.Flag
	err := r.db.WithContext(ctx).
		Where("status = ?", model.FlagPending).
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&flags).Error
	return flags, total, err
}

// statusForAction maps the moderator action onto the flag's terminal state.
// Removals mark the flag removed; rejecting marks it rejected; everything
// else upholds the report as approved.
func statusForAction(action model.ActionType) model.FlagStatus {
	switch action {
	case model.ActionReject:
		return model.FlagRejected
	case model.ActionRemovePost, model.ActionRemoveThread:
		return model.FlagRemoved
	default:
		return model.FlagApproved
	}
}

func (r *moderationRepository) Resolve(ctx context.Context, p ResolveParams) (*model.Flag, *model.ModerationAction, error) {
	var flag model.Flag
	var action model.ModerationAction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&flag, "id = ?", p.FlagID).Error; err != nil {
			return err
		}
		if flag.Status != model.FlagPending {
			return &apperror.InvalidFlagStateError{Status: string(flag.Status)}
		}

		targetUserID, err := applySideEffect(tx, &flag, p.Action)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		flag.Status = statusForAction(p.Action)
		flag.ReviewerID = &p.ModeratorID
		flag.ReviewedAt = &now
		flag.ModNotes = p.Notes
		if err := tx.Model(&model.Flag{}).Where("id = ?", flag.ID).
			Updates(map[string]any{
				"status":      flag.Status,
				"reviewer_id": p.ModeratorID,
				"reviewed_at": now,
				"mod_notes":   p.Notes,
			}).Error; err != nil {
			return err
		}

		action = model.ModerationAction{
			FlagID:       flag.ID,
			ModeratorID:  p.ModeratorID,
			ActionType:   p.Action,
			Reason:       p.Reason,
			TargetUserID: targetUserID,
		}
		return tx.Create(&action).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &flag, &action, nil
}

// applySideEffect mutates content per the action and returns the content
// author for the audit row. A flag whose target pointers do not match its
// discriminator is an invariant violation, never silently skipped.
func applySideEffect(tx *gorm.DB, flag *model.Flag, action model.ActionType) (*uuid.UUID, error) {
	var authorID *uuid.UUID

	switch flag.ContentType {
	case model.ContentTypePost:
		if flag.PostID == nil {
			return nil, fmt.Errorf("%w: post flag %s has no post id", apperror.ErrDataInconsistency, flag.ID)
		}
		var post model.Post
		if err := tx.First(&post, "id = ?", *flag.PostID).Error; err != nil {
			return nil, fmt.Errorf("%w: flag %s references missing post: %v", apperror.ErrDataInconsistency, flag.ID, err)
		}
		authorID = &post.UserID

		switch action {
		case model.ActionRemovePost:
			if err := tx.Model(&model.Post{}).Where("id = ?", post.ID).
				Update("is_active", false).Error; err != nil {
				return nil, err
			}
		case model.ActionRemoveThread:
			return nil, fmt.Errorf("%w: remove_thread on a post flag", apperror.ErrInvalidInput)
		case model.ActionLockThread:
			// Locking resolves against the thread owning the flagged post.
			if err := tx.Model(&model.Thread{}).Where("id = ?", post.ThreadID).
				Update("is_locked", true).Error; err != nil {
				return nil, err
			}
		}

	case model.ContentTypeThread:
		if flag.ThreadID == nil {
			return nil, fmt.Errorf("%w: thread flag %s has no thread id", apperror.ErrDataInconsistency, flag.ID)
		}
		var thread model.Thread
		if err := tx.First(&thread, "id = ?", *flag.ThreadID).Error; err != nil {
			return nil, fmt.Errorf("%w: flag %s references missing thread: %v", apperror.ErrDataInconsistency, flag.ID, err)
		}
		authorID = &thread.UserID

		switch action {
		case model.ActionRemoveThread:
			if err := tx.Model(&model.Thread{}).Where("id = ?", thread.ID).
				Update("is_active", false).Error; err != nil {
				return nil, err
			}
		case model.ActionRemovePost:
			return nil, fmt.Errorf("%w: remove_post on a thread flag", apperror.ErrInvalidInput)
		case model.ActionLockThread:
			if err := tx.Model(&model.Thread{}).Where("id = ?", thread.ID).
				Update("is_locked", true).Error; err != nil {
				return nil, err
			}
		}

	default:
		return nil, fmt.Errorf("%w: flag %s has content type %q", apperror.ErrDataInconsistency, flag.ID, flag.ContentType)
	}

	return authorID, nil
}

func (r *moderationRepository) CountFlagsByStatus(ctx context.Context) (map[model.FlagStatus]int64, error) {
	type row struct {
		Status model.FlagStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Flag{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.FlagStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (r *moderationRepository) CountFlagsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Flag{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *moderationRepository) CountActions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ModerationAction{}).Count(&count).Error
	return count, err
}

func (r *moderationRepository) CountActionsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ModerationAction{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *moderationRepository) CountPendingByReason(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Reason string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Flag{}).
		Select("reason, count(*) as count").
		Where("status = ?", model.FlagPending).
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Reason] = r.Count
	}
	return counts, nil
}

func (r *moderationRepository) OldestPendingAt(ctx context.Context) (*time.Time, error) {
	var flags []model.Flag
	err := r.db.WithContext(ctx).
		Where("status = ?", model.FlagPending).
		Order("created_at ASC").
		Limit(1).
		Find(&flags).Error
	if err != nil {
		return nil, err
	}
	if len(flags) == 0 {
		return nil, nil
	}
	return &flags[0].CreatedAt, nil
}

func (r *moderationRepository) RecentActions(ctx context.Context, limit int) ([]model.ModerationAction, error) {
	var actions []model.ModerationAction
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&actions).Error
	return actions, err
}

func (r *moderationRepository) FlagsAgainstUser(ctx context.Context, userID uuid.UUID) ([]model.Flag, error) {
	var flags []model.Flag
	err := r.db.WithContext(ctx).
		Where(
			"(content_type = ? AND post_id IN (?)) OR (content_type = ? AND thread_id IN (?))",
			model.ContentTypePost,
			r.db.Model(&model.Post{}).Select("id").Where("user_id = ?", userID),
			model.ContentTypeThread,
			r.db.Model(&model.Thread{}).Select("id").Where("user_id = ?", userID),
		).
		Order("created_at DESC").
		Find(&flags).Error
	return flags, err
}

func (r *moderationRepository) ActionsAgainstUser(ctx context.Context, userID uuid.UUID) ([]model.ModerationAction, error) {
	var actions []model.ModerationAction
	err := r.db.WithContext(ctx).
		Where("target_user_id = ?", userID).
		Order("created_at DESC").
		Find(&actions).Error
	return actions, err
}
