package repository

import (
	"context"
	"time"

	"anoa.com/forumguard/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentItem is the slim projection the spam scorer reads for duplicate
// and rapid-post checks.
type ContentItem struct {
	ID        uuid.UUID
	Content   string
	CreatedAt time.Time
}

type ContentRepository interface {
	FindPostByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	FindThreadByID(ctx context.Context, id uuid.UUID) (*model.Thread, error)

	CreateThread(ctx context.Context, thread *model.Thread) error
	CreatePost(ctx context.Context, post *model.Post) error

	// Active-only counts. Every query here filters on is_active so deleted
	// content never feeds quotas or trust progression.
	CountActivePostsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountPostsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	CountThreadsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
	CountReactionsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)

	RecentContentByUser(ctx context.Context, userID uuid.UUID, kind model.ActionKind, since time.Time) ([]ContentItem, error)
	LastContentAt(ctx context.Context, userID uuid.UUID, kind model.ActionKind) (*time.Time, error)
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) FindPostByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *contentRepository) FindThreadByID(ctx context.Context, id uuid.UUID) (*model.Thread, error) {
	var thread model.Thread
	if err := r.db.WithContext(ctx).First(&thread, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *contentRepository) CreateThread(ctx context.Context, thread *model.Thread) error {
	thread.LastActivityAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(thread).Error
}

// CreatePost writes the post and bumps the owning thread's aggregates in the
// same transaction. The counters are incremented in place, not read back and
// rewritten, so concurrent replies never lose updates.
func (r *contentRepository) CreatePost(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return tx.Model(&model.Thread{}).
			Where("id = ?", post.ThreadID).
			Updates(map[string]any{
				"post_count":       gorm.Expr("post_count + 1"),
				"last_activity_at": time.Now().UTC(),
			}).Error
	})
}

func (r *contentRepository) CountActivePostsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *contentRepository) CountPostsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("user_id = ? AND is_active = ? AND created_at >= ?", userID, true, since).
		Count(&count).Error
	return count, err
}

func (r *contentRepository) CountThreadsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Thread{}).
		Where("user_id = ? AND is_active = ? AND created_at >= ?", userID, true, since).
		Count(&count).Error
	return count, err
}

func (r *contentRepository) CountReactionsSince(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).
		Where("user_id = ? AND is_active = ? AND created_at >= ?", userID, true, since).
		Count(&count).Error
	return count, err
}

func (r *contentRepository) RecentContentByUser(ctx context.Context, userID uuid.UUID, kind model.ActionKind, since time.Time) ([]ContentItem, error) {
	var items []ContentItem
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND created_at >= ?", userID, true, since).
		Order("created_at DESC")

	var err error
	if kind == model.ActionKindThread {
		err = q.Model(&model.Thread{}).Select("id", "content", "created_at").Find(&items).Error
	} else {
		err = q.Model(&model.Post{}).Select("id", "content", "created_at").Find(&items).Error
	}
	return items, err
}

func (r *contentRepository) LastContentAt(ctx context.Context, userID uuid.UUID, kind model.ActionKind) (*time.Time, error) {
	var items []ContentItem
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Limit(1)

	var err error
	if kind == model.ActionKindThread {
		err = q.Model(&model.Thread{}).Select("id", "created_at").Find(&items).Error
	} else {
		err = q.Model(&model.Post{}).Select("id", "created_at").Find(&items).Error
	}
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0].CreatedAt, nil
}
