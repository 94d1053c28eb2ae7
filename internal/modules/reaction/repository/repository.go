package repository

import (
	"context"
	"errors"
	"strings"

	"anoa.com/forumguard/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ToggleResult reports the state after a toggle. Created is true only when
// the underlying row was inserted for the first time.
type ToggleResult struct {
	Active  bool
	Created bool
}

type ReactionRepository interface {
	Toggle(ctx context.Context, postID, userID uuid.UUID, kind model.ReactionKind) (*ToggleResult, error)
	Get(ctx context.Context, postID, userID uuid.UUID, kind model.ReactionKind) (*model.Reaction, error)
	CountActiveByPost(ctx context.Context, postID uuid.UUID, kind model.ReactionKind) (int64, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Toggle serializes on the (post,user,kind) tuple with a row-level exclusive
// lock before the read-modify-write. Two callers racing on an absent row can
// still both reach the insert; the loser's unique violation is retried as a
// plain flip. Different tuples never contend.
func (r *reactionRepository) Toggle(ctx context.Context, postID, userID uuid.UUID, kind model.ReactionKind) (*ToggleResult, error) {
	var result ToggleResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped, err := flipExisting(tx, postID, userID, kind)
		if err != nil {
			return err
		}
		if flipped != nil {
			result = *flipped
			return nil
		}

		reaction := &model.Reaction{
			PostID:   postID,
			UserID:   userID,
			Kind:     kind,
			IsActive: true,
		}
		if err := tx.Create(reaction).Error; err != nil {
			if !isDuplicateKey(err) {
				return err
			}
			// Lost the insert race: the winner's row is there now, so this
			// call degrades to a flip instead of erroring.
			flipped, err = flipExisting(tx, postID, userID, kind)
			if err != nil {
				return err
			}
			if flipped == nil {
				return gorm.ErrRecordNotFound
			}
			result = *flipped
			return nil
		}
		result = ToggleResult{Active: true, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// flipExisting locks the tuple's row and inverts is_active. Returns nil when
// no row exists yet.
func flipExisting(tx *gorm.DB, postID, userID uuid.UUID, kind model.ReactionKind) (*ToggleResult, error) {
	var existing []model.Reaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, kind).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}

	record := existing[0]
	newState := !record.IsActive
	if err := tx.Model(&record).Update("is_active", newState).Error; err != nil {
		return nil, err
	}
	return &ToggleResult{Active: newState}, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite's driver does not go through gorm's error translation
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

func (r *reactionRepository) Get(ctx context.Context, postID, userID uuid.UUID, kind model.ReactionKind) (*model.Reaction, error) {
	var reactions []model.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, kind).
		Limit(1).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	if len(reactions) == 0 {
		return nil, nil
	}
	return &reactions[0], nil
}

func (r *reactionRepository) CountActiveByPost(ctx context.Context, postID uuid.UUID, kind model.ReactionKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).
		Where("post_id = ? AND kind = ? AND is_active = ?", postID, kind, true).
		Count(&count).Error
	return count, err
}
