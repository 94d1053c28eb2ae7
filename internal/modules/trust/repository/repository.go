package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/forumguard/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrustRepository interface {
	// GetProfile returns (nil, nil) when the user has no profile yet; the
	// service treats that as tier new.
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.TrustProfile, error)
	CreateProfile(ctx context.Context, profile *model.TrustProfile) error
	UpdateTier(ctx context.Context, userID uuid.UUID, tier model.Tier) error
	IncrementActivity(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error
	IncrementHelpful(ctx context.Context, userID uuid.UUID, delta int) error
}

type trustRepository struct {
	db *gorm.DB
}

func NewTrustRepository(db *gorm.DB) TrustRepository {
	return &trustRepository{db: db}
}

func (r *trustRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*model.TrustProfile, error) {
	var profiles []model.TrustProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	return &profiles[0], nil
}

func (r *trustRepository) CreateProfile(ctx context.Context, profile *model.TrustProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *trustRepository) UpdateTier(ctx context.Context, userID uuid.UUID, tier model.Tier) error {
	return r.db.WithContext(ctx).Model(&model.TrustProfile{}).
		Where("user_id = ?", userID).
		Update("tier", tier).Error
}

func (r *trustRepository) IncrementActivity(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error {
	column := "post_count"
	if kind == model.ActionKindThread {
		column = "thread_count"
	}
	now := time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&model.TrustProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			column:         gorm.Expr(column+" + ?", 1),
			"last_seen_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	profile := &model.TrustProfile{UserID: userID, Tier: model.TierNew, LastSeenAt: now}
	if kind == model.ActionKindThread {
		profile.ThreadCount = 1
	} else {
		profile.PostCount = 1
	}
	err := r.db.WithContext(ctx).Create(profile).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the create race; the row exists now.
		return r.IncrementActivity(ctx, userID, kind)
	}
	return err
}

func (r *trustRepository) IncrementHelpful(ctx context.Context, userID uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&model.TrustProfile{}).
		Where("user_id = ?", userID).
		Update("helpful_reaction_count", gorm.Expr("helpful_reaction_count + ?", delta)).Error
}
