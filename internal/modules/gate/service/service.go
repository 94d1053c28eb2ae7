package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"anoa.com/forumguard/internal/model"
	moderation "anoa.com/forumguard/internal/modules/moderation/service"
	spam "anoa.com/forumguard/internal/modules/spam/service"
	trust "anoa.com/forumguard/internal/modules/trust/service"
	"anoa.com/forumguard/pkg/apperror"
	"github.com/google/uuid"
)

// GateService is the single entry point the CRUD layer calls before
// persisting a write: permission, then quota, then spam score. Checks are
// synchronous; nothing is fired and forgotten.
type GateService interface {
	// CheckWrite returns nil when the write may proceed. Quota breaches and
	// spam rejections come back as their typed errors.
	CheckWrite(ctx context.Context, userID uuid.UUID, text string, kind model.ActionKind) error
	// QuarantineContent files the auto flag for content the CRUD layer
	// persisted in a deactivated state after a spam rejection.
	QuarantineContent(ctx context.Context, contentType string, contentID uuid.UUID, rejection *apperror.SpamRejectedError) (*model.Flag, error)
	// RecordWrite is called after the gated write committed, so trust
	// counters and caches move in step with content creation.
	RecordWrite(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error
}

type gateService struct {
	trust      trust.TrustService
	spam       spam.SpamService
	moderation moderation.ModerationService
}

func NewGateService(trustSvc trust.TrustService, spamSvc spam.SpamService, moderationSvc moderation.ModerationService) GateService {
	return &gateService{trust: trustSvc, spam: spamSvc, moderation: moderationSvc}
}

func (s *gateService) CheckWrite(ctx context.Context, userID uuid.UUID, text string, kind model.ActionKind) error {
	allowed, err := s.trust.CanPerform(ctx, userID, "can_create_posts")
	if err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrDependencyUnavailable, err)
	}
	if !allowed {
		return apperror.ErrForbidden
	}

	if err := s.trust.CheckQuota(ctx, userID, kind); err != nil {
		return err
	}

	// Reactions carry no text; quota is the whole gate.
	if kind == model.ActionKindReaction {
		return nil
	}

	result, err := s.spam.Score(ctx, userID, text, kind)
	if err != nil {
		return fmt.Errorf("spam score: %w", err)
	}
	if result.IsSpam {
		return &apperror.SpamRejectedError{Score: result.TotalScore, Reasons: result.Reasons}
	}
	return nil
}

func (s *gateService) QuarantineContent(ctx context.Context, contentType string, contentID uuid.UUID, rejection *apperror.SpamRejectedError) (*model.Flag, error) {
	flag, err := s.moderation.SubmitAutoFlag(ctx, contentType, contentID, rejection.Score, rejection.Reasons)
	if err != nil {
		if errors.Is(err, apperror.ErrDuplicateFlag) {
			return nil, err
		}
		return nil, fmt.Errorf("submit auto flag: %w", err)
	}
	slog.Info("content quarantined",
		"content_type", contentType,
		"content_id", contentID,
		"score", rejection.Score,
		"reasons", rejection.Reasons)
	return flag, nil
}

func (s *gateService) RecordWrite(ctx context.Context, userID uuid.UUID, kind model.ActionKind) error {
	return s.trust.RecordContentCreated(ctx, userID, kind)
}
