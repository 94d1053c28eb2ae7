package reaction

import (
	"context"
	"fmt"
	"log/slog"

	"anoa.com/forumguard/internal/model"
	contentRepo "anoa.com/forumguard/internal/modules/content/repository"
	reactionDto "anoa.com/forumguard/internal/modules/reaction/dto"
	reactionRepo "anoa.com/forumguard/internal/modules/reaction/repository"
	trust "anoa.com/forumguard/internal/modules/trust/service"
	"anoa.com/forumguard/pkg/apperror"
	"github.com/google/uuid"
)

type ReactionService interface {
	Toggle(ctx context.Context, userID uuid.UUID, req reactionDto.ToggleRequest) (*reactionDto.ToggleResponse, error)
}

type reactionService struct {
	repo        reactionRepo.ReactionRepository
	contentRepo contentRepo.ContentRepository
	trust       trust.TrustService
}

func NewReactionService(repo reactionRepo.ReactionRepository, content contentRepo.ContentRepository, trustSvc trust.TrustService) ReactionService {
	return &reactionService{repo: repo, contentRepo: content, trust: trustSvc}
}

func (s *reactionService) Toggle(ctx context.Context, userID uuid.UUID, req reactionDto.ToggleRequest) (*reactionDto.ToggleResponse, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown reaction kind %q", apperror.ErrInvalidInput, req.Kind)
	}

	post, err := s.contentRepo.FindPostByID(ctx, req.PostID)
	if err != nil {
		return nil, fmt.Errorf("%w: post not found", apperror.ErrNotFound)
	}
	if !post.IsActive {
		return nil, fmt.Errorf("%w: post not found", apperror.ErrNotFound)
	}

	if err := s.trust.CheckQuota(ctx, userID, model.ActionKindReaction); err != nil {
		return nil, err
	}

	result, err := s.repo.Toggle(ctx, req.PostID, userID, req.Kind)
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}

	// Helpful reactions feed the author's trust profile. The counter moves
	// with the toggle in both directions.
	if req.Kind == model.ReactionHelpful && post.UserID != userID {
		delta := 1
		if !result.Active {
			delta = -1
		}
		if err := s.trust.RecordHelpfulReaction(ctx, post.UserID, delta); err != nil {
			slog.Warn("helpful counter update failed", "author_id", post.UserID, "err", err)
		}
	}

	return &reactionDto.ToggleResponse{Active: result.Active, Created: result.Created}, nil
}
