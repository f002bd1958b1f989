package moderation

import (
	"context"

	apperrors "github.com/civicvoice/civicvoice_api/internal/errors"
	"github.com/civicvoice/civicvoice_api/internal/metrics"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/internal/store"
	"github.com/civicvoice/civicvoice_api/util/values"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AddReply appends a reply to the review's thread. Replies are immutable once
// written. Rejected reviews accept no replies.
func (s *Service) AddReply(ctx context.Context, reviewID, authorID uuid.UUID, authorRole, content string) (model.Reply, error) {
	if content == "" {
		return model.Reply{}, apperrors.Validation("reply content must not be empty")
	}

	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return model.Reply{}, err
	}
	if review.Status == model.ReviewRejected {
		return model.Reply{}, apperrors.InvalidState("no replies permitted on rejected reviews")
	}

	reply := model.Reply{
		ID:         uuid.New(),
		ReviewID:   reviewID,
		AuthorID:   authorID,
		AuthorRole: authorRole,
		Content:    content,
		IsOfficial: authorRole == values.RoleOfficial || authorRole == values.RoleAdmin,
		CreatedAt:  s.clock.Now().UTC(),
	}

	err = s.store.AddReply(ctx, reply)
	switch {
	case errors.Is(err, store.ErrConflict):
		// The review was rejected between our read and the append.
		return model.Reply{}, apperrors.InvalidState("no replies permitted on rejected reviews")
	case errors.Is(err, store.ErrNotFound):
		return model.Reply{}, apperrors.NotFound("review does not exist")
	case err != nil:
		return model.Reply{}, apperrors.Internal("failed to append reply", err)
	}

	metrics.RepliesTotal.Inc()
	return reply, nil
}

// ListReplies returns the review's replies in creation order.
func (s *Service) ListReplies(ctx context.Context, reviewID uuid.UUID) ([]model.Reply, error) {
	replies, err := s.store.ListReplies(ctx, reviewID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("review does not exist")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to list replies", err)
	}
	return replies, nil
}
