// Package moderation owns the review lifecycle: the moderation state machine
// with its flag-threshold auto-escalation, and the append-only reply threads
// attached to reviews.
package moderation

import (
	"context"
	"log"
	"time"

	apperrors "github.com/civicvoice/civicvoice_api/internal/errors"
	"github.com/civicvoice/civicvoice_api/internal/metrics"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/internal/retry"
	"github.com/civicvoice/civicvoice_api/internal/store"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

const (
	conflictMaxAttempts    = 3
	conflictInitialBackoff = 5 * time.Millisecond
)

// transitions lists the admin-reachable states from each state. Terminal
// states (rejected, resolved) have no entries.
var transitions = map[model.ReviewStatus][]model.ReviewStatus{
	model.ReviewPending:  {model.ReviewApproved, model.ReviewFlagged, model.ReviewRejected},
	model.ReviewFlagged:  {model.ReviewApproved, model.ReviewRejected, model.ReviewResolved},
	model.ReviewApproved: {model.ReviewFlagged},
}

func transitionAllowed(from, to model.ReviewStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Service struct {
	store         store.Store
	clock         clockwork.Clock
	flagThreshold int
}

// New builds a moderation service. flagThreshold is the number of flags at
// which a pending or approved review auto-escalates to flagged.
func New(s store.Store, clock clockwork.Clock, flagThreshold int) *Service {
	return &Service{store: s, clock: clock, flagThreshold: flagThreshold}
}

func (s *Service) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    conflictMaxAttempts,
		InitialBackoff: conflictInitialBackoff,
		OnRetry: func(attempt int, err error) {
			log.Printf("moderation mutation conflicted, retrying (attempt %d): %v", attempt, err)
		},
	}
}

func classifyConflict(err error) retry.Action {
	if errors.Is(err, store.ErrConflict) {
		return retry.Retry
	}
	return retry.Stop
}

// CreateReview records a citizen's review of an office. Reviews start pending.
func (s *Service) CreateReview(ctx context.Context, authorID, officeID uuid.UUID, rating int, comment string) (model.Review, error) {
	if rating < 1 || rating > 5 {
		return model.Review{}, apperrors.Validation("rating must be between 1 and 5")
	}

	if _, err := s.store.GetOffice(ctx, officeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Review{}, apperrors.NotFound("office does not exist")
		}
		return model.Review{}, apperrors.Internal("failed to look up office", err)
	}

	now := s.clock.Now().UTC()
	review := model.Review{
		ID:        uuid.New(),
		AuthorID:  authorID,
		OfficeID:  officeID,
		Rating:    rating,
		Comment:   comment,
		Status:    model.ReviewPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return model.Review{}, apperrors.Internal("failed to create review", err)
	}
	return review, nil
}

func (s *Service) GetReview(ctx context.Context, id uuid.UUID) (model.Review, error) {
	review, err := s.store.GetReview(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Review{}, apperrors.NotFound("review does not exist")
	}
	if err != nil {
		return model.Review{}, apperrors.Internal("failed to read review", err)
	}
	return review, nil
}

func (s *Service) ListOfficeReviews(ctx context.Context, officeID uuid.UUID) ([]model.Review, error) {
	reviews, err := s.store.ListOfficeReviews(ctx, officeID)
	if err != nil {
		return nil, apperrors.Internal("failed to list reviews", err)
	}
	return reviews, nil
}

// Transition applies an explicit admin action, moving the review to the
// requested status. Re-applying the current status is a no-op. An invalid
// transition fails with InvalidTransition and leaves the review unchanged.
func (s *Service) Transition(ctx context.Context, reviewID uuid.UUID, to model.ReviewStatus) (model.Review, error) {
	switch to {
	case model.ReviewPending, model.ReviewApproved, model.ReviewFlagged, model.ReviewRejected, model.ReviewResolved:
	default:
		return model.Review{}, apperrors.Validation("unknown review status")
	}

	review, err := retry.Do(ctx, s.retryPolicy(), classifyConflict, func() (model.Review, error) {
		review, err := s.store.GetReview(ctx, reviewID)
		if err != nil {
			return model.Review{}, err
		}

		if review.Status == to {
			// Idempotent: re-applying the current status changes nothing.
			return review, nil
		}
		if !transitionAllowed(review.Status, to) {
			return model.Review{}, apperrors.InvalidTransition(
				"cannot transition review from " + string(review.Status) + " to " + string(to))
		}

		from := review.Status
		review.Status = to
		review.UpdatedAt = s.clock.Now().UTC()
		if err := s.store.UpdateReview(ctx, review, from); err != nil {
			return model.Review{}, err
		}
		metrics.TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
		return review, nil
	})
	if err != nil {
		return model.Review{}, moderationError(err, "failed to update review status")
	}
	return review, nil
}

// Flag records one user's flag on a review. Each user counts at most once;
// repeated flags from the same user are idempotent. When the flag count
// reaches the configured threshold, a pending or approved review escalates to
// flagged automatically.
func (s *Service) Flag(ctx context.Context, reviewID, userID uuid.UUID) (model.Review, error) {
	review, err := retry.Do(ctx, s.retryPolicy(), classifyConflict, func() (model.Review, error) {
		review, err := s.store.GetReview(ctx, reviewID)
		if err != nil {
			return model.Review{}, err
		}

		flagged, err := s.store.HasFlagged(ctx, userID, reviewID)
		if err != nil {
			return model.Review{}, err
		}
		if flagged {
			return review, nil
		}

		from := review.Status
		next := review
		next.FlagCount++
		next.UpdatedAt = s.clock.Now().UTC()

		escalates := next.FlagCount >= s.flagThreshold &&
			(next.Status == model.ReviewPending || next.Status == model.ReviewApproved)
		if escalates {
			next.Status = model.ReviewFlagged
		}

		err = s.store.FlagReview(ctx, userID, next, from, review.FlagCount)
		if errors.Is(err, store.ErrAlreadyFlagged) {
			// Lost a race against our own double-submit; current state wins.
			return s.store.GetReview(ctx, reviewID)
		}
		if err != nil {
			return model.Review{}, err
		}

		metrics.FlagsTotal.Inc()
		if escalates {
			metrics.EscalationsTotal.Inc()
			metrics.TransitionsTotal.WithLabelValues(string(from), string(model.ReviewFlagged)).Inc()
		}
		return next, nil
	})
	if err != nil {
		return model.Review{}, moderationError(err, "failed to flag review")
	}
	return review, nil
}

// moderationError maps store-level failures onto structured error kinds,
// passing through already-structured errors.
func moderationError(err error, message string) error {
	var structured *apperrors.Error
	switch {
	case errors.As(err, &structured):
		return structured
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("review does not exist")
	case errors.Is(err, store.ErrConflict):
		return apperrors.Conflict("review is under concurrent modification, retry")
	default:
		return apperrors.Internal(message, err)
	}
}
