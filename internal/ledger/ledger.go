// Package ledger owns the one-vote-per-user-per-target invariant, the running
// per-target aggregates and the time-bucketed vote trends. Every mutation is
// applied to the store as one atomic unit; contention on a target surfaces as
// a conflict which the service retries a bounded number of times.
package ledger

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

type Service struct {
	store store.Store
	clock clockwork.Clock
}

func New(s store.Store, clock clockwork.Clock) *Service {
	return &Service{store: s, clock: clock}
}

// retryPolicy returns the bounded retry config for conflicted mutations.
func (s *Service) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    conflictMaxAttempts,
		InitialBackoff: conflictInitialBackoff,
		OnRetry: func(attempt int, err error) {
			metrics.VoteConflictsTotal.Inc()
			log.Printf("vote mutation conflicted, retrying (attempt %d): %v", attempt, err)
		},
	}
}

func classifyConflict(err error) retry.Action {
	if errors.Is(err, store.ErrConflict) {
		return retry.Retry
	}
	return retry.Stop
}

// CastVote applies one vote action for user on target. No existing vote
// creates one; an existing vote of the same type is removed (toggle-off); an
// existing vote of the other type is switched. Returns the updated aggregate.
func (s *Service) CastVote(ctx context.Context, userID, targetID uuid.UUID, targetType model.TargetType, voteType model.VoteType) (model.VoteAggregate, error) {
	if voteType != model.Upvote && voteType != model.Downvote {
		return model.VoteAggregate{}, apperrors.Validation("vote_type must be upvote or downvote")
	}
	if err := s.checkTarget(ctx, targetID, targetType); err != nil {
		return model.VoteAggregate{}, err
	}

	agg, err := retry.Do(ctx, s.retryPolicy(), classifyConflict, func() (model.VoteAggregate, error) {
		now := s.clock.Now().UTC()
		mutation := store.VoteMutation{
			UserID:     userID,
			TargetID:   targetID,
			TargetType: targetType,
			VoteType:   voteType,
			DayKey:     dayKey(now),
			At:         now,
		}

		existing, err := s.store.GetVote(ctx, userID, targetID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			mutation.Op = store.OpInsert
			mutation.Delta = deltaFor(voteType, +1)
		case err != nil:
			return model.VoteAggregate{}, err
		case existing.VoteType == voteType:
			// Same vote again undoes it.
			mutation.Op = store.OpDelete
			mutation.PrevType = existing.VoteType
			mutation.Delta = deltaFor(voteType, -1)
		default:
			mutation.Op = store.OpSwitch
			mutation.PrevType = existing.VoteType
			delta := deltaFor(existing.VoteType, -1)
			delta.Upvotes += deltaFor(voteType, +1).Upvotes
			delta.Downvotes += deltaFor(voteType, +1).Downvotes
			mutation.Delta = delta
		}

		agg, err := s.store.ApplyVote(ctx, mutation)
		if err != nil {
			return model.VoteAggregate{}, err
		}
		metrics.VotesTotal.WithLabelValues(string(targetType), opName(mutation.Op)).Inc()
		return agg, nil
	})
	if err != nil {
		return model.VoteAggregate{}, mutationError(err, "failed to cast vote")
	}
	return agg, nil
}

// RemoveVote deletes the user's vote on target if present and returns the
// updated aggregate. A missing vote is a no-op, not an error.
func (s *Service) RemoveVote(ctx context.Context, userID, targetID uuid.UUID, targetType model.TargetType) (model.VoteAggregate, error) {
	if err := s.checkTarget(ctx, targetID, targetType); err != nil {
		return model.VoteAggregate{}, err
	}

	agg, err := retry.Do(ctx, s.retryPolicy(), classifyConflict, func() (model.VoteAggregate, error) {
		existing, err := s.store.GetVote(ctx, userID, targetID)
		if errors.Is(err, store.ErrNotFound) {
			return s.store.GetAggregate(ctx, targetID)
		}
		if err != nil {
			return model.VoteAggregate{}, err
		}

		now := s.clock.Now().UTC()
		mutation := store.VoteMutation{
			UserID:     userID,
			TargetID:   targetID,
			TargetType: targetType,
			Op:         store.OpDelete,
			VoteType:   existing.VoteType,
			PrevType:   existing.VoteType,
			Delta:      deltaFor(existing.VoteType, -1),
			DayKey:     dayKey(now),
			At:         now,
		}

		agg, err := s.store.ApplyVote(ctx, mutation)
		if err != nil {
			return model.VoteAggregate{}, err
		}
		metrics.VotesTotal.WithLabelValues(string(targetType), "remove").Inc()
		return agg, nil
	})
	if err != nil {
		return model.VoteAggregate{}, mutationError(err, "failed to remove vote")
	}
	return agg, nil
}

// GetVote is a read-only lookup of the user's vote on target.
func (s *Service) GetVote(ctx context.Context, userID, targetID uuid.UUID) (model.Vote, error) {
	vote, err := s.store.GetVote(ctx, userID, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Vote{}, apperrors.NotFound("no vote for this target")
	}
	if err != nil {
		return model.Vote{}, apperrors.Internal("failed to read vote", err)
	}
	return vote, nil
}

// Aggregate returns the current counts for target.
func (s *Service) Aggregate(ctx context.Context, targetID uuid.UUID) (model.VoteAggregate, error) {
	agg, err := s.store.GetAggregate(ctx, targetID)
	if err != nil {
		return model.VoteAggregate{}, apperrors.Internal("failed to read aggregate", err)
	}
	return agg, nil
}

// checkTarget verifies the vote target exists.
func (s *Service) checkTarget(ctx context.Context, targetID uuid.UUID, targetType model.TargetType) error {
	var err error
	switch targetType {
	case model.TargetOffice:
		_, err = s.store.GetOffice(ctx, targetID)
	case model.TargetReview:
		_, err = s.store.GetReview(ctx, targetID)
	default:
		return apperrors.Validation("target_type must be office or review")
	}

	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("target does not exist")
	}
	if err != nil {
		return apperrors.Internal("failed to look up target", err)
	}
	return nil
}

func deltaFor(voteType model.VoteType, sign int) model.VoteDelta {
	if voteType == model.Upvote {
		return model.VoteDelta{Upvotes: sign}
	}
	return model.VoteDelta{Downvotes: sign}
}

func opName(op store.VoteOp) string {
	switch op {
	case store.OpInsert:
		return "cast"
	case store.OpDelete:
		return "undo"
	case store.OpSwitch:
		return "switch"
	}
	return "unknown"
}

// mutationError maps store-level failures onto structured error kinds.
func mutationError(err error, message string) error {
	switch {
	case errors.Is(err, store.ErrConflict):
		return apperrors.Conflict("target is under concurrent modification, retry")
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("target does not exist")
	default:
		return apperrors.Internal(message, err)
	}
}
