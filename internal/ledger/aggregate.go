package ledger

import (
	"context"

	apperrors "github.com/civicvoice/civicvoice_api/internal/errors"
	"github.com/civicvoice/civicvoice_api/internal/metrics"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/google/uuid"
)

// Reconcile recomputes the aggregate for target from the vote rows and writes
// it back, repairing any drift between the derived counts and the source of
// truth. Returns the rebuilt aggregate.
func (s *Service) Reconcile(ctx context.Context, targetID uuid.UUID) (model.VoteAggregate, error) {
	votes, err := s.store.ListVotes(ctx, targetID)
	if err != nil {
		return model.VoteAggregate{}, apperrors.Internal("failed to list votes for reconciliation", err)
	}

	agg := model.VoteAggregate{TargetID: targetID}
	for _, vote := range votes {
		switch vote.VoteType {
		case model.Upvote:
			agg.Upvotes++
		case model.Downvote:
			agg.Downvotes++
		}
	}
	agg.Total = agg.Upvotes + agg.Downvotes
	agg.Ratio = model.Ratio(agg.Upvotes, agg.Total)

	if err := s.store.PutAggregate(ctx, agg); err != nil {
		return model.VoteAggregate{}, apperrors.Internal("failed to store reconciled aggregate", err)
	}
	metrics.ReconciliationsTotal.Inc()
	return agg, nil
}
