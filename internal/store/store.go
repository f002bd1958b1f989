// Package store defines the persistence boundary of the feedback core: a
// durable keeper of offices, votes, aggregates, daily trend buckets, reviews,
// flags and replies that applies each mutation atomically per target.
package store

import (
	"context"
	"time"

	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrConflict       = errors.New("concurrent modification detected")
	ErrAlreadyFlagged = errors.New("user already flagged this review")
)

// VoteOp is the kind of change a ledger operation makes to the vote row.
type VoteOp int

const (
	OpInsert VoteOp = iota // no prior vote, create one
	OpDelete               // prior vote of the same type, remove it
	OpSwitch               // prior vote of the other type, update it
)

// VoteMutation describes one ledger write. The store applies the vote row
// change, the aggregate delta and the daily bucket delta as a single atomic
// unit, verifying the expected prior state first. A precondition mismatch
// fails with ErrConflict and leaves everything unchanged.
type VoteMutation struct {
	UserID     uuid.UUID
	TargetID   uuid.UUID
	TargetType model.TargetType
	Op         VoteOp
	VoteType   model.VoteType // new type for insert/switch, removed type for delete
	PrevType   model.VoteType // expected existing type, empty for insert
	Delta      model.VoteDelta
	DayKey     string // UTC day bucket receiving the delta
	At         time.Time
}

type Store interface {
	// Offices
	CreateOffice(ctx context.Context, office model.Office) error
	GetOffice(ctx context.Context, id uuid.UUID) (model.Office, error)
	ListOffices(ctx context.Context, category string) ([]model.Office, error)

	// Votes, aggregates, daily buckets
	GetVote(ctx context.Context, userID, targetID uuid.UUID) (model.Vote, error)
	ListVotes(ctx context.Context, targetID uuid.UUID) ([]model.Vote, error)
	GetAggregate(ctx context.Context, targetID uuid.UUID) (model.VoteAggregate, error)
	ApplyVote(ctx context.Context, m VoteMutation) (model.VoteAggregate, error)
	PutAggregate(ctx context.Context, agg model.VoteAggregate) error
	// ListDailyBuckets returns daily buckets between fromKey and toKey
	// inclusive, ascending by key. A nil target sums across all targets.
	ListDailyBuckets(ctx context.Context, target *uuid.UUID, fromKey, toKey string) ([]model.TrendBucket, error)

	// Reviews and flags
	CreateReview(ctx context.Context, review model.Review) error
	GetReview(ctx context.Context, id uuid.UUID) (model.Review, error)
	ListOfficeReviews(ctx context.Context, officeID uuid.UUID) ([]model.Review, error)
	// UpdateReview writes the review if its stored status still matches
	// expectStatus, otherwise fails with ErrConflict.
	UpdateReview(ctx context.Context, review model.Review, expectStatus model.ReviewStatus) error
	// FlagReview records userID's flag and writes the updated review
	// atomically. Fails with ErrAlreadyFlagged if the user flagged before,
	// or ErrConflict if the stored review no longer matches expectStatus
	// and expectFlagCount.
	FlagReview(ctx context.Context, userID uuid.UUID, review model.Review, expectStatus model.ReviewStatus, expectFlagCount int) error
	HasFlagged(ctx context.Context, userID, reviewID uuid.UUID) (bool, error)

	// Replies. AddReply re-checks the review status atomically and fails
	// with ErrConflict if the review was rejected in the meantime.
	AddReply(ctx context.Context, reply model.Reply) error
	ListReplies(ctx context.Context, reviewID uuid.UUID) ([]model.Reply, error)
}
